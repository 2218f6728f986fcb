// Package database handles database connections and schema inspection.
//
// It wraps GORM and configures the dialector for the configured driver: MySQL (default),
// PostgreSQL (pgx) or SQLite. Connections are opened with TranslateError enabled so
// unique-key violations surface as gorm.ErrDuplicatedKey, which the idempotency ledger
// relies on.
//
// # Schema Inspection
//
// GetTableColumns returns the column definitions of a table. The readiness probe uses it
// to verify that the pipeline tables carry the columns the sync job writes.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	columns, err := database.GetTableColumns(db, "games")
package database

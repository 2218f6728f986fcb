package checks

import (
	"errors"
	"testing"

	"sports-pipeline/core/database"
	"sports-pipeline/core/ledger"
	"sports-pipeline/core/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestCheckSchema_NilDB(t *testing.T) {
	report, err := CheckSchema(nil, &store.Game{})
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestCheckSchema_MigratedSQLite(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))

	report, err := CheckSchema(db, &store.Game{}, &store.SyncRun{}, &ledger.IdempotencyRecord{})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", report.Dialect)
	assert.True(t, report.Matched)
	assert.Empty(t, report.Errors)
	for _, table := range []string{"games", "sync_runs", "idempotency_records"} {
		assert.Equal(t, "ok", report.Tables[table].Status, table)
		assert.Empty(t, report.Tables[table].MissingColumns, table)
	}
}

func TestCheckSchema_MissingTable(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&store.Game{}))

	report, err := CheckSchema(db, &store.Game{}, &ledger.IdempotencyRecord{})
	require.NoError(t, err)
	assert.False(t, report.Matched)
	assert.Equal(t, "ok", report.Tables["games"].Status)

	tbl := report.Tables["idempotency_records"]
	assert.Equal(t, "error", tbl.Status)
	assert.Equal(t, []string{"provider", "external_id", "sequence", "outcome", "applied_at"}, tbl.MissingColumns)
}

func TestCheckSchema_MySQLMissingColumns(t *testing.T) {
	db, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
	rows.AddRow("provider", "varchar(64)", "NO", "PRI", nil, "")
	rows.AddRow("external_id", "varchar(128)", "NO", "PRI", nil, "")
	rows.AddRow("sequence", "bigint", "NO", "PRI", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `idempotency_records`").WillReturnRows(rows)

	report, err := CheckSchema(db, &ledger.IdempotencyRecord{})
	require.NoError(t, err)
	assert.Equal(t, "mysql", report.Dialect)
	assert.False(t, report.Matched)

	tbl, ok := report.Tables["idempotency_records"]
	require.True(t, ok)
	assert.Equal(t, "error", tbl.Status)
	assert.Equal(t, []string{"outcome", "applied_at"}, tbl.MissingColumns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckSchema_InspectError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SHOW COLUMNS FROM `sync_runs`").WillReturnError(errors.New("access denied"))

	report, err := CheckSchema(db, &store.SyncRun{})
	require.NoError(t, err)
	assert.False(t, report.Matched)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "sync_runs")
	assert.NotContains(t, report.Tables, "sync_runs")
}

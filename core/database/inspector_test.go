package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	assert.NoError(t, err)
	assert.NotNil(t, db)

	err = db.Exec("CREATE TABLE test_games (id TEXT PRIMARY KEY, home_team TEXT, last_sequence INTEGER)").Error
	assert.NoError(t, err)

	columns, err := GetTableColumns(db, "test_games")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}

	assert.Equal(t, "text", colMap["id"])
	assert.Equal(t, "text", colMap["home_team"])
	assert.Equal(t, "integer", colMap["last_sequence"])

	// PRAGMA table_info returns an empty result for a non-existent table.
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	assert.NoError(t, err)

	err = db.Exec("CREATE TABLE ledger (provider TEXT, external_id TEXT)").Error
	assert.NoError(t, err)

	missing, err := MissingColumns(db, "ledger", []string{"provider", "External_ID", "sequence"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"sequence"}, missing)

	missing, err = MissingColumns(db, "absent", []string{"id"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"id"}, missing)
}

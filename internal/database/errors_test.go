package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintClassifiersOnSqlite(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE categories (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE)`,
		`CREATE TABLE products (id INTEGER PRIMARY KEY, category_id INTEGER NOT NULL REFERENCES categories (id))`,
		`INSERT INTO categories (id, name) VALUES (1, 'Mains')`,
		`INSERT INTO products (id, category_id) VALUES (1, 1)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	_, err = db.Exec(`INSERT INTO categories (name) VALUES ('Mains')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))

	_, err = db.Exec(`DELETE FROM categories WHERE id = 1`)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("delete category: %w", err)))
	assert.False(t, IsUniqueViolation(err))
}

func TestConstraintClassifiersOnMySQL(t *testing.T) {
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsForeignKeyViolation(&mysql.MySQLError{Number: 1451}))
	assert.True(t, IsForeignKeyViolation(&mysql.MySQLError{Number: 1452}))
	assert.False(t, IsForeignKeyViolation(&mysql.MySQLError{Number: 1062}))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsForeignKeyViolation(errors.New("connection reset")))
	assert.True(t, IsNoRows(fmt.Errorf("load: %w", sql.ErrNoRows)))
}

package database

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlNoReferencedRow  = 1452
)

// The sqlite extended codes are variables in go-sqlite3.
var (
	sqliteUniqueExtended     = sqlite3.ErrConstraintUnique
	sqliteForeignKeyExtended = sqlite3.ErrConstraintForeignKey
)

// IsUniqueViolation reports whether err was raised by a unique index on any supported driver.
func IsUniqueViolation(err error) bool {
	return matches(err, pgUniqueViolation, []uint16{mysqlDuplicateEntry}, sqliteUniqueExtended)
}

// IsForeignKeyViolation reports whether err was raised by a foreign key
// constraint, either a delete of a referenced row or a write naming a missing one.
func IsForeignKeyViolation(err error) bool {
	return matches(err, pgForeignKeyViolation, []uint16{mysqlRowIsReferenced, mysqlNoReferencedRow}, sqliteForeignKeyExtended)
}

func matches(err error, pgCode string, mysqlNumbers []uint16, liteCode sqlite3.ErrNoExtended) bool {
	if err == nil {
		return false
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgCode
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		for _, n := range mysqlNumbers {
			if myErr.Number == n {
				return true
			}
		}
		return false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == liteCode
	}

	return false
}

// IsNoRows reports whether err means a single-row query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

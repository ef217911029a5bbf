// Package migrations embeds the goose SQL migrations shipped with the binary,
// one directory per goose dialect.
package migrations

import (
	"embed"
	"path"
)

//go:embed sql
var FS embed.FS

// Dir is the embedded directory holding the migrations for a goose dialect
// (postgres, mysql or sqlite3).
func Dir(dialect string) string {
	return path.Join("sql", dialect)
}

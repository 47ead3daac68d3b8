// Package db carries the database schema applied by cmd/migrate.
package db

import (
	_ "embed"
	"strings"
)

//go:embed schema.sql
var schema string

// Statements splits the schema into individual statements in file order.
func Statements() []string {
	var out []string
	for _, stmt := range strings.Split(schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

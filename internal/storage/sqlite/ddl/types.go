// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import "strings"

// MapType maps a logical column kind into a SQLite type affinity:
//   - integer-ish and boolean -> INTEGER
//   - float                   -> REAL
//   - date/time               -> TEXT (ISO-8601)
//   - others                  -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "smallint", "int", "integer", "bigint":
		return "INTEGER"
	case "bool", "boolean":
		return "INTEGER"
	case "float", "double", "real":
		return "REAL"
	default:
		return "TEXT"
	}
}

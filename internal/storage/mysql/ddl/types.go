// Package ddl contains MySQL helpers for creating and clearing the warehouse
// tables.
package ddl

import "strings"

// MapType maps a logical column kind into a MySQL column type. Unknown kinds
// fall back to LONGTEXT.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "smallint":
		return "SMALLINT"
	case "int", "integer", "bigint":
		return "BIGINT"
	case "float", "double":
		return "DOUBLE"
	case "bool", "boolean":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "timestamp", "datetime":
		return "DATETIME(6)"
	default:
		return "LONGTEXT"
	}
}

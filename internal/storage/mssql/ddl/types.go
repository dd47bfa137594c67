// Package ddl contains SQL Server helpers for creating and clearing the
// warehouse tables.
package ddl

import "strings"

// MapType maps a logical column kind into a SQL Server column type.
// Unknown or empty kinds fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "smallint":
		return "SMALLINT"
	case "int", "integer", "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "BIT"
	case "date":
		return "DATE"
	case "timestamp", "datetime":
		return "DATETIME2"
	case "float", "double":
		return "FLOAT"
	default:
		return "NVARCHAR(MAX)"
	}
}

package ddl

import "strings"

// Logical column kinds shared by every warehouse table. Backends translate
// them with their own MapType.
const (
	KindInt       = "int"
	KindSmallInt  = "smallint"
	KindFloat     = "float"
	KindString    = "string"
	KindDate      = "date"
	KindTimestamp = "timestamp"
	KindBool      = "bool"
)

// Column is a backend-neutral column of a warehouse table. PrimaryKey
// columns form the table's key, in declaration order.
type Column struct {
	Name       string
	Kind       string
	Nullable   bool
	PrimaryKey bool
}

// ColumnDef describes a single rendered column.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., NVARCHAR(MAX), BIGINT, DATE)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the dotted table name (e.g., "dbo.dim_time") and its
// ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Resolve turns logical columns into a TableDef using a backend's type map.
func Resolve(fqn string, cols []Column, mapType func(kind string) string) TableDef {
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(cols))}
	for _, c := range cols {
		def.Columns = append(def.Columns, ColumnDef{
			Name:       c.Name,
			SQLType:    mapType(c.Kind),
			Nullable:   c.Nullable,
			PrimaryKey: c.PrimaryKey,
		})
	}
	return def
}

// Names returns the column names in order.
func Names(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// QuoteFQN quotes each non-empty dotted segment of fqn with quote.
//
//	"dbo.Users" -> [dbo].[Users]  (SQL Server quoting)
//	"Users"     -> "Users"        (ANSI quoting)
func QuoteFQN(fqn string, quote func(string) string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}

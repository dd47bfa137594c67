// Package ddl defines a small, backend-agnostic model for the warehouse
// tables and renders CREATE TABLE statements from it.
//
// Backend packages (internal/storage/<kind>/ddl) supply a Dialect: their
// identifier quoting and whether the engine understands IF NOT EXISTS.
// Engines without it (SQL Server) wrap the rendered statement in their own
// guard.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures the rendering differences between backends.
type Dialect struct {
	// Name prefixes error messages, e.g. "mssql ddl".
	Name string
	// QuoteIdent quotes a single identifier segment. Nil emits names as-is.
	QuoteIdent func(string) string
	// IfNotExists renders CREATE TABLE IF NOT EXISTS.
	IfNotExists bool
}

// BuildCreateTableSQL renders a CREATE TABLE statement from t in dialect d.
// The zero Dialect renders unquoted identifiers with no existence guard.
//
// A column is rendered as:
//
//	<Name> <SQLType> [NOT NULL]
//
// Columns with PrimaryKey == true are collected into a trailing
// PRIMARY KEY (...) clause.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	name := d.Name
	if name == "" {
		name = "ddl"
	}
	quote := d.QuoteIdent
	if quote == nil {
		quote = func(s string) string { return s }
	}

	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		col := strings.TrimSpace(c.Name)
		if col == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", name, col)
		}

		var sb strings.Builder
		sb.WriteString(quote(col))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quote(col))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	create := "CREATE TABLE "
	if d.IfNotExists {
		create += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n);", create, QuoteFQN(fqn, quote), strings.Join(cols, ",\n  ")), nil
}

package ddl

import (
	"strings"

	gddl "github.com/obenchekro/namkin-data-migration/internal/ddl"
)

// Dialect renders double-quoted identifiers with IF NOT EXISTS. Dotted names
// ("main.dim_time") are quoted per segment.
var Dialect = gddl.Dialect{Name: "sqlite ddl", QuoteIdent: quoteIdent, IfNotExists: true}

// BuildCreateTableSQL returns a SQLite CREATE TABLE IF NOT EXISTS statement.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, Dialect)
}

// ClearTableSQL empties fqn. SQLite has no TRUNCATE.
func ClearTableSQL(fqn string) string {
	return "DELETE FROM " + gddl.QuoteFQN(fqn, quoteIdent) + ";"
}

func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

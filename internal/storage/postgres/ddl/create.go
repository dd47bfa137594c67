package ddl

import (
	"strings"

	gddl "github.com/obenchekro/namkin-data-migration/internal/ddl"
)

// Dialect renders double-quoted identifiers with IF NOT EXISTS.
var Dialect = gddl.Dialect{Name: "postgres ddl", QuoteIdent: quoteIdent, IfNotExists: true}

// BuildCreateTableSQL returns a Postgres CREATE TABLE IF NOT EXISTS statement.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, Dialect)
}

// ClearTableSQL empties fqn.
func ClearTableSQL(fqn string) string {
	return "TRUNCATE TABLE " + gddl.QuoteFQN(fqn, quoteIdent) + ";"
}

func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

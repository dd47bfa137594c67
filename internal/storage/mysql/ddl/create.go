package ddl

import (
	"context"
	"strings"

	gddl "github.com/obenchekro/namkin-data-migration/internal/ddl"
	"github.com/obenchekro/namkin-data-migration/internal/storage"
)

// Dialect renders backtick-quoted identifiers with IF NOT EXISTS.
var Dialect = gddl.Dialect{Name: "mysql ddl", QuoteIdent: quoteIdent, IfNotExists: true}

// BuildCreateTableSQL returns a MySQL CREATE TABLE IF NOT EXISTS statement.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, Dialect)
}

// ClearTableSQL empties fqn.
func ClearTableSQL(fqn string) string {
	return "TRUNCATE TABLE " + gddl.QuoteFQN(fqn, quoteIdent) + ";"
}

// EnsureTable creates the target MySQL table if it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, fqn string, cols []gddl.Column) error {
	sql, err := BuildCreateTableSQL(gddl.Resolve(fqn, cols, MapType))
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}

func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

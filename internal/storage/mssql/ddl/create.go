package ddl

import (
	"fmt"
	"strings"

	gddl "github.com/obenchekro/namkin-data-migration/internal/ddl"
)

// Dialect renders bracket-quoted identifiers. T-SQL has no
// CREATE TABLE IF NOT EXISTS; BuildCreateTableSQL adds its own guard.
var Dialect = gddl.Dialect{Name: "mssql ddl", QuoteIdent: quoteIdent}

// BuildCreateTableSQL returns a T-SQL script that creates t if it does not
// already exist:
//
//	IF OBJECT_ID(N'[dbo].[dim_time]', N'U') IS NULL
//	BEGIN
//	CREATE TABLE [dbo].[dim_time] (
//	  [timeId] BIGINT NOT NULL,
//	  ...
//	);
//	END;
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	create, err := gddl.BuildCreateTableSQL(t, Dialect)
	if err != nil {
		return "", err
	}
	fqn := quoteFQN(t.FQN)
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n%s\nEND;", strings.ReplaceAll(fqn, "'", "''"), create), nil
}

// ClearTableSQL empties fqn.
func ClearTableSQL(fqn string) string {
	return "DELETE FROM " + quoteFQN(fqn) + ";"
}

// quoteIdent wraps id in brackets, escaping any closing bracket.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func quoteFQN(fqn string) string { return gddl.QuoteFQN(fqn, quoteIdent) }

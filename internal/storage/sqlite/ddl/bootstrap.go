package ddl

import (
	"context"

	gddl "github.com/obenchekro/namkin-data-migration/internal/ddl"
	"github.com/obenchekro/namkin-data-migration/internal/storage"
)

// EnsureTable creates the target SQLite table if it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, fqn string, cols []gddl.Column) error {
	sql, err := BuildCreateTableSQL(gddl.Resolve(fqn, cols, MapType))
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}

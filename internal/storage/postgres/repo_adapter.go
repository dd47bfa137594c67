package postgres

import (
	"context"

	"github.com/obenchekro/namkin-data-migration/internal/storage"
	pgddl "github.com/obenchekro/namkin-data-migration/internal/storage/postgres/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo implements storage.Repository by delegating to the concrete
// *postgres.Repository while providing Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// init registers the "postgres" backend and its DDL helpers so callers stay
// backend-agnostic:
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn})
//	sink, err := storage.NewTableSink(repo, storage.SinkConfig{Kind: "postgres", AutoCreate: true})
func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:            cfg.DSN,
			ConnectTimeout: cfg.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("postgres", storage.DDL{
		EnsureTable:   pgddl.EnsureTable,
		ClearTableSQL: pgddl.ClearTableSQL,
	})
}

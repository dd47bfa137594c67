// Package all wires all built-in storage backends into the storage factory.
//
// Importing it for side effects registers the repository factories and DDL
// helpers of every backend:
//
//   - "mssql"    (SQL Server, bulk copy)
//   - "postgres" (pgx COPY)
//   - "sqlite"   (modernc, local runs)
//   - "mysql"    (multi-row INSERT)
//
// Typical usage in a command's wiring layer:
//
//	import _ "github.com/obenchekro/namkin-data-migration/internal/storage/all"
//
//	repo, err := storage.OpenWithRetry(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: dsn}, storage.DefaultRetryPolicy)
package all

import (
	_ "github.com/obenchekro/namkin-data-migration/internal/storage/mssql"
	_ "github.com/obenchekro/namkin-data-migration/internal/storage/mysql"
	_ "github.com/obenchekro/namkin-data-migration/internal/storage/postgres"
	_ "github.com/obenchekro/namkin-data-migration/internal/storage/sqlite"
)

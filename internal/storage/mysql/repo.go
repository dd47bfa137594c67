// Package mysql implements a MySQL-backed storage.Repository. Batches are
// written as multi-row INSERT statements built with squirrel.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
)

// maxPlaceholders stays under the server's 65535 prepared-statement limit.
const maxPlaceholders = 60000

// Config holds MySQL repository configuration.
type Config struct {
	// DSN uses the driver's format: "user:pass@tcp(host:3306)/namkin".
	DSN            string
	ConnectTimeout time.Duration
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens and pings a pool and returns a Close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mcfg, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	mcfg.ParseTime = true
	if cfg.ConnectTimeout > 0 {
		mcfg.Timeout = cfg.ConnectTimeout
	}
	connector, err := mysql.NewConnector(mcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// CopyFrom inserts rows into table in one transaction, splitting the batch
// into as few INSERT statements as the placeholder limit allows.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	stmts, err := buildInserts(table, columns, rows)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	var total int64
	for _, s := range stmts {
		res, err := tx.ExecContext(ctx, s.sql, s.args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert into %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

type insertStmt struct {
	sql  string
	args []any
}

func buildInserts(table string, columns []string, rows [][]any) ([]insertStmt, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("mysql: columns must not be empty")
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	per := maxPlaceholders / len(columns)
	if per < 1 {
		per = 1
	}

	var out []insertStmt
	for start := 0; start < len(rows); start += per {
		end := start + per
		if end > len(rows) {
			end = len(rows)
		}
		q := sq.Insert(quoteFQN(table)).Columns(quoted...)
		for _, row := range rows[start:end] {
			if len(row) != len(columns) {
				return nil, fmt.Errorf("mysql: row length %d != columns length %d", len(row), len(columns))
			}
			q = q.Values(row...)
		}
		sqlText, args, err := q.ToSql()
		if err != nil {
			return nil, fmt.Errorf("mysql: build insert: %w", err)
		}
		out = append(out, insertStmt{sql: sqlText, args: args})
	}
	return out, nil
}

func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

func quoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(strings.TrimSpace(p))
	}
	return strings.Join(parts, ".")
}

// Package storage holds the backend-agnostic write path of the warehouse:
// the Repository contract, the backend factory, batched loading and the
// TableSink that persists one relation per call.
//
// Concrete backends (mssql, postgres, sqlite, mysql) live in subpackages and
// register themselves from init; import internal/storage/all to enable every
// built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Repository is a connection to one relational store.
type Repository interface {
	// CopyFrom bulk-inserts rows (aligned to columns) into table, a dotted
	// name such as "dbo.dim_time". It returns the number of rows inserted.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	// Close releases the underlying pool.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name: "mssql", "postgres", "sqlite", "mysql".
	Kind string
	// DSN is passed to the backend driver.
	DSN string
	// ConnectTimeout bounds the initial ping; zero means the backend default.
	ConnectTimeout time.Duration
}

// Factory opens a Repository for a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, unsupportedKind(cfg.Kind)
	}
	return f(ctx, cfg)
}

func unsupportedKind(kind string) error {
	return fmt.Errorf("unsupported storage.kind=%s (registered: %s)", kind, strings.Join(ListKinds(), ", "))
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

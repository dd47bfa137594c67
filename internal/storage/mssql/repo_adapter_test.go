package mssql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/obenchekro/namkin-data-migration/internal/storage"
)

// These tests swap the package-level hook and must not run in parallel.

func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	t.Cleanup(func() { newRepository = orig })

	var (
		gotCfg Config
		closed bool
	)
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind:           "mssql",
		DSN:            "sqlserver://sa:pw@localhost:1433?database=namkin",
		ConnectTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if gotCfg.DSN != "sqlserver://sa:pw@localhost:1433?database=namkin" || gotCfg.ConnectTimeout != 3*time.Second {
		t.Fatalf("hook cfg = %+v", gotCfg)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close did not call the close function")
	}
}

func TestRegistrationPropagatesErrors(t *testing.T) {
	orig := newRepository
	t.Cleanup(func() { newRepository = orig })

	want := errors.New("login failed")
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		return nil, nil, want
	}
	if _, err := storage.New(context.Background(), storage.Config{Kind: "mssql"}); !errors.Is(err, want) {
		t.Fatalf("want %v, got %v", want, err)
	}
}

func TestNewRepositoryRejectsBadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "sqlserver://host?connection+timeout=abc"}); err == nil {
		t.Fatalf("expected DSN parse error")
	}
}

func TestQuoting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"dim_time", "[dim_time]"},
		{"dbo.fact_sales", "[dbo].[fact_sales]"},
		{"odd]name", "[odd]]name]"},
	}
	for _, tt := range tests {
		if got := msFQN(tt.in); got != tt.want {
			t.Errorf("msFQN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToCopyRow(t *testing.T) {
	t.Parallel()

	got := toCopyRow([]any{true, false, nil, "x", int64(3)})
	want := []any{int64(1), int64(0), nil, "x", int64(3)}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cell %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

package storage

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

type copyCall struct {
	table   string
	columns []string
	rows    int
}

// fakeRepo records every statement and copy it receives.
type fakeRepo struct {
	mu      sync.Mutex
	execs   []string
	copies  []copyCall
	copyErr error
	execErr error
	closed  bool
}

func (f *fakeRepo) CopyFrom(_ context.Context, table string, columns []string, rows [][]any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.copies = append(f.copies, copyCall{table: table, columns: columns, rows: len(rows)})
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(_ context.Context, sql string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.execErr != nil {
		return f.execErr
	}
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeRepo) Close() { f.closed = true }

// TestRegisterAndNew_Success verifies that registering a backend enables New()
// to return the corresponding repository.
func TestRegisterAndNew_Success(t *testing.T) {
	t.Parallel()

	kind := "fake"
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{}, nil
	})

	repo, err := New(context.Background(), Config{Kind: kind})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if repo == nil {
		t.Fatalf("New returned nil repo")
	}

	found := false
	for _, k := range ListKinds() {
		if k == kind {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("registered kind %q not present in ListKinds", kind)
	}
}

func TestNew_Unsupported(t *testing.T) {
	t.Parallel()

	Register("unsupported-test-kind", func(context.Context, Config) (Repository, error) { return &fakeRepo{}, nil })

	_, err := New(context.Background(), Config{Kind: "does-not-exist"})
	if err == nil {
		t.Fatalf("expected error for unsupported kind")
	}
	got := err.Error()
	if !strings.HasPrefix(got, "unsupported storage.kind=does-not-exist (registered: ") ||
		!strings.Contains(got, "unsupported-test-kind") {
		t.Fatalf("error = %q, want the kind and the registered kinds", got)
	}
}

// TestRegister_Override verifies that re-registering a kind replaces the
// previous factory.
func TestRegister_Override(t *testing.T) {
	t.Parallel()

	kind := "override"
	calls := 0
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		calls++
		return &fakeRepo{}, nil
	})
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		calls += 10
		return &fakeRepo{}, nil
	})

	if _, err := New(context.Background(), Config{Kind: kind}); err != nil {
		t.Fatalf("New error: %v", err)
	}
	if calls != 10 {
		t.Fatalf("factory call count = %d, want 10", calls)
	}
}

// TestListKinds_Snapshot checks that callers cannot mutate the registry
// through the returned slice.
func TestListKinds_Snapshot(t *testing.T) {
	t.Parallel()

	Register("snap", func(ctx context.Context, cfg Config) (Repository, error) { return &fakeRepo{}, nil })

	a := ListKinds()
	if len(a) == 0 {
		t.Fatalf("ListKinds empty after registration")
	}
	a[0] = "mutated"

	if b := ListKinds(); reflect.DeepEqual(a, b) {
		t.Fatalf("ListKinds returned same slice; want snapshot copy")
	}
}

func TestRegister_AllowsErrors(t *testing.T) {
	t.Parallel()

	want := errors.New("boom")
	Register("errkind", func(ctx context.Context, cfg Config) (Repository, error) {
		return nil, want
	})

	if _, err := New(context.Background(), Config{Kind: "errkind"}); !errors.Is(err, want) {
		t.Fatalf("want %v, got %v", want, err)
	}
}

func TestLookupDDL(t *testing.T) {
	t.Parallel()

	RegisterDDL("ddl-fake", DDL{ClearTableSQL: func(fqn string) string { return "TRUNCATE " + fqn }})

	d, err := LookupDDL("ddl-fake")
	if err != nil {
		t.Fatalf("LookupDDL: %v", err)
	}
	if got := d.ClearTableSQL("dim_time"); got != "TRUNCATE dim_time" {
		t.Fatalf("ClearTableSQL = %q", got)
	}
	if _, err := LookupDDL("ddl-missing"); err == nil {
		t.Fatalf("expected error for unregistered kind")
	}
}

func TestOpenWithRetry(t *testing.T) {
	t.Parallel()

	attempts := 0
	Register("flaky", func(ctx context.Context, cfg Config) (Repository, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return &fakeRepo{}, nil
	})

	p := RetryPolicy{InitialInterval: 1e6, MaxInterval: 2e6, MaxElapsed: 5e9}
	repo, err := OpenWithRetry(context.Background(), Config{Kind: "flaky"}, p)
	if err != nil {
		t.Fatalf("OpenWithRetry: %v", err)
	}
	if repo == nil || attempts != 3 {
		t.Fatalf("repo=%v attempts=%d, want 3 attempts", repo, attempts)
	}

	if _, err := OpenWithRetry(context.Background(), Config{Kind: "never-registered"}, p); err == nil {
		t.Fatalf("expected error for unsupported kind")
	}
}

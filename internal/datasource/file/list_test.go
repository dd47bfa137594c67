package file

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestListDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"machine_b.csv", "machine_a.CSV", "notes.txt", ".hidden.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	got, err := ListDir(dir, "*.csv")
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	names := make([]string, len(got))
	for i, l := range got {
		names[i] = filepath.Base(l.Name())
	}
	if diff := cmp.Diff([]string{"machine_a.CSV", "machine_b.csv"}, names); diff != "" {
		t.Fatalf("ListDir mismatch (-want +got):\n%s", diff)
	}
}

func TestListDir_Empty(t *testing.T) {
	t.Parallel()

	got, err := ListDir(t.TempDir(), "*.csv")
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no files, got %d", len(got))
	}
}

func TestListDir_Errors(t *testing.T) {
	t.Parallel()

	if _, err := ListDir(filepath.Join(t.TempDir(), "missing"), "*.csv"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing dir: err = %v", err)
	}
	if _, err := ListDir(t.TempDir(), "["); err != nil {
		t.Fatalf("bad pattern on empty dir should not be evaluated: %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ListDir(dir, "["); !errors.Is(err, filepath.ErrBadPattern) {
		t.Fatalf("bad pattern: err = %v", err)
	}
}

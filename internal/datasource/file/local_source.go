// Package file implements local filesystem data sources: single files and
// directories of machine exports.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/obenchekro/namkin-data-migration/internal/datasource"
)

// Local is a filesystem data source that opens one file from the local disk.
type Local struct{ path string }

var _ datasource.Source = (*Local)(nil)

// NewLocal returns a Local data source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the configured path.
func (l *Local) Name() string { return l.path }

// Open opens the configured path for reading. A context that is already done
// short-circuits without touching the filesystem. Filesystem errors are
// wrapped with the path and keep errors.Is(err, os.ErrNotExist) working.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// ListDir returns one Local per regular file in dir whose name matches
// pattern (filepath.Match syntax, case-insensitive), ordered by file name.
// Hidden files are skipped. A missing or empty match set is not an error.
func ListDir(dir, pattern string) ([]*Local, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	pattern = strings.ToLower(pattern)

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		ok, err := filepath.Match(pattern, strings.ToLower(name))
		if err != nil {
			return nil, fmt.Errorf("list %s: pattern %q: %w", dir, pattern, err)
		}
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]*Local, len(names))
	for i, n := range names {
		out[i] = NewLocal(filepath.Join(dir, n))
	}
	return out, nil
}

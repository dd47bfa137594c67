package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/obenchekro/namkin-data-migration/internal/ddl"
)

// DDL is a backend's table management: creating a warehouse table when it is
// missing and emptying it before an overwrite.
type DDL struct {
	// EnsureTable creates fqn with cols if it does not already exist.
	EnsureTable func(ctx context.Context, repo Repository, fqn string, cols []ddl.Column) error
	// ClearTableSQL returns the statement that removes every row of fqn.
	ClearTableSQL func(fqn string) string
}

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDL{}
)

// RegisterDDL registers (or replaces) the DDL helpers of a storage kind. It
// is called from backend packages' init functions.
func RegisterDDL(kind string, d DDL) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = d
}

// LookupDDL returns the DDL helpers registered for kind.
func LookupDDL(kind string) (DDL, error) {
	ddlMu.RLock()
	d, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return DDL{}, fmt.Errorf("no DDL registered for storage.kind=%q", kind)
	}
	return d, nil
}

// Package datasource abstracts where raw input bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens one raw input. Name identifies it in logs and errors.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

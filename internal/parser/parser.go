// Package parser defines the row-stream contract shared by the raw input
// formats. Implementations live in subpackages (csv, xlsx).
package parser

import (
	"context"
	"io"

	"github.com/obenchekro/namkin-data-migration/pkg/records"
)

// ErrorFunc receives soft, per-row failures. line is 1-based and counts the
// header row.
type ErrorFunc func(line int, err error)

// Parser decodes r into records keyed by records.Key(header) and sends them
// to out. Per-row problems go to onError and the stream continues; a
// returned error is fatal for the input. Parse never closes out.
type Parser interface {
	Parse(ctx context.Context, r io.Reader, out chan<- records.Record, onError ErrorFunc) error
}

// Package csv streams delimited machine-event files into records.
//
// Parse emits rows line by line without buffering the file. Headers are
// folded with records.Key so "partId", " PartId" and a BOM-prefixed first
// cell all address the same column.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/obenchekro/namkin-data-migration/internal/parser"
	"github.com/obenchekro/namkin-data-migration/pkg/records"
)

// Options configures the CSV parser. The zero value reads comma-separated
// input with a header row.
type Options struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// NoHeader treats the first row as data; columns are named col_0..col_n.
	NoHeader bool

	// ExpectedFields, when > 0 and there is no header, fixes the row width.
	ExpectedFields int

	// KeepSpace disables trimming of field values.
	KeepSpace bool

	// HeaderMap renames source headers, e.g. {"meterials": "materials"}.
	// Keys match case- and accent-insensitively.
	HeaderMap map[string]string
}

// Parser parses delimited input according to Options. It holds no state
// between calls and is safe for concurrent use.
type Parser struct{ opt Options }

var _ parser.Parser = (*Parser)(nil)

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads r and sends one record per data row to out.
//
// Behavior:
//   - Row width is enforced against the header (or ExpectedFields).
//   - Per-row errors are soft: they are reported via onError(line, err) and
//     the stream continues.
//   - Empty cells are stored as nil so records.Record.String reports them
//     as absent.
//
// Returns nil on EOF, the context error on cancellation, or a fatal error
// when the header cannot be read.
func (p *Parser) Parse(ctx context.Context, r io.Reader, out chan<- records.Record, onError parser.ErrorFunc) error {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is enforced after reading so a ragged row is a soft error.
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var headers []string
	if p.opt.NoHeader {
		if p.opt.ExpectedFields <= 0 {
			return fmt.Errorf("csv: ExpectedFields must be > 0 without a header")
		}
		headers = make([]string, p.opt.ExpectedFields)
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i)
		}
	} else {
		h, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("read csv header: empty input")
			}
			return fmt.Errorf("read csv header: %w", err)
		}
		headers = normalizeHeaders(h, p.opt.HeaderMap)
	}
	expected := len(headers)

	line := 0
	if !p.opt.NoHeader {
		line = 1
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++

		if err != nil {
			if onError != nil {
				onError(line, fmt.Errorf("parse: %w", err))
			}
			continue
		}
		if len(rec) != expected {
			if onError != nil {
				onError(line, fmt.Errorf("incorrect number of fields: expected %d, got %d", expected, len(rec)))
			}
			continue
		}

		row := make(records.Record, expected)
		for i, v := range rec {
			if !p.opt.KeepSpace {
				v = strings.TrimSpace(v)
			}
			if v == "" {
				row[headers[i]] = nil
				continue
			}
			row[headers[i]] = v
		}

		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// normalizeHeaders strips the BOM and folds the header row, applying
// HeaderMap.
func normalizeHeaders(h []string, headerMap map[string]string) []string {
	return records.Keys(StripHeaderBOM(append([]string(nil), h...)), headerMap)
}

// Package xlsx reads one worksheet of a workbook into records, the first
// row naming the columns.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/obenchekro/namkin-data-migration/internal/parser"
	"github.com/obenchekro/namkin-data-migration/pkg/records"
)

// ErrSheetNotFound is returned when the workbook has no sheet of the
// requested name.
var ErrSheetNotFound = errors.New("sheet not found")

// Options selects the worksheet and renames headers.
type Options struct {
	// Sheet is matched exactly first, then case-insensitively. Empty reads
	// the first sheet.
	Sheet string
	// HeaderMap renames header cells; see records.Keys.
	HeaderMap map[string]string
}

// Parser streams the rows of one worksheet.
type Parser struct{ opt Options }

var _ parser.Parser = (*Parser)(nil)

// NewParser constructs a Parser for opt.Sheet.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse opens the workbook in r and sends one record per non-blank data row.
// Trailing empty cells that the workbook omits are stored as nil, as are
// blank cells. Rows wider than the header are reported via onError.
func (p *Parser) Parse(ctx context.Context, r io.Reader, out chan<- records.Record, onError parser.ErrorFunc) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("xlsx: open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := resolveSheet(f.GetSheetList(), p.opt.Sheet)
	if err != nil {
		return err
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("xlsx: rows of %q: %w", sheet, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Error(); err != nil {
			return fmt.Errorf("xlsx: read header of %q: %w", sheet, err)
		}
		return fmt.Errorf("xlsx: sheet %q is empty", sheet)
	}
	h, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("xlsx: read header of %q: %w", sheet, err)
	}
	headers := records.Keys(h, p.opt.HeaderMap)

	line := 1
	for rows.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line++

		cells, err := rows.Columns()
		if err != nil {
			if onError != nil {
				onError(line, fmt.Errorf("read row: %w", err))
			}
			continue
		}
		if blank(cells) {
			continue
		}
		if len(cells) > len(headers) {
			if onError != nil {
				onError(line, fmt.Errorf("incorrect number of fields: expected at most %d, got %d", len(headers), len(cells)))
			}
			continue
		}

		rec := make(records.Record, len(headers))
		for i, key := range headers {
			rec[key] = nil
			if i < len(cells) {
				if v := strings.TrimSpace(cells[i]); v != "" {
					rec[key] = v
				}
			}
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := rows.Error(); err != nil {
		return fmt.Errorf("xlsx: read %q: %w", sheet, err)
	}
	return nil
}

func resolveSheet(list []string, want string) (string, error) {
	if len(list) == 0 {
		return "", fmt.Errorf("xlsx: workbook has no sheets: %w", ErrSheetNotFound)
	}
	if want == "" {
		return list[0], nil
	}
	for _, s := range list {
		if s == want {
			return s, nil
		}
	}
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(want)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("xlsx: %q (have %s): %w", want, strings.Join(list, ", "), ErrSheetNotFound)
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

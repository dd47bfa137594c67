package xlsx

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/obenchekro/namkin-data-migration/pkg/records"
)

// workbook builds an in-memory workbook with one sheet per entry.
func workbook(t *testing.T, sheets map[string][][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet(%q): %v", name, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			row := row
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf
}

func parseAll(t *testing.T, p *Parser, r *bytes.Buffer) ([]records.Record, []int, error) {
	t.Helper()

	out := make(chan records.Record, 16)
	var lines []int
	err := p.Parse(context.Background(), r, out, func(line int, _ error) { lines = append(lines, line) })
	close(out)
	var rows []records.Record
	for rec := range out {
		rows = append(rows, rec)
	}
	return rows, lines, err
}

func TestParse_PartSheet(t *testing.T) {
	t.Parallel()

	buf := workbook(t, map[string][][]any{
		"Part Information": {
			{"id", "meterials", "machine", "timeToProduce", "defaultPrice"},
			{1, "['1','2']", "['10']", 2.5, 10},
			{nil, nil, nil, nil, nil},
			{2, "['3']", "['20']"},
		},
	})

	rows, lines, err := parseAll(t, NewParser(Options{Sheet: "part information"}), buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("unexpected soft errors on lines %v", lines)
	}
	want := []records.Record{
		{"id": "1", "meterials": "['1','2']", "machine": "['10']", "timetoproduce": "2.5", "defaultprice": "10"},
		{"id": "2", "meterials": "['3']", "machine": "['20']", "timetoproduce": nil, "defaultprice": nil},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_WideRowIsSoftError(t *testing.T) {
	t.Parallel()

	buf := workbook(t, map[string][][]any{
		"Material": {
			{"id", "name"},
			{1, "steel", "extra"},
			{2, "copper"},
		},
	})

	rows, lines, err := parseAll(t, NewParser(Options{Sheet: "Material"}), buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "copper" {
		t.Fatalf("rows = %v", rows)
	}
	if len(lines) != 1 || lines[0] != 2 {
		t.Fatalf("soft error lines = %v, want [2]", lines)
	}
}

func TestParse_SheetNotFound(t *testing.T) {
	t.Parallel()

	buf := workbook(t, map[string][][]any{"Material": {{"id"}}})
	_, _, err := parseAll(t, NewParser(Options{Sheet: "Prices"}), buf)
	if !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("err = %v, want ErrSheetNotFound", err)
	}
}

func TestParse_NotAWorkbook(t *testing.T) {
	t.Parallel()

	_, _, err := parseAll(t, NewParser(Options{}), bytes.NewBufferString("id,name\n"))
	if err == nil || !strings.Contains(err.Error(), "open workbook") {
		t.Fatalf("err = %v", err)
	}
}

func TestResolveSheet(t *testing.T) {
	t.Parallel()

	list := []string{"Sheet1", "Material"}
	tests := []struct {
		want, got string
		ok        bool
	}{
		{"", "Sheet1", true},
		{"Material", "Material", true},
		{" material ", "Material", true},
		{"Part", "", false},
	}
	for _, tt := range tests {
		got, err := resolveSheet(list, tt.want)
		if (err == nil) != tt.ok || got != tt.got {
			t.Errorf("resolveSheet(%q) = %q, %v", tt.want, got, err)
		}
	}
}

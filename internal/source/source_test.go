package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/obenchekro/namkin-data-migration/internal/config"
	"github.com/obenchekro/namkin-data-migration/internal/star"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func writeWorkbook(t *testing.T, path, sheet string, rows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	for i, row := range rows {
		row := row
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
}

func testSource(t *testing.T) config.Source {
	t.Helper()
	dir := t.TempDir()
	machines := filepath.Join(dir, "machines")
	if err := os.Mkdir(machines, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	return config.Source{
		MachinesDir:      machines,
		Delimiter:        ";",
		MaterialWorkbook: filepath.Join(dir, "material-data.xlsx"),
		MaterialSheet:    "Material",
		PartWorkbook:     filepath.Join(dir, "part-reference.xlsx"),
		PartSheet:        "Part Information",
		Columns:          defaultColumns,
	}
}

func TestReaderEvents(t *testing.T) {
	t.Parallel()

	cfg := testSource(t)
	header := "order;partId;machineId;timeOfProduction;var5\n"
	writeFile(t, filepath.Join(cfg.MachinesDir, "machine_2.csv"), header+"3;30;300;1625097600000;False\n")
	writeFile(t, filepath.Join(cfg.MachinesDir, "machine_1.csv"), header+"1;10;100;1625011200000;True\n2;x;100;1;\n1;10;100\n")
	writeFile(t, filepath.Join(cfg.MachinesDir, "readme.txt"), "ignored")

	got, err := NewReader(cfg, "test", nil).Events(context.Background())
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %+v, want 2", got)
	}
	if got[0].Order != 1 || got[1].Order != 3 {
		t.Fatalf("order not by file name: %+v", got)
	}
}

func TestReaderEvents_Errors(t *testing.T) {
	t.Parallel()

	cfg := testSource(t)
	_, err := NewReader(cfg, "test", nil).Events(context.Background())
	if !errors.Is(err, ErrNoMachineFiles) {
		t.Fatalf("empty dir: err = %v", err)
	}

	writeFile(t, filepath.Join(cfg.MachinesDir, "m.csv"), "order;partId\n1;2\n")
	_, err = NewReader(cfg, "test", nil).Events(context.Background())
	if !errors.Is(err, star.ErrMissingColumn) {
		t.Fatalf("missing column: err = %v", err)
	}

	cfg.Delimiter = ";;"
	if _, err := NewReader(cfg, "test", nil).Events(context.Background()); err == nil {
		t.Fatalf("expected delimiter error")
	}
}

func TestReaderSheets(t *testing.T) {
	t.Parallel()

	cfg := testSource(t)
	writeWorkbook(t, cfg.MaterialWorkbook, cfg.MaterialSheet, [][]any{
		{"id", "name", "prices"},
		{1, "steel", `[{"price": 2.5, "d": "06-30-2021"}]`},
	})
	writeWorkbook(t, cfg.PartWorkbook, cfg.PartSheet, [][]any{
		{"id", "meterials", "machine", "timeToProduce", "defaultPrice"},
		{10, "['1']", "['100','200']", 1.5, 10},
	})

	r := NewReader(cfg, "test", nil)
	mats, err := r.Materials(context.Background())
	if err != nil {
		t.Fatalf("Materials: %v", err)
	}
	if len(mats) != 1 || mats[0].ID != 1 || mats[0].Name != "steel" {
		t.Fatalf("materials = %+v", mats)
	}

	parts, err := r.Parts(context.Background())
	if err != nil {
		t.Fatalf("Parts: %v", err)
	}
	want := star.RawPart{ID: 10, Materials: "['1']", Machines: "['100','200']", TimeToProduce: 1.5, DefaultPrice: 10}
	if len(parts) != 1 || parts[0] != want {
		t.Fatalf("parts = %+v, want %+v", parts, want)
	}
}

func TestReaderHeaderMap(t *testing.T) {
	t.Parallel()

	cfg := testSource(t)
	writeWorkbook(t, cfg.PartWorkbook, cfg.PartSheet, [][]any{
		{"id", "Materials", "machine", "timeToProduce", "defaultPrice"},
		{10, "[1]", "[100]", 1.5, 10},
	})
	writeFile(t, filepath.Join(cfg.MachinesDir, "machine_1.csv"),
		"Auftrag;partId;machineId;timeOfProduction;var5\n7;10;100;1625011200000;False\n")

	if _, err := NewReader(cfg, "test", nil).Parts(context.Background()); !errors.Is(err, star.ErrMissingColumn) {
		t.Fatalf("unmapped Parts err = %v, want ErrMissingColumn", err)
	}

	cfg.HeaderMap = map[string]string{"materials": "meterials", "AUFTRAG": "order"}
	r := NewReader(cfg, "test", nil)
	parts, err := r.Parts(context.Background())
	if err != nil {
		t.Fatalf("Parts: %v", err)
	}
	if len(parts) != 1 || parts[0].Materials != "[1]" {
		t.Fatalf("parts = %+v", parts)
	}
	events, err := r.Events(context.Background())
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 1 || events[0].Order != 7 {
		t.Fatalf("events = %+v", events)
	}
}

func TestReaderSheets_MissingWorkbook(t *testing.T) {
	t.Parallel()

	cfg := testSource(t)
	_, err := NewReader(cfg, "test", nil).Materials(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestDelimiter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", ',', false},
		{";", ';', false},
		{"\t", '\t', false},
		{"ab", 0, true},
	}
	for _, tt := range tests {
		got, err := delimiter(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("delimiter(%q) = %q, %v", tt.in, got, err)
		}
	}
}

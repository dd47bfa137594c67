package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/obenchekro/namkin-data-migration/internal/config"
	"github.com/obenchekro/namkin-data-migration/internal/listener"
	"github.com/obenchekro/namkin-data-migration/internal/star"
	"github.com/obenchekro/namkin-data-migration/internal/storage"
)

// These tests swap package-level seams and the global logger; none of them
// run in parallel.

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

// fixtureDir lays out machine files, both workbooks and a JSON config
// pointing at a SQLite file, and returns the config path and database path.
func fixtureDir(t *testing.T, override map[string]any) (cfgPath, dbPath string) {
	t.Helper()

	dir := t.TempDir()
	machines := filepath.Join(dir, "machines")
	if err := os.Mkdir(machines, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	events := "order,partId,machineId,timeOfProduction,var5\n" +
		"1,1,5,1625392800000,False\n" +
		"1,1,5,1625479200000,True\n"
	if err := os.WriteFile(filepath.Join(machines, "machine_5.csv"), []byte(events), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	more := "order,partId,machineId,timeOfProduction,var5\n2,1,9,1625565600000,\n"
	if err := os.WriteFile(filepath.Join(machines, "machine_9.csv"), []byte(more), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	material := filepath.Join(dir, "material-data.xlsx")
	writeWorkbook(t, material, "Material", [][]any{
		{"id", "name", "prices"},
		{100, "steel", `[{"price": 1.5, "d": "02-01-2021"}]`},
	})
	part := filepath.Join(dir, "part-reference.xlsx")
	writeWorkbook(t, part, "Part Information", [][]any{
		{"id", "meterials", "machine", "timeToProduce", "defaultPrice"},
		{1, "['100']", "['5']", 2, 10},
	})

	dbPath = filepath.Join(dir, "warehouse.db")
	cfg := map[string]any{
		"job": "test",
		"source": map[string]any{
			"machines_dir":      machines,
			"material_workbook": material,
			"part_workbook":     part,
		},
		"transform": map[string]any{
			"time_start":  "2021-01-01",
			"time_end":    "2022-01-01",
			"random_seed": 7,
		},
		"storage": map[string]any{
			"kind":          "sqlite",
			"dsn":           dbPath,
			"write_workers": 1,
		},
		"logging": map[string]any{"file": filepath.Join(dir, "logs", "starschema.log")},
		"kafka":   map[string]any{"hostname": "localhost"},
	}
	for k, v := range override {
		cfg[k] = v
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	cfgPath = filepath.Join(dir, "starschema.json")
	if err := os.WriteFile(cfgPath, b, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return cfgPath, dbPath
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRunCommand_SQLite(t *testing.T) {
	cfgPath, dbPath := fixtureDir(t, nil)

	out, stderr, err := execute(t, "run", "--config", cfgPath, "--seed", "3")
	if err != nil {
		t.Fatalf("run: %v\nstderr:\n%s", err, stderr)
	}
	for _, name := range star.TableNames {
		if !strings.Contains(out, name) {
			t.Errorf("report missing %s:\n%s", name, out)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	want := map[string]int{
		star.TableMaterial:        1,
		star.TablePartInformation: 1,
		star.TableMachine:         1,
		star.TableContract:        2,
		star.TableTime:            365,
		star.TableSales:           2,
		star.TableSupplyChain:     2,
	}
	for table, n := range want {
		var got int
		if err := db.QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&got); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if got != n {
			t.Errorf("%s rows=%d want %d", table, got, n)
		}
	}

	// Overwrite mode: a second run leaves the same row counts.
	if _, stderr, err := execute(t, "run", "--config", cfgPath); err != nil {
		t.Fatalf("second run: %v\nstderr:\n%s", err, stderr)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "fact_supply_chain"`).Scan(&n); err != nil || n != 2 {
		t.Fatalf("fact_supply_chain after rerun: n=%d err=%v", n, err)
	}
}

func TestRunCommand_StorageUnavailable(t *testing.T) {
	cfgPath, _ := fixtureDir(t, nil)

	orig := openRepositoryFn
	openRepositoryFn = func(ctx context.Context, cfg storage.Config, p storage.RetryPolicy) (storage.Repository, error) {
		return nil, context.DeadlineExceeded
	}
	t.Cleanup(func() { openRepositoryFn = orig })

	_, _, err := execute(t, "run", "--config", cfgPath)
	if err == nil || !strings.Contains(err.Error(), "open storage") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	cfgPath, _ := fixtureDir(t, nil)
	out, _, err := execute(t, "validate", "--config", cfgPath)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "configuration is valid") {
		t.Fatalf("stdout = %q", out)
	}

	bad, _ := fixtureDir(t, map[string]any{"transform": map[string]any{"price_policy": "newest"}})
	_, stderr, err := execute(t, "validate", "--config", bad)
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	if !strings.Contains(stderr, "transform.price_policy") {
		t.Fatalf("stderr missing issue path:\n%s", stderr)
	}
}

func TestTimeDimCommand(t *testing.T) {
	cfgPath, _ := fixtureDir(t, map[string]any{
		"transform": map[string]any{"time_start": "2024-01-01", "time_end": "2024-02-01"},
	})
	out, _, err := execute(t, "timedim", "--config", cfgPath)
	if err != nil {
		t.Fatalf("timedim: %v", err)
	}
	if !strings.HasPrefix(out, "rows=31 first=20240101 last=20240131 fingerprint=") {
		t.Fatalf("stdout = %q", out)
	}

	again, _, _ := execute(t, "timedim", "--config", cfgPath)
	if again != out {
		t.Fatalf("timedim not idempotent:\n%s\n%s", out, again)
	}
}

func TestSetupMetrics_FallsBackToNop(t *testing.T) {
	log := zap.NewNop().Sugar()
	for _, m := range []config.Metrics{
		{Backend: "none"},
		{Backend: "pushgateway"},
		{Backend: "datadog"},
	} {
		flush := setupMetrics("test", m, log)
		flush()
	}
}

func TestPrintMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := printMessage(&buf)
	msgs := []listener.Message{
		{Partition: 1, Offset: 9, Key: "p-7", Value: map[string]any{"id": float64(7)}},
		{Partition: 0, Offset: 10, Value: []any{"a", float64(2)}},
	}
	for _, m := range msgs {
		if err := h(m); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}
	want := `{"partition":1,"offset":9,"key":"p-7","value":{"id":7}}` + "\n" +
		`{"partition":0,"offset":10,"value":["a",2]}` + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("output:\n%s\nwant:\n%s", got, want)
	}
}

package ddl

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func bracket(s string) string { return "[" + strings.ReplaceAll(s, "]", "]]") + "]" }

// TestBuildCreateTableSQL covers rendering rules and validation errors for
// both the zero and a quoting dialect.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	quoted := Dialect{Name: "test ddl", QuoteIdent: bracket, IfNotExists: true}

	tests := []struct {
		name        string
		def         TableDef
		dialect     Dialect
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN",
			def:         TableDef{Columns: []ColumnDef{{Name: "timeId", SQLType: "INT"}}},
			dialect:     Dialect{},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns",
			def:         TableDef{FQN: "dim_time"},
			dialect:     quoted,
			errContains: "test ddl: at least one column is required",
		},
		{
			name:        "empty column name",
			def:         TableDef{FQN: "dim_time", Columns: []ColumnDef{{SQLType: "INT"}}},
			dialect:     Dialect{},
			errContains: "column with empty name",
		},
		{
			name:        "empty column type",
			def:         TableDef{FQN: "dim_time", Columns: []ColumnDef{{Name: "timeId"}}},
			dialect:     Dialect{},
			errContains: "missing SQLType",
		},
		{
			name: "generic nullable and not null",
			def: TableDef{FQN: "dim_machine", Columns: []ColumnDef{
				{Name: "machineId", SQLType: "BIGINT"},
				{Name: "lastUpdate", SQLType: "TEXT", Nullable: true},
			}},
			dialect: Dialect{},
			wantSQL: "CREATE TABLE dim_machine (\n  machineId BIGINT NOT NULL,\n  lastUpdate TEXT\n);",
		},
		{
			name: "quoted with primary key",
			def: TableDef{FQN: " dbo.dim_time ", Columns: []ColumnDef{
				{Name: "timeId", SQLType: "INT", PrimaryKey: true},
				{Name: "date", SQLType: "DATE"},
			}},
			dialect: quoted,
			wantSQL: "CREATE TABLE IF NOT EXISTS [dbo].[dim_time] (\n  [timeId] INT NOT NULL,\n  [date] DATE NOT NULL,\n  PRIMARY KEY ([timeId])\n);",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildCreateTableSQL(tt.def, tt.dialect)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("error = %v, want substring %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantSQL {
				t.Fatalf("got:\n%s\nwant:\n%s", got, tt.wantSQL)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	cols := []Column{
		{Name: "partId", Kind: KindSmallInt, PrimaryKey: true},
		{Name: "cash", Kind: KindFloat, Nullable: true},
	}
	got := Resolve("fact_sales", cols, func(kind string) string { return strings.ToUpper(kind) })
	want := TableDef{FQN: "fact_sales", Columns: []ColumnDef{
		{Name: "partId", SQLType: "SMALLINT", PrimaryKey: true},
		{Name: "cash", SQLType: "FLOAT", Nullable: true},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Resolve mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"partId", "cash"}, Names(cols)); diff != "" {
		t.Fatalf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestQuoteFQN(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"dbo.fact_sales":   "[dbo].[fact_sales]",
		"fact_sales":       "[fact_sales]",
		" .dbo..weird]t. ": "[dbo].[weird]]t]",
		"":                 "",
	}
	for in, want := range tests {
		if got := QuoteFQN(in, bracket); got != want {
			t.Fatalf("QuoteFQN(%q) = %q, want %q", in, got, want)
		}
	}
}

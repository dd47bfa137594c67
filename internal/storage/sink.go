package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/obenchekro/namkin-data-migration/internal/ddl"
	"github.com/obenchekro/namkin-data-migration/internal/metrics"
)

// WriteMode controls what happens to rows already present in a table.
type WriteMode string

const (
	// WriteOverwrite clears the table before inserting.
	WriteOverwrite WriteMode = "overwrite"
	// WriteAppend inserts after existing rows.
	WriteAppend WriteMode = "append"
)

// ParseWriteMode accepts "overwrite", "append" or "" (overwrite).
func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", WriteOverwrite:
		return WriteOverwrite, nil
	case WriteAppend:
		return WriteAppend, nil
	}
	return "", fmt.Errorf("unknown write mode %q (want overwrite|append)", s)
}

// SinkConfig configures a TableSink.
type SinkConfig struct {
	// Kind selects the registered DDL helpers.
	Kind string
	// Schema is prepended to every table name ("dbo" -> "dbo.dim_time").
	Schema     string
	WriteMode  WriteMode
	AutoCreate bool
	BatchSize  int
	// Job labels the metrics emitted by the sink.
	Job string
}

const defaultBatchSize = 5000

// TableSink persists named relations into one Repository. It is safe for
// concurrent Write calls on distinct tables when the Repository is.
type TableSink struct {
	repo Repository
	ddl  DDL
	cfg  SinkConfig
}

// NewTableSink wires repo to the DDL helpers registered for cfg.Kind.
func NewTableSink(repo Repository, cfg SinkConfig) (*TableSink, error) {
	if repo == nil {
		return nil, fmt.Errorf("sink: repository must not be nil")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.WriteMode == "" {
		cfg.WriteMode = WriteOverwrite
	}
	d, err := LookupDDL(cfg.Kind)
	if err != nil {
		if cfg.AutoCreate {
			return nil, fmt.Errorf("sink: auto_create_table: %w", err)
		}
		d = DDL{}
	}
	if cfg.AutoCreate && d.EnsureTable == nil {
		return nil, fmt.Errorf("sink: auto_create_table: storage.kind=%q has no EnsureTable", cfg.Kind)
	}
	if d.ClearTableSQL == nil {
		d.ClearTableSQL = func(fqn string) string { return "DELETE FROM " + fqn }
	}
	return &TableSink{repo: repo, ddl: d, cfg: cfg}, nil
}

// FQN returns the dotted target name of table.
func (s *TableSink) FQN(table string) string {
	if s.cfg.Schema == "" {
		return table
	}
	return strings.TrimSuffix(s.cfg.Schema, ".") + "." + table
}

// Write creates (when configured), clears (in overwrite mode) and fills the
// table with rows aligned to cols. It returns the number of rows inserted.
func (s *TableSink) Write(ctx context.Context, table string, cols []ddl.Column, rows [][]any) (int64, error) {
	fqn := s.FQN(table)
	log := zap.S()
	start := time.Now()

	if s.cfg.AutoCreate {
		if err := s.ddl.EnsureTable(ctx, s.repo, fqn, cols); err != nil {
			return 0, fmt.Errorf("sink: ensure %s: %w", fqn, err)
		}
	}
	if s.cfg.WriteMode == WriteOverwrite {
		if err := s.repo.Exec(ctx, s.ddl.ClearTableSQL(fqn)); err != nil {
			return 0, fmt.Errorf("sink: clear %s: %w", fqn, err)
		}
	}

	in := make(chan []any, s.cfg.BatchSize)
	feedCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer close(in)
		for _, r := range rows {
			select {
			case in <- r:
			case <-feedCtx.Done():
				return
			}
		}
	}()

	copyFn := func(ctx context.Context, columns []string, batch [][]any) (int64, error) {
		return s.repo.CopyFrom(ctx, fqn, columns, batch)
	}
	res, err := LoadBatches(feedCtx, fqn, ddl.Names(cols), in, s.cfg.BatchSize, copyFn)
	metrics.RecordBatches(s.cfg.Job, table, res.Batches)
	if err != nil {
		return res.Rows, fmt.Errorf("sink: write %s: %w", fqn, err)
	}
	metrics.RecordTable(s.cfg.Job, table, res.Rows)

	log.Infof("sink: table=%s mode=%s inserted=%s batches=%d elapsed=%s",
		fqn, s.cfg.WriteMode, humanize.Comma(res.Rows), res.Batches, time.Since(start).Truncate(time.Millisecond))
	return res.Rows, nil
}

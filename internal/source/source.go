// Package source reads the raw warehouse inputs: the machine event files
// and the material and part workbooks. It turns parser records into the
// typed star inputs and leaves every transformation to package star.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/obenchekro/namkin-data-migration/internal/config"
	"github.com/obenchekro/namkin-data-migration/internal/datasource"
	"github.com/obenchekro/namkin-data-migration/internal/datasource/file"
	"github.com/obenchekro/namkin-data-migration/internal/metrics"
	"github.com/obenchekro/namkin-data-migration/internal/parser"
	"github.com/obenchekro/namkin-data-migration/internal/parser/csv"
	"github.com/obenchekro/namkin-data-migration/internal/parser/xlsx"
	"github.com/obenchekro/namkin-data-migration/internal/star"
	"github.com/obenchekro/namkin-data-migration/pkg/records"
)

// MachineFilePattern selects the event files inside the machines directory.
const MachineFilePattern = "*.csv"

// ErrNoMachineFiles is returned when the machines directory holds no event file.
var ErrNoMachineFiles = errors.New("no machine files")

// maxParallelFiles bounds concurrent machine-file reads.
const maxParallelFiles = 4

// Reader loads the raw inputs described by a config.Source.
type Reader struct {
	cfg config.Source
	job string
	log *zap.SugaredLogger
}

// NewReader returns a Reader. A nil log discards output.
func NewReader(cfg config.Source, job string, log *zap.SugaredLogger) *Reader {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Reader{cfg: cfg, job: job, log: log}
}

// Events reads every machine file and decodes its rows. Files are parsed
// concurrently; the result keeps file-name order, then line order.
func (r *Reader) Events(ctx context.Context) ([]star.SupplyChainEvent, error) {
	files, err := file.ListDir(r.cfg.MachinesDir, MachineFilePattern)
	if err != nil {
		return nil, fmt.Errorf("machine events: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("machine events: %s: %w", r.cfg.MachinesDir, ErrNoMachineFiles)
	}
	comma, err := delimiter(r.cfg.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("machine events: %w", err)
	}
	p := csv.NewParser(csv.Options{Comma: comma, HeaderMap: r.cfg.HeaderMap})

	perFile := make([][]star.SupplyChainEvent, len(files))
	var skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFiles)
	for i, src := range files {
		i, src := i, src
		g.Go(func() error {
			recs, err := r.read(gctx, p, src)
			if err != nil {
				return err
			}
			evs, bad, err := DecodeEvents(recs, r.cfg.Columns)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Name(), err)
			}
			skipped.Add(int64(bad))
			perFile[i] = evs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("machine events: %w", err)
	}

	var out []star.SupplyChainEvent
	for _, evs := range perFile {
		out = append(out, evs...)
	}
	r.decodeErrors("machine events", skipped.Load())
	r.log.Infof("source: machine events files=%d rows=%s", len(files), humanize.Comma(int64(len(out))))
	metrics.RecordRow(r.job, "read", int64(len(out)))
	return out, nil
}

// Materials reads the material sheet.
func (r *Reader) Materials(ctx context.Context) ([]star.RawMaterial, error) {
	recs, err := r.readSheet(ctx, r.cfg.MaterialWorkbook, r.cfg.MaterialSheet)
	if err != nil {
		return nil, fmt.Errorf("materials: %w", err)
	}
	out, bad, err := DecodeMaterials(recs)
	if err != nil {
		return nil, fmt.Errorf("materials: %s: %w", r.cfg.MaterialWorkbook, err)
	}
	r.decodeErrors("materials", int64(bad))
	r.log.Infof("source: materials rows=%s", humanize.Comma(int64(len(out))))
	metrics.RecordRow(r.job, "read", int64(len(out)))
	return out, nil
}

// Parts reads the part information sheet.
func (r *Reader) Parts(ctx context.Context) ([]star.RawPart, error) {
	recs, err := r.readSheet(ctx, r.cfg.PartWorkbook, r.cfg.PartSheet)
	if err != nil {
		return nil, fmt.Errorf("parts: %w", err)
	}
	out, bad, err := DecodeParts(recs)
	if err != nil {
		return nil, fmt.Errorf("parts: %s: %w", r.cfg.PartWorkbook, err)
	}
	r.decodeErrors("parts", int64(bad))
	r.log.Infof("source: parts rows=%s", humanize.Comma(int64(len(out))))
	metrics.RecordRow(r.job, "read", int64(len(out)))
	return out, nil
}

// ReadSheet reads one worksheet of the workbook behind src.
func ReadSheet(ctx context.Context, src datasource.Source, opt xlsx.Options, onError parser.ErrorFunc) ([]records.Record, error) {
	return readAll(ctx, xlsx.NewParser(opt), src, onError)
}

func (r *Reader) readSheet(ctx context.Context, path, sheet string) ([]records.Record, error) {
	opt := xlsx.Options{Sheet: sheet, HeaderMap: r.cfg.HeaderMap}
	return ReadSheet(ctx, file.NewLocal(path), opt, r.onError)
}

func (r *Reader) read(ctx context.Context, p parser.Parser, src datasource.Source) ([]records.Record, error) {
	return readAll(ctx, p, src, func(line int, err error) {
		r.log.Warnf("source: file=%s line=%d: %v", src.Name(), line, err)
		metrics.RecordRow(r.job, "decode_error", 1)
	})
}

func (r *Reader) onError(line int, err error) {
	r.log.Warnf("source: line=%d: %v", line, err)
	metrics.RecordRow(r.job, "decode_error", 1)
}

func (r *Reader) decodeErrors(what string, n int64) {
	if n == 0 {
		return
	}
	r.log.Warnf("source: %s skipped=%d reason=decode_error", what, n)
	metrics.RecordRow(r.job, "decode_error", n)
}

// readAll drives p over src and collects the records.
func readAll(ctx context.Context, p parser.Parser, src datasource.Source, onError parser.ErrorFunc) ([]records.Record, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	out := make(chan records.Record, 256)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		errc <- p.Parse(ctx, rc, out, onError)
	}()

	var recs []records.Record
	for rec := range out {
		recs = append(recs, rec)
	}
	if err := <-errc; err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name(), err)
	}
	return recs, nil
}

func delimiter(s string) (rune, error) {
	if s == "" {
		return ',', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	c, _ := utf8.DecodeRuneInString(s)
	return c, nil
}

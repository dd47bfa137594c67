// Package pipeline sequences the warehouse build: it reads the raw inputs,
// runs the dimension and fact builders in dependency order and hands every
// projected table to a sink.
//
// Steps and what they read:
//
//	read_events, build_material, build_part_information, build_time  (concurrent)
//	build_machine       part_information
//	build_sales         events, part_information
//	build_supply_chain  events, part_information, material, machine
//	build_contract      sales
//
// A failed step fails its own table and marks every table that reads it as
// skipped; the other tables are still built and written.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/obenchekro/namkin-data-migration/internal/ddl"
	"github.com/obenchekro/namkin-data-migration/internal/metrics"
	"github.com/obenchekro/namkin-data-migration/internal/star"
)

// ErrDependencyFailed marks a table that was not built because an input it
// reads failed.
var ErrDependencyFailed = errors.New("dependency failed")

// Source provides the raw inputs. *source.Reader satisfies it.
type Source interface {
	Events(ctx context.Context) ([]star.SupplyChainEvent, error)
	Materials(ctx context.Context) ([]star.RawMaterial, error)
	Parts(ctx context.Context) ([]star.RawPart, error)
}

// Sink persists one table. *storage.TableSink satisfies it.
type Sink interface {
	Write(ctx context.Context, table string, cols []ddl.Column, rows [][]any) (int64, error)
}

// Options configures a Pipeline.
type Options struct {
	// Job labels metrics.
	Job string
	// TimeStart and TimeEnd bound dim_time, end exclusive.
	TimeStart, TimeEnd time.Time
	// WriteWorkers bounds concurrent table writes; <= 0 means 1.
	WriteWorkers int
	Logger       *zap.SugaredLogger
}

// Pipeline runs one full warehouse build per Run call.
type Pipeline struct {
	src     Source
	builder *star.Builder
	sink    Sink
	opt     Options
}

// New returns a Pipeline. Zero options get defaults.
func New(src Source, builder *star.Builder, sink Sink, opt Options) *Pipeline {
	if opt.Job == "" {
		opt.Job = "starschema"
	}
	if opt.WriteWorkers <= 0 {
		opt.WriteWorkers = 1
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop().Sugar()
	}
	return &Pipeline{src: src, builder: builder, sink: sink, opt: opt}
}

// inputs holds every intermediate relation of one run. Each err field
// records the failure of the step that fills the fields above it.
type inputs struct {
	events    []star.SupplyChainEvent
	errEvents error

	prices      []star.MaterialPrice
	materials   []star.MaterialRow
	errMaterial error

	parts    []star.PartInfo
	partRows []star.PartRow
	errPart  error

	timeRows []star.TimeRow
	errTime  error

	machines   []star.Machine
	errMachine error

	sales    []star.Sale
	errSales error

	supply    []star.SupplyChainFact
	errSupply error

	contracts   []star.Contract
	errContract error
}

// Run builds and writes every table. The report lists tables in
// star.TableNames order. The returned error aggregates step and write
// failures; it is nil only when every table was written.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	log := p.opt.Logger.With("run_id", runID)
	started := time.Now()
	log.Infof("pipeline: start job=%s", p.opt.Job)

	in := &inputs{}
	var runErr error

	p.buildDimensions(ctx, log, in)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	p.buildFacts(log, in)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	for _, err := range []error{in.errEvents, in.errMaterial, in.errPart, in.errTime, in.errMachine, in.errSales, in.errSupply, in.errContract} {
		if err != nil && !errors.Is(err, ErrDependencyFailed) {
			runErr = multierr.Append(runErr, err)
		}
	}

	planned := plan(in)
	report := &Report{RunID: runID, Started: started, Tables: make([]TableReport, len(planned))}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opt.WriteWorkers)
	for i, pt := range planned {
		i, pt := i, pt
		if pt.err != nil {
			status := StatusFailed
			if errors.Is(pt.err, ErrDependencyFailed) {
				status = StatusSkipped
			}
			report.Tables[i] = TableReport{Table: pt.name, Status: status, Err: pt.err}
			log.Warnf("pipeline: table=%s status=%s: %v", pt.name, status, pt.err)
			continue
		}
		g.Go(func() error {
			tr := p.write(gctx, log, pt.table)
			report.Tables[i] = tr
			if tr.Err != nil {
				mu.Lock()
				runErr = multierr.Append(runErr, tr.Err)
				mu.Unlock()
			}
			// Write failures stay per table.
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(started)
	written, rows := report.Totals()
	log.Infof("pipeline: done tables=%d/%d rows=%s elapsed=%s",
		written, len(report.Tables), humanize.Comma(rows), report.Duration.Round(time.Millisecond))
	if err := ctx.Err(); err != nil {
		runErr = multierr.Append(runErr, err)
	}
	return report, runErr
}

// buildDimensions reads the inputs and builds the independent dimensions
// concurrently, then dim_machine.
func (p *Pipeline) buildDimensions(ctx context.Context, log *zap.SugaredLogger, in *inputs) {
	var g errgroup.Group
	g.Go(func() error {
		in.errEvents = p.step(log, "read_events", func() (err error) {
			in.events, err = p.src.Events(ctx)
			return err
		})
		return nil
	})
	g.Go(func() error {
		in.errMaterial = p.step(log, "build_material", func() error {
			raws, err := p.src.Materials(ctx)
			if err != nil {
				return err
			}
			if in.prices, err = p.builder.BuildMaterialPrices(raws); err != nil {
				return err
			}
			in.materials = p.builder.BuildMaterials(raws)
			return nil
		})
		return nil
	})
	g.Go(func() error {
		in.errPart = p.step(log, "build_part_information", func() error {
			raws, err := p.src.Parts(ctx)
			if err != nil {
				return err
			}
			if in.parts, err = p.builder.BuildPartInformation(raws); err != nil {
				return err
			}
			in.partRows = p.builder.BuildParts(raws)
			return nil
		})
		return nil
	})
	g.Go(func() error {
		in.errTime = p.step(log, "build_time", func() (err error) {
			in.timeRows, err = p.builder.BuildTime(p.opt.TimeStart, p.opt.TimeEnd)
			return err
		})
		return nil
	})
	_ = g.Wait()

	in.errMachine = p.dependent(log, "build_machine", func() error {
		in.machines = p.builder.BuildMachines(in.parts)
		return nil
	}, dep{"part_information", in.errPart})
}

// buildFacts builds fact_sales and fact_supply_chain concurrently, then
// dim_contract.
func (p *Pipeline) buildFacts(log *zap.SugaredLogger, in *inputs) {
	var g errgroup.Group
	g.Go(func() error {
		in.errSales = p.dependent(log, "build_sales", func() (err error) {
			in.sales, err = p.builder.BuildSales(in.events, in.parts)
			return err
		}, dep{"events", in.errEvents}, dep{"part_information", in.errPart})
		return nil
	})
	g.Go(func() error {
		in.errSupply = p.dependent(log, "build_supply_chain", func() (err error) {
			in.supply, err = p.builder.BuildSupplyChain(in.events, in.parts, in.prices, in.machines)
			return err
		}, dep{"events", in.errEvents}, dep{"part_information", in.errPart},
			dep{"material", in.errMaterial}, dep{"machine", in.errMachine})
		return nil
	})
	_ = g.Wait()

	in.errContract = p.dependent(log, "build_contract", func() error {
		in.contracts = p.builder.BuildContracts(in.sales)
		return nil
	}, dep{"sales", in.errSales})
}

type dep struct {
	name string
	err  error
}

// dependent runs fn unless one of deps failed, in which case it returns
// ErrDependencyFailed wrapping the first failure.
func (p *Pipeline) dependent(log *zap.SugaredLogger, name string, fn func() error, deps ...dep) error {
	for _, d := range deps {
		if d.err != nil {
			log.Warnf("pipeline: step=%s skipped: %s failed", name, d.name)
			return fmt.Errorf("%s: %w: %s: %w", name, ErrDependencyFailed, d.name, d.err)
		}
	}
	return p.step(log, name, fn)
}

// step times fn, records it and wraps its error with the step name.
func (p *Pipeline) step(log *zap.SugaredLogger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordStep(p.opt.Job, name, err, d)
	if err != nil {
		log.Errorf("pipeline: step=%s failed after %s: %v", name, d.Round(time.Millisecond), err)
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Infof("pipeline: step=%s ok elapsed=%s", name, d.Round(time.Millisecond))
	return nil
}

func (p *Pipeline) write(ctx context.Context, log *zap.SugaredLogger, t star.Table) TableReport {
	tr := TableReport{Table: t.Name, Fingerprint: t.Fingerprint()}
	start := time.Now()
	n, err := p.sink.Write(ctx, t.Name, t.Columns, t.Rows)
	tr.Duration = time.Since(start)
	tr.Rows = n
	metrics.RecordStep(p.opt.Job, "write_"+t.Name, err, tr.Duration)
	if err != nil {
		tr.Status = StatusFailed
		tr.Err = fmt.Errorf("write %s: %w", t.Name, err)
		log.Errorf("pipeline: table=%s status=failed rows=%s: %v", t.Name, humanize.Comma(n), err)
		return tr
	}
	tr.Status = StatusWritten
	log.Infof("pipeline: table=%s status=written rows=%s fingerprint=%016x elapsed=%s",
		t.Name, humanize.Comma(n), tr.Fingerprint, tr.Duration.Round(time.Millisecond))
	return tr
}

type plannedTable struct {
	name  string
	table star.Table
	err   error
}

// plan projects every table, in star.TableNames order, or carries the step
// error that prevents writing it.
func plan(in *inputs) []plannedTable {
	project := map[string]func() (star.Table, error){
		star.TableMaterial:        func() (star.Table, error) { return star.MaterialTable(in.materials), in.errMaterial },
		star.TablePartInformation: func() (star.Table, error) { return star.PartTable(in.partRows), in.errPart },
		star.TableMachine:         func() (star.Table, error) { return star.MachineTable(in.machines), in.errMachine },
		star.TableContract:        func() (star.Table, error) { return star.ContractTable(in.contracts), in.errContract },
		star.TableTime:            func() (star.Table, error) { return star.TimeTable(in.timeRows), in.errTime },
		star.TableSales:           func() (star.Table, error) { return star.SalesTable(in.sales), in.errSales },
		star.TableSupplyChain:     func() (star.Table, error) { return star.SupplyChainTable(in.supply), in.errSupply },
	}
	out := make([]plannedTable, 0, len(star.TableNames))
	for _, name := range star.TableNames {
		t, err := project[name]()
		if err != nil {
			out = append(out, plannedTable{name: name, err: err})
			continue
		}
		out = append(out, plannedTable{name: name, table: t})
	}
	return out
}

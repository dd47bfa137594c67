package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/obenchekro/namkin-data-migration/internal/config"
	"github.com/obenchekro/namkin-data-migration/internal/decode"
	"github.com/obenchekro/namkin-data-migration/internal/metrics"
	"github.com/obenchekro/namkin-data-migration/internal/metrics/datadog"
	"github.com/obenchekro/namkin-data-migration/internal/metrics/prompush"
	"github.com/obenchekro/namkin-data-migration/internal/pipeline"
	"github.com/obenchekro/namkin-data-migration/internal/source"
	"github.com/obenchekro/namkin-data-migration/internal/star"
	"github.com/obenchekro/namkin-data-migration/internal/storage"
)

// Test seams.
var (
	openRepositoryFn = storage.OpenWithRetry
	retryPolicy      = storage.DefaultRetryPolicy
)

func newRunCommand(a *app) *cobra.Command {
	var (
		every time.Duration
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build every warehouse table and write it to the configured storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.checkConfig(); err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				a.cfg.Transform.RandomSeed = seed
			}
			flush := setupMetrics(a.cfg.Job, a.cfg.Metrics, a.log)
			defer flush()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if every <= 0 {
				return a.runOnce(ctx)
			}
			return a.schedule(ctx, every)
		},
	}
	cmd.Flags().DurationVar(&every, "every", 0, "rerun on this interval until interrupted (0 runs once)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for synthetic sales dates (overrides transform.random_seed)")
	return cmd
}

// schedule reruns the build every interval. A run never overlaps the
// previous one.
func (a *app) schedule(ctx context.Context, every time.Duration) error {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	_, err := s.Every(every).Do(func() {
		if err := a.runOnce(ctx); err != nil {
			a.log.Errorf("scheduler: run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule every %s: %w", every, err)
	}
	a.log.Infof("scheduler: every=%s", every)
	s.StartAsync()
	<-ctx.Done()
	s.Stop()
	a.log.Infof("scheduler: stopped")
	return nil
}

// runOnce connects to storage, builds every table and prints the report.
func (a *app) runOnce(ctx context.Context) error {
	cfg := a.cfg
	dsn, err := cfg.Storage.ConnString()
	if err != nil {
		return err
	}
	repo, err := openRepositoryFn(ctx, storage.Config{
		Kind:           cfg.Storage.Kind,
		DSN:            dsn,
		ConnectTimeout: cfg.Storage.ConnectTimeout,
	}, retryPolicy)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer repo.Close()

	mode, err := storage.ParseWriteMode(cfg.Storage.WriteMode)
	if err != nil {
		return err
	}
	sink, err := storage.NewTableSink(repo, storage.SinkConfig{
		Kind:       cfg.Storage.Kind,
		Schema:     cfg.Storage.Schema,
		WriteMode:  mode,
		AutoCreate: cfg.Storage.AutoCreateTable,
		BatchSize:  cfg.Storage.BatchSize,
		Job:        cfg.Job,
	})
	if err != nil {
		return err
	}

	builder, err := newBuilder(cfg, a.log)
	if err != nil {
		return err
	}
	start, end, err := timeSpan(cfg.Transform)
	if err != nil {
		return err
	}

	p := pipeline.New(source.NewReader(cfg.Source, cfg.Job, a.log), builder, sink, pipeline.Options{
		Job:          cfg.Job,
		TimeStart:    start,
		TimeEnd:      end,
		WriteWorkers: cfg.Storage.WriteWorkers,
		Logger:       a.log,
	})
	report, runErr := p.Run(ctx)
	if report != nil {
		if err := report.Print(a.stdout); err != nil {
			a.log.Warnf("print report: %v", err)
		}
	}
	return runErr
}

func newBuilder(cfg *config.Config, log *zap.SugaredLogger) (*star.Builder, error) {
	policy, err := star.ParsePricePolicy(cfg.Transform.PricePolicy)
	if err != nil {
		return nil, err
	}
	seed := cfg.Transform.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Debugf("builder: price_policy=%s seed=%d", policy, seed)
	return star.NewBuilder(star.Options{
		Job:             cfg.Job,
		Clock:           decode.SystemClock{},
		Rand:            rand.New(rand.NewSource(seed)),
		PriceDateLayout: cfg.Transform.PriceDateLayout,
		PricePolicy:     policy,
		Logger:          log,
	}), nil
}

func timeSpan(t config.Transform) (time.Time, time.Time, error) {
	start, err := time.Parse(config.DateLayout, t.TimeStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("transform.time_start: %w", err)
	}
	end, err := time.Parse(config.DateLayout, t.TimeEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("transform.time_end: %w", err)
	}
	return start, end, nil
}

// setupMetrics installs the configured backend and returns the flush to run
// at exit. Backend errors degrade to the no-op backend.
func setupMetrics(job string, m config.Metrics, log *zap.SugaredLogger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case "pushgateway":
		b, err = prompush.NewBackend(job, m.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{Addr: m.DatadogAddr, Namespace: "namkin.", GlobalTags: []string{"job:" + job}})
	default:
		log.Debugf("metrics: disabled (backend=%q)", m.Backend)
		return func() {}
	}
	if err != nil {
		log.Warnf("metrics: failed to init %s backend: %v; using nop", m.Backend, err)
		return func() {}
	}
	log.Infof("metrics: backend=%s job=%s", m.Backend, job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warnf("metrics: flush error: %v", err)
		}
	}
}

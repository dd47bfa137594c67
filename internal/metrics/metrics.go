// Package metrics records operational metrics for warehouse loads behind a
// small backend interface.
//
// A global backend defaults to a no-op, so instrumented code never has to
// check whether metrics are configured. Concrete systems live in
// subpackages (prompush, datadog) and are installed with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by this package.
const (
	StepTotal        = "warehouse_step_total"
	StepDuration     = "warehouse_step_duration_seconds"
	RowsTotal        = "warehouse_rows_total"
	BatchesTotal     = "warehouse_batches_total"
	TableRowsWritten = "warehouse_table_rows_written"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of a pipeline step (a relation build or a
// table write) and observes its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a row-level counter. Kinds in use:
//   - "read"
//   - "decode_error"
//   - "join_dropped"
//   - "narrow_overflow"
//   - "inserted"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordBatches counts flushed insert batches for a table.
func RecordBatches(job, table string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{"job": job, "table": table})
}

// RecordTable counts rows written into one output table.
func RecordTable(job, table string, rows int64) {
	if rows <= 0 {
		return
	}
	current().IncCounter(TableRowsWritten, float64(rows), Labels{"job": job, "table": table})
}

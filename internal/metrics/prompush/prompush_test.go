package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/obenchekro/namkin-data-migration/internal/metrics"
)

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL", jobName: "namkin", wantErr: true},
		{name: "default job name", gatewayURL: "http://pushgateway:9091", wantJobName: "starschema"},
		{name: "explicit job name", jobName: "namkin-nightly", gatewayURL: "http://pushgateway:9091", wantJobName: "namkin-nightly"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend(%q, %q) = %v, %v; want nil, error", tt.jobName, tt.gatewayURL, b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend: %v", err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
		})
	}
}

func TestIncCounterRouting(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("namkin", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter(metrics.StepTotal, 2, metrics.Labels{"step": "dim_time", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 5, metrics.Labels{"kind": "join_dropped"})
	b.IncCounter(metrics.BatchesTotal, 3, metrics.Labels{"table": "fact_sales"})
	b.IncCounter(metrics.TableRowsWritten, 40, metrics.Labels{"table": "fact_sales"})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"step", testutil.ToFloat64(b.stepCounter.WithLabelValues("dim_time", "success")), 2},
		{"rows", testutil.ToFloat64(b.rowCounter.WithLabelValues("join_dropped")), 5},
		{"batches", testutil.ToFloat64(b.batchCounter.WithLabelValues("fact_sales")), 3},
		{"table rows", testutil.ToFloat64(b.tableRows.WithLabelValues("fact_sales")), 40},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s counter = %v, want %v", c.name, c.got, c.want)
		}
	}
}

// TestNilCollectors ensures a zero Backend ignores every call.
func TestNilCollectors(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "s", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "read"})
	b.IncCounter(metrics.BatchesTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDuration, 1, nil)
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("namkin", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	lbls := metrics.Labels{"step": "fact_supply_chain", "status": "success"}
	b.ObserveHistogram(metrics.StepDuration, 1.5, lbls)
	b.ObserveHistogram("other_metric", 2, lbls)

	if n := testutil.CollectAndCount(b.stepDuration); n != 1 {
		t.Fatalf("summary series = %d, want 1", n)
	}
}

// TestFlush pushes to a fake Pushgateway and checks the request carried the
// registered metrics.
func TestFlush(t *testing.T) {
	t.Parallel()

	type pushed struct {
		method string
		path   string
		body   string
	}
	reqCh := make(chan pushed, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushed{method: r.Method, path: r.URL.Path, body: string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("namkin", server.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "inserted"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	select {
	case got := <-reqCh:
		if got.method != http.MethodPut {
			t.Fatalf("method = %s, want PUT", got.method)
		}
		if !strings.Contains(got.path, "/metrics/job/namkin") {
			t.Fatalf("path = %q", got.path)
		}
		if len(got.body) == 0 {
			t.Fatalf("empty push body")
		}
	default:
		t.Fatalf("Flush did not reach the Pushgateway")
	}
}

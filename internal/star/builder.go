package star

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/obenchekro/namkin-data-migration/internal/decode"
	"github.com/obenchekro/namkin-data-migration/internal/metrics"
)

var (
	// ErrEmptyInput is returned when a builder receives no source rows.
	ErrEmptyInput = errors.New("empty input")
	// ErrEmptyDimension is returned when a dimension has no rows after
	// decoding, or a fact is asked to join against one.
	ErrEmptyDimension = errors.New("empty dimension")
	// ErrInvalidSpan is returned for a calendar span whose end is not after
	// its start.
	ErrInvalidSpan = errors.New("invalid calendar span")
	// ErrMissingColumn is returned when a raw input lacks a required column.
	ErrMissingColumn = errors.New("missing column")
)

// PricePolicy decides how many material price points a production event
// joins when several fall in the production year.
type PricePolicy string

const (
	// PriceAll keeps every matching price point (one fact row each).
	PriceAll PricePolicy = "all"
	// PriceLatest keeps only the latest price point of the year.
	PriceLatest PricePolicy = "latest"
)

// ParsePricePolicy maps a config string onto a PricePolicy.
func ParsePricePolicy(s string) (PricePolicy, error) {
	switch PricePolicy(s) {
	case "", PriceAll:
		return PriceAll, nil
	case PriceLatest:
		return PriceLatest, nil
	}
	return "", fmt.Errorf("unknown price policy %q (want %q or %q)", s, PriceAll, PriceLatest)
}

// Options configures a Builder. Zero values get defaults in NewBuilder.
type Options struct {
	// Job labels emitted metrics.
	Job string
	// Clock stamps lastUpdate columns, once per relation.
	Clock decode.Clock
	// Rand draws synthetic sales dates.
	Rand decode.Intn
	// PriceDateLayout parses the "d" field of price points.
	PriceDateLayout string
	PricePolicy     PricePolicy
	Logger          *zap.SugaredLogger
}

// Builder derives every warehouse relation. Methods are safe for concurrent
// use except BuildSales, which draws from the shared random source.
type Builder struct {
	opt Options
	log *zap.SugaredLogger

	timeMu    sync.Mutex
	timeCache map[timeSpan][]TimeRow
}

type timeSpan struct{ start, end time.Time }

// NewBuilder returns a Builder with defaults applied to opt.
func NewBuilder(opt Options) *Builder {
	if opt.Job == "" {
		opt.Job = "starschema"
	}
	if opt.Clock == nil {
		opt.Clock = decode.SystemClock{}
	}
	if opt.Rand == nil {
		opt.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opt.PriceDateLayout == "" {
		opt.PriceDateLayout = decode.PriceDateLayout
	}
	if opt.PricePolicy == "" {
		opt.PricePolicy = PriceAll
	}
	log := opt.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Builder{
		opt:       opt,
		log:       log,
		timeCache: make(map[timeSpan][]TimeRow),
	}
}

// stamp captures the lastUpdate value shared by every row of one relation.
func (b *Builder) stamp() string { return decode.CurrentTimestamp(b.opt.Clock) }

// drop logs and counts rows removed by a join or a decode miss.
func (b *Builder) drop(relation, kind string, n int) {
	if n <= 0 {
		return
	}
	b.log.Infof("%s: dropped=%d reason=%s", relation, n, kind)
	metrics.RecordRow(b.opt.Job, kind, int64(n))
}

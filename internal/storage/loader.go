package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// CopyFn is a backend's bulk insert for one batch. It returns the number of
// rows inserted and must stop promptly when ctx is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadResult summarizes one LoadBatches call.
type LoadResult struct {
	Rows    int64
	Batches int64
}

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn per non-empty batch. It returns what was inserted before the
// first error. Progress is logged per flushed batch under label.
func LoadBatches(
	ctx context.Context,
	label string,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (LoadResult, error) {
	if batchSize <= 0 {
		return LoadResult{}, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return LoadResult{}, fmt.Errorf("copyFn must not be nil")
	}

	var (
		res       LoadResult
		batch     = make([][]any, 0, batchSize)
		start     = time.Now()
		lastFlush = start
		log       = zap.S()
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		res.Rows += n
		batch = batch[:0]
		if err != nil {
			log.Errorf("loader: table=%s copy failed after=%d total=%d err=%v", label, n, res.Rows, err)
			return err
		}

		res.Batches++
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(n) / since.Seconds()
		}
		log.Debugf("loader: table=%s batch=%d rps=%.0f inserted=%d total=%s elapsed=%s",
			label, res.Batches, rps, n, humanize.Comma(res.Rows), now.Sub(start).Truncate(time.Millisecond))
		lastFlush = now
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return res, err
				}
				return res, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return res, err
				}
			}
		}
	}
}

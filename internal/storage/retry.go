package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy bounds the connection bootstrap.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// DefaultRetryPolicy retries for up to a minute.
var DefaultRetryPolicy = RetryPolicy{
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     10 * time.Second,
	MaxElapsed:      time.Minute,
}

// OpenWithRetry calls New with exponential backoff. An unregistered kind is
// not retried.
func OpenWithRetry(ctx context.Context, cfg Config, p RetryPolicy) (Repository, error) {
	mu.RLock()
	_, known := factories[cfg.Kind]
	mu.RUnlock()
	if !known {
		return nil, unsupportedKind(cfg.Kind)
	}

	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = p.MaxElapsed

	var (
		repo    Repository
		attempt int
	)
	op := func() error {
		attempt++
		r, err := New(ctx, cfg)
		if err != nil {
			return err
		}
		repo = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		zap.S().Warnf("storage: kind=%s connect attempt=%d failed, retrying in %s: %v", cfg.Kind, attempt, wait, err)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(eb, ctx), notify); err != nil {
		return nil, fmt.Errorf("storage: connect kind=%s after %d attempts: %w", cfg.Kind, attempt, err)
	}
	return repo, nil
}

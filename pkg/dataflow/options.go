package dataflow

import (
	"context"
	"time"
)

// Option configures the behavior of pipeline stages.
type Option func(*config)

type config struct {
	workers    int
	maxRetries int
	backoff    func(int) time.Duration
	// errorHandler reports whether a failed item is handled. Handled items are skipped
	// without failing the stage.
	errorHandler func(error) bool
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		workers:    1,
		maxRetries: 0,
	}
}

func newConfig(opts []Option) *config {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// WithWorkers sets the number of concurrent workers for a stage.
// Default is 1 (sequential).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithRetry retries a failed operation up to maxRetries more times, sleeping backoff(attempt)
// before each retry. A nil backoff retries immediately.
func WithRetry(maxRetries int, backoff func(attempt int) time.Duration) Option {
	return func(c *config) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// WithErrorHandler sets a custom error handler, called once per item whose retries are exhausted.
// Returning true marks the error as handled and the item is skipped.
func WithErrorHandler(h func(error) bool) Option {
	return func(c *config) {
		c.errorHandler = h
	}
}

// ExponentialBackoff doubles the wait from base on each retry.
func ExponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base << (attempt - 1)
	}
}

// attempt runs op, retrying per the config. It stops early when ctx is done.
func (c *config) attempt(ctx context.Context, op func() error) error {
	err := op()
	for i := 1; err != nil && i <= c.maxRetries; i++ {
		if c.backoff != nil {
			timer := time.NewTimer(c.backoff(i))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		err = op()
	}
	return err
}

func (c *config) handled(err error) bool {
	return c.errorHandler != nil && c.errorHandler(err)
}

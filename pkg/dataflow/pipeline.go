// Package dataflow builds small channel pipelines: sources merged into one
// stream, concurrent transform stages with retry, and a blocking sink.
package dataflow

import (
	"context"
	"sync"
)

// Stream is a read-only channel of messages.
type Stream[T any] <-chan T

// From creates a stream from a slice of data.
func From[T any](ctx context.Context, items ...T) Stream[T] {
	out := make(chan T, len(items))
	go func() {
		defer close(out)
		for _, item := range items {
			if !send(ctx, out, item) {
				return
			}
		}
	}()
	return out
}

// Map transforms the stream using the provided function.
// Supports parallelism via WithWorkers; output order is not preserved with more than one worker.
// Items whose error is not handled by WithErrorHandler are dropped.
func Map[In, Out any](ctx context.Context, input Stream[In], fn func(context.Context, In) (Out, error), opts ...Option) Stream[Out] {
	cfg := newConfig(opts)

	out := make(chan Out)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}

				var res Out
				err := cfg.attempt(ctx, func() error {
					var err error
					res, err = fn(ctx, msg)
					return err
				})
				if err != nil {
					cfg.handled(err)
					continue
				}

				if !send(ctx, out, res) {
					return
				}
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// ForEach executes an action for every item in the stream.
// It blocks until the stream is exhausted or context cancelled, and returns the
// first error not handled by WithErrorHandler.
func ForEach[T any](ctx context.Context, input Stream[T], fn func(context.Context, T) error, opts ...Option) error {
	cfg := newConfig(opts)

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}

				err := cfg.attempt(ctx, func() error { return fn(ctx, msg) })
				if err != nil && !cfg.handled(err) {
					errOnce.Do(func() {
						firstErr = err
					})
				}
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return firstErr
}

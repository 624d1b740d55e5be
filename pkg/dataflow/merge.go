package dataflow

import (
	"context"
	"sync"
)

// Merge interleaves several streams into one. The result is closed once every
// input is drained or ctx is done.
func Merge[T any](ctx context.Context, streams ...Stream[T]) Stream[T] {
	out := make(chan T)

	var pending sync.WaitGroup
	pending.Add(len(streams))
	for _, s := range streams {
		go func(s Stream[T]) {
			defer pending.Done()
			for item := range s {
				if !send(ctx, out, item) {
					return
				}
			}
		}(s)
	}

	go func() {
		pending.Wait()
		close(out)
	}()
	return out
}

// send delivers item unless ctx is done first.
func send[T any](ctx context.Context, out chan<- T, item T) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- item:
		return true
	}
}

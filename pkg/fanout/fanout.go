// Package fanout runs one function over many inputs concurrently and waits for
// every call to settle before returning.
package fanout

import (
	"context"
	"sync"
)

// Settle calls fn for each input and returns the results in input order.
// Calls begin in input order: each one is launched only once the previous one
// has started. At most limit run at once (limit <= 0 means all at once). Settle
// never stops early: a slow or failing call does not keep the others from
// running, and every result is collected.
func Settle[T, R any](ctx context.Context, inputs []T, limit int, fn func(context.Context, T) R) []R {
	results := make([]R, len(inputs))
	if len(inputs) == 0 {
		return results
	}
	if limit <= 0 || limit > len(inputs) {
		limit = len(inputs)
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, item := range inputs {
		sem <- struct{}{}
		started := make(chan struct{})
		wg.Add(1)
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			close(started)
			results[i] = fn(ctx, item)
		}()
		<-started
	}

	wg.Wait()
	return results
}

// Errors runs fn like Settle and returns the non-nil errors, keyed by input index.
func Errors[T any](ctx context.Context, inputs []T, limit int, fn func(context.Context, T) error) map[int]error {
	errs := make(map[int]error)
	for i, err := range Settle(ctx, inputs, limit, fn) {
		if err != nil {
			errs[i] = err
		}
	}
	return errs
}

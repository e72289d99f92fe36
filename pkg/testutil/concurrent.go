package testutil

import (
	"sync"
	"sync/atomic"
)

// RunConcurrent executes fn in parallel goroutines and returns the number of
// successes and all collected errors. This helper replaces the common pattern
// of WaitGroup + atomic counters in concurrency tests.
func RunConcurrent(goroutines int, fn func(idx int) error) (successes int32, errs []error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successCount atomic.Int32
	collected := make([]error, 0)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := fn(idx); err != nil {
				mu.Lock()
				collected = append(collected, err)
				mu.Unlock()
				return
			}
			successCount.Add(1)
		}(i)
	}

	wg.Wait()
	return successCount.Load(), collected
}

// CollectResults runs fn in parallel goroutines and gathers each non-nil
// result. Used by tests that need to compare the values concurrent callers
// observed, not just whether they failed.
func CollectResults[T any](goroutines int, fn func(idx int) (T, error)) (results []T, errs []error) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v, err := fn(idx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results = append(results, v)
		}(i)
	}

	wg.Wait()
	return results, errs
}

package recommend

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// fanOut runs fn for every index in [0, n) with at most limit calls in
// flight and waits for all of them. A failing call never cancels its
// siblings; calls that cannot acquire a slot before ctx ends are skipped.
func fanOut(ctx context.Context, limit int, n int, fn func(ctx context.Context, i int)) {
	if n == 0 {
		return
	}
	if limit < 1 {
		limit = 1
	}

	sem := semaphore.NewWeighted(int64(limit))
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)
			fn(ctx, idx)
		}(i)
	}
	wg.Wait()
}

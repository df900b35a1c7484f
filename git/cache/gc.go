package cache

import (
	"context"
	"sync"
	"time"
)

// StartGC starts a background garbage collector that periodically prunes the cache.
// The GC runs at the specified interval using the provided pruning strategies.
// Failed runs are logged and retried at the next tick.
//
// Returns a function to stop the garbage collector. This function is safe to call
// multiple times and will block until the GC goroutine has fully stopped; a
// prune in progress is canceled.
//
// Examples:
//
//	// Start GC that runs every 5 minutes, removing expired checkouts
//	stop := cache.StartGC(5*time.Minute, PruneExpired())
//	defer stop()
//
//	// Worker service with multiple strategies
//	stop := cache.StartGC(10*time.Minute,
//	    PruneExpired(),
//	    PruneOlderThan(24*time.Hour))
//	defer stop()
func (c *RepositoryCache) StartGC(interval time.Duration, strategies ...PruneStrategy) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := c.Prune(ctx, strategies...)
				if err != nil {
					c.logger.Warn("cache gc failed", "error", err)
					continue
				}
				if n > 0 {
					c.logger.Info("cache gc pruned checkouts", "count", n)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

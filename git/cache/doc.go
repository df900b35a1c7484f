// Package cache provides efficient caching of Git repositories with two-tier storage.
//
// # Overview
//
// The repository cache avoids repeated network operations by maintaining:
//
//  1. Bare clones (Tier 1): Single source of truth for Git objects, one per remote
//  2. Worktree checkouts (Tier 2): Linked worktrees of the bare clones
//  3. Metadata index: Tracks checkout lifecycle with TTL-based expiration
//
// Everything runs through the git package, so the cache needs a git binary
// and the OS filesystem.
//
// # Architecture
//
//	$XDG_CACHE_HOME/gitcli/
//	├── index.json               # Metadata index
//	├── bare/                    # Tier 1: Bare clones
//	│   └── github.com/
//	│       └── my/
//	│           └── repo.git/
//	└── checkouts/               # Tier 2: Worktrees
//	    └── github.com/my/repo/
//	        ├── main/
//	        │   ├── team-docs/       # Persistent checkout
//	        │   └── build-abc123/    # Ephemeral checkout
//	        └── v1.0.0/
//	            └── prod-ref/
//
// Bare clones mirror the remote's branches and tags (refs/heads/* and
// refs/tags/*), and checkouts detach HEAD at the ref, so several checkouts of
// the same branch can coexist and a fetch never conflicts with them.
//
// # Usage
//
//	cache, err := cache.NewRepositoryCache("")
//	if err != nil {
//	    return err
//	}
//
//	// Persistent checkout with stable key
//	path, err := cache.GetCheckout(ctx, "https://github.com/my/repo", "team-docs",
//	    cache.WithRef("main"))
//
//	// Ephemeral checkout with unique key and TTL
//	path, err = cache.GetCheckout(ctx, "https://github.com/my/repo", buildID,
//	    cache.WithRef("main"),
//	    cache.WithTTL(1*time.Hour))
//
//	// Clone several remotes ahead of time
//	err = cache.Warm(ctx, urls)
//
// Start background garbage collection:
//
//	stop := cache.StartGC(5*time.Minute, cache.PruneExpired())
//	defer stop()
//
// # Cache Keys
//
// Checkouts are identified by a composite key: (URL + ref + cacheKey)
//
//   - Same composite key = reuses existing checkout
//   - Different cache key = creates isolated checkout
//   - Different ref = creates separate checkout for that ref
//
// Use stable keys (e.g., "team-docs") for persistent checkouts that should be
// reused across calls. Use unique keys (e.g., UUID) for ephemeral checkouts
// that should be isolated and cleaned up after use.
package cache

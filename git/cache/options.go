package cache

import (
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/jmgilman/gitcli/git"
)

// WithUpdate fetches from the remote and refreshes the checkout before
// returning. Without this option, cached data is returned as-is (may be stale).
//
// Example:
//
//	path, _ := cache.GetCheckout(ctx, url, key, WithUpdate())
func WithUpdate() CacheOption {
	return func(opts *cacheOptions) {
		opts.update = true
	}
}

// WithAuth provides authentication for network operations.
//
// Example:
//
//	auth, _ := git.SSHKeyFile("git", "~/.ssh/id_ed25519")
//	path, _ := cache.GetCheckout(ctx, url, key, WithAuth(auth))
func WithAuth(auth git.Auth) CacheOption {
	return func(opts *cacheOptions) {
		opts.auth = auth
	}
}

// WithDepth sets shallow clone depth (0 = full clone).
func WithDepth(depth int) CacheOption {
	return func(opts *cacheOptions) {
		opts.depth = depth
	}
}

// WithRef specifies which Git reference to checkout (branch, tag, or commit).
// If not specified, uses the remote's default branch.
// The ref becomes part of the composite cache key.
//
// Example:
//
//	path, _ := cache.GetCheckout(ctx, url, key, WithRef("v1.0.0"))
func WithRef(ref string) CacheOption {
	return func(opts *cacheOptions) {
		opts.ref = ref
	}
}

// WithTTL sets time-to-live for automatic cleanup via Prune().
// Use for ephemeral checkouts (e.g., CI/CD builds).
//
// Example:
//
//	path, _ := cache.GetCheckout(ctx, url, buildID, WithTTL(1*time.Hour))
func WithTTL(ttl time.Duration) CacheOption {
	return func(opts *cacheOptions) {
		opts.ttl = &ttl
	}
}

// WithProgress streams clone and fetch progress to ch. The channel is closed
// once the network step of the call is over.
func WithProgress(ch chan<- git.ProgressEvent) CacheOption {
	return func(opts *cacheOptions) {
		opts.progress = ch
	}
}

// PruneExpired removes checkouts with expired TTL.
// This is the default strategy if no strategies are provided.
func PruneExpired() PruneStrategy {
	return &pruneExpired{}
}

// PruneOlderThan removes checkouts not accessed within the specified duration.
//
// Example:
//
//	cache.Prune(ctx, PruneOlderThan(7*24*time.Hour))
func PruneOlderThan(maxAge time.Duration) PruneStrategy {
	return &pruneOlderThan{maxAge: maxAge}
}

// PruneToSize removes least-recently-accessed checkouts until the checkouts
// fit under maxBytes. Persistent checkouts (no TTL) are never removed.
func PruneToSize(maxBytes int64) PruneStrategy {
	return &pruneToSize{maxBytes: maxBytes}
}

// WithFilesystem sets the billy filesystem used for the cache directories
// and the index. It must be rooted at "/" since git sees the same paths.
func WithFilesystem(fs billy.Filesystem) RepositoryCacheOption {
	return func(opts *repositoryCacheOptions) {
		opts.fs = fs
	}
}

// WithGitOptions sets options passed to every repository the cache clones
// or opens, for example git.WithExecutor or git.WithEnv.
func WithGitOptions(opts ...git.RepositoryOption) RepositoryCacheOption {
	return func(o *repositoryCacheOptions) {
		o.gitOpts = append(o.gitOpts, opts...)
	}
}

// WithLogger sets the structured logger. Repositories opened by the cache
// log through it too.
func WithLogger(logger *slog.Logger) RepositoryCacheOption {
	return func(opts *repositoryCacheOptions) {
		opts.logger = logger
	}
}

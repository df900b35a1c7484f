package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmgilman/gitcli/git"
	platformerrors "github.com/jmgilman/go/errors"
)

// GetCheckout returns a path to a working tree suitable for symlinking or temporary use.
//
// The checkout is identified by a composite key: (url + ref + cacheKey).
// - Same composite key = reuses existing checkout (if it exists)
// - Different cache key = creates isolated checkout
// - Different ref = creates separate checkout for that ref
//
// If the repository doesn't exist in cache, it's cloned bare. Checkouts are
// linked worktrees of that clone with a detached HEAD. If WithUpdate() is
// specified, the clone is fetched and the checkout is forced to the ref's
// new commit, with untracked files removed.
//
// The cacheKey controls checkout lifecycle:
// - Stable key (e.g., "team-docs") = persistent, reused across calls
// - Unique key (e.g., UUID) = ephemeral, intended for single use
//
// Ephemeral checkouts should specify WithTTL() to enable automatic cleanup.
//
// The returned path remains valid across calls and can be safely symlinked.
//
// Examples:
//
//	// Persistent checkout with stable key
//	path, _ := cache.GetCheckout(ctx, "https://github.com/my/docs", "team-docs",
//	    WithRef("main"))
//	os.Symlink(filepath.Join(path, "docs"), ".sow/refs/team-docs")
//
//	// Ephemeral checkout with unique key and TTL
//	path, _ := cache.GetCheckout(ctx, "https://github.com/my/repo", buildID,
//	    WithRef("main"),
//	    WithTTL(1*time.Hour))
//	defer cache.RemoveCheckout(ctx, url, buildID)
//
//	// Force fresh update
//	path, _ := cache.GetCheckout(ctx, url, "build",
//	    WithUpdate(),
//	    WithAuth(auth))
func (c *RepositoryCache) GetCheckout(ctx context.Context, url, cacheKey string, opts ...CacheOption) (string, error) {
	options := &cacheOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if err := validateCacheKey(cacheKey); err != nil {
		closeProgress(options.progress)
		return "", err
	}

	// Tier 1
	bareRepo, cloned, err := c.getOrCreateBareRepo(ctx, url, options)
	if !cloned {
		if err == nil && options.update {
			err = c.updateBareRepo(ctx, bareRepo, options)
		} else {
			closeProgress(options.progress)
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to get bare repository: %w", err)
	}

	ref := options.ref
	if ref == "" {
		ref, err = bareRepo.CurrentBranch(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to get default branch: %w", err)
		}
		if ref == "" {
			return "", platformerrors.WithContext(
				platformerrors.New(platformerrors.CodeNotFound, "remote has no default branch, use WithRef"),
				"url", url,
			)
		}
	}

	if cleanPath(ref) != ref {
		return "", platformerrors.WithContext(
			platformerrors.New(platformerrors.CodeInvalidInput, "ref cannot be used as a checkout directory"),
			"ref", ref,
		)
	}

	compositeKey := makeCompositeKey(url, ref, cacheKey)

	// Tier 2
	checkoutPath, head, err := c.getOrCreateCheckout(ctx, url, ref, cacheKey, compositeKey, bareRepo, options)
	if err != nil {
		return "", fmt.Errorf("failed to get checkout: %w", err)
	}

	c.updateCheckoutMetadata(url, ref, cacheKey, compositeKey, head, options)

	if err := c.index.save(c.fs, c.indexPath); err != nil {
		return "", fmt.Errorf("failed to save index: %w", err)
	}

	return checkoutPath, nil
}

// getOrCreateCheckout returns a checkout from cache or creates it. head is
// the commit checked out when this call created or refreshed the checkout,
// and zero otherwise.
func (c *RepositoryCache) getOrCreateCheckout(
	ctx context.Context,
	url, ref, cacheKey, compositeKey string,
	bareRepo *git.Repository,
	opts *cacheOptions,
) (string, git.ObjectID, error) {
	checkoutPath := filepath.Join(c.checkoutDir, normalizeURL(url), ref, cacheKey)

	c.mu.RLock()
	repo, exists := c.checkouts[compositeKey]
	c.mu.RUnlock()
	if exists {
		if !opts.update {
			return checkoutPath, git.ZeroID, nil
		}
		head, err := c.refreshCheckout(ctx, repo, ref)
		return checkoutPath, head, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check under the write lock.
	repo, exists = c.checkouts[compositeKey]
	if !exists {
		if _, err := c.fs.Stat(checkoutPath); err == nil {
			repo, err = git.Open(ctx, checkoutPath, c.gitOpts...)
			if err != nil {
				return "", git.ZeroID, fmt.Errorf("failed to open checkout at %s: %w", checkoutPath, err)
			}
			c.checkouts[compositeKey] = repo
		} else {
			repo, head, err := c.createCheckout(ctx, checkoutPath, bareRepo, ref)
			if err != nil {
				return "", git.ZeroID, fmt.Errorf("failed to create checkout: %w", err)
			}
			c.checkouts[compositeKey] = repo
			return checkoutPath, head, nil
		}
	}

	if !opts.update {
		return checkoutPath, git.ZeroID, nil
	}
	head, err := c.refreshCheckout(ctx, repo, ref)
	return checkoutPath, head, err
}

// createCheckout adds a detached worktree of the bare clone at checkoutPath.
func (c *RepositoryCache) createCheckout(ctx context.Context, checkoutPath string, bareRepo *git.Repository, ref string) (*git.Repository, git.ObjectID, error) {
	c.logger.Debug("creating checkout", "path", checkoutPath, "ref", ref)

	wt, err := bareRepo.CreateWorktree(ctx, checkoutPath, ref, git.WorktreeOptions{Detach: true})
	if err != nil {
		return nil, git.ZeroID, err
	}
	repo := wt.Repository()
	head, err := repo.Head(ctx)
	if err != nil {
		return nil, git.ZeroID, err
	}
	return repo, head, nil
}

// refreshCheckout moves a checkout to the current commit of ref, discarding
// local modifications and untracked files. Symlinks into the checkout
// survive since the directory itself stays.
func (c *RepositoryCache) refreshCheckout(ctx context.Context, checkout *git.Repository, ref string) (git.ObjectID, error) {
	c.logger.Debug("refreshing checkout", "path", checkout.Path(), "ref", ref)

	res, err := checkout.Checkout(ctx, ref, git.CheckoutOptions{Force: true, Detach: true})
	if err != nil {
		return git.ZeroID, fmt.Errorf("failed to refresh checkout: %w", err)
	}
	if res.Canceled {
		return git.ZeroID, fmt.Errorf("refresh canceled: %w", context.Cause(ctx))
	}
	if _, err := checkout.Clean(ctx, git.CleanOptions{Force: true, Directories: true}); err != nil {
		return git.ZeroID, fmt.Errorf("failed to clean checkout: %w", err)
	}
	return res.Head, nil
}

// updateCheckoutMetadata updates or creates metadata for a checkout.
func (c *RepositoryCache) updateCheckoutMetadata(url, ref, cacheKey, compositeKey string, head git.ObjectID, opts *cacheOptions) {
	if metadata := c.index.get(compositeKey); metadata != nil {
		c.index.touch(compositeKey, head)
		return
	}

	now := time.Now()
	metadata := &CheckoutMetadata{
		URL:        url,
		Ref:        ref,
		CacheKey:   cacheKey,
		CreatedAt:  now,
		LastAccess: now,
		TTL:        opts.ttl,
	}
	if !head.IsZero() {
		metadata.Head = head.String()
	}
	if opts.ttl != nil {
		expiresAt := now.Add(*opts.ttl)
		metadata.ExpiresAt = &expiresAt
	}

	c.index.set(compositeKey, metadata)
}

// RemoveCheckout removes a specific checkout by URL and cache key.
// Every ref checked out under the key is removed: the worktree is
// unregistered from the bare clone, its directory deleted and its index
// entry dropped.
//
// Example:
//
//	cache.RemoveCheckout(ctx, "https://github.com/my/repo", "build-abc123")
func (c *RepositoryCache) RemoveCheckout(ctx context.Context, url, cacheKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var found bool
	pruned := make(map[string]*git.Repository)
	for key, metadata := range c.index.filterByURL(url) {
		if metadata.CacheKey != cacheKey {
			continue
		}
		found = true
		c.removeCheckoutLocked(ctx, key, metadata, pruned)
	}
	if !found {
		return platformerrors.WithContextMap(
			platformerrors.New(platformerrors.CodeNotFound, "no checkout found"),
			map[string]interface{}{"url": url, "cache_key": cacheKey},
		)
	}
	c.pruneWorktrees(ctx, pruned)

	if err := c.index.save(c.fs, c.indexPath); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}
	return nil
}

// pruneWorktrees drops stale worktree records from the given bare clones.
func (c *RepositoryCache) pruneWorktrees(ctx context.Context, repos map[string]*git.Repository) {
	for url, repo := range repos {
		if err := repo.PruneWorktrees(ctx); err != nil {
			c.logger.Warn("failed to prune worktrees", "repository", url, "error", err)
		}
	}
}

// validateCacheKey rejects keys that would escape their checkout directory.
func validateCacheKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return platformerrors.WithContext(
			platformerrors.New(platformerrors.CodeInvalidInput, "invalid cache key"),
			"cache_key", key,
		)
	}
	return nil
}

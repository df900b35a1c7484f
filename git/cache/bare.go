package cache

import (
	"context"
	"fmt"

	"github.com/jmgilman/gitcli/git"
)

// bareRefSpecs mirror the remote's branches and tags into the bare clone, so
// checkouts resolve "main" or "v1.0.0" exactly as the remote names them.
var bareRefSpecs = []string{
	"+refs/heads/*:refs/heads/*",
	"+refs/tags/*:refs/tags/*",
}

// getOrCreateBareRepo returns a bare clone from cache or creates it.
//
// This method:
// 1. Checks if the bare clone is already in memory cache
// 2. If not in memory, checks if it exists on disk and opens it
// 3. If not on disk, clones it from the remote URL
//
// Concurrent callers for the same URL share one clone. cloned reports whether
// this call ran the clone; the progress channel in opts was then handed to
// it and is closed, and the clone is already up to date.
func (c *RepositoryCache) getOrCreateBareRepo(ctx context.Context, url string, opts *cacheOptions) (repo *git.Repository, cloned bool, err error) {
	normalized := normalizeURL(url)

	c.mu.RLock()
	repo, exists := c.bare[normalized]
	c.mu.RUnlock()
	if exists {
		return repo, false, nil
	}

	v, err, _ := c.flight.Do(normalized, func() (any, error) {
		c.mu.RLock()
		repo, exists := c.bare[normalized]
		c.mu.RUnlock()
		if exists {
			return repo, nil
		}

		barePath := c.barePath(normalized)
		if _, err := c.fs.Stat(barePath); err == nil {
			repo, err = git.Open(ctx, barePath, c.gitOpts...)
			if err != nil {
				return nil, fmt.Errorf("failed to open bare repository at %s: %w", barePath, err)
			}
		} else {
			cloned = true
			repo, err = c.cloneBareRepo(ctx, url, barePath, opts)
			if err != nil {
				return nil, err
			}
		}

		c.mu.Lock()
		c.bare[normalized] = repo
		c.mu.Unlock()
		return repo, nil
	})
	if err != nil {
		return nil, cloned, err
	}
	return v.(*git.Repository), cloned, nil
}

// cloneBareRepo clones a remote repository as a bare repository and
// configures it to mirror branches and tags on fetch. A canceled clone
// leaves nothing behind.
func (c *RepositoryCache) cloneBareRepo(ctx context.Context, url, barePath string, opts *cacheOptions) (*git.Repository, error) {
	c.logger.Debug("cloning bare repository", "url", url, "path", barePath, "depth", opts.depth)

	cloneOpts := append(c.gitOpts[:len(c.gitOpts):len(c.gitOpts)],
		git.WithBare(),
		git.WithDepth(opts.depth),
		git.WithAuth(opts.auth),
		git.WithProgress(opts.progress),
	)
	repo, err := git.Clone(ctx, url, barePath, cloneOpts...)
	if err == nil && repo == nil {
		err = context.Cause(ctx)
	}
	if err != nil {
		if rmErr := c.removeAll(barePath); rmErr != nil {
			c.logger.Warn("failed to remove partial clone", "path", barePath, "error", rmErr)
		}
		return nil, fmt.Errorf("failed to clone bare repository %s: %w", url, err)
	}

	if err := repo.ConfigSet(ctx, "remote.origin.fetch", bareRefSpecs[0]); err != nil {
		return nil, fmt.Errorf("failed to configure bare repository: %w", err)
	}
	return repo, nil
}

// updateBareRepo fetches the latest branches and tags from the remote.
// Branches deleted upstream are pruned.
func (c *RepositoryCache) updateBareRepo(ctx context.Context, repo *git.Repository, opts *cacheOptions) error {
	c.logger.Debug("fetching bare repository", "path", repo.Path())

	res, err := repo.Fetch(ctx, git.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   bareRefSpecs,
		Auth:       opts.auth,
		Depth:      opts.depth,
		Prune:      true,
		Progress:   opts.progress,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch from remote: %w", err)
	}
	if res.Canceled {
		return fmt.Errorf("fetch canceled: %w", context.Cause(ctx))
	}
	return nil
}

package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jmgilman/gitcli/git"
	platformerrors "github.com/jmgilman/go/errors"
	"golang.org/x/sync/errgroup"
)

// warmLimit bounds the clones and fetches Warm runs at once.
const warmLimit = 4

// DefaultBasePath returns the cache directory used when NewRepositoryCache
// is given an empty path: $XDG_CACHE_HOME/gitcli.
func DefaultBasePath() string {
	return filepath.Join(xdg.CacheHome, "gitcli")
}

// NewRepositoryCache creates a new repository cache at the specified base path.
// The cache manages bare clones and worktree checkouts with metadata tracking.
//
// An empty basePath selects DefaultBasePath. The cache creates two
// subdirectories (bare/, checkouts/) and an index.json file.
//
// By default, NewRepositoryCache uses the local filesystem (osfs) rooted at
// "/". Git runs against the same paths, so a memory filesystem only works
// for the index; checkouts fail with git.ErrMemoryFilesystem.
//
// Example:
//
//	cache, err := cache.NewRepositoryCache("")
//
//	// With a scripted git (for testing)
//	cache, err := cache.NewRepositoryCache(t.TempDir(),
//	    cache.WithGitOptions(git.WithExecutor(fake)))
func NewRepositoryCache(basePath string, opts ...RepositoryCacheOption) (*RepositoryCache, error) {
	options := &repositoryCacheOptions{
		fs: osfs.New("/"),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if basePath == "" {
		basePath = DefaultBasePath()
	}
	basePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "failed to resolve cache path")
	}

	fs := options.fs
	bareDir := filepath.Join(basePath, "bare")
	checkoutDir := filepath.Join(basePath, "checkouts")
	indexPath := filepath.Join(basePath, "index.json")

	if err := fs.MkdirAll(bareDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bare directory: %w", err)
	}
	if err := fs.MkdirAll(checkoutDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkouts directory: %w", err)
	}

	gitOpts := []git.RepositoryOption{git.WithFilesystem(fs), git.WithLogger(options.logger)}
	cache := &RepositoryCache{
		basePath:    basePath,
		bareDir:     bareDir,
		checkoutDir: checkoutDir,
		indexPath:   indexPath,
		fs:          fs,
		gitOpts:     append(gitOpts, options.gitOpts...),
		logger:      options.logger.With("component", "cache"),
		bare:        make(map[string]*git.Repository),
		checkouts:   make(map[string]*git.Repository),
	}

	index, err := loadOrCreateIndex(fs, indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	cache.index = index

	return cache, nil
}

// Path returns the absolute base directory of the cache.
func (c *RepositoryCache) Path() string {
	return c.basePath
}

// Warm makes sure a bare clone exists for every url, cloning the missing
// ones concurrently. With WithUpdate, existing clones are fetched as well.
// WithRef and WithProgress are ignored.
//
// Example:
//
//	err := cache.Warm(ctx, []string{repoA, repoB}, cache.WithUpdate())
func (c *RepositoryCache) Warm(ctx context.Context, urls []string, opts ...CacheOption) error {
	options := &cacheOptions{}
	for _, opt := range opts {
		opt(options)
	}
	closeProgress(options.progress)
	options.progress = nil

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmLimit)
	for _, url := range urls {
		g.Go(func() error {
			repo, cloned, err := c.getOrCreateBareRepo(ctx, url, options)
			if err != nil {
				return fmt.Errorf("failed to warm %s: %w", url, err)
			}
			if options.update && !cloned {
				if err := c.updateBareRepo(ctx, repo, options); err != nil {
					return fmt.Errorf("failed to warm %s: %w", url, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Clear removes all cached data for a specific URL.
// This includes the bare clone, all checkouts for that URL, and index entries.
//
// Example:
//
//	cache.Clear(ctx, "https://github.com/my/repo")
func (c *RepositoryCache) Clear(ctx context.Context, url string) error {
	normalized := normalizeURL(url)

	c.mu.Lock()
	defer c.mu.Unlock()

	// The bare clone goes too, so its worktree records need no pruning.
	discard := make(map[string]*git.Repository)
	for key, metadata := range c.index.filterByURL(url) {
		c.removeCheckoutLocked(ctx, key, metadata, discard)
	}

	barePath := c.barePath(normalized)
	if err := c.removeAll(barePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove bare repository: %w", err)
	}
	delete(c.bare, normalized)

	if err := c.index.save(c.fs, c.indexPath); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}
	return nil
}

// ClearAll removes all cached repositories and resets the cache.
// This removes all bare clones, checkouts, and the index.
func (c *RepositoryCache) ClearAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, dir := range []string{c.checkoutDir, c.bareDir} {
		if err := c.removeAll(dir); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
		if err := c.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to recreate %s: %w", dir, err)
		}
	}

	c.bare = make(map[string]*git.Repository)
	c.checkouts = make(map[string]*git.Repository)
	c.index.reset()

	if err := c.index.save(c.fs, c.indexPath); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}
	return nil
}

// Stats returns statistics about the cache (entries, disk usage, etc.).
func (c *RepositoryCache) Stats() (*CacheStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := c.index.list()
	stats := &CacheStats{Checkouts: len(all)}

	// Bare clones live at bare/<normalized URL>.git, so every directory with
	// that suffix is one clone, whether or not this process has opened it.
	_ = c.walkDir(c.bareDir, func(path string, info os.FileInfo) error {
		switch {
		case !info.IsDir():
			stats.BareSize += info.Size()
		case strings.HasSuffix(path, ".git"):
			stats.BareRepos++
		}
		return nil
	})
	if size, err := c.calculateDirSize(c.checkoutDir); err == nil {
		stats.CheckoutsSize = size
	}
	stats.TotalSize = stats.BareSize + stats.CheckoutsSize

	for _, metadata := range all {
		if stats.OldestCheckout == nil || metadata.CreatedAt.Before(*stats.OldestCheckout) {
			t := metadata.CreatedAt
			stats.OldestCheckout = &t
		}
		if stats.NewestCheckout == nil || metadata.CreatedAt.After(*stats.NewestCheckout) {
			t := metadata.CreatedAt
			stats.NewestCheckout = &t
		}
	}

	return stats, nil
}

// Checkouts returns the metadata of every checkout keyed by composite key.
func (c *RepositoryCache) Checkouts() map[string]*CheckoutMetadata {
	return c.index.list()
}

func (c *RepositoryCache) barePath(normalized string) string {
	return filepath.Join(c.bareDir, normalized+".git")
}

func (c *RepositoryCache) checkoutPath(metadata *CheckoutMetadata) string {
	return filepath.Join(c.checkoutDir, normalizeURL(metadata.URL), metadata.Ref, metadata.CacheKey)
}

// removeCheckoutLocked deletes one checkout. The caller holds c.mu. The
// worktree is unregistered from its bare clone when the clone exists, and
// its directory is removed either way. The bare clone is added to pruned,
// or pruned immediately when pruned is nil.
func (c *RepositoryCache) removeCheckoutLocked(ctx context.Context, key string, metadata *CheckoutMetadata, pruned map[string]*git.Repository) {
	path := c.checkoutPath(metadata)
	normalized := normalizeURL(metadata.URL)

	bare := c.loadBareLocked(ctx, normalized)
	if bare != nil {
		if err := bare.RemoveWorktree(ctx, path, true); err != nil {
			c.logger.Debug("worktree remove failed, deleting directory", "path", path, "error", err)
		}
	}
	if err := c.removeAll(path); err != nil {
		c.logger.Warn("failed to remove checkout directory", "path", path, "error", err)
	}

	if bare != nil {
		if pruned == nil {
			c.pruneWorktrees(ctx, map[string]*git.Repository{normalized: bare})
		} else {
			pruned[normalized] = bare
		}
	}

	delete(c.checkouts, key)
	c.index.delete(key)
}

// loadBareLocked returns the bare clone for normalized, opening it from
// disk when this process has not used it yet. It never clones. The caller
// holds c.mu.
func (c *RepositoryCache) loadBareLocked(ctx context.Context, normalized string) *git.Repository {
	if repo, ok := c.bare[normalized]; ok {
		return repo
	}
	barePath := c.barePath(normalized)
	if _, err := c.fs.Stat(barePath); err != nil {
		return nil
	}
	repo, err := git.Open(ctx, barePath, c.gitOpts...)
	if err != nil {
		c.logger.Warn("failed to open bare repository", "path", barePath, "error", err)
		return nil
	}
	c.bare[normalized] = repo
	return repo
}

func closeProgress(ch chan<- git.ProgressEvent) {
	if ch != nil {
		close(ch)
	}
}

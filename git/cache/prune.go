package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/jmgilman/gitcli/git"
)

// Prune removes checkouts based on the provided strategies and reports how
// many were removed. A checkout is removed when any strategy selects it.
//
// If no strategies are provided, defaults to removing expired checkouts.
// Removed worktrees are unregistered from their bare clones.
//
// Examples:
//
//	// Remove expired checkouts (TTL-based)
//	n, err := cache.Prune(ctx)
//
//	// Remove checkouts not accessed in 7 days
//	n, err := cache.Prune(ctx, PruneOlderThan(7*24*time.Hour))
//
//	// Multiple strategies (OR logic)
//	n, err := cache.Prune(ctx, PruneExpired(), PruneOlderThan(30*24*time.Hour))
func (c *RepositoryCache) Prune(ctx context.Context, strategies ...PruneStrategy) (int, error) {
	if len(strategies) == 0 {
		strategies = []PruneStrategy{PruneExpired()}
	}

	var sizeStrategy *pruneToSize
	var otherStrategies []PruneStrategy
	for _, strategy := range strategies {
		if ps, ok := strategy.(*pruneToSize); ok {
			sizeStrategy = ps
		} else {
			otherStrategies = append(otherStrategies, strategy)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	allMetadata := c.index.list()
	var toRemove []string
	for key, metadata := range allMetadata {
		for _, strategy := range otherStrategies {
			if strategy.ShouldPrune(metadata) {
				toRemove = append(toRemove, key)
				break
			}
		}
	}

	if sizeStrategy != nil {
		toRemove = append(toRemove, c.applySizeStrategy(sizeStrategy, allMetadata, toRemove)...)
	}

	slices.Sort(toRemove)
	toRemove = slices.Compact(toRemove)
	if len(toRemove) == 0 {
		return 0, nil
	}

	pruned := make(map[string]*git.Repository)
	for _, key := range toRemove {
		c.logger.Debug("pruning checkout", "key", key)
		c.removeCheckoutLocked(ctx, key, allMetadata[key], pruned)
	}
	c.pruneWorktrees(ctx, pruned)

	if err := c.index.save(c.fs, c.indexPath); err != nil {
		return len(toRemove), fmt.Errorf("failed to save index: %w", err)
	}
	return len(toRemove), nil
}

// applySizeStrategy determines which checkouts to remove to stay under size limit.
// It removes least-recently-accessed checkouts first, but never removes persistent
// checkouts (those without TTL).
func (c *RepositoryCache) applySizeStrategy(strategy *pruneToSize, allMetadata map[string]*CheckoutMetadata, alreadyMarked []string) []string {
	sizes := make(map[string]int64, len(allMetadata))
	var total int64
	for key, metadata := range allMetadata {
		size, err := c.calculateDirSize(c.checkoutPath(metadata))
		if err != nil {
			continue
		}
		sizes[key] = size
		total += size
	}
	// Space already being freed counts toward the limit.
	for _, key := range alreadyMarked {
		total -= sizes[key]
	}
	if total <= strategy.maxBytes {
		return nil
	}

	type candidate struct {
		key        string
		lastAccess time.Time
	}
	var candidates []candidate
	for key, metadata := range allMetadata {
		if slices.Contains(alreadyMarked, key) || metadata.TTL == nil {
			continue
		}
		if _, ok := sizes[key]; !ok {
			continue
		}
		candidates = append(candidates, candidate{key: key, lastAccess: metadata.LastAccess})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].lastAccess.Before(candidates[j].lastAccess)
	})

	var toRemove []string
	for _, cand := range candidates {
		if total <= strategy.maxBytes {
			break
		}
		toRemove = append(toRemove, cand.key)
		total -= sizes[cand.key]
	}
	return toRemove
}

// calculateDirSize calculates the disk usage of a directory recursively.
func (c *RepositoryCache) calculateDirSize(path string) (int64, error) {
	info, err := c.fs.Lstat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}

	var size int64
	err = c.walkDir(path, func(_ string, info os.FileInfo) error {
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// walkDir walks a directory tree without following symlinks.
func (c *RepositoryCache) walkDir(root string, fn func(path string, info os.FileInfo) error) error {
	entries, err := c.fs.ReadDir(root)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		info, err := c.fs.Lstat(path)
		if err != nil {
			continue
		}
		if err := fn(path, info); err != nil {
			return err
		}
		if info.IsDir() {
			if err := c.walkDir(path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// removeAll removes a path and all its children. A missing path is not an
// error.
func (c *RepositoryCache) removeAll(path string) error {
	info, err := c.fs.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return c.fs.Remove(path)
	}

	entries, err := c.fs.ReadDir(path)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := c.removeAll(filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}
	return c.fs.Remove(path)
}

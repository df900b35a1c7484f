package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/gitcli/git"
	platformerrors "github.com/jmgilman/go/errors"
)

const indexVersion = "2"

// ErrIndexVersion is returned when index.json was written by an
// incompatible version of the cache.
var ErrIndexVersion = platformerrors.New(platformerrors.CodeSchemaVersionIncompatible, "unsupported cache index version")

// cacheIndex manages the metadata index for all checkouts.
// It provides thread-safe access to checkout metadata with JSON persistence.
type cacheIndex struct {
	Version   string                       `json:"version"`
	Checkouts map[string]*CheckoutMetadata `json:"checkouts"`
	mu        sync.RWMutex
}

func newIndex() *cacheIndex {
	return &cacheIndex{
		Version:   indexVersion,
		Checkouts: make(map[string]*CheckoutMetadata),
	}
}

// loadOrCreateIndex loads an existing index from disk or creates a new one.
// A missing file yields an empty index; a corrupt one is an error.
func loadOrCreateIndex(fs billy.Filesystem, path string) (*cacheIndex, error) {
	data, err := util.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return newIndex(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var index cacheIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}
	if index.Version != indexVersion {
		return nil, platformerrors.WrapWithContext(ErrIndexVersion, platformerrors.CodeSchemaVersionIncompatible, "failed to load index", map[string]interface{}{
			"found":    index.Version,
			"expected": indexVersion,
		})
	}
	if index.Checkouts == nil {
		index.Checkouts = make(map[string]*CheckoutMetadata)
	}

	return &index, nil
}

// save writes the index to disk atomically via write-to-temp and rename.
func (idx *cacheIndex) save(fs billy.Filesystem, path string) error {
	idx.mu.RLock()
	data, err := json.MarshalIndent(idx, "", "  ")
	idx.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := util.WriteFile(fs, tmpPath, data, 0o644); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary index file: %w", err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("failed to rename index file: %w", err)
	}

	return nil
}

// get retrieves checkout metadata by composite key.
// Returns nil if the key doesn't exist.
func (idx *cacheIndex) get(key string) *CheckoutMetadata {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Checkouts[key]
}

func (idx *cacheIndex) set(key string, metadata *CheckoutMetadata) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.Checkouts[key] = metadata
}

func (idx *cacheIndex) delete(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.Checkouts, key)
}

func (idx *cacheIndex) reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.Checkouts = make(map[string]*CheckoutMetadata)
}

// touch records an access. A TTL restarts from now, and a non-zero head
// replaces the recorded commit.
func (idx *cacheIndex) touch(key string, head git.ObjectID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	metadata, exists := idx.Checkouts[key]
	if !exists {
		return
	}

	metadata.LastAccess = time.Now()
	if metadata.TTL != nil {
		expiresAt := metadata.LastAccess.Add(*metadata.TTL)
		metadata.ExpiresAt = &expiresAt
	}
	if !head.IsZero() {
		metadata.Head = head.String()
	}
}

// list returns a shallow copy of all checkout metadata.
func (idx *cacheIndex) list() map[string]*CheckoutMetadata {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	result := make(map[string]*CheckoutMetadata, len(idx.Checkouts))
	for key, metadata := range idx.Checkouts {
		result[key] = metadata
	}
	return result
}

// filterByURL returns all checkout metadata for a specific URL.
func (idx *cacheIndex) filterByURL(url string) map[string]*CheckoutMetadata {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	normalized := normalizeURL(url)
	result := make(map[string]*CheckoutMetadata)
	for key, metadata := range idx.Checkouts {
		if normalizeURL(metadata.URL) == normalized {
			result[key] = metadata
		}
	}
	return result
}

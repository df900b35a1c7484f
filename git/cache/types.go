package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/jmgilman/gitcli/git"
	"golang.org/x/sync/singleflight"
)

// RepositoryCache manages a two-tier cache of Git repositories.
//
// Tier 1 (Bare Cache): bare clones holding the object database, one per
// remote URL. Network traffic only ever happens here.
//
// Tier 2 (Checkout Cache): linked worktrees of the bare clones, each
// identified by a composite key (URL + ref + cacheKey). Worktrees share the
// bare clone's objects, so a new checkout costs only the working files.
//
// The cache maintains a metadata index for lifecycle management, supporting
// TTL-based expiration and background garbage collection.
type RepositoryCache struct {
	basePath    string // Absolute base cache directory
	bareDir     string // bare/ subdirectory
	checkoutDir string // checkouts/ subdirectory
	indexPath   string // index.json path

	fs        billy.Filesystem       // Directory and index I/O
	gitOpts   []git.RepositoryOption // Applied to every repository the cache opens
	logger    *slog.Logger
	index     *cacheIndex
	bare      map[string]*git.Repository // normalized URL → bare clone
	checkouts map[string]*git.Repository // composite key → checkout
	flight    singleflight.Group         // one clone per URL at a time

	mu sync.RWMutex
}

// CheckoutMetadata tracks metadata for a single checkout.
type CheckoutMetadata struct {
	URL        string         `json:"url"`
	Ref        string         `json:"ref"`
	CacheKey   string         `json:"cache_key"`
	Head       string         `json:"head,omitempty"` // Commit checked out at the last refresh
	CreatedAt  time.Time      `json:"created_at"`
	LastAccess time.Time      `json:"last_access"`
	TTL        *time.Duration `json:"ttl,omitempty"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
}

// CacheStats provides statistics about the cache.
type CacheStats struct {
	BareRepos      int   // Number of bare repositories
	Checkouts      int   // Number of checkouts
	TotalSize      int64 // Total disk usage in bytes
	BareSize       int64 // Disk usage of bare repositories
	CheckoutsSize  int64 // Disk usage of checkouts
	OldestCheckout *time.Time
	NewestCheckout *time.Time
}

// CacheOption configures cache operations.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	auth     git.Auth
	update   bool           // Fetch from the remote before returning
	depth    int            // For shallow clones
	ref      string         // Git reference to checkout
	ttl      *time.Duration // Time-to-live for automatic cleanup
	progress chan<- git.ProgressEvent
}

// RepositoryCacheOption configures RepositoryCache creation.
type RepositoryCacheOption func(*repositoryCacheOptions)

type repositoryCacheOptions struct {
	fs      billy.Filesystem
	gitOpts []git.RepositoryOption
	logger  *slog.Logger
}

// PruneStrategy determines which checkouts should be removed during pruning.
type PruneStrategy interface {
	ShouldPrune(metadata *CheckoutMetadata) bool
}

// pruneExpired implements PruneStrategy for TTL-based expiration.
type pruneExpired struct{}

func (p *pruneExpired) ShouldPrune(metadata *CheckoutMetadata) bool {
	if metadata.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*metadata.ExpiresAt)
}

// pruneOlderThan implements PruneStrategy for last-access-based expiration.
type pruneOlderThan struct {
	maxAge time.Duration
}

func (p *pruneOlderThan) ShouldPrune(metadata *CheckoutMetadata) bool {
	return time.Since(metadata.LastAccess) > p.maxAge
}

// pruneToSize implements PruneStrategy for size-based pruning. Prune handles
// it separately because the decision depends on every checkout at once.
type pruneToSize struct {
	maxBytes int64
}

func (p *pruneToSize) ShouldPrune(*CheckoutMetadata) bool {
	return false
}

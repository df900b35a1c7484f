package git

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/jmgilman/gitcli/exec"
	"github.com/jmgilman/gitcli/internal/buffer"
)

// RepositoryOption configures repository creation operations (Init, Open, Clone).
// Options can be used to customize the executor, logging, filesystem and clone behavior.
type RepositoryOption func(*repositoryOptions)

// repositoryOptions holds the configuration for repository creation.
type repositoryOptions struct {
	fs            billy.Filesystem
	executor      exec.Executor
	gitPath       string
	logger        *slog.Logger
	bufferSize    int
	env           map[string]string
	worktreeOps   WorktreeOperations
	bare          bool
	initialBranch string

	// Clone only.
	auth          Auth
	depth         int
	singleBranch  bool
	referenceName plumbing.ReferenceName
	progress      chan<- ProgressEvent
}

func newRepositoryOptions(opts []RepositoryOption) *repositoryOptions {
	options := &repositoryOptions{
		gitPath:    "git",
		bufferSize: buffer.DefaultSize,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = discardLogger()
	}
	return options
}

// WithFilesystem sets the billy filesystem used for directory preparation.
// If not provided, defaults to osfs.New rooted at "/". Memory filesystems are
// rejected because git itself only sees the OS filesystem.
//
// Example:
//
//	repo, err := git.Open(ctx, "/path/to/repo", git.WithFilesystem(osfs.New("/")))
func WithFilesystem(fs billy.Filesystem) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.fs = fs
	}
}

// WithExecutor sets the executor git is launched with. The executor is
// wrapped so every call is prefixed with the git binary.
//
// This option is primarily useful for testing, allowing consumers to script
// git's output without a real binary.
//
// Example:
//
//	repo, err := git.Open(ctx, "/path/to/repo", git.WithExecutor(fake))
func WithExecutor(e exec.Executor) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.executor = e
	}
}

// WithGitPath sets the git binary. Defaults to "git" looked up on PATH.
func WithGitPath(path string) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.gitPath = path
	}
}

// WithLogger sets the structured logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.logger = logger
	}
}

// WithBufferSize sets the capacity of the window output is parsed through.
// A single record, such as one config value or one commit, must fit.
func WithBufferSize(size int) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.bufferSize = size
	}
}

// WithEnv adds environment variables to every git invocation.
func WithEnv(env map[string]string) RepositoryOption {
	return func(opts *repositoryOptions) {
		if opts.env == nil {
			opts.env = make(map[string]string, len(env))
		}
		for k, v := range env {
			opts.env[k] = v
		}
	}
}

// WithBare creates a bare repository (no working tree).
// Only applicable to Init and Clone operations.
//
// Example:
//
//	repo, err := git.Init(ctx, "/path/to/repo.git", git.WithBare())
func WithBare() RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.bare = true
	}
}

// WithInitialBranch sets the name of the first branch of a new repository.
// Only applicable to Init.
func WithInitialBranch(name string) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.initialBranch = name
	}
}

// WithAuth sets authentication for Clone operations.
//
// Example:
//
//	auth, _ := git.SSHKeyFile("git", "~/.ssh/id_rsa")
//	repo, err := git.Clone(ctx, "git@github.com:org/repo.git", "/tmp/repo", git.WithAuth(auth))
func WithAuth(auth Auth) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.auth = auth
	}
}

// WithDepth sets the depth for shallow clones.
// A depth of 0 (default) performs a full clone.
func WithDepth(depth int) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.depth = depth
	}
}

// WithSingleBranch limits the clone to a single branch.
func WithSingleBranch() RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.singleBranch = true
	}
}

// WithReferenceName sets the specific branch or tag to clone.
//
// Example:
//
//	repo, err := git.Clone(ctx, "https://github.com/org/repo", "/tmp/repo",
//	    git.WithReferenceName(plumbing.NewBranchReferenceName("develop")))
func WithReferenceName(ref plumbing.ReferenceName) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.referenceName = ref
	}
}

// WithProgress streams clone progress to ch. The channel is closed when the
// clone finishes; the caller must keep receiving until then.
func WithProgress(ch chan<- ProgressEvent) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.progress = ch
	}
}

// WithWorktreeOperations sets the WorktreeOperations implementation to use for
// worktree operations (add, list, remove, lock, unlock, prune). If not provided,
// defaults to the git CLI implementation.
//
// This option is primarily useful for testing, allowing consumers to mock
// worktree operations without actual git CLI calls.
func WithWorktreeOperations(ops WorktreeOperations) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.worktreeOps = ops
	}
}

// FetchOptions configures fetch operations.
type FetchOptions struct {
	RemoteName string // Default: "origin"
	RefSpecs   []string
	Auth       Auth
	Depth      int // For deepening shallow clones
	Prune      bool
	Tags       bool

	// Progress receives progress events and is closed when the fetch ends.
	Progress chan<- ProgressEvent
}

// PullOptions configures pull operations.
type PullOptions struct {
	RemoteName string // Default: "origin"
	Branch     string
	Auth       Auth
	Rebase     bool
	FFOnly     bool
	Progress   chan<- ProgressEvent
}

// PushOptions configures push operations.
type PushOptions struct {
	RemoteName  string // Default: "origin"
	RefSpecs    []string
	Auth        Auth
	Force       bool
	SetUpstream bool
	Tags        bool
	Progress    chan<- ProgressEvent
}

// CheckoutOptions configures checkout operations.
type CheckoutOptions struct {
	// CreateBranch creates and checks out a new branch at the revision.
	CreateBranch string
	Force        bool
	Detach       bool
	Progress     chan<- ProgressEvent
}

// CommitOptions configures commit creation. Author and Email override the
// configured identity when both are set.
type CommitOptions struct {
	Author     string
	Email      string
	Message    string
	AllowEmpty bool
	All        bool
	Amend      bool
}

// MergeOptions configures merges.
type MergeOptions struct {
	NoFastForward bool
	FFOnly        bool
	Squash        bool
	Message       string
}

// RebaseOptions configures rebases.
type RebaseOptions struct {
	Onto     string
	Progress chan<- ProgressEvent
}

// CleanOptions configures git clean. Without Force the run is a dry run.
type CleanOptions struct {
	Force       bool
	Directories bool
	Ignored     bool
	Paths       []string
}

// StashOptions configures stash creation.
type StashOptions struct {
	Message          string
	IncludeUntracked bool
	KeepIndex        bool
}

// StatusOptions configures status listings.
type StatusOptions struct {
	Ignored        bool
	UntrackedFiles string // "no", "normal" or "all"; empty leaves git's default
	NoAheadBehind  bool   // Skip counting; AheadBehind.Known is then false
	Paths          []string
}

// LogOptions configures commit listings.
type LogOptions struct {
	MaxCount    int
	FirstParent bool
	Paths       []string
}

// DiffOptions configures diffs. Zero revisions compare the index with the
// worktree, one compares it with the worktree and Cached compares it with
// the index.
type DiffOptions struct {
	Cached      bool
	FindRenames bool
	Paths       []string
}

// WorktreeOptions configures worktree creation.
type WorktreeOptions struct {
	CreateBranch string // Create a new branch with this name when adding worktree
	Force        bool   // Force creation even if worktree path already exists
	Detach       bool   // Detach HEAD at named commit
	Lock         bool
}

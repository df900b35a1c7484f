package git

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jmgilman/gitcli/exec"
	"github.com/jmgilman/gitcli/internal/buffer"
)

// Repository drives the git CLI for one repository. It is safe for
// concurrent use; every method starts its own git process.
type Repository struct {
	run         *runner
	path        string
	fs          billy.Filesystem
	gitPath     string
	worktreeOps WorktreeOperations

	mu      sync.Mutex
	details *RepositoryDetails
	levels  *configLevels
}

// baseEnv pins the locale so stderr literals match the error tables and
// keeps git from waiting on a terminal.
var baseEnv = map[string]string{
	"LC_ALL":              "C",
	"LANGUAGE":            "C",
	"GIT_TERMINAL_PROMPT": "0",
	"GIT_EDITOR":          "true",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRunner(o *repositoryOptions, dir string) *runner {
	base := o.executor
	if base == nil {
		base = exec.New(exec.WithInheritEnv(), exec.WithDisableColors())
	}
	env := maps.Clone(baseEnv)
	maps.Copy(env, o.env)

	size := o.bufferSize
	if size < buffer.MinSize {
		size = buffer.DefaultSize
	}
	return &runner{
		git:     exec.NewWrapper(base, o.gitPath),
		dir:     dir,
		env:     env,
		logger:  o.logger,
		pool:    buffer.NewPool(),
		bufSize: size,
	}
}

func newRepository(o *repositoryOptions, path string) *Repository {
	r := &Repository{
		run:     newRunner(o, path),
		path:    path,
		fs:      o.fs,
		gitPath: o.gitPath,
	}
	r.worktreeOps = o.worktreeOps
	if r.worktreeOps == nil {
		r.worktreeOps = &defaultWorktreeOps{run: r.run}
	}
	return r
}

// prepareOptions applies opts. The options are returned even when they are
// rejected so callers can release the progress channel.
func prepareOptions(opts []RepositoryOption) (*repositoryOptions, error) {
	options := newRepositoryOptions(opts)
	if options.fs == nil {
		options.fs = osfs.New("/")
	}
	return options, requireOSFilesystem(options.fs)
}

// Open opens an existing Git repository at the specified path.
//
// The path may be the working tree, any directory inside it, or a bare
// repository. Open runs git once to confirm the location and caches the
// answer, see Details.
//
// Returns the opened Repository or an error if opening fails. Common errors
// include ErrNotRepository if no repository exists at the path, or
// ErrMemoryFilesystem if a memory filesystem was supplied.
//
// Examples:
//
//	// Open a repository from the local filesystem
//	repo, err := git.Open(ctx, "/path/to/repo")
//
//	// Open with a scripted executor (for testing)
//	repo, err := git.Open(ctx, "/path/to/repo", git.WithExecutor(fake))
func Open(ctx context.Context, path string, opts ...RepositoryOption) (*Repository, error) {
	options, err := prepareOptions(opts)
	if err != nil {
		return nil, err
	}
	abs, err := absPath(path)
	if err != nil {
		return nil, err
	}
	if options.executor == nil {
		if err := existingDir(options.fs, abs); err != nil {
			return nil, err
		}
	}

	repo := newRepository(options, abs)
	if _, err := repo.Details(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// Init creates a new Git repository at the specified path.
//
// By default, Init creates a standard (non-bare) repository. This behavior
// can be customized using RepositoryOption functions. Running Init on an
// existing repository is safe, as with git init itself.
//
// Examples:
//
//	// Create a standard repository
//	repo, err := git.Init(ctx, "/path/to/repo")
//
//	// Create a bare repository
//	repo, err := git.Init(ctx, "/path/to/repo.git", git.WithBare())
//
//	// Choose the first branch
//	repo, err := git.Init(ctx, "/path/to/repo", git.WithInitialBranch("main"))
func Init(ctx context.Context, path string, opts ...RepositoryOption) (*Repository, error) {
	options, err := prepareOptions(opts)
	if err != nil {
		return nil, err
	}
	abs, err := absPath(path)
	if err != nil {
		return nil, err
	}
	if options.initialBranch != "" {
		if err := validateRefName("branch", options.initialBranch); err != nil {
			return nil, err
		}
	}
	if options.executor == nil {
		if err := ensureDir(options.fs, abs); err != nil {
			return nil, err
		}
	}

	args := []string{"init", "--quiet"}
	if options.bare {
		args = append(args, "--bare")
	}
	if options.initialBranch != "" {
		args = append(args, "--initial-branch="+options.initialBranch)
	}

	repo := newRepository(options, abs)
	if _, err := repo.run.run(ctx, gitCommand(nil, args...)); err != nil {
		return nil, err
	}
	if _, err := repo.Details(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// Clone clones a remote repository into path.
//
// The behavior can be customized using RepositoryOption functions to set
// authentication, shallow clone depth, the branch to check out, and a
// progress channel.
//
// A canceled context ends the clone quietly: Clone returns a nil Repository
// and a nil error, and the progress channel receives ProgressCanceled when
// it has room. Partial clone directories are left to the caller.
//
// Common errors include ErrRepositoryNotFound if the remote repository
// doesn't exist, ErrAuthenticationFailed for authentication failures, and
// ErrDestinationExists when path is a non-empty directory.
//
// Examples:
//
//	// Clone a public repository
//	repo, err := git.Clone(ctx, "https://github.com/org/repo", "/tmp/repo")
//
//	// Clone with authentication
//	auth, _ := git.SSHKeyFile("git", "/home/me/.ssh/id_ed25519")
//	repo, err := git.Clone(ctx, "git@github.com:org/repo.git", "/tmp/repo", git.WithAuth(auth))
//
//	// Shallow clone (depth=1) with progress
//	events := make(chan git.ProgressEvent, 16)
//	go func() {
//	    for ev := range events {
//	        fmt.Println(ev.Stage, ev.Percent)
//	    }
//	}()
//	repo, err := git.Clone(ctx, "https://github.com/org/repo", "/tmp/repo",
//	    git.WithDepth(1),
//	    git.WithSingleBranch(),
//	    git.WithProgress(events))
func Clone(ctx context.Context, url, path string, opts ...RepositoryOption) (*Repository, error) {
	options, err := prepareOptions(opts)
	fail := func(err error) (*Repository, error) {
		closeProgress(options.progress)
		return nil, err
	}
	if err != nil {
		return fail(err)
	}

	if strings.TrimSpace(url) == "" || strings.HasPrefix(url, "-") {
		return fail(invalidArgument(ErrInvalidArgument, "url", "%q is not a clone url", url))
	}
	abs, err := absPath(path)
	if err != nil {
		return fail(err)
	}
	if options.depth < 0 {
		return fail(invalidArgument(ErrInvalidArgument, "depth", "depth must not be negative, got %d", options.depth))
	}
	if options.referenceName != "" {
		if err := validateRevision("reference", options.referenceName.Short()); err != nil {
			return fail(err)
		}
	}

	parent := filepath.Dir(abs)
	if options.executor == nil {
		if err := ensureDir(options.fs, parent); err != nil {
			return fail(err)
		}
	}

	args := []string{"clone", "--progress"}
	if options.bare {
		args = append(args, "--bare")
	}
	if options.depth > 0 {
		args = append(args, "--depth", strconv.Itoa(options.depth))
	}
	if options.singleBranch {
		args = append(args, "--single-branch")
	}
	if options.referenceName != "" {
		args = append(args, "--branch", options.referenceName.Short())
	}
	args = append(args, "--", url, abs)

	c := gitCommand(transferRules, args...)
	c.dir = parent
	c.env = authEnv(options.auth)

	run := newRunner(options, "")
	out, err := run.transfer(ctx, c, options.progress, nil)
	if err != nil {
		return nil, err
	}
	if out.Canceled {
		return nil, nil
	}

	repo := newRepository(options, abs)
	if _, err := repo.Details(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// Path returns the directory the repository was opened at.
func (r *Repository) Path() string {
	return r.path
}

// Filesystem returns the billy.Filesystem associated with this repository.
// It is rooted at "/" unless WithFilesystem supplied another one.
func (r *Repository) Filesystem() billy.Filesystem {
	return r.fs
}

// Details reports where the repository's parts live. The answer is cached
// after the first successful call.
func (r *Repository) Details(ctx context.Context) (*RepositoryDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.details != nil {
		return r.details, nil
	}

	c := gitCommand(revParseRules, append([]string{"rev-parse"}, detailsFlags...)...)
	// Newer git answers --show-toplevel in a bare repository with an error
	// after printing the other answers.
	c.soft = func(code int, stderr string) bool {
		return code == 128 && strings.Contains(stderr, "must be run in a work tree")
	}
	var details *RepositoryDetails
	err := r.run.stream(ctx, c, revParseFormat, func(rd *buffer.Reader) error {
		var err error
		details, err = parseRepositoryDetails(rd, r.path)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.details = details
	return details, nil
}

// configLevels returns the level table, building it on first use.
func (r *Repository) configLevels(ctx context.Context) (*configLevels, error) {
	details, err := r.Details(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.levels == nil {
		r.levels = newConfigLevels(details, r.path, r.gitPath, runtime.GOOS, r.getenv)
	}
	return r.levels, nil
}

// getenv resolves a variable the way the git subprocess will see it.
func (r *Repository) getenv(key string) string {
	if v, ok := r.run.env[key]; ok {
		return v
	}
	return os.Getenv(key)
}

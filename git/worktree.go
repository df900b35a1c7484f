package git

import (
	"context"
	"path/filepath"
)

// Worktree is a linked working tree of a repository.
type Worktree struct {
	path   string
	repo   *Repository
	parent *Repository
}

// CreateWorktree creates a new worktree at the specified path.
//
// A worktree is a separate working directory connected to the same repository.
// This allows multiple branches to be checked out simultaneously without
// affecting each other.
//
// The ref parameter names the commit or branch to check out; it may be empty
// when opts.CreateBranch is set, in which case the branch starts at HEAD.
//
// Returns the created Worktree or an error if creation fails. Common errors
// include ErrWorktreeExists if the path is already in use,
// ErrBranchCheckedOut if the branch is checked out elsewhere, and
// ErrReferenceNotFound if ref doesn't exist.
//
// Examples:
//
//	// Create worktree on an existing branch
//	wt, err := repo.CreateWorktree(ctx, "/tmp/feature", "feature", git.WorktreeOptions{})
//
//	// Create worktree with a new branch at a tag
//	wt, err := repo.CreateWorktree(ctx, "/tmp/hotfix", "v1.0.0", git.WorktreeOptions{
//	    CreateBranch: "hotfix",
//	})
func (r *Repository) CreateWorktree(ctx context.Context, path string, ref string, opts WorktreeOptions) (*Worktree, error) {
	abs, err := absPath(path)
	if err != nil {
		return nil, err
	}
	if ref == "" && opts.CreateBranch == "" {
		return nil, invalidArgument(ErrInvalidArgument, "reference", "reference is required unless a branch is created")
	}
	if ref != "" {
		if err := validateRevision("reference", ref); err != nil {
			return nil, err
		}
	}
	if opts.CreateBranch != "" {
		if err := validateRefName("branch", opts.CreateBranch); err != nil {
			return nil, err
		}
	}
	if err := ensureDir(r.fs, filepath.Dir(abs)); err != nil {
		return nil, err
	}

	if err := r.worktreeOps.Add(ctx, abs, ref, opts); err != nil {
		return nil, err
	}
	return r.worktree(abs), nil
}

// ListWorktrees returns all worktrees associated with this repository,
// the main worktree first.
//
// Example:
//
//	worktrees, err := repo.ListWorktrees(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, wt := range worktrees {
//	    fmt.Printf("Worktree at: %s (%s)\n", wt.Path, wt.Branch)
//	}
func (r *Repository) ListWorktrees(ctx context.Context) ([]WorktreeInfo, error) {
	return r.worktreeOps.List(ctx)
}

// RemoveWorktree deletes the worktree at path. Without force, a worktree
// with local changes fails with ErrUncommittedChanges.
func (r *Repository) RemoveWorktree(ctx context.Context, path string, force bool) error {
	if path == "" {
		return invalidArgument(ErrInvalidArgument, "path", "worktree path is required")
	}
	return r.worktreeOps.Remove(ctx, path, force)
}

// LockWorktree protects the worktree at path from pruning.
func (r *Repository) LockWorktree(ctx context.Context, path, reason string) error {
	if path == "" {
		return invalidArgument(ErrInvalidArgument, "path", "worktree path is required")
	}
	return r.worktreeOps.Lock(ctx, path, reason)
}

// UnlockWorktree removes the lock from the worktree at path.
func (r *Repository) UnlockWorktree(ctx context.Context, path string) error {
	if path == "" {
		return invalidArgument(ErrInvalidArgument, "path", "worktree path is required")
	}
	return r.worktreeOps.Unlock(ctx, path)
}

// PruneWorktrees removes administrative data of worktrees whose directories
// are gone.
func (r *Repository) PruneWorktrees(ctx context.Context) error {
	return r.worktreeOps.Prune(ctx)
}

// worktree builds a handle whose repository runs git inside path.
func (r *Repository) worktree(path string) *Worktree {
	run := r.run.withDir(path)
	repo := &Repository{
		run:         run,
		path:        path,
		fs:          r.fs,
		gitPath:     r.gitPath,
		worktreeOps: r.worktreeOps,
	}
	if _, ok := r.worktreeOps.(*defaultWorktreeOps); ok {
		repo.worktreeOps = &defaultWorktreeOps{run: run}
	}
	return &Worktree{path: path, repo: repo, parent: r}
}

// Path returns the filesystem path of this worktree.
//
// This is the absolute path to the worktree's working directory where
// files can be accessed and modified.
func (w *Worktree) Path() string {
	return w.path
}

// Repository returns a Repository that runs git inside the worktree, for
// status, commits and checkouts local to it.
//
// Example:
//
//	wt, err := repo.CreateWorktree(ctx, "/tmp/feature", "feature", git.WorktreeOptions{})
//	if err != nil {
//	    return err
//	}
//	status, err := wt.Repository().Status(ctx, git.StatusOptions{})
func (w *Worktree) Repository() *Repository {
	return w.repo
}

// Remove removes this worktree from the repository. Without force, git
// refuses when the worktree has uncommitted changes.
//
// Example:
//
//	wt, err := repo.CreateWorktree(ctx, "/tmp/worktree", "main", git.WorktreeOptions{Detach: true})
//	if err != nil {
//	    return err
//	}
//	defer wt.Remove(ctx, true)
func (w *Worktree) Remove(ctx context.Context, force bool) error {
	return w.parent.RemoveWorktree(ctx, w.path, force)
}

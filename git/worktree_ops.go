package git

import (
	"context"

	"github.com/jmgilman/gitcli/internal/buffer"
)

// WorktreeOperations defines operations for managing git worktrees.
// This interface abstracts the underlying implementation (git CLI) to enable
// testing of code that manages worktrees.
type WorktreeOperations interface {
	// Add creates a new worktree at the specified path.
	// The ref parameter specifies which commit/branch to checkout in the worktree.
	// Options control creation behavior (force, detach, create branch, lock).
	Add(ctx context.Context, path string, ref string, opts WorktreeOptions) error

	// List returns information about all worktrees associated with the repository.
	// This includes the main worktree and all linked worktrees.
	List(ctx context.Context) ([]WorktreeInfo, error)

	// Remove deletes a worktree.
	// If force is true, the worktree is removed even if it has uncommitted changes.
	Remove(ctx context.Context, path string, force bool) error

	// Lock locks a worktree to prevent it from being pruned.
	// The reason parameter is optional and explains why the worktree is locked.
	Lock(ctx context.Context, path string, reason string) error

	// Unlock unlocks a worktree, allowing it to be pruned.
	Unlock(ctx context.Context, path string) error

	// Prune removes stale worktree administrative data.
	// This cleans up worktree metadata for worktrees that have been manually deleted.
	Prune(ctx context.Context) error
}

// WorktreeInfo contains information about a worktree returned by List.
type WorktreeInfo struct {
	// Path is the absolute filesystem path to the worktree
	Path string

	// Head is the commit the worktree is currently at, ZeroID for a bare
	// repository or an unborn branch
	Head ObjectID

	// Branch is the name of the checked out branch (empty if detached HEAD)
	Branch string

	Detached bool
	Bare     bool

	// IsLocked indicates if the worktree is locked
	IsLocked bool

	// Reason contains the lock reason if the worktree is locked
	Reason string

	// Prunable is set when git considers the worktree stale
	Prunable       bool
	PrunableReason string
}

// defaultWorktreeOps is the default implementation of WorktreeOperations
// that drives `git worktree`.
type defaultWorktreeOps struct {
	run *runner
}

// Add creates a new worktree using 'git worktree add'.
func (w *defaultWorktreeOps) Add(ctx context.Context, path string, ref string, opts WorktreeOptions) error {
	args := []string{"worktree", "add", "--quiet"}
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.Detach {
		args = append(args, "--detach")
	}
	if opts.Lock {
		args = append(args, "--lock")
	}
	if opts.CreateBranch != "" {
		args = append(args, "-b", opts.CreateBranch)
	}
	args = append(args, "--", path)
	if ref != "" {
		args = append(args, ref)
	}

	_, err := w.run.run(ctx, gitCommand(worktreeRules, args...))
	return err
}

// List returns information about all worktrees using
// 'git worktree list --porcelain -z'.
func (w *defaultWorktreeOps) List(ctx context.Context) ([]WorktreeInfo, error) {
	var worktrees []WorktreeInfo
	c := gitCommand(worktreeRules, "worktree", "list", "--porcelain", "-z")
	err := w.run.stream(ctx, c, worktreeFormat, func(rd *buffer.Reader) error {
		var err error
		worktrees, err = parseWorktreeList(rd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return worktrees, nil
}

// Remove removes a worktree using 'git worktree remove'.
func (w *defaultWorktreeOps) Remove(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, "--", path)

	_, err := w.run.run(ctx, gitCommand(worktreeRules, args...))
	return err
}

// Lock locks a worktree using 'git worktree lock'.
func (w *defaultWorktreeOps) Lock(ctx context.Context, path string, reason string) error {
	args := []string{"worktree", "lock"}
	if reason != "" {
		args = append(args, "--reason", reason)
	}
	args = append(args, "--", path)

	_, err := w.run.run(ctx, gitCommand(worktreeRules, args...))
	return err
}

// Unlock unlocks a worktree using 'git worktree unlock'.
func (w *defaultWorktreeOps) Unlock(ctx context.Context, path string) error {
	_, err := w.run.run(ctx, gitCommand(worktreeRules, "worktree", "unlock", "--", path))
	return err
}

// Prune removes stale worktree data using 'git worktree prune'.
func (w *defaultWorktreeOps) Prune(ctx context.Context) error {
	_, err := w.run.run(ctx, gitCommand(worktreeRules, "worktree", "prune"))
	return err
}

package git

import (
	"context"
	"strings"

	"github.com/jmgilman/gitcli/internal/buffer"
)

// StashResult is the outcome of applying a stash entry. A conflicted apply
// leaves the entry in place, even for StashPop.
type StashResult struct {
	Conflicted bool
	Conflicts  []MergeConflict
}

// Stash saves local changes as a new stash entry and resets the worktree.
// It reports false when there was nothing to save.
func (r *Repository) Stash(ctx context.Context, opts StashOptions) (bool, error) {
	args := []string{"stash", "push"}
	if opts.Message != "" {
		args = append(args, "--message", opts.Message)
	}
	if opts.IncludeUntracked {
		args = append(args, "--include-untracked")
	}
	if opts.KeepIndex {
		args = append(args, "--keep-index")
	}

	res, err := r.run.run(ctx, gitCommand(stashRules, args...))
	if err != nil {
		return false, err
	}
	return !strings.Contains(res.Stdout, "No local changes to save"), nil
}

// StashList returns the stash entries, newest first.
func (r *Repository) StashList(ctx context.Context) ([]StashEntry, error) {
	var entries []StashEntry
	err := r.run.stream(ctx, gitCommand(stashRules, "stash", "list", stashListFormat), stashFormat, func(rd *buffer.Reader) error {
		var err error
		entries, err = parseStashList(rd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// StashApply applies stash@{index} and keeps the entry.
func (r *Repository) StashApply(ctx context.Context, index int) (*StashResult, error) {
	return r.applyStash(ctx, "apply", index)
}

// StashPop applies stash@{index} and drops it unless the apply conflicted.
func (r *Repository) StashPop(ctx context.Context, index int) (*StashResult, error) {
	return r.applyStash(ctx, "pop", index)
}

// StashDrop removes stash@{index}. Fails with ErrStashNotFound when there is
// no such entry.
func (r *Repository) StashDrop(ctx context.Context, index int) error {
	if err := validateStashIndex(index); err != nil {
		return err
	}
	_, err := r.run.run(ctx, gitCommand(stashRules, "stash", "drop", "--quiet", stashRef(index)))
	return err
}

func (r *Repository) applyStash(ctx context.Context, verb string, index int) (*StashResult, error) {
	if err := validateStashIndex(index); err != nil {
		return nil, err
	}
	c := gitCommand(stashRules, "stash", verb, stashRef(index))
	c.allow = []int{1}
	res, err := r.run.run(ctx, c)
	if err != nil {
		return nil, err
	}

	out := &StashResult{}
	merge := &MergeResult{}
	if err := r.parseText(c, stashFormat, res.Stdout, func(rd *buffer.Reader) error {
		return parseMergeReport(rd, merge)
	}); err != nil {
		return nil, err
	}
	out.Conflicts = merge.Conflicts
	out.Conflicted = merge.Status == MergeConflicted
	if res.ExitCode != 0 && !out.Conflicted {
		return nil, r.run.failure(c, res.ExitCode, res.Stderr, res.Stdout)
	}
	return out, nil
}

func validateStashIndex(index int) error {
	if index < 0 {
		return invalidArgument(ErrInvalidArgument, "stash index", "stash index must not be negative, got %d", index)
	}
	return nil
}

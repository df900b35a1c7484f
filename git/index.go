package git

import (
	"context"

	"github.com/jmgilman/gitcli/internal/buffer"
)

// IndexEntries lists the index with `git ls-files --stage -z`. Conflicted
// paths appear once per stage.
func (r *Repository) IndexEntries(ctx context.Context, paths ...string) ([]IndexEntry, error) {
	if err := validatePaths(paths); err != nil {
		return nil, err
	}
	args := append([]string{"ls-files", "--stage", "-z", "--"}, paths...)

	var entries []IndexEntry
	err := r.run.stream(ctx, gitCommand(diffRules, args...), lsFilesFormat, func(rd *buffer.Reader) error {
		return parseIndexEntries(rd, func(e IndexEntry) error {
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Add stages paths. With no paths every change in the worktree is staged,
// removals included.
func (r *Repository) Add(ctx context.Context, paths ...string) error {
	if err := validatePaths(paths); err != nil {
		return err
	}
	args := []string{"add", "--all"}
	if len(paths) > 0 {
		args = append([]string{"add", "--"}, paths...)
	}
	_, err := r.run.run(ctx, gitCommand(checkoutRules, args...))
	return err
}

// Unstage resets the index entries of paths to HEAD, leaving the worktree
// alone. With no paths the whole index is reset.
func (r *Repository) Unstage(ctx context.Context, paths ...string) error {
	if err := validatePaths(paths); err != nil {
		return err
	}
	args := append([]string{"reset", "--quiet", "--"}, paths...)
	_, err := r.run.run(ctx, gitCommand(checkoutRules, args...))
	return err
}

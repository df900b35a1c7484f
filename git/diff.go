package git

import (
	"context"

	"github.com/jmgilman/gitcli/internal/buffer"
)

// Diff lists changed paths with their modes and object ids.
//
// With no revisions the worktree is compared with the index, or the index
// with HEAD when opts.Cached is set. One revision compares it with the
// worktree (or the index when Cached); two compare the trees of both.
//
// Example:
//
//	diff, err := repo.Diff(ctx, git.DiffOptions{FindRenames: true}, "v1.0.0", "HEAD")
//	for _, c := range diff.Changes {
//	    fmt.Println(c.Type, c.Path)
//	}
func (r *Repository) Diff(ctx context.Context, opts DiffOptions, revs ...string) (*TreeDifference, error) {
	args, err := diffArgs(opts, revs, "--raw", "--no-abbrev")
	if err != nil {
		return nil, err
	}
	return r.diff(ctx, args, parseRawDiff)
}

// DiffNameStatus is Diff without modes and ids, which is cheaper when only
// the change types and paths are needed.
func (r *Repository) DiffNameStatus(ctx context.Context, opts DiffOptions, revs ...string) (*TreeDifference, error) {
	args, err := diffArgs(opts, revs, "--name-status")
	if err != nil {
		return nil, err
	}
	return r.diff(ctx, args, parseNameStatus)
}

func (r *Repository) diff(ctx context.Context, args []string, parse func(*buffer.Reader) (*TreeDifference, error)) (*TreeDifference, error) {
	var diff *TreeDifference
	err := r.run.stream(ctx, gitCommand(diffRules, args...), diffFormat, func(rd *buffer.Reader) error {
		var err error
		diff, err = parse(rd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return diff, nil
}

func diffArgs(opts DiffOptions, revs []string, format ...string) ([]string, error) {
	if len(revs) > 2 {
		return nil, invalidArgument(ErrInvalidArgument, "revisions", "at most two revisions, got %d", len(revs))
	}
	for _, rev := range revs {
		if err := validateRevision("revision", rev); err != nil {
			return nil, err
		}
	}
	if opts.Cached && len(revs) == 2 {
		return nil, invalidArgument(ErrInvalidArgument, "cached", "cached compares the index and cannot take two revisions")
	}
	if err := validatePaths(opts.Paths); err != nil {
		return nil, err
	}

	args := append([]string{"diff", "-z", "--no-ext-diff", "--no-color"}, format...)
	if opts.FindRenames {
		args = append(args, "--find-renames")
	} else {
		args = append(args, "--no-renames")
	}
	if opts.Cached {
		args = append(args, "--cached")
	}
	args = append(args, revs...)
	args = append(args, "--")
	return append(args, opts.Paths...), nil
}

package git

import (
	"context"
	"strings"

	"github.com/jmgilman/gitcli/internal/buffer"
)

// Merge joins rev into the current branch.
//
// Conflicts are an outcome, not an error: the result's Status is
// MergeConflicted, Conflicts lists what git reported and the merge is left
// in progress until the caller commits or calls AbortMerge.
//
// Examples:
//
//	res, err := repo.Merge(ctx, "feature", git.MergeOptions{NoFastForward: true})
//	if err != nil {
//	    return err
//	}
//	if res.Status == git.MergeConflicted {
//	    for _, c := range res.Conflicts {
//	        fmt.Println(c.Path)
//	    }
//	}
func (r *Repository) Merge(ctx context.Context, rev string, opts MergeOptions) (*MergeResult, error) {
	if err := validateRevision("revision", rev); err != nil {
		return nil, err
	}
	if opts.NoFastForward && opts.FFOnly {
		return nil, invalidArgument(ErrInvalidArgument, "fast-forward", "no fast-forward and fast-forward only are exclusive")
	}

	args := []string{"merge"}
	switch {
	case opts.NoFastForward:
		args = append(args, "--no-ff")
	case opts.FFOnly:
		args = append(args, "--ff-only")
	}
	if opts.Squash {
		args = append(args, "--squash")
	}
	if opts.Message != "" {
		args = append(args, "-m", opts.Message)
	} else {
		args = append(args, "--no-edit")
	}
	args = append(args, rev)

	c := gitCommand(mergeRules, args...)
	c.allow = []int{1}
	res, err := r.run.run(ctx, c)
	if err != nil {
		return nil, err
	}

	out := &MergeResult{}
	if err := r.parseText(c, mergeFormat, res.Stdout, func(rd *buffer.Reader) error {
		return parseMergeReport(rd, out)
	}); err != nil {
		return nil, err
	}
	if res.ExitCode != 0 && out.Status != MergeConflicted {
		return nil, r.run.failure(c, res.ExitCode, res.Stderr, res.Stdout)
	}
	if out.Head, err = r.Head(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// AbortMerge abandons a conflicted merge and restores the pre-merge state.
// Fails with ErrNoMergeInProgress when there is nothing to abort.
func (r *Repository) AbortMerge(ctx context.Context) error {
	_, err := r.run.run(ctx, gitCommand(mergeRules, "merge", "--abort"))
	return err
}

const mergeFormat = "merge"

// parseText runs a text classifier over buffered output.
func (r *Repository) parseText(c *command, format, text string, parse func(*buffer.Reader) error) error {
	if err := parse(buffer.NewReader(strings.NewReader(text), r.run.bufSize)); err != nil {
		return r.run.parseFailure(c, format, err)
	}
	return nil
}

package git

import (
	"context"

	"github.com/jmgilman/gitcli/internal/buffer"
)

// Status lists the working tree state with `git status --porcelain=v2 -z`.
// It never takes the index lock, so it is safe to call while another
// process writes to the repository.
func (r *Repository) Status(ctx context.Context, opts StatusOptions) (*Status, error) {
	if err := validatePaths(opts.Paths); err != nil {
		return nil, err
	}

	args := []string{"status", "--porcelain=v2", "--branch", "--show-stash", "-z"}
	if opts.Ignored {
		args = append(args, "--ignored")
	}
	switch opts.UntrackedFiles {
	case "":
	case "no", "normal", "all":
		args = append(args, "--untracked-files="+opts.UntrackedFiles)
	default:
		return nil, invalidArgument(ErrInvalidArgument, "untracked files", "unknown mode %q", opts.UntrackedFiles)
	}
	if opts.NoAheadBehind {
		args = append(args, "--no-ahead-behind")
	}
	if len(opts.Paths) > 0 {
		args = append(args, "--")
		args = append(args, opts.Paths...)
	}

	c := gitCommand(nil, args...)
	c.family = familyStatus

	var status *Status
	err := r.run.stream(ctx, c, statusFormat, func(rd *buffer.Reader) error {
		var err error
		status, err = parseStatus(rd, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

package git

import (
	"context"

	"github.com/jmgilman/gitcli/internal/buffer"
)

const cleanFormat = "clean"

// Clean removes untracked files. Without opts.Force it only reports what
// would be removed.
//
// Paths git could not remove are reported in the result's Failed list
// rather than as an error.
//
// Example:
//
//	preview, err := repo.Clean(ctx, git.CleanOptions{Directories: true})
//	for _, p := range preview.Removed {
//	    fmt.Println("would remove", p)
//	}
func (r *Repository) Clean(ctx context.Context, opts CleanOptions) (*CleanResult, error) {
	if err := validatePaths(opts.Paths); err != nil {
		return nil, err
	}

	args := []string{"clean"}
	if opts.Force {
		args = append(args, "--force")
	} else {
		args = append(args, "--dry-run")
	}
	if opts.Directories {
		args = append(args, "-d")
	}
	if opts.Ignored {
		args = append(args, "-x")
	}
	args = append(args, "--")
	args = append(args, opts.Paths...)

	c := gitCommand(cleanRules, args...)
	c.allow = []int{1}
	res, err := r.run.run(ctx, c)
	if err != nil {
		return nil, err
	}

	out := &CleanResult{DryRun: !opts.Force}
	parse := func(rd *buffer.Reader) error { return parseCleanReport(rd, out) }
	if err := r.parseText(c, cleanFormat, res.Stdout, parse); err != nil {
		return nil, err
	}
	if err := r.parseText(c, cleanFormat, res.Stderr, parse); err != nil {
		return nil, err
	}
	if res.ExitCode != 0 && len(out.Failed) == 0 {
		return nil, r.run.failure(c, res.ExitCode, res.Stderr, res.Stdout)
	}
	return out, nil
}

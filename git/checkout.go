package git

import (
	"context"
)

// CheckoutResult is the outcome of a checkout.
type CheckoutResult struct {
	// Head is the commit checked out.
	Head     ObjectID
	Canceled bool
}

// Checkout switches the worktree to rev, a branch, tag or commit.
//
// Progress events ("Updating files") are sent to opts.Progress, which is
// closed when Checkout returns. Local changes that would be overwritten fail
// with ErrUncommittedChanges unless opts.Force is set.
//
// Examples:
//
//	// Switch to an existing branch
//	_, err := repo.Checkout(ctx, "develop", git.CheckoutOptions{})
//
//	// Create a branch at a tag and switch to it
//	_, err := repo.Checkout(ctx, "v1.2.0", git.CheckoutOptions{CreateBranch: "hotfix"})
func (r *Repository) Checkout(ctx context.Context, rev string, opts CheckoutOptions) (*CheckoutResult, error) {
	fail := func(err error) (*CheckoutResult, error) {
		closeProgress(opts.Progress)
		return nil, err
	}
	if err := validateRevision("revision", rev); err != nil {
		return fail(err)
	}
	if opts.CreateBranch != "" {
		if err := validateRefName("branch", opts.CreateBranch); err != nil {
			return fail(err)
		}
		if opts.Detach {
			return fail(invalidArgument(ErrInvalidArgument, "detach", "cannot detach while creating a branch"))
		}
	}

	args := []string{"checkout", "--progress"}
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.Detach {
		args = append(args, "--detach")
	}
	if opts.CreateBranch != "" {
		args = append(args, "-b", opts.CreateBranch)
	}
	args = append(args, rev, "--")

	out, err := r.run.transfer(ctx, gitCommand(checkoutRules, args...), opts.Progress, nil)
	if err != nil {
		return nil, err
	}
	if out.Canceled {
		return &CheckoutResult{Canceled: true}, nil
	}
	head, err := r.Head(ctx)
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Head: head}, nil
}

// CheckoutBranch switches to an existing local branch.
//
// Example:
//
//	err := repo.CheckoutBranch(ctx, "main")
func (r *Repository) CheckoutBranch(ctx context.Context, name string) error {
	if err := validateRefName("branch", name); err != nil {
		return err
	}
	_, err := r.Checkout(ctx, name, CheckoutOptions{})
	return err
}

// RestorePaths discards worktree changes to paths, restoring them from the
// index.
func (r *Repository) RestorePaths(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return invalidArgument(ErrInvalidArgument, "paths", "at least one path is required")
	}
	if err := validatePaths(paths); err != nil {
		return err
	}
	args := append([]string{"checkout", "--"}, paths...)
	_, err := r.run.run(ctx, gitCommand(checkoutRules, args...))
	return err
}

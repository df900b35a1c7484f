package git

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmgilman/gitcli/internal/buffer"
	platformerrors "github.com/jmgilman/go/errors"
)

const defaultRemote = "origin"

// FetchResult is the outcome of a fetch. Updates is parsed from git's
// human-readable report and is advisory.
type FetchResult struct {
	Updates  []RefUpdate
	Canceled bool
}

// ListRemotes returns all configured remotes in the repository.
//
// Example:
//
//	remotes, err := repo.ListRemotes(ctx)
//	for _, remote := range remotes {
//	    fmt.Printf("%s: %s\n", remote.Name, remote.FetchURL)
//	}
func (r *Repository) ListRemotes(ctx context.Context) ([]Remote, error) {
	var remotes []Remote
	err := r.run.stream(ctx, gitCommand(remoteRules, "remote", "-v"), remoteFormat, func(rd *buffer.Reader) error {
		var err error
		remotes, err = parseRemotes(rd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return remotes, nil
}

// AddRemote adds a new remote to the repository. Fails with ErrRemoteExists
// when the name is taken.
//
// Example:
//
//	err := repo.AddRemote(ctx, "upstream", "https://github.com/upstream/repo.git")
func (r *Repository) AddRemote(ctx context.Context, name, url string) error {
	if err := validateRemoteName(name); err != nil {
		return err
	}
	if strings.TrimSpace(url) == "" || strings.HasPrefix(url, "-") {
		return invalidArgument(ErrInvalidArgument, "url", "%q is not a remote url", url)
	}
	_, err := r.run.run(ctx, gitCommand(remoteRules, "remote", "add", name, url))
	return err
}

// RemoveRemote removes a remote and its remote-tracking branches. Fails with
// ErrRemoteNotFound when no such remote exists.
func (r *Repository) RemoveRemote(ctx context.Context, name string) error {
	if err := validateRemoteName(name); err != nil {
		return err
	}
	_, err := r.run.run(ctx, gitCommand(remoteRules, "remote", "remove", name))
	return err
}

// Fetch downloads objects and refs from a remote.
//
// Progress events are sent to opts.Progress, which is closed when Fetch
// returns. A canceled context stops waiting on git and reports Canceled
// without an error.
//
// Examples:
//
//	// Fetch from origin
//	res, err := repo.Fetch(ctx, git.FetchOptions{})
//
//	// Fetch with authentication and pruning
//	res, err := repo.Fetch(ctx, git.FetchOptions{
//	    RemoteName: "upstream",
//	    Auth:       auth,
//	    Prune:      true,
//	})
func (r *Repository) Fetch(ctx context.Context, opts FetchOptions) (*FetchResult, error) {
	fail := func(err error) (*FetchResult, error) {
		closeProgress(opts.Progress)
		return nil, err
	}
	remote := remoteOrDefault(opts.RemoteName)
	if err := validateRemoteName(remote); err != nil {
		return fail(err)
	}
	if err := validateRefSpecs(opts.RefSpecs); err != nil {
		return fail(err)
	}
	if opts.Depth < 0 {
		return fail(invalidArgument(ErrInvalidArgument, "depth", "depth must not be negative, got %d", opts.Depth))
	}

	args := []string{"fetch", "--progress"}
	if opts.Prune {
		args = append(args, "--prune")
	}
	if opts.Tags {
		args = append(args, "--tags")
	}
	if opts.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(opts.Depth))
	}
	args = append(args, remote)
	args = append(args, opts.RefSpecs...)

	c := gitCommand(transferRules, args...)
	c.env = authEnv(opts.Auth)
	out, err := r.run.transfer(ctx, c, opts.Progress, nil)
	if err != nil {
		return nil, err
	}
	res := &FetchResult{Canceled: out.Canceled}
	if !out.Canceled {
		res.Updates = parseFetchUpdates(out.Messages)
	}
	return res, nil
}

// Push uploads local refs to a remote with `git push --porcelain`.
//
// When the remote refuses an update the parsed result is returned together
// with an error wrapping ErrPushRejected, so callers can inspect which refs
// were rejected. A canceled context reports Canceled without an error.
//
// Examples:
//
//	// Push the current branch and set its upstream
//	res, err := repo.Push(ctx, git.PushOptions{
//	    RefSpecs:    []string{"HEAD"},
//	    SetUpstream: true,
//	})
//
//	// Force push a specific ref
//	res, err := repo.Push(ctx, git.PushOptions{
//	    RefSpecs: []string{"refs/heads/feature:refs/heads/feature"},
//	    Force:    true,
//	})
func (r *Repository) Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	fail := func(err error) (*PushResult, error) {
		closeProgress(opts.Progress)
		return nil, err
	}
	remote := remoteOrDefault(opts.RemoteName)
	if err := validateRemoteName(remote); err != nil {
		return fail(err)
	}
	if err := validateRefSpecs(opts.RefSpecs); err != nil {
		return fail(err)
	}

	args := []string{"push", "--porcelain", "--progress"}
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.SetUpstream {
		args = append(args, "--set-upstream")
	}
	if opts.Tags {
		args = append(args, "--tags")
	}
	args = append(args, remote)
	args = append(args, opts.RefSpecs...)

	c := gitCommand(transferRules, args...)
	c.env = authEnv(opts.Auth)
	c.allow = []int{1}

	res := &PushResult{}
	out, err := r.run.transfer(ctx, c, opts.Progress, func(rd *buffer.Reader) error {
		return parsePushPorcelain(rd, res)
	})
	if err != nil {
		return nil, err
	}
	if out.Canceled {
		return &PushResult{Canceled: true}, nil
	}

	if rejected := res.Rejected(); len(rejected) > 0 {
		refs := make([]string, len(rejected))
		for i, u := range rejected {
			refs[i] = u.Destination
		}
		r.run.logger.Warn("push rejected", "remote", remote, "refs", refs)
		return res, platformerrors.WrapWithContext(ErrPushRejected, platformerrors.CodeConflict, "git push rejected", map[string]interface{}{
			"remote": remote,
			"refs":   refs,
		})
	}
	if out.ExitCode != 0 {
		return res, r.run.failure(c, out.ExitCode, out.Messages, "")
	}
	return res, nil
}

// Pull fetches from a remote and integrates the result with a merge, or a
// rebase when opts.Rebase is set.
//
// Merge conflicts are not an error: the result's Status is MergeConflicted
// and the worktree is left for the caller to resolve. A canceled context
// reports Canceled without an error.
func (r *Repository) Pull(ctx context.Context, opts PullOptions) (*MergeResult, error) {
	fail := func(err error) (*MergeResult, error) {
		closeProgress(opts.Progress)
		return nil, err
	}
	remote := remoteOrDefault(opts.RemoteName)
	if err := validateRemoteName(remote); err != nil {
		return fail(err)
	}
	if opts.Branch != "" {
		if err := validateRefName("branch", opts.Branch); err != nil {
			return fail(err)
		}
	}
	if opts.Rebase && opts.FFOnly {
		return fail(invalidArgument(ErrInvalidArgument, "rebase", "rebase and fast-forward only are exclusive"))
	}

	args := []string{"pull", "--progress"}
	switch {
	case opts.Rebase:
		args = append(args, "--rebase")
	case opts.FFOnly:
		args = append(args, "--ff-only")
	default:
		args = append(args, "--no-rebase")
	}
	args = append(args, remote)
	if opts.Branch != "" {
		args = append(args, opts.Branch)
	}

	c := gitCommand(transferRules, args...)
	c.env = authEnv(opts.Auth)
	c.allow = []int{1}

	res := &MergeResult{}
	out, err := r.run.transfer(ctx, c, opts.Progress, func(rd *buffer.Reader) error {
		return parseMergeReport(rd, res)
	})
	if err != nil {
		return nil, err
	}
	if out.Canceled {
		return &MergeResult{Canceled: true}, nil
	}
	if out.ExitCode != 0 && res.Status != MergeConflicted {
		return nil, r.run.failure(c, out.ExitCode, out.Messages, "")
	}

	res.Updates = parseFetchUpdates(out.Messages)
	if res.Head, err = r.Head(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

func remoteOrDefault(name string) string {
	if name == "" {
		return defaultRemote
	}
	return name
}

package git

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/jmgilman/gitcli/internal/buffer"
)

// References lists refs with `git for-each-ref`. Patterns restrict the
// listing the way for-each-ref does, e.g. "refs/heads". With no patterns
// every ref is listed.
//
// The collection's Head is the branch HEAD points to. When HEAD is detached
// a synthetic "HEAD" reference is added; when HEAD is unborn Head is nil.
func (r *Repository) References(ctx context.Context, patterns ...string) (*ReferenceCollection, error) {
	refs, err := r.listRefs(ctx, patterns)
	if err != nil || refs.Head != nil {
		return refs, err
	}

	id, err := r.Head(ctx)
	if err != nil {
		return nil, err
	}
	if !id.IsZero() {
		refs.Head = &Reference{Name: plumbing.HEAD, Type: plumbing.CommitObject, ID: id, IsHead: true}
	}
	return refs, nil
}

func (r *Repository) listRefs(ctx context.Context, patterns []string) (*ReferenceCollection, error) {
	for _, p := range patterns {
		if err := validateRevision("pattern", p); err != nil {
			return nil, err
		}
	}

	args := append([]string{"for-each-ref", "--format=" + refFormat}, patterns...)
	var refs *ReferenceCollection
	err := r.run.stream(ctx, gitCommand(nil, args...), refsFormat, func(rd *buffer.Reader) error {
		var err error
		refs, err = parseRefs(rd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// ListBranches returns all local and remote-tracking branches. Symbolic
// remote HEADs such as refs/remotes/origin/HEAD are left out.
//
// Example:
//
//	branches, err := repo.ListBranches(ctx)
//	for _, b := range branches {
//	    fmt.Println(b.Name, b.ID.Short())
//	}
func (r *Repository) ListBranches(ctx context.Context) ([]Branch, error) {
	refs, err := r.listRefs(ctx, []string{"refs/heads", "refs/remotes"})
	if err != nil {
		return nil, err
	}
	var out []Branch
	for _, b := range refs.Branches() {
		if b.IsRemote && strings.HasSuffix(b.FullName.String(), "/HEAD") {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// CurrentBranch returns the short name of the checked out branch, or "" when
// HEAD is detached.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	c := gitCommand(revParseRules, "symbolic-ref", "--quiet", "--short", "HEAD")
	c.allow = []int{1}
	res, err := r.run.run(ctx, c)
	if err != nil {
		return "", err
	}
	if res.ExitCode == 1 {
		return "", nil
	}
	return strings.TrimSpace(res.Stdout), nil
}

// CreateBranch creates a new local branch from the specified reference (commit, tag, or branch).
//
// The ref parameter can be:
//   - A commit hash (e.g., "abc123...")
//   - A branch name (e.g., "main", "develop")
//   - A tag name (e.g., "v1.0.0")
//   - A reference name (e.g., "refs/heads/main")
//
// The branch is created but not checked out. Use CheckoutBranch to switch to the new branch.
//
// Returns ErrBranchExists if a branch with the given name already exists,
// ErrReferenceNotFound if the specified reference doesn't exist, or
// ErrInvalidName for a name git would reject.
//
// Examples:
//
//	// Create branch from HEAD
//	err := repo.CreateBranch(ctx, "feature-branch", "HEAD")
//
//	// Create branch from another branch
//	err := repo.CreateBranch(ctx, "new-feature", "develop")
func (r *Repository) CreateBranch(ctx context.Context, name string, ref string) error {
	if err := validateRefName("branch", name); err != nil {
		return err
	}
	if err := validateRevision("reference", ref); err != nil {
		return err
	}
	_, err := r.run.run(ctx, gitCommand(branchRules, "branch", "--no-track", name, ref))
	return err
}

// CreateBranchFromRemote creates a local branch that tracks a remote branch.
//
// The remoteBranch parameter should be in the format "remote/branch"
// (e.g., "origin/main", "upstream/develop").
//
// Examples:
//
//	// Create local "main" tracking "origin/main"
//	err := repo.CreateBranchFromRemote(ctx, "main", "origin/main")
func (r *Repository) CreateBranchFromRemote(ctx context.Context, localName, remoteBranch string) error {
	if err := validateRefName("branch", localName); err != nil {
		return err
	}
	remote, branch, ok := strings.Cut(remoteBranch, "/")
	if !ok || remote == "" || branch == "" {
		return invalidArgument(ErrInvalidArgument, "remote branch", "remote branch must be in format 'remote/branch', got %q", remoteBranch)
	}
	if err := validateRemoteName(remote); err != nil {
		return err
	}
	_, err := r.run.run(ctx, gitCommand(branchRules, "branch", "--track", localName, remoteBranch))
	return err
}

// DeleteBranch deletes a local branch. Without force, git refuses to delete
// a branch that is not merged into its upstream or HEAD and
// ErrBranchNotMerged is returned.
func (r *Repository) DeleteBranch(ctx context.Context, name string, force bool) error {
	if err := validateRefName("branch", name); err != nil {
		return err
	}
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := r.run.run(ctx, gitCommand(branchRules, "branch", flag, name))
	return err
}

// RenameBranch renames a local branch, overwriting an existing newName only
// when force is set.
func (r *Repository) RenameBranch(ctx context.Context, oldName, newName string, force bool) error {
	if err := validateRefName("branch", oldName); err != nil {
		return err
	}
	if err := validateRefName("branch", newName); err != nil {
		return err
	}
	flag := "-m"
	if force {
		flag = "-M"
	}
	_, err := r.run.run(ctx, gitCommand(branchRules, "branch", flag, oldName, newName))
	return err
}

// SetUpstream makes branch track upstream, e.g. "origin/main". An empty
// upstream removes the tracking configuration.
func (r *Repository) SetUpstream(ctx context.Context, branch, upstream string) error {
	if err := validateRefName("branch", branch); err != nil {
		return err
	}
	args := []string{"branch", "--unset-upstream", branch}
	if upstream != "" {
		if err := validateRevision("upstream", upstream); err != nil {
			return err
		}
		args = []string{"branch", "--set-upstream-to=" + upstream, branch}
	}
	_, err := r.run.run(ctx, gitCommand(branchRules, args...))
	return err
}

package git

import (
	"context"
	"iter"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/jmgilman/gitcli/internal/buffer"
	platformerrors "github.com/jmgilman/go/errors"
)

// Head returns the commit HEAD points to, or ZeroID when the current branch
// has no commits yet.
func (r *Repository) Head(ctx context.Context) (ObjectID, error) {
	c := gitCommand(revParseRules, "rev-parse", "--verify", "--quiet", "HEAD")
	c.allow = []int{1}
	res, err := r.run.run(ctx, c)
	if err != nil {
		return ZeroID, err
	}
	if res.ExitCode == 1 {
		return ZeroID, nil
	}
	return r.parseID(c, res.Stdout)
}

// ResolveRevision resolves any revision expression git understands, e.g.
// "main~2" or "v1.0^{commit}". An unknown revision fails with
// ErrReferenceNotFound.
func (r *Repository) ResolveRevision(ctx context.Context, rev string) (ObjectID, error) {
	if err := validateRevision("revision", rev); err != nil {
		return ZeroID, err
	}
	c := gitCommand(revParseRules, "rev-parse", "--verify", "--quiet", rev)
	c.allow = []int{1}
	res, err := r.run.run(ctx, c)
	if err != nil {
		return ZeroID, err
	}
	if res.ExitCode == 1 {
		return ZeroID, notFound(ErrReferenceNotFound, "revision", rev)
	}
	return r.parseID(c, res.Stdout)
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (r *Repository) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	if err := validateRevision("ancestor", ancestor); err != nil {
		return false, err
	}
	if err := validateRevision("descendant", descendant); err != nil {
		return false, err
	}
	c := gitCommand(revParseRules, "merge-base", "--is-ancestor", ancestor, descendant)
	c.allow = []int{1}
	res, err := r.run.run(ctx, c)
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// MergeBase returns the best common ancestor of a and b, or ZeroID when the
// histories are unrelated.
func (r *Repository) MergeBase(ctx context.Context, a, b string) (ObjectID, error) {
	if err := validateRevision("revision", a); err != nil {
		return ZeroID, err
	}
	if err := validateRevision("revision", b); err != nil {
		return ZeroID, err
	}
	c := gitCommand(revParseRules, "merge-base", a, b)
	c.allow = []int{1}
	res, err := r.run.run(ctx, c)
	if err != nil {
		return ZeroID, err
	}
	if res.ExitCode == 1 {
		return ZeroID, nil
	}
	return r.parseID(c, res.Stdout)
}

// Log streams the history reachable from rev, newest first, with
// `git rev-list --header`. An empty rev means HEAD; on an unborn branch the
// sequence is empty.
//
// Commits are yielded as they are read, so breaking out of the loop stops
// git without reading the rest of the history. An error ends the sequence.
//
// Example:
//
//	for commit, err := range repo.Log(ctx, "main", git.LogOptions{MaxCount: 10}) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(commit.ID.Short(), commit.Subject())
//	}
func (r *Repository) Log(ctx context.Context, rev string, opts LogOptions) iter.Seq2[*Commit, error] {
	return func(yield func(*Commit, error) bool) {
		start := rev
		if start == "" {
			head, err := r.Head(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if head.IsZero() {
				return
			}
			start = "HEAD"
		}
		if err := validateRevision("revision", start); err != nil {
			yield(nil, err)
			return
		}
		r.revList(ctx, []string{start}, opts, yield)
	}
}

// WalkCommits walks the commit history starting from a reference and returns
// commits in reverse chronological order (newest to oldest).
//
// The from parameter specifies where to stop (exclusive). When empty, walks
// all ancestors from 'to'. The walk includes the commit pointed to by 'to'
// but excludes the commit pointed to by 'from'. This matches the behavior of
// "git log from..to".
//
// Examples:
//
//	// Walk between two refs
//	for commit, err := range repo.WalkCommits(ctx, "v1.0.0", "v2.0.0") {
//	    if err != nil { return err }
//	    // commits from v2.0.0 back to (but not including) v1.0.0
//	}
func (r *Repository) WalkCommits(ctx context.Context, from, to string) iter.Seq2[*Commit, error] {
	return func(yield func(*Commit, error) bool) {
		if err := validateRevision("to", to); err != nil {
			yield(nil, err)
			return
		}
		revs := []string{to}
		if from != "" {
			if err := validateRevision("from", from); err != nil {
				yield(nil, err)
				return
			}
			revs = append(revs, "^"+from)
		}
		r.revList(ctx, revs, LogOptions{}, yield)
	}
}

func (r *Repository) revList(ctx context.Context, revs []string, opts LogOptions, yield func(*Commit, error) bool) {
	if err := validatePaths(opts.Paths); err != nil {
		yield(nil, err)
		return
	}

	args := []string{"rev-list", "--header"}
	if opts.MaxCount > 0 {
		args = append(args, "--max-count="+strconv.Itoa(opts.MaxCount))
	}
	if opts.FirstParent {
		args = append(args, "--first-parent")
	}
	args = append(args, revs...)
	args = append(args, "--")
	args = append(args, opts.Paths...)

	stopped := false
	err := r.run.stream(ctx, gitCommand(logRules, args...), revListFormat, func(rd *buffer.Reader) error {
		return parseRevList(rd, func(c *Commit) error {
			if !yield(c, nil) {
				stopped = true
				return errStop
			}
			return nil
		})
	})
	if err != nil && !stopped {
		yield(nil, err)
	}
}

// GetCommit reads the commit rev resolves to. Annotated tags are peeled.
func (r *Repository) GetCommit(ctx context.Context, rev string) (*Commit, error) {
	if err := validateRevision("revision", rev); err != nil {
		return nil, err
	}
	objs, err := r.ReadObjects(ctx, rev+"^{commit}")
	if err != nil {
		return nil, err
	}
	if objs[0] == nil {
		return nil, notFound(ErrReferenceNotFound, "revision", rev)
	}
	return newCommit(objs[0].ID, objs[0].Data), nil
}

// ReadObject reads one object from the object database with
// `git cat-file --batch`.
func (r *Repository) ReadObject(ctx context.Context, rev string) (*Object, error) {
	objs, err := r.ReadObjects(ctx, rev)
	if err != nil {
		return nil, err
	}
	if objs[0] == nil {
		return nil, notFound(ErrReferenceNotFound, "object", rev)
	}
	return objs[0], nil
}

// ReadObjects reads several objects with a single cat-file process. The
// result has one entry per revision, nil where the object does not exist.
func (r *Repository) ReadObjects(ctx context.Context, revs ...string) ([]*Object, error) {
	if len(revs) == 0 {
		return nil, nil
	}
	for _, rev := range revs {
		if err := validateRevision("revision", rev); err != nil {
			return nil, err
		}
	}

	c := gitCommand(objectRules, "cat-file", "--batch")
	c.stdin = strings.NewReader(strings.Join(revs, "\n") + "\n")

	out := make([]*Object, 0, len(revs))
	err := r.run.stream(ctx, c, catFileFormat, func(rd *buffer.Reader) error {
		return parseObjects(rd, func(obj *Object) error {
			out = append(out, obj)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if len(out) != len(revs) {
		return nil, r.run.parseFailure(c, catFileFormat, &ParseError{
			Format: catFileFormat,
			Stage:  "object count",
			Err:    errUnexpected("object count", []byte(strconv.Itoa(len(out)))),
		})
	}
	return out, nil
}

// Peel loads the objects behind ref: the annotated tag, if ref points to
// one, and the commit it ultimately names. The result is cached on ref.
// Refs naming trees or blobs peel to an empty Peeled.
func (r *Repository) Peel(ctx context.Context, ref *Reference) (*Peeled, error) {
	if p := ref.cachedPeel(); p != nil {
		return p, nil
	}

	id := ref.ID.String()
	revs := []string{id + "^{commit}"}
	if ref.Type == plumbing.TagObject {
		revs = append(revs, id)
	}
	objs, err := r.ReadObjects(ctx, revs...)
	if err != nil {
		return nil, err
	}

	p := &Peeled{}
	if commit := objs[0]; commit != nil {
		p.Commit = newCommit(commit.ID, commit.Data)
	}
	if len(objs) > 1 && objs[1] != nil {
		if p.Tag, err = decodeTag(objs[1]); err != nil {
			return nil, platformerrors.WrapWithContext(err, CodeParseFailed, "failed to decode tag", map[string]interface{}{
				"ref": ref.Name.String(),
			})
		}
	}
	ref.setPeeled(p)
	return p, nil
}

// CreateCommit creates a new commit with the specified options.
//
// By default, CreateCommit will fail with ErrNothingToCommit if nothing is
// staged. Use the AllowEmpty option to create commits without changes,
// which is useful for triggers, markers, or testing.
//
// Author and Email override the configured identity for both the author and
// the committer. Returns the id of the new commit.
//
// Examples:
//
//	// Create a commit with changes
//	id, err := repo.CreateCommit(ctx, git.CommitOptions{
//	    Author:  "John Doe",
//	    Email:   "john@example.com",
//	    Message: "Add new feature",
//	})
//
//	// Create an empty commit (e.g., for triggering CI)
//	id, err := repo.CreateCommit(ctx, git.CommitOptions{
//	    Message:    "Trigger rebuild",
//	    AllowEmpty: true,
//	})
func (r *Repository) CreateCommit(ctx context.Context, opts CommitOptions) (ObjectID, error) {
	if strings.TrimSpace(opts.Message) == "" {
		return ZeroID, invalidArgument(ErrInvalidArgument, "message", "message is required")
	}
	if (opts.Author == "") != (opts.Email == "") {
		return ZeroID, invalidArgument(ErrInvalidArgument, "author", "author and email must be set together")
	}

	args := []string{"commit", "--quiet", "--file=-"}
	if opts.AllowEmpty {
		args = append(args, "--allow-empty")
	}
	if opts.All {
		args = append(args, "--all")
	}
	if opts.Amend {
		args = append(args, "--amend")
	}

	c := gitCommand(commitRules, args...)
	c.stdin = strings.NewReader(opts.Message)
	if opts.Author != "" {
		c.env = map[string]string{
			"GIT_AUTHOR_NAME":     opts.Author,
			"GIT_AUTHOR_EMAIL":    opts.Email,
			"GIT_COMMITTER_NAME":  opts.Author,
			"GIT_COMMITTER_EMAIL": opts.Email,
		}
	}
	if _, err := r.run.run(ctx, c); err != nil {
		return ZeroID, err
	}
	return r.Head(ctx)
}

// parseID decodes the single id line a command printed.
func (r *Repository) parseID(c *command, stdout string) (ObjectID, error) {
	line := strings.TrimSpace(stdout)
	id, err := ParseObjectID(line)
	if err != nil {
		return ZeroID, r.run.parseFailure(c, revParseFormat, &ParseError{
			Format:   revParseFormat,
			Stage:    "object id",
			Snapshot: []byte(line),
			Err:      err,
		})
	}
	return id, nil
}

// notFound reports a soft miss as a classified error.
func notFound(sentinel error, what, name string) error {
	return platformerrors.WrapWithContext(sentinel, platformerrors.CodeNotFound, what+" not found", map[string]interface{}{
		what: name,
	})
}

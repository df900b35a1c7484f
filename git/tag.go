package git

import (
	"context"
	"strings"
)

// CreateTag creates an annotated tag with a message at the specified reference.
//
// An annotated tag is a full object in the Git database with its own id,
// containing a message, tagger information, and a timestamp. This is the
// recommended tag type for releases and other significant milestones. The
// tagger is the configured user identity; an unset identity fails with
// ErrIdentityUnknown.
//
// The ref parameter can be:
//   - A commit hash (e.g., "abc123...")
//   - A branch name (e.g., "main")
//   - Another tag name
//   - "HEAD" for the current commit
//
// Returns ErrTagExists if a tag with the given name already exists,
// ErrReferenceNotFound if the specified reference doesn't exist, or
// ErrInvalidName for a name git would reject.
//
// Examples:
//
//	// Tag the current HEAD
//	err := repo.CreateTag(ctx, "v1.0.0", "HEAD", "Release version 1.0.0")
//
//	// Tag a branch
//	err := repo.CreateTag(ctx, "release-candidate", "develop", "RC for testing")
func (r *Repository) CreateTag(ctx context.Context, name string, ref string, message string) error {
	if err := validateRefName("tag", name); err != nil {
		return err
	}
	if err := validateRevision("reference", ref); err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		return invalidArgument(ErrInvalidArgument, "message", "message is required for annotated tag")
	}

	c := gitCommand(tagRules, "tag", "--annotate", "--file=-", name, ref)
	c.stdin = strings.NewReader(message)
	_, err := r.run.run(ctx, c)
	return err
}

// CreateLightweightTag creates a lightweight tag at the specified reference.
//
// A lightweight tag is simply a ref pointing to a commit, with no additional
// metadata. Use CreateTag for annotated tags with messages.
//
// Example:
//
//	err := repo.CreateLightweightTag(ctx, "build-123", "HEAD")
func (r *Repository) CreateLightweightTag(ctx context.Context, name string, ref string) error {
	if err := validateRefName("tag", name); err != nil {
		return err
	}
	if err := validateRevision("reference", ref); err != nil {
		return err
	}
	_, err := r.run.run(ctx, gitCommand(tagRules, "tag", name, ref))
	return err
}

// ListTags returns all tags in the repository, in refname order. Annotated
// tags are reported with the id of the tag object; use Peel to reach the
// commit.
func (r *Repository) ListTags(ctx context.Context) ([]Tag, error) {
	refs, err := r.listRefs(ctx, []string{"refs/tags"})
	if err != nil {
		return nil, err
	}
	return refs.Tags(), nil
}

// DeleteTag deletes the specified tag. A missing tag fails with
// ErrTagNotFound.
func (r *Repository) DeleteTag(ctx context.Context, name string) error {
	if err := validateRefName("tag", name); err != nil {
		return err
	}
	_, err := r.run.run(ctx, gitCommand(tagRules, "tag", "--delete", name))
	return err
}

package git

import (
	"strings"
	"sync"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ObjectHeader is the id, type and size of an object as reported by
// cat-file or rev-list.
type ObjectHeader struct {
	ID   ObjectID
	Type plumbing.ObjectType
	Size int64
}

// Object is a raw object read from the object database.
type Object struct {
	ObjectHeader
	Data []byte
}

// Commit is a commit whose id is known up front and whose body is decoded on
// first use.
type Commit struct {
	ObjectHeader

	raw     []byte
	once    sync.Once
	details *CommitDetails
	err     error
}

// CommitDetails holds the decoded body of a commit.
type CommitDetails struct {
	Tree      ObjectID
	Parents   []ObjectID
	Author    object.Signature
	Committer object.Signature
	Message   string
	Signature string
}

func newCommit(id ObjectID, raw []byte) *Commit {
	return &Commit{
		ObjectHeader: ObjectHeader{ID: id, Type: plumbing.CommitObject, Size: int64(len(raw))},
		raw:          raw,
	}
}

// Raw returns the undecoded commit object.
func (c *Commit) Raw() []byte {
	return c.raw
}

// Details decodes the commit body. The result is cached.
func (c *Commit) Details() (*CommitDetails, error) {
	c.once.Do(func() {
		c.details, c.err = decodeCommit(c.ID, c.raw)
	})
	return c.details, c.err
}

// Subject returns the first line of the message, or "" when the body cannot
// be decoded.
func (c *Commit) Subject() string {
	d, err := c.Details()
	if err != nil {
		return ""
	}
	subject, _, _ := strings.Cut(d.Message, "\n")
	return subject
}

// AnnotatedTag is a decoded tag object.
type AnnotatedTag struct {
	ID         ObjectID
	Name       string
	Target     ObjectID
	TargetType plumbing.ObjectType
	Tagger     object.Signature
	Message    string
}

// Reference is one ref reported by for-each-ref.
type Reference struct {
	Name     plumbing.ReferenceName
	Type     plumbing.ObjectType
	ID       ObjectID
	Upstream plumbing.ReferenceName
	Push     plumbing.ReferenceName
	IsHead   bool

	mu     sync.Mutex
	peeled *Peeled
}

// Peeled is the object a reference resolves to. Tag is nil for refs that do
// not point at an annotated tag.
type Peeled struct {
	Tag    *AnnotatedTag
	Commit *Commit
}

// FriendlyName returns the short form of the name, e.g. "main" or
// "origin/main".
func (r *Reference) FriendlyName() string {
	return r.Name.Short()
}

// IsLocalBranch reports whether the ref lives under refs/heads/.
func (r *Reference) IsLocalBranch() bool {
	return r.Name.IsBranch()
}

// IsRemoteBranch reports whether the ref lives under refs/remotes/.
func (r *Reference) IsRemoteBranch() bool {
	return r.Name.IsRemote()
}

// IsTag reports whether the ref lives under refs/tags/.
func (r *Reference) IsTag() bool {
	return r.Name.IsTag()
}

// RemoteName returns the remote of a remote-tracking branch, or "".
func (r *Reference) RemoteName() string {
	if !r.IsRemoteBranch() {
		return ""
	}
	rest := strings.TrimPrefix(r.Name.String(), "refs/remotes/")
	remote, _, _ := strings.Cut(rest, "/")
	return remote
}

func (r *Reference) cachedPeel() *Peeled {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peeled
}

func (r *Reference) setPeeled(p *Peeled) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peeled = p
}

// ReferenceCollection owns the refs of one listing, in output order.
type ReferenceCollection struct {
	Refs []*Reference

	// Head is the ref HEAD points to, or a synthetic detached HEAD. Nil when
	// HEAD is unborn.
	Head *Reference
}

// Lookup finds a ref by full or short name.
func (c *ReferenceCollection) Lookup(name string) (*Reference, bool) {
	for _, ref := range c.Refs {
		if ref.Name.String() == name {
			return ref, true
		}
	}
	for _, ref := range c.Refs {
		if ref.FriendlyName() == name {
			return ref, true
		}
	}
	return nil, false
}

// Branches returns local and remote-tracking branches.
func (c *ReferenceCollection) Branches() []Branch {
	var out []Branch
	for _, ref := range c.Refs {
		if ref.IsLocalBranch() || ref.IsRemoteBranch() {
			out = append(out, newBranch(ref))
		}
	}
	return out
}

// Tags returns the tags.
func (c *ReferenceCollection) Tags() []Tag {
	var out []Tag
	for _, ref := range c.Refs {
		if ref.IsTag() {
			out = append(out, newTag(ref))
		}
	}
	return out
}

// Branch is a simple value type representing a Git branch.
type Branch struct {
	Name     string
	FullName plumbing.ReferenceName
	ID       ObjectID
	IsRemote bool
	Remote   string
	Upstream plumbing.ReferenceName
	IsHead   bool
}

func newBranch(ref *Reference) Branch {
	return Branch{
		Name:     ref.FriendlyName(),
		FullName: ref.Name,
		ID:       ref.ID,
		IsRemote: ref.IsRemoteBranch(),
		Remote:   ref.RemoteName(),
		Upstream: ref.Upstream,
		IsHead:   ref.IsHead,
	}
}

// Tag is a simple value type representing a Git tag. ID is the object the
// tag ref points to, which is the tag object itself for annotated tags.
type Tag struct {
	Name      string
	FullName  plumbing.ReferenceName
	ID        ObjectID
	Annotated bool
	Ref       *Reference
}

func newTag(ref *Reference) Tag {
	return Tag{
		Name:      ref.FriendlyName(),
		FullName:  ref.Name,
		ID:        ref.ID,
		Annotated: ref.Type == plumbing.TagObject,
		Ref:       ref,
	}
}

// AheadBehind holds the branch.ab counts. Known is false when git reported
// "+? -?" because the computation was skipped.
type AheadBehind struct {
	Ahead  int
	Behind int
	Known  bool
}

// BranchStatus holds the "# branch.*" headers of a status listing.
type BranchStatus struct {
	OID         ObjectID
	Initial     bool
	Head        string
	Detached    bool
	Upstream    string
	AheadBehind *AheadBehind
}

// SubmoduleStatus is the four-character submodule field of a status line.
type SubmoduleStatus struct {
	IsSubmodule      bool
	CommitChanged    bool
	HasModifications bool
	HasUntracked     bool
}

// StatusEntry is an ordinary changed entry ("1" line).
type StatusEntry struct {
	Staged       ChangeType
	Unstaged     ChangeType
	Submodule    SubmoduleStatus
	HeadMode     filemode.FileMode
	IndexMode    filemode.FileMode
	WorktreeMode filemode.FileMode
	HeadID       ObjectID
	IndexID      ObjectID
	Path         string
}

// StatusRenamedEntry is a rename record ("2" line with an R score).
type StatusRenamedEntry struct {
	StatusEntry
	Score        int
	OriginalPath string
}

// StatusCopiedEntry is a copy record ("2" line with a C score).
type StatusCopiedEntry struct {
	StatusEntry
	Score        int
	OriginalPath string
}

// StatusUnmergedEntry is a conflicted entry ("u" line).
type StatusUnmergedEntry struct {
	Staged       ChangeType
	Unstaged     ChangeType
	Submodule    SubmoduleStatus
	Stage1Mode   filemode.FileMode
	Stage2Mode   filemode.FileMode
	Stage3Mode   filemode.FileMode
	WorktreeMode filemode.FileMode
	Stage1ID     ObjectID
	Stage2ID     ObjectID
	Stage3ID     ObjectID
	Path         string
}

// Status is a parsed porcelain v2 status listing.
type Status struct {
	Branch     BranchStatus
	Entries    []StatusEntry
	Renamed    []StatusRenamedEntry
	Copied     []StatusCopiedEntry
	Unmerged   []StatusUnmergedEntry
	Untracked  []string
	Ignored    []string
	StashCount int
}

// IsClean reports whether nothing is staged, modified, conflicted or
// untracked. Ignored files do not count.
func (s *Status) IsClean() bool {
	return len(s.Entries) == 0 && len(s.Renamed) == 0 && len(s.Copied) == 0 &&
		len(s.Unmerged) == 0 && len(s.Untracked) == 0
}

// TreeDifferenceDetail is one per-path change. Modes and ids are only set for
// raw diffs.
type TreeDifferenceDetail struct {
	SourceMode   filemode.FileMode
	DestMode     filemode.FileMode
	SourceID     ObjectID
	DestID       ObjectID
	Type         ChangeType
	Score        int
	Path         string
	OriginalPath string
}

// TreeDifference is an ordered list of changes between two snapshots.
type TreeDifference struct {
	Changes []TreeDifferenceDetail
}

// Paths returns the destination path of every change.
func (d *TreeDifference) Paths() []string {
	out := make([]string, len(d.Changes))
	for i, c := range d.Changes {
		out[i] = c.Path
	}
	return out
}

// IndexEntry is one ls-files --stage record.
type IndexEntry struct {
	Mode  filemode.FileMode
	ID    ObjectID
	Stage int
	Path  string
}

// Remote is a simple value type representing a Git remote. A direction git
// did not report is left empty.
type Remote struct {
	Name     string
	FetchURL string
	PushURL  string
}

// StashEntry is one stash list record.
type StashEntry struct {
	Index   int
	ID      ObjectID
	Message string
}

// RepositoryDetails describes where a repository's parts live. Paths are
// absolute.
type RepositoryDetails struct {
	GitDir         string
	CommonDir      string
	WorkTree       string
	Bare           bool
	InsideGitDir   bool
	InsideWorkTree bool
}

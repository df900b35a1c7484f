package git

import (
	"context"
	"strings"

	"github.com/jmgilman/gitcli/internal/buffer"
)

const rebaseFormat = "rebase"

// RebaseStatus is the outcome of a rebase step.
type RebaseStatus int

const (
	RebaseUpToDate RebaseStatus = iota
	RebaseCompleted
	RebaseConflicted
)

func (s RebaseStatus) String() string {
	switch s {
	case RebaseUpToDate:
		return "up to date"
	case RebaseCompleted:
		return "completed"
	case RebaseConflicted:
		return "conflicted"
	default:
		return "unknown"
	}
}

// RebaseResult reports what a rebase did. When Status is RebaseConflicted,
// Stopped holds git's "could not apply" line and the rebase waits for
// ContinueRebase or AbortRebase.
type RebaseResult struct {
	Status    RebaseStatus
	Head      ObjectID
	Conflicts []MergeConflict
	Stopped   string
	Canceled  bool
}

type rebaseReport struct {
	res       *RebaseResult
	upToDate  bool
	completed bool
}

func (b *rebaseReport) classify(line string) {
	switch {
	case strings.HasPrefix(line, "CONFLICT "):
		b.res.Conflicts = append(b.res.Conflicts, parseConflictLine(line))
	case strings.HasPrefix(line, "error: could not apply "), strings.HasPrefix(line, "Could not apply "):
		b.res.Stopped = line[strings.Index(line, "pply ")+len("pply "):]
	case strings.HasPrefix(line, "Current branch ") && strings.HasSuffix(line, " is up to date."):
		b.upToDate = true
	case strings.HasPrefix(line, "Successfully rebased"):
		b.completed = true
	}
}

func (b *rebaseReport) status() RebaseStatus {
	switch {
	case len(b.res.Conflicts) > 0 || b.res.Stopped != "":
		return RebaseConflicted
	case b.completed:
		return RebaseCompleted
	case b.upToDate:
		return RebaseUpToDate
	}
	return RebaseCompleted
}

// parse classifies rebase output. Git splits its report between
// stdout and stderr, so both are fed through the same report.
func (b *rebaseReport) parse(rd *buffer.Reader) error {
	_, err := classifyText(rd, b.classify)
	return err
}

// Rebase replays the current branch onto upstream, or onto opts.Onto with
// upstream as the fork point.
//
// Progress events ("Rebasing (2/5)") are sent to opts.Progress, which is
// closed when Rebase returns. Conflicts leave the rebase in progress and are
// reported with Status RebaseConflicted rather than an error.
func (r *Repository) Rebase(ctx context.Context, upstream string, opts RebaseOptions) (*RebaseResult, error) {
	fail := func(err error) (*RebaseResult, error) {
		closeProgress(opts.Progress)
		return nil, err
	}
	if err := validateRevision("upstream", upstream); err != nil {
		return fail(err)
	}
	args := []string{"rebase"}
	if opts.Onto != "" {
		if err := validateRevision("onto", opts.Onto); err != nil {
			return fail(err)
		}
		args = append(args, "--onto", opts.Onto)
	}
	args = append(args, upstream)
	return r.rebase(ctx, args, opts.Progress)
}

// ContinueRebase resumes a stopped rebase after the conflicts were resolved
// and staged.
func (r *Repository) ContinueRebase(ctx context.Context) (*RebaseResult, error) {
	return r.rebase(ctx, []string{"rebase", "--continue"}, nil)
}

// AbortRebase abandons the rebase in progress and restores the original
// branch. Fails with ErrNoRebaseInProgress when there is nothing to abort.
func (r *Repository) AbortRebase(ctx context.Context) error {
	_, err := r.run.run(ctx, gitCommand(rebaseRules, "rebase", "--abort"))
	return err
}

func (r *Repository) rebase(ctx context.Context, args []string, progress chan<- ProgressEvent) (*RebaseResult, error) {
	c := gitCommand(rebaseRules, args...)
	c.allow = []int{1}

	res := &RebaseResult{}
	report := &rebaseReport{res: res}
	out, err := r.run.transfer(ctx, c, progress, report.parse)
	if err != nil {
		return nil, err
	}
	if out.Canceled {
		return &RebaseResult{Canceled: true}, nil
	}
	if err := r.parseText(c, rebaseFormat, out.Messages, report.parse); err != nil {
		return nil, err
	}
	res.Status = report.status()
	if out.ExitCode != 0 && res.Status != RebaseConflicted {
		return nil, r.run.failure(c, out.ExitCode, out.Messages, "")
	}

	if res.Head, err = r.Head(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

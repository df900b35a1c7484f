package git

import (
	"errors"
	"io"
	"strings"

	"github.com/jmgilman/gitcli/internal/buffer"
)

// Human-facing output is classified by literal English prefixes. This is
// best-effort: unrecognized lines are ignored rather than reported, so output
// from a newer or localized git only loses detail.

// classifyText feeds each line to handle until a "fatal: " line appears.
// From then on every line, the fatal one included, is accumulated verbatim
// and returned.
func classifyText(rd *buffer.Reader, handle func(line string)) (string, error) {
	var fatal strings.Builder
	for {
		raw, err := rd.ReadLine()
		if errors.Is(err, io.EOF) {
			return strings.TrimRight(fatal.String(), "\n"), nil
		}
		if err != nil {
			return "", readFailure("text", "reading line", rd, err)
		}
		line := strings.TrimRight(string(raw), "\r")

		if fatal.Len() > 0 {
			fatal.WriteString(line)
			fatal.WriteByte('\n')
			continue
		}
		if msg, ok := strings.CutPrefix(line, "fatal: "); ok {
			fatal.WriteString(msg)
			fatal.WriteByte('\n')
			continue
		}
		if line != "" {
			handle(line)
		}
	}
}

// CleanFailure is a path git clean could not remove.
type CleanFailure struct {
	Path    string
	Message string
}

// CleanResult reports what git clean removed, or would remove in a dry
// run.
type CleanResult struct {
	DryRun  bool
	Removed []string
	Skipped []string
	Failed  []CleanFailure

	// Fatal holds the text following a "fatal:" line, if any.
	Fatal string
}

// classifyCleanLine recognizes one line of git clean output, most frequent
// prefixes first.
func (r *CleanResult) classifyCleanLine(line string) {
	switch {
	case strings.HasPrefix(line, "Removing "):
		r.Removed = append(r.Removed, strings.TrimPrefix(line, "Removing "))
	case strings.HasPrefix(line, "Would remove "):
		r.Removed = append(r.Removed, strings.TrimPrefix(line, "Would remove "))
	case strings.HasPrefix(line, "Skipping repository "):
		r.Skipped = append(r.Skipped, strings.TrimPrefix(line, "Skipping repository "))
	case strings.HasPrefix(line, "Would skip repository "):
		r.Skipped = append(r.Skipped, strings.TrimPrefix(line, "Would skip repository "))
	case strings.HasPrefix(line, "warning: failed to remove "):
		path, msg := splitReason(strings.TrimPrefix(line, "warning: failed to remove "))
		r.Failed = append(r.Failed, CleanFailure{Path: path, Message: msg})
	case strings.HasPrefix(line, "warning: Could not stat path "):
		path, msg := splitReason(strings.TrimPrefix(line, "warning: Could not stat path "))
		r.Failed = append(r.Failed, CleanFailure{Path: strings.Trim(path, "'"), Message: msg})
	}
}

// parseCleanReport classifies git clean output. stdout and stderr may be
// parsed into the same result one after the other.
func parseCleanReport(rd *buffer.Reader, res *CleanResult) error {
	fatal, err := classifyText(rd, res.classifyCleanLine)
	if err != nil {
		return err
	}
	if fatal != "" {
		res.Fatal = strings.TrimSpace(res.Fatal + "\n" + fatal)
	}
	return nil
}

// splitReason splits "<path>: <reason>" at the last ": ".
func splitReason(s string) (string, string) {
	i := strings.LastIndex(s, ": ")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+2:]
}

// MergeStatus is the outcome of a merge or pull.
type MergeStatus int

const (
	MergeUpToDate MergeStatus = iota
	MergeFastForward
	MergeNonFastForward
	MergeConflicted
	MergeSquashed
)

func (s MergeStatus) String() string {
	switch s {
	case MergeUpToDate:
		return "up to date"
	case MergeFastForward:
		return "fast-forward"
	case MergeNonFastForward:
		return "merge commit"
	case MergeConflicted:
		return "conflicted"
	case MergeSquashed:
		return "squashed"
	default:
		return "unknown"
	}
}

// MergeConflict is one CONFLICT line. Path is empty when the line did not
// name a single path in a recognized form.
type MergeConflict struct {
	Kind    string
	Path    string
	Message string
}

// MergeResult reports what a merge did. Conflicts and AutoMerged are
// advisory: they come from human-facing text.
type MergeResult struct {
	Status     MergeStatus
	Head       ObjectID
	AutoMerged []string
	Conflicts  []MergeConflict
	Fatal      string

	// Updates and Canceled are only set by Pull.
	Updates  []RefUpdate
	Canceled bool
}

type mergeReport struct {
	res         *MergeResult
	fastForward bool
	mergeMade   bool
	upToDate    bool
	squash      bool
	failed      bool
}

func (m *mergeReport) classify(line string) {
	switch {
	case strings.HasPrefix(line, "Auto-merging "):
		m.res.AutoMerged = append(m.res.AutoMerged, strings.TrimPrefix(line, "Auto-merging "))
	case strings.HasPrefix(line, "CONFLICT "):
		m.res.Conflicts = append(m.res.Conflicts, parseConflictLine(line))
	case strings.HasPrefix(line, "Already up to date"), strings.HasPrefix(line, "Already up-to-date"):
		m.upToDate = true
	case line == "Fast-forward":
		m.fastForward = true
	case strings.HasPrefix(line, "Merge made by"):
		m.mergeMade = true
	case strings.HasPrefix(line, "Squash commit"):
		m.squash = true
	case strings.HasPrefix(line, "Automatic merge failed"):
		m.failed = true
	}
}

// parseConflictLine decodes "CONFLICT (<kind>): <message>".
func parseConflictLine(line string) MergeConflict {
	rest := strings.TrimPrefix(line, "CONFLICT ")
	c := MergeConflict{Message: rest}
	if strings.HasPrefix(rest, "(") {
		if end := strings.Index(rest, "): "); end > 0 {
			c.Kind = rest[1:end]
			c.Message = rest[end+3:]
		}
	}
	if i := strings.LastIndex(c.Message, "Merge conflict in "); i >= 0 {
		c.Path = c.Message[i+len("Merge conflict in "):]
	}
	return c
}

// parseMergeReport classifies merge or pull output.
func parseMergeReport(rd *buffer.Reader, res *MergeResult) error {
	m := &mergeReport{res: res}
	fatal, err := classifyText(rd, m.classify)
	if err != nil {
		return err
	}
	res.Fatal = fatal

	switch {
	case m.failed || len(res.Conflicts) > 0:
		res.Status = MergeConflicted
	case m.squash:
		res.Status = MergeSquashed
	case m.mergeMade:
		res.Status = MergeNonFastForward
	case m.fastForward:
		res.Status = MergeFastForward
	case m.upToDate:
		res.Status = MergeUpToDate
	}
	return nil
}

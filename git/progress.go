package git

import (
	"regexp"
	"strconv"
	"strings"
)

// ProgressKind classifies a ProgressEvent.
type ProgressKind int

const (
	// ProgressStage is a counted phase such as "Receiving objects".
	ProgressStage ProgressKind = iota

	// ProgressMessage is free text relayed from the remote side.
	ProgressMessage

	// ProgressRebase reports the commit a rebase is replaying.
	ProgressRebase

	// ProgressCanceled is the last event of an operation whose context was
	// canceled. It is only delivered when the channel has room.
	ProgressCanceled
)

func (k ProgressKind) String() string {
	switch k {
	case ProgressStage:
		return "stage"
	case ProgressMessage:
		return "message"
	case ProgressRebase:
		return "rebase"
	case ProgressCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ProgressEvent is one progress report of a clone, fetch, push, pull,
// checkout or rebase. Percent is -1 when git only reported a count.
type ProgressEvent struct {
	Kind    ProgressKind
	Remote  bool
	Stage   string
	Percent int
	Current int64
	Total   int64
	Done    bool
	Message string
}

var (
	stageProgress  = regexp.MustCompile(`^([A-Za-z][A-Za-z ]*?):\s+(?:(\d+)% \((\d+)/(\d+)\)|(\d+))(.*)$`)
	rebaseProgress = regexp.MustCompile(`^Rebasing \((\d+)/(\d+)\)`)
)

// Prefixes that look like a stage but carry diagnostics.
var diagnosticStage = map[string]bool{"error": true, "fatal": true, "warning": true, "hint": true}

// parseProgress recognizes a progress line. Lines that are not progress are
// reported with ok false and kept for error classification.
func parseProgress(line string) (ProgressEvent, bool) {
	text, remote := strings.CutPrefix(line, "remote: ")
	text = strings.TrimRight(text, " \r")

	if m := stageProgress.FindStringSubmatch(text); m != nil && !diagnosticStage[m[1]] {
		ev := ProgressEvent{Kind: ProgressStage, Remote: remote, Stage: m[1], Percent: -1}
		if m[2] != "" {
			ev.Percent, _ = strconv.Atoi(m[2])
			ev.Current, _ = strconv.ParseInt(m[3], 10, 64)
			ev.Total, _ = strconv.ParseInt(m[4], 10, 64)
		} else {
			ev.Current, _ = strconv.ParseInt(m[5], 10, 64)
		}
		rest := strings.TrimSpace(m[6])
		ev.Done = strings.HasSuffix(rest, "done.")
		msg := strings.TrimSpace(strings.TrimSuffix(rest, "done."))
		msg = strings.TrimSuffix(strings.TrimPrefix(msg, ","), ",")
		ev.Message = strings.TrimSpace(msg)
		return ev, true
	}
	if m := rebaseProgress.FindStringSubmatch(text); m != nil && !remote {
		cur, _ := strconv.ParseInt(m[1], 10, 64)
		total, _ := strconv.ParseInt(m[2], 10, 64)
		return ProgressEvent{
			Kind:    ProgressRebase,
			Stage:   "Rebasing",
			Percent: int(cur * 100 / max(total, 1)),
			Current: cur,
			Total:   total,
			Done:    cur == total,
		}, true
	}
	if remote {
		return ProgressEvent{Kind: ProgressMessage, Remote: true, Percent: -1, Message: text}, true
	}
	return ProgressEvent{}, false
}

package git

import (
	"errors"
	"io"
	"strings"

	"github.com/jmgilman/gitcli/internal/buffer"
)

const pushFormat = "push"

// PushUpdate is one ref line of `git push --porcelain`. Flag is one of
// ' ' (fast-forward), '+' (forced), '-' (deleted), '*' (new), '!' (rejected)
// or '=' (up to date).
type PushUpdate struct {
	Flag        byte
	Source      string
	Destination string
	Summary     string
}

// Rejected reports whether the remote refused the update.
func (u PushUpdate) Rejected() bool {
	return u.Flag == '!'
}

// PushResult is the outcome of a push. Canceled is set when the context was
// canceled before git finished.
type PushResult struct {
	URL      string
	Updates  []PushUpdate
	Canceled bool
}

// Rejected returns the updates the remote refused.
func (r *PushResult) Rejected() []PushUpdate {
	var out []PushUpdate
	for _, u := range r.Updates {
		if u.Rejected() {
			out = append(out, u)
		}
	}
	return out
}

// parsePushPorcelain decodes `git push --porcelain` stdout:
//
//	To <url>
//	<flag>\t<src>:<dst>\t<summary>
//	Done
func parsePushPorcelain(rd *buffer.Reader, res *PushResult) error {
	for {
		raw, err := rd.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return readFailure(pushFormat, "reading update", rd, err)
		}
		line := strings.TrimRight(string(raw), "\r")
		switch {
		case line == "" || line == "Done":
			continue
		case strings.HasPrefix(line, "To "):
			res.URL = strings.TrimPrefix(line, "To ")
			continue
		}

		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 2 || len(parts[0]) != 1 {
			return malformed(pushFormat, "ref update", rd, raw, errUnexpected("ref update", raw))
		}
		u := PushUpdate{Flag: parts[0][0]}
		u.Source, u.Destination, _ = strings.Cut(parts[1], ":")
		if len(parts) == 3 {
			u.Summary = parts[2]
		}
		res.Updates = append(res.Updates, u)
	}
}

// RefUpdate is one ref line of fetch's human-readable report, e.g.
// " * [new branch]  main -> origin/main".
type RefUpdate struct {
	Flag    byte
	Summary string
	From    string
	To      string
	Reason  string
}

// parseFetchUpdates extracts ref updates from fetch or pull stderr. It is
// best-effort and skips lines it does not recognize.
func parseFetchUpdates(text string) []RefUpdate {
	var out []RefUpdate
	for _, line := range strings.Split(text, "\n") {
		if len(line) < 4 || line[0] != ' ' || !strings.Contains(line, " -> ") {
			continue
		}
		u := RefUpdate{Flag: line[1]}
		rest := strings.TrimSpace(line[2:])
		if strings.HasPrefix(rest, "[") {
			end := strings.Index(rest, "]")
			if end < 0 {
				continue
			}
			u.Summary = rest[1:end]
			rest = strings.TrimSpace(rest[end+1:])
		} else {
			summary, tail, ok := strings.Cut(rest, " ")
			if !ok {
				continue
			}
			u.Summary = summary
			rest = strings.TrimSpace(tail)
		}
		from, to, _ := strings.Cut(rest, " -> ")
		u.From = strings.TrimSpace(from)
		to = strings.TrimSpace(to)
		if i := strings.Index(to, " ("); i >= 0 && strings.HasSuffix(to, ")") {
			u.Reason = to[i+2 : len(to)-1]
			to = to[:i]
		}
		u.To = strings.TrimSpace(to)
		out = append(out, u)
	}
	return out
}

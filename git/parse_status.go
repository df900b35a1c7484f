package git

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/jmgilman/gitcli/internal/buffer"
)

const statusFormat = "status"

// statusParser decodes `git status --porcelain=v2` output. With -z records
// end in NUL and the original path of a rename is the following record;
// otherwise records end in LF, the two paths are tab separated and unusual
// paths are C-quoted.
type statusParser struct {
	rd     *buffer.Reader
	nul    bool
	status *Status
}

func parseStatus(rd *buffer.Reader, nul bool) (*Status, error) {
	p := &statusParser{rd: rd, nul: nul, status: &Status{}}
	for {
		rec, err := p.next()
		if errors.Is(err, io.EOF) {
			return p.status, nil
		}
		if err != nil {
			return nil, readFailure(statusFormat, "reading entry", rd, err)
		}
		if len(rec) == 0 {
			continue
		}
		if err := p.dispatch(rec); err != nil {
			return nil, err
		}
	}
}

func (p *statusParser) next() ([]byte, error) {
	if p.nul {
		return p.rd.ReadUntil(0)
	}
	return p.rd.ReadLine()
}

// dispatch routes a record by prefix, most frequent shapes first.
func (p *statusParser) dispatch(rec []byte) error {
	switch {
	case bytes.HasPrefix(rec, []byte("1 ")):
		return p.ordinary(rec)
	case bytes.HasPrefix(rec, []byte("? ")):
		path, err := p.path(rec[2:])
		if err != nil {
			return p.fail("untracked path", rec, err)
		}
		p.status.Untracked = append(p.status.Untracked, path)
	case bytes.HasPrefix(rec, []byte("! ")):
		path, err := p.path(rec[2:])
		if err != nil {
			return p.fail("ignored path", rec, err)
		}
		p.status.Ignored = append(p.status.Ignored, path)
	case bytes.HasPrefix(rec, []byte("u ")):
		return p.unmerged(rec)
	case bytes.HasPrefix(rec, []byte("2 ")):
		return p.renamed(rec)
	case bytes.HasPrefix(rec, []byte("# ")):
		return p.header(rec)
	default:
		return p.fail("record type", rec, errUnexpected("record", rec))
	}
	return nil
}

// ordinary: 1 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <path>
func (p *statusParser) ordinary(rec []byte) error {
	f, ok := fields(rec, 9)
	if !ok {
		return p.fail("changed entry", rec, errUnexpected("field count in", rec))
	}
	entry, err := p.entry(f[1:8])
	if err != nil {
		return p.fail("changed entry", rec, err)
	}
	if entry.Path, err = p.path(f[8]); err != nil {
		return p.fail("changed entry path", rec, err)
	}
	p.status.Entries = append(p.status.Entries, entry)
	return nil
}

// renamed: 2 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <X><score> <path><sep><orig>
func (p *statusParser) renamed(rec []byte) error {
	f, ok := fields(rec, 10)
	if !ok {
		return p.fail("renamed entry", rec, errUnexpected("field count in", rec))
	}
	entry, err := p.entry(f[1:8])
	if err != nil {
		return p.fail("renamed entry", rec, err)
	}

	score := f[8]
	if len(score) < 2 || (score[0] != 'R' && score[0] != 'C') {
		return p.fail("rename score", rec, errUnexpected("score", score))
	}
	n, err := parseInt(score[1:])
	if err != nil || n < 0 || n > 100 {
		return p.fail("rename score", rec, errUnexpected("score", score))
	}
	kind := score[0]

	var orig []byte
	if p.nul {
		// The original path is the next record, which invalidates f.
		if entry.Path, err = p.path(f[9]); err != nil {
			return p.fail("rename path", rec, err)
		}
		if orig, err = p.rd.ReadUntil(0); err != nil {
			return truncated(statusFormat, "rename original path", p.rd, err)
		}
	} else {
		tab := bytes.IndexByte(f[9], '\t')
		if tab < 0 {
			return p.fail("rename paths", rec, errUnexpected("paths", f[9]))
		}
		if entry.Path, err = p.path(f[9][:tab]); err != nil {
			return p.fail("rename path", rec, err)
		}
		orig = f[9][tab+1:]
	}
	origPath, err := p.path(orig)
	if err != nil {
		return p.fail("rename original path", orig, err)
	}

	if kind == 'R' {
		p.status.Renamed = append(p.status.Renamed, StatusRenamedEntry{StatusEntry: entry, Score: n, OriginalPath: origPath})
	} else {
		p.status.Copied = append(p.status.Copied, StatusCopiedEntry{StatusEntry: entry, Score: n, OriginalPath: origPath})
	}
	return nil
}

// unmerged: u <XY> <sub> <m1> <m2> <m3> <mW> <h1> <h2> <h3> <path>
func (p *statusParser) unmerged(rec []byte) error {
	f, ok := fields(rec, 11)
	if !ok {
		return p.fail("unmerged entry", rec, errUnexpected("field count in", rec))
	}
	var e StatusUnmergedEntry
	var err error
	if e.Staged, e.Unstaged, err = statusCodes(f[1]); err != nil {
		return p.fail("unmerged entry status", rec, err)
	}
	if e.Submodule, err = parseSubmoduleStatus(f[2]); err != nil {
		return p.fail("unmerged entry submodule", rec, err)
	}
	modes := []*filemode.FileMode{&e.Stage1Mode, &e.Stage2Mode, &e.Stage3Mode, &e.WorktreeMode}
	for i, m := range modes {
		if *m, err = parseMode(f[3+i]); err != nil {
			return p.fail("unmerged entry mode", rec, err)
		}
	}
	ids := []*ObjectID{&e.Stage1ID, &e.Stage2ID, &e.Stage3ID}
	for i, id := range ids {
		if *id, err = parseObjectID(f[7+i]); err != nil {
			return p.fail("unmerged entry object id", rec, err)
		}
	}
	if e.Path, err = p.path(f[10]); err != nil {
		return p.fail("unmerged entry path", rec, err)
	}
	p.status.Unmerged = append(p.status.Unmerged, e)
	return nil
}

// entry decodes <XY> <sub> <mH> <mI> <mW> <hH> <hI>.
func (p *statusParser) entry(f [][]byte) (StatusEntry, error) {
	var e StatusEntry
	var err error
	if e.Staged, e.Unstaged, err = statusCodes(f[0]); err != nil {
		return e, err
	}
	if e.Submodule, err = parseSubmoduleStatus(f[1]); err != nil {
		return e, err
	}
	if e.HeadMode, err = parseMode(f[2]); err != nil {
		return e, err
	}
	if e.IndexMode, err = parseMode(f[3]); err != nil {
		return e, err
	}
	if e.WorktreeMode, err = parseMode(f[4]); err != nil {
		return e, err
	}
	if e.HeadID, err = parseObjectID(f[5]); err != nil {
		return e, err
	}
	if e.IndexID, err = parseObjectID(f[6]); err != nil {
		return e, err
	}
	return e, nil
}

func (p *statusParser) header(rec []byte) error {
	line := string(rec[2:])
	key, value, _ := strings.Cut(line, " ")
	b := &p.status.Branch
	switch key {
	case "branch.oid":
		if value == "(initial)" {
			b.Initial = true
			return nil
		}
		id, err := ParseObjectID(value)
		if err != nil {
			return p.fail("branch.oid header", rec, err)
		}
		b.OID = id
	case "branch.head":
		if value == "(detached)" {
			b.Detached = true
			return nil
		}
		b.Head = value
	case "branch.upstream":
		b.Upstream = value
	case "branch.ab":
		ab, err := parseAheadBehind(value)
		if err != nil {
			return p.fail("branch.ab header", rec, err)
		}
		b.AheadBehind = ab
	case "stash":
		n, err := strconv.Atoi(value)
		if err != nil {
			return p.fail("stash header", rec, err)
		}
		p.status.StashCount = n
	}
	// Unknown headers are reserved for future use and skipped.
	return nil
}

// parseAheadBehind decodes "+<ahead> -<behind>". "+? -?" means git skipped
// the computation.
func parseAheadBehind(value string) (*AheadBehind, error) {
	ahead, behind, ok := strings.Cut(value, " ")
	if !ok || len(ahead) < 2 || len(behind) < 2 || ahead[0] != '+' || behind[0] != '-' {
		return nil, fmt.Errorf("malformed ahead/behind %q", value)
	}
	if ahead[1:] == "?" && behind[1:] == "?" {
		return &AheadBehind{}, nil
	}
	a, err := strconv.Atoi(ahead[1:])
	if err != nil {
		return nil, fmt.Errorf("malformed ahead count %q", ahead)
	}
	bh, err := strconv.Atoi(behind[1:])
	if err != nil {
		return nil, fmt.Errorf("malformed behind count %q", behind)
	}
	return &AheadBehind{Ahead: a, Behind: bh, Known: true}, nil
}

func statusCodes(xy []byte) (ChangeType, ChangeType, error) {
	if len(xy) != 2 {
		return ChangeInvalid, ChangeInvalid, errUnexpected("status code", xy)
	}
	return parseStatusCode(xy[0]), parseStatusCode(xy[1]), nil
}

// parseSubmoduleStatus decodes "N..." or "S<c><m><u>".
func parseSubmoduleStatus(b []byte) (SubmoduleStatus, error) {
	if len(b) != 4 {
		return SubmoduleStatus{}, errUnexpected("submodule state", b)
	}
	switch b[0] {
	case 'N':
		return SubmoduleStatus{}, nil
	case 'S':
		return SubmoduleStatus{
			IsSubmodule:      true,
			CommitChanged:    b[1] == 'C',
			HasModifications: b[2] == 'M',
			HasUntracked:     b[3] == 'U',
		}, nil
	}
	return SubmoduleStatus{}, errUnexpected("submodule state", b)
}

func (p *statusParser) path(b []byte) (string, error) {
	if len(b) == 0 {
		return "", errUnexpected("empty path", b)
	}
	if p.nul || b[0] != '"' {
		return string(b), nil
	}
	return unquotePath(b)
}

func (p *statusParser) fail(stage string, rec []byte, err error) error {
	return malformed(statusFormat, stage, p.rd, rec, err)
}

// unquotePath reverses git's C-style quoting of unusual path names.
func unquotePath(b []byte) (string, error) {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return "", fmt.Errorf("quoted path %s: %w", b, err)
	}
	return s, nil
}

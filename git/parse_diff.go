package git

import (
	"errors"
	"io"

	"github.com/jmgilman/gitcli/internal/buffer"
)

const diffFormat = "diff"

// parseRawDiff decodes `git diff --raw -z --no-abbrev` output. Each record is
// ":<mode> <mode> <oid> <oid> <code>[score]\0<path>\0", with a second path
// for renames and copies.
func parseRawDiff(rd *buffer.Reader) (*TreeDifference, error) {
	diff := &TreeDifference{}
	for {
		hdr, err := rd.ReadUntil(0)
		if errors.Is(err, io.EOF) {
			return diff, nil
		}
		if err != nil {
			return nil, readFailure(diffFormat, "reading raw header", rd, err)
		}
		if len(hdr) == 0 {
			continue
		}
		if hdr[0] != ':' || (len(hdr) > 1 && hdr[1] == ':') {
			return nil, malformed(diffFormat, "raw header", rd, hdr, errUnexpected("raw header", hdr))
		}

		var d TreeDifferenceDetail
		f, ok := fields(hdr[1:], 5)
		if !ok {
			return nil, malformed(diffFormat, "raw header", rd, hdr, errUnexpected("field count in", hdr))
		}
		if d.SourceMode, err = parseMode(f[0]); err == nil {
			if d.DestMode, err = parseMode(f[1]); err == nil {
				if d.SourceID, err = parseObjectID(f[2]); err == nil {
					d.DestID, err = parseObjectID(f[3])
				}
			}
		}
		if err != nil {
			return nil, malformed(diffFormat, "raw header", rd, hdr, err)
		}
		if d.Type, d.Score, err = parseDiffStatus(f[4]); err != nil {
			return nil, malformed(diffFormat, "raw status", rd, hdr, err)
		}
		if err := readDiffPaths(rd, &d); err != nil {
			return nil, err
		}
		diff.Changes = append(diff.Changes, d)
	}
}

// parseNameStatus decodes `git diff --name-status -z` output:
// "<code>[score]\0<path>\0", with a second path for renames and copies.
func parseNameStatus(rd *buffer.Reader) (*TreeDifference, error) {
	diff := &TreeDifference{}
	for {
		code, err := rd.ReadUntil(0)
		if errors.Is(err, io.EOF) {
			return diff, nil
		}
		if err != nil {
			return nil, readFailure(diffFormat, "reading status", rd, err)
		}
		if len(code) == 0 {
			continue
		}

		var d TreeDifferenceDetail
		if d.Type, d.Score, err = parseDiffStatus(code); err != nil {
			return nil, malformed(diffFormat, "name-status code", rd, code, err)
		}
		if err := readDiffPaths(rd, &d); err != nil {
			return nil, err
		}
		diff.Changes = append(diff.Changes, d)
	}
}

// readDiffPaths reads the destination path and, for two-path records, the
// source path that precedes it.
func readDiffPaths(rd *buffer.Reader, d *TreeDifferenceDetail) error {
	first, err := rd.ReadUntil(0)
	if err != nil {
		return truncated(diffFormat, "reading path", rd, err)
	}
	if len(first) == 0 {
		return malformed(diffFormat, "path", rd, first, errUnexpected("empty path", first))
	}
	path := string(first)
	if d.Type != ChangeRenamed && d.Type != ChangeCopied {
		d.Path = path
		return nil
	}

	second, err := rd.ReadUntil(0)
	if err != nil {
		return truncated(diffFormat, "reading destination path", rd, err)
	}
	if len(second) == 0 {
		return malformed(diffFormat, "destination path", rd, second, errUnexpected("empty path", second))
	}
	d.OriginalPath = path
	d.Path = string(second)
	return nil
}

// parseDiffStatus decodes a status letter with an optional similarity score.
// Unknown letters become ChangeInvalid rather than an error.
func parseDiffStatus(b []byte) (ChangeType, int, error) {
	if len(b) == 0 {
		return ChangeInvalid, 0, errUnexpected("empty status", b)
	}
	t := ParseChangeType(b[0])
	if len(b) == 1 {
		return t, 0, nil
	}
	score, err := parseInt(b[1:])
	if err != nil || score < 0 || score > 100 {
		return t, 0, errUnexpected("similarity score", b)
	}
	return t, score, nil
}

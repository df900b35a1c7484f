package git

import (
	"bytes"
	"errors"
	"io"

	"github.com/jmgilman/gitcli/internal/buffer"
)

const lsFilesFormat = "ls-files"

// parseIndexEntries decodes `git ls-files --stage -z` records of the form
// "<mode> <oid> <stage>\t<path>\0".
func parseIndexEntries(rd *buffer.Reader, yield func(IndexEntry) error) error {
	for {
		rec, err := rd.ReadUntil(0)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return readFailure(lsFilesFormat, "reading entry", rd, err)
		}

		entry, err := parseIndexEntry(rec)
		if err != nil {
			return malformed(lsFilesFormat, "index entry", rd, rec, err)
		}
		if err := yield(entry); err != nil {
			return err
		}
	}
}

func parseIndexEntry(rec []byte) (IndexEntry, error) {
	var e IndexEntry
	tab := bytes.IndexByte(rec, '\t')
	if tab < 0 {
		return e, errUnexpected("entry without path", rec)
	}
	f, ok := fields(rec[:tab], 3)
	if !ok {
		return e, errUnexpected("entry header", rec[:tab])
	}

	var err error
	if e.Mode, err = parseMode(f[0]); err != nil {
		return e, err
	}
	if e.ID, err = parseObjectID(f[1]); err != nil {
		return e, err
	}
	if len(f[2]) != 1 || f[2][0] < '0' || f[2][0] > '3' {
		return e, errUnexpected("stage", f[2])
	}
	e.Stage = int(f[2][0] - '0')

	if tab+1 == len(rec) {
		return e, errUnexpected("empty path in", rec)
	}
	e.Path = string(rec[tab+1:])
	return e, nil
}

package git

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/jmgilman/gitcli/internal/buffer"
)

// malformed builds a ParseError for the record the reader just returned.
// When rec is nil the unconsumed window is captured instead.
func malformed(format, stage string, rd *buffer.Reader, rec []byte, cause error) *ParseError {
	snap := rd.Snapshot()
	if rec != nil {
		snap = append([]byte(nil), rec...)
	}
	return &ParseError{
		Format:   format,
		Stage:    stage,
		Offset:   rd.RecordOffset(),
		Snapshot: snap,
		Err:      cause,
	}
}

// readFailure converts a tokenizer error into a ParseError. A clean io.EOF is
// returned unchanged.
func readFailure(format, stage string, rd *buffer.Reader, err error) error {
	if errors.Is(err, io.EOF) {
		return err
	}
	return malformed(format, stage, rd, nil, err)
}

// truncated is readFailure for a read inside a record, where end of input
// means the output was cut short.
func truncated(format, stage string, rd *buffer.Reader, err error) error {
	if errors.Is(err, io.EOF) {
		err = buffer.ErrTruncated
	}
	return malformed(format, stage, rd, nil, err)
}

func errUnexpected(what string, got []byte) error {
	return fmt.Errorf("unexpected %s %q", what, got)
}

func parseMode(b []byte) (filemode.FileMode, error) {
	m, err := filemode.New(string(b))
	if err != nil {
		return filemode.Empty, fmt.Errorf("file mode %q: %w", b, err)
	}
	return m, nil
}

func parseInt(b []byte) (int, error) {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", b, err)
	}
	return n, nil
}

// fields splits b at single spaces into exactly n fields; the last field
// keeps any remaining spaces.
func fields(b []byte, n int) ([][]byte, bool) {
	out := make([][]byte, 0, n)
	for len(out) < n-1 {
		i := bytes.IndexByte(b, ' ')
		if i < 0 {
			return nil, false
		}
		out = append(out, b[:i])
		b = b[i+1:]
	}
	return append(out, b), true
}

package git

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/jmgilman/gitcli/internal/buffer"
)

const refsFormat = "for-each-ref"

// refFormat is the for-each-ref --format string. Field order is fixed.
const refFormat = "[%(refname)][%(objecttype)][%(objectname)][%(upstream)][%(push)][%(HEAD)]"

const refFieldCount = 6

var fieldSeparator = []byte("][")

// splitRefFields walks the bracket pairs of one line. Ref names may contain
// ']' but never '[', so a field ends only at "][" or at the final ']'.
func splitRefFields(line []byte) ([][]byte, error) {
	if len(line) < 2 || line[0] != '[' || line[len(line)-1] != ']' {
		return nil, errors.New("line is not bracket delimited")
	}
	body := line[1 : len(line)-1]

	out := make([][]byte, 0, refFieldCount)
	for len(out) < refFieldCount-1 {
		i := bytes.Index(body, fieldSeparator)
		if i < 0 {
			return nil, fmt.Errorf("expected %d fields, got %d", refFieldCount, len(out)+1)
		}
		out = append(out, body[:i])
		body = body[i+len(fieldSeparator):]
	}
	if bytes.IndexByte(body, '[') >= 0 {
		return nil, fmt.Errorf("expected %d fields, got more", refFieldCount)
	}
	return append(out, body), nil
}

// parseRefs decodes one ref per line of refFormat output.
func parseRefs(rd *buffer.Reader) (*ReferenceCollection, error) {
	refs := &ReferenceCollection{}
	for {
		line, err := rd.ReadLine()
		if errors.Is(err, io.EOF) {
			return refs, nil
		}
		if err != nil {
			return nil, readFailure(refsFormat, "reading ref", rd, err)
		}
		if len(line) == 0 {
			continue
		}

		ref, err := parseRefLine(line)
		if err != nil {
			return nil, malformed(refsFormat, "ref fields", rd, line, err)
		}
		refs.Refs = append(refs.Refs, ref)
		if ref.IsHead {
			refs.Head = ref
		}
	}
}

func parseRefLine(line []byte) (*Reference, error) {
	f, err := splitRefFields(line)
	if err != nil {
		return nil, err
	}
	if len(f[0]) == 0 {
		return nil, errors.New("empty ref name")
	}

	ref := &Reference{
		Name:     plumbing.ReferenceName(f[0]),
		Upstream: plumbing.ReferenceName(f[3]),
		Push:     plumbing.ReferenceName(f[4]),
	}
	if ref.Type, err = plumbing.ParseObjectType(string(f[1])); err != nil {
		return nil, fmt.Errorf("object type %q: %w", f[1], err)
	}
	if ref.ID, err = parseObjectID(f[2]); err != nil {
		return nil, err
	}
	switch string(f[5]) {
	case "*":
		ref.IsHead = true
	case "", " ":
	default:
		return nil, errUnexpected("HEAD marker", f[5])
	}
	return ref, nil
}

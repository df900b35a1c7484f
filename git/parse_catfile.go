package git

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/jmgilman/gitcli/internal/buffer"
)

const catFileFormat = "cat-file"

// parseObjectHeader decodes a `git cat-file --batch` header line,
// "<oid> <type> <size>". A "<name> missing" line yields ok false.
func parseObjectHeader(line []byte) (hdr ObjectHeader, ok bool, err error) {
	if bytes.HasSuffix(line, []byte(" missing")) || bytes.HasSuffix(line, []byte(" ambiguous")) {
		return hdr, false, nil
	}
	f, fok := fields(line, 3)
	if !fok {
		return hdr, false, errUnexpected("object header", line)
	}
	if hdr.ID, err = parseObjectID(f[0]); err != nil {
		return hdr, false, err
	}
	if hdr.Type, err = plumbing.ParseObjectType(string(f[1])); err != nil {
		return hdr, false, fmt.Errorf("object type %q: %w", f[1], err)
	}
	if hdr.Size, err = strconv.ParseInt(string(f[2]), 10, 64); err != nil || hdr.Size < 0 {
		return hdr, false, errUnexpected("object size", f[2])
	}
	return hdr, true, nil
}

// parseObjects decodes `git cat-file --batch` output. Missing objects are
// reported to yield as nil. Payloads larger than the window are streamed
// through, so object size is not bounded by the buffer.
func parseObjects(rd *buffer.Reader, yield func(*Object) error) error {
	for {
		line, err := rd.ReadUntil('\n')
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return readFailure(catFileFormat, "reading object header", rd, err)
		}
		hdr, ok, err := parseObjectHeader(line)
		if err != nil {
			return malformed(catFileFormat, "object header", rd, line, err)
		}
		if !ok {
			if err := yield(nil); err != nil {
				return err
			}
			continue
		}

		var data bytes.Buffer
		data.Grow(int(hdr.Size))
		if err := rd.CopyN(&data, hdr.Size); err != nil {
			return truncated(catFileFormat, "reading object "+hdr.ID.String(), rd, err)
		}
		term, err := rd.ReadN(1)
		if err != nil {
			return truncated(catFileFormat, "reading object terminator", rd, err)
		}
		if term[0] != '\n' {
			return malformed(catFileFormat, "object terminator", rd, term, errUnexpected("terminator", term))
		}
		if err := yield(&Object{ObjectHeader: hdr, Data: data.Bytes()}); err != nil {
			return err
		}
	}
}

// decodeTag decodes an annotated tag object with go-git.
func decodeTag(obj *Object) (*AnnotatedTag, error) {
	mo := &plumbing.MemoryObject{}
	mo.SetType(plumbing.TagObject)
	if _, err := mo.Write(obj.Data); err != nil {
		return nil, err
	}
	var t object.Tag
	if err := t.Decode(mo); err != nil {
		return nil, &ParseError{Format: "tag", Stage: "decoding tag " + obj.ID.String(), Snapshot: obj.Data, Err: err}
	}
	return &AnnotatedTag{
		ID:         obj.ID,
		Name:       t.Name,
		Target:     FromHash(t.Target),
		TargetType: t.TargetType,
		Tagger:     t.Tagger,
		Message:    t.Message,
	}, nil
}

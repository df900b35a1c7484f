package git

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/jmgilman/gitcli/internal/buffer"
)

const revListFormat = "rev-list"

// messageIndent is what rev-list --header puts in front of each message line.
var messageIndent = []byte("    ")

// parseRevList decodes `git rev-list --header` output: an object id and LF,
// then the raw commit with its message indented, then NUL. The id is parsed
// before the body is read.
func parseRevList(rd *buffer.Reader, yield func(*Commit) error) error {
	for {
		line, err := rd.ReadUntil('\n')
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return readFailure(revListFormat, "reading commit id", rd, err)
		}
		id, err := parseObjectID(line)
		if err != nil {
			return malformed(revListFormat, "commit id", rd, line, err)
		}

		body, err := rd.ReadUntil(0)
		if err != nil {
			return truncated(revListFormat, "reading commit "+id.String(), rd, err)
		}
		if err := yield(newCommit(id, unindentMessage(body))); err != nil {
			return err
		}
	}
}

// unindentMessage copies a rev-list body, removing the message indent so the
// result is the raw commit object.
func unindentMessage(body []byte) []byte {
	out := make([]byte, 0, len(body))
	inMessage := false
	for len(body) > 0 {
		line := body
		next := []byte(nil)
		if i := bytes.IndexByte(body, '\n'); i >= 0 {
			line, next = body[:i+1], body[i+1:]
		}
		if inMessage {
			line = bytes.TrimPrefix(line, messageIndent)
		} else if len(line) == 1 && line[0] == '\n' {
			inMessage = true
		}
		out = append(out, line...)
		body = next
	}
	return out
}

// decodeCommit decodes a raw commit object with go-git.
func decodeCommit(id ObjectID, raw []byte) (*CommitDetails, error) {
	obj := &plumbing.MemoryObject{}
	obj.SetType(plumbing.CommitObject)
	if _, err := obj.Write(raw); err != nil {
		return nil, err
	}

	var c object.Commit
	if err := c.Decode(obj); err != nil {
		return nil, &ParseError{Format: "commit", Stage: "decoding commit " + id.String(), Snapshot: raw, Err: err}
	}
	if c.TreeHash.IsZero() {
		return nil, &ParseError{Format: "commit", Stage: "decoding commit " + id.String(), Snapshot: raw, Err: fmt.Errorf("missing tree header")}
	}

	d := &CommitDetails{
		Tree:      FromHash(c.TreeHash),
		Parents:   make([]ObjectID, len(c.ParentHashes)),
		Author:    c.Author,
		Committer: c.Committer,
		Message:   c.Message,
		Signature: c.PGPSignature,
	}
	for i, h := range c.ParentHashes {
		d.Parents[i] = FromHash(h)
	}
	return d, nil
}

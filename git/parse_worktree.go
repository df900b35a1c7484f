package git

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/jmgilman/gitcli/internal/buffer"
)

const worktreeFormat = "worktree"

// parseWorktreeList decodes `git worktree list --porcelain -z`. Every
// attribute ends in NUL and an empty attribute closes a worktree:
//
//	worktree /path/to/worktree
//	HEAD <oid>
//	branch refs/heads/main
//	locked <reason>
func parseWorktreeList(rd *buffer.Reader) ([]WorktreeInfo, error) {
	var (
		worktrees []WorktreeInfo
		current   *WorktreeInfo
	)
	flush := func() {
		if current != nil {
			worktrees = append(worktrees, *current)
			current = nil
		}
	}

	for {
		attr, err := rd.ReadUntil(0)
		if errors.Is(err, io.EOF) {
			flush()
			return worktrees, nil
		}
		if err != nil {
			return nil, readFailure(worktreeFormat, "reading attribute", rd, err)
		}
		if len(attr) == 0 {
			flush()
			continue
		}

		key, value, _ := bytes.Cut(attr, []byte(" "))
		if string(key) == "worktree" {
			flush()
			current = &WorktreeInfo{Path: string(value)}
			continue
		}
		if current == nil {
			return nil, malformed(worktreeFormat, "attribute before worktree", rd, attr, errUnexpected("attribute", attr))
		}

		switch string(key) {
		case "HEAD":
			id, err := parseObjectID(value)
			if err != nil {
				return nil, malformed(worktreeFormat, "HEAD attribute", rd, attr, err)
			}
			current.Head = id
		case "branch":
			current.Branch = strings.TrimPrefix(string(value), "refs/heads/")
		case "detached":
			current.Detached = true
		case "bare":
			current.Bare = true
		case "locked":
			current.IsLocked = true
			current.Reason = string(value)
		case "prunable":
			current.Prunable = true
			current.PrunableReason = string(value)
		}
	}
}

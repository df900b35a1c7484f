package git

import (
	"fmt"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
)

// Error codes specific to driving the git CLI. The remaining codes come from
// the platform error package.
const (
	// CodeParseFailed indicates git printed output that could not be decoded.
	CodeParseFailed platformerrors.ErrorCode = "PARSE_FAILED"

	// CodeCommandFailed indicates git exited unsuccessfully for a reason not
	// covered by a more specific code.
	CodeCommandFailed platformerrors.ErrorCode = "COMMAND_FAILED"

	// CodeUsage indicates git rejected its arguments.
	CodeUsage platformerrors.ErrorCode = "USAGE_ERROR"
)

// Sentinel errors. Every error returned by this package wraps at most one of
// these, so callers can test with errors.Is.
var (
	ErrNotRepository      = platformerrors.New(platformerrors.CodeNotFound, "not a git repository")
	ErrRepositoryNotFound = platformerrors.New(platformerrors.CodeNotFound, "remote repository not found")
	ErrReferenceNotFound  = platformerrors.New(platformerrors.CodeNotFound, "reference not found")
	ErrBranchNotFound     = platformerrors.New(platformerrors.CodeNotFound, "branch not found")
	ErrTagNotFound        = platformerrors.New(platformerrors.CodeNotFound, "tag not found")
	ErrRemoteNotFound     = platformerrors.New(platformerrors.CodeNotFound, "remote not found")
	ErrStashNotFound      = platformerrors.New(platformerrors.CodeNotFound, "stash entry not found")
	ErrWorktreeNotFound   = platformerrors.New(platformerrors.CodeNotFound, "worktree not found")
	ErrConfigNotFound     = platformerrors.New(platformerrors.CodeNotFound, "config key not found")
	ErrPathNotFound       = platformerrors.New(platformerrors.CodeNotFound, "pathspec did not match any files")

	ErrBranchExists      = platformerrors.New(platformerrors.CodeAlreadyExists, "branch already exists")
	ErrTagExists         = platformerrors.New(platformerrors.CodeAlreadyExists, "tag already exists")
	ErrRemoteExists      = platformerrors.New(platformerrors.CodeAlreadyExists, "remote already exists")
	ErrWorktreeExists    = platformerrors.New(platformerrors.CodeAlreadyExists, "worktree already exists")
	ErrDestinationExists = platformerrors.New(platformerrors.CodeAlreadyExists, "destination path already exists")

	ErrMergeInProgress    = platformerrors.New(platformerrors.CodeConflict, "merge in progress")
	ErrNoMergeInProgress  = platformerrors.New(platformerrors.CodeConflict, "no merge in progress")
	ErrRebaseInProgress   = platformerrors.New(platformerrors.CodeConflict, "rebase in progress")
	ErrNoRebaseInProgress = platformerrors.New(platformerrors.CodeConflict, "no rebase in progress")
	ErrUncommittedChanges = platformerrors.New(platformerrors.CodeConflict, "local changes would be overwritten")
	ErrUnmergedFiles      = platformerrors.New(platformerrors.CodeConflict, "index contains unmerged files")
	ErrBranchNotMerged    = platformerrors.New(platformerrors.CodeConflict, "branch is not fully merged")
	ErrBranchCheckedOut   = platformerrors.New(platformerrors.CodeConflict, "branch is checked out in a worktree")
	ErrNotFastForward     = platformerrors.New(platformerrors.CodeConflict, "not possible to fast-forward")
	ErrUnrelatedHistories = platformerrors.New(platformerrors.CodeConflict, "refusing to merge unrelated histories")
	ErrNothingToCommit    = platformerrors.New(platformerrors.CodeConflict, "nothing to commit")
	ErrWorktreeLocked     = platformerrors.New(platformerrors.CodeConflict, "worktree is locked")
	ErrPushRejected       = platformerrors.New(platformerrors.CodeConflict, "push rejected")
	ErrLockContention     = platformerrors.New(platformerrors.CodeConflict, "repository lock file exists")

	ErrAuthenticationFailed = platformerrors.New(platformerrors.CodeUnauthorized, "authentication failed")
	ErrPermissionDenied     = platformerrors.New(platformerrors.CodeForbidden, "permission denied")
	ErrRemoteUnavailable    = platformerrors.New(platformerrors.CodeNetwork, "could not read from remote repository")
	ErrIdentityUnknown      = platformerrors.New(platformerrors.CodeInvalidConfig, "committer identity unknown")

	ErrInvalidName      = platformerrors.New(platformerrors.CodeInvalidInput, "invalid name")
	ErrInvalidArgument  = platformerrors.New(platformerrors.CodeInvalidInput, "invalid argument")
	ErrMemoryFilesystem = platformerrors.New(platformerrors.CodeInvalidInput, "git CLI operations require an OS filesystem")

	ErrUsage         = platformerrors.New(CodeUsage, "git usage error")
	ErrFatal         = platformerrors.New(CodeCommandFailed, "git reported a fatal error")
	ErrCommandFailed = platformerrors.New(CodeCommandFailed, "git command failed")

	ErrMalformedOutput = platformerrors.New(CodeParseFailed, "malformed git output")
)

// ParseError reports output that did not match the expected format.
type ParseError struct {
	// Format names the output format, e.g. "status".
	Format string

	// Stage describes what the parser was reading.
	Stage string

	// Offset is the stream offset of the record being parsed.
	Offset int64

	// Snapshot holds the unconsumed bytes at the time of failure.
	Snapshot []byte

	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s output: %s at offset %d: %v", e.Format, e.Stage, e.Offset, e.Err)
}

// Unwrap exposes both ErrMalformedOutput and the underlying cause.
func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedOutput, e.Err}
}

// CommandError reports a git invocation that exited unsuccessfully. Err is
// the sentinel selected from the command's error table.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := firstMessage(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("git exited with code %d: %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("git exited with code %d: %s", e.ExitCode, msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// invalidArgument builds a validation error carrying the argument name.
func invalidArgument(sentinel error, name, format string, args ...any) error {
	return platformerrors.WrapWithContext(
		fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)),
		platformerrors.CodeInvalidInput,
		"invalid "+name,
		map[string]interface{}{"argument": name},
	)
}

// matchKind selects how an errorRule literal is compared to a line.
type matchKind int

const (
	matchPrefix matchKind = iota
	matchSuffix
	matchContains
)

// errorRule maps one known stderr fragment to a sentinel.
type errorRule struct {
	kind    matchKind
	literal string
	err     error
}

func (r errorRule) matches(line string) bool {
	switch r.kind {
	case matchPrefix:
		return strings.HasPrefix(line, r.literal)
	case matchSuffix:
		return strings.HasSuffix(line, r.literal)
	default:
		return strings.Contains(line, r.literal)
	}
}

// errorTable is an ordered rule list; the first rule matching any line wins.
type errorTable []errorRule

// match returns the sentinel of the first rule that matches one of lines.
func (t errorTable) match(lines []string) error {
	for _, rule := range t {
		for _, line := range lines {
			if rule.matches(line) {
				return rule.err
			}
		}
	}
	return nil
}

// classifyFailure selects the sentinel for a failed invocation. Command rules
// are tried first, then the shared rules, then the generic usage and fatal
// prefixes.
func classifyFailure(rules errorTable, stderr, stdout string) error {
	lines := splitLines(stderr)
	if err := rules.match(lines); err != nil {
		return err
	}
	if err := commonRules.match(lines); err != nil {
		return err
	}
	if out := splitLines(stdout); len(out) > 0 {
		if err := rules.match(out); err != nil {
			return err
		}
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "usage: ") {
			return ErrUsage
		}
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "fatal: ") {
			return ErrFatal
		}
	}
	return ErrCommandFailed
}

// firstMessage returns the first fatal/error line of stderr without its
// prefix, or the first non-empty line.
func firstMessage(stderr string) string {
	lines := splitLines(stderr)
	for _, line := range lines {
		for _, prefix := range []string{"fatal: ", "error: "} {
			if msg, ok := strings.CutPrefix(line, prefix); ok {
				return msg
			}
		}
	}
	if len(lines) > 0 {
		return lines[0]
	}
	return ""
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

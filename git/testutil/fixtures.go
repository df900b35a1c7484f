// Package testutil provides helpers for testing code built on the git
// package: a scripted executor for driving repositories without a git
// binary, and fixtures for building real repositories when one is
// installed.
package testutil

import (
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmgilman/gitcli/exec"
	"github.com/stretchr/testify/require"
)

// Test user information used across all test helpers.
const (
	// TestAuthor is the default author name for test commits.
	TestAuthor = "Test User"

	// TestEmail is the default email for test commits.
	TestEmail = "test@example.com"
)

// Test commit messages.
const (
	// TestInitialCommit is a message for initial commits.
	TestInitialCommit = "Initial commit"

	// TestFeatureCommit is a message for feature commits.
	TestFeatureCommit = "Add new feature"
)

// TestFileContent is sample content for README files.
const TestFileContent = "# Test Repository\n\nThis is a test repository.\n"

// TestBranchMain is the branch fixtures are initialized on.
const TestBranchMain = "main"

// RequireGit skips the test when no git binary is on PATH.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := osexec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// IsolatedEnv returns an environment that hides the user's global and
// system git configuration from fixtures and from repositories under test.
func IsolatedEnv(t testing.TB) map[string]string {
	t.Helper()
	home := t.TempDir()
	return map[string]string{
		"HOME":                home,
		"XDG_CONFIG_HOME":     filepath.Join(home, ".config"),
		"GIT_CONFIG_NOSYSTEM": "1",
		"GIT_AUTHOR_NAME":     TestAuthor,
		"GIT_AUTHOR_EMAIL":    TestEmail,
		"GIT_COMMITTER_NAME":  TestAuthor,
		"GIT_COMMITTER_EMAIL": TestEmail,
		"LC_ALL":              "C",
	}
}

// Git runs git in dir with env and returns its trimmed stdout, failing the
// test on a non-zero exit.
func Git(t testing.TB, dir string, env map[string]string, args ...string) string {
	t.Helper()
	e := exec.New(exec.WithInheritEnv(), exec.WithDisableColors(), exec.WithDir(dir), exec.WithEnv(env))
	res, err := exec.NewWrapper(e, "git").Run(args...)
	require.NoError(t, err, "git %s", exec.CommandLine(args))
	return strings.TrimSpace(res.Stdout)
}

// NewRepo initializes a repository on TestBranchMain in a temporary
// directory and returns its path.
func NewRepo(t testing.TB, env map[string]string) string {
	t.Helper()
	RequireGit(t)
	dir := t.TempDir()
	Git(t, dir, env, "init", "--quiet", "--initial-branch="+TestBranchMain)
	return dir
}

// WriteFile writes content to name inside dir, creating parent directories.
func WriteFile(t testing.TB, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// CommitFile writes name, stages it and commits it with message. It returns
// the new commit's hex id.
func CommitFile(t testing.TB, dir string, env map[string]string, name, content, message string) string {
	t.Helper()
	WriteFile(t, dir, name, content)
	Git(t, dir, env, "add", "--", name)
	Git(t, dir, env, "commit", "--quiet", "-m", message)
	return Git(t, dir, env, "rev-parse", "HEAD")
}

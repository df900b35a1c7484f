package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jmgilman/gitcli/git"
	"github.com/jmgilman/gitcli/git/testutil"
)

// run executes the CLI against dir and returns what it printed.
func run(t *testing.T, env map[string]string, dir string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(git.WithEnv(env))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--no-color", "--repo", dir, "--cache-dir", t.TempDir()}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	testutil.RequireGit(t)
	env := testutil.IsolatedEnv(t)
	dir := testutil.NewRepo(t, env)
	head := testutil.CommitFile(t, dir, env, "README.md", testutil.TestFileContent, testutil.TestInitialCommit)
	testutil.Git(t, dir, env, "tag", "v1.0.0")
	testutil.Git(t, dir, env, "config", "gitcli.answer", "42")
	testutil.WriteFile(t, dir, "scratch.txt", "junk\n")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"status", []string{"status"}, []string{"on main", "?? scratch.txt"}},
		{"log", []string{"log"}, []string{head[:7] + " " + testutil.TestInitialCommit}},
		{"branches", []string{"branches"}, []string{"* " + head[:7] + " main"}},
		{"tags", []string{"tags"}, []string{"v1.0.0 lightweight"}},
		{"config get", []string{"config", "gitcli.answer"}, []string{"42"}},
		{"config list", []string{"config"}, []string{"gitcli.answer=42"}},
		{"clean dry run", []string{"clean"}, []string{"Would remove scratch.txt"}},
		{"worktrees", []string{"worktrees"}, []string{"[main]"}},
		{"diff", []string{"diff", "HEAD"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, env, dir, tt.args...)
			if err != nil {
				t.Fatalf("%v: %v\n%s", tt.args, err, out)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("%v output missing %q:\n%s", tt.args, want, out)
				}
			}
		})
	}
}

func TestConfigMissingKey(t *testing.T) {
	testutil.RequireGit(t)
	env := testutil.IsolatedEnv(t)
	dir := testutil.NewRepo(t, env)

	if _, err := run(t, env, dir, "config", "gitcli.unset"); err == nil {
		t.Error("expected an error for an unset key")
	}
}

func TestOpenMissingRepository(t *testing.T) {
	if _, err := run(t, nil, t.TempDir()+"/missing", "status"); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestCacheStats(t *testing.T) {
	out, err := run(t, nil, ".", "cache", "stats")
	if err != nil {
		t.Fatalf("cache stats: %v\n%s", err, out)
	}
	if !strings.Contains(out, "bare repos: 0") {
		t.Errorf("unexpected stats output:\n%s", out)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

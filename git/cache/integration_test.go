package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmgilman/gitcli/git"
	"github.com/jmgilman/gitcli/git/testutil"
)

// newSource creates an upstream repository with one commit on main.
func newSource(t *testing.T, env map[string]string) string {
	t.Helper()
	dir := testutil.NewRepo(t, env)
	testutil.CommitFile(t, dir, env, "README.md", testutil.TestFileContent, testutil.TestInitialCommit)
	return dir
}

func newGitCache(t *testing.T) (*RepositoryCache, map[string]string) {
	t.Helper()
	testutil.RequireGit(t)
	env := testutil.IsolatedEnv(t)
	return newTestCache(t, WithGitOptions(git.WithEnv(env))), env
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestGetCheckout_CreatesAndReuses(t *testing.T) {
	c, env := newGitCache(t)
	source := newSource(t, env)
	ctx := context.Background()

	events := make(chan git.ProgressEvent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range events {
		}
	}()
	path, err := c.GetCheckout(ctx, source, "docs", WithProgress(events))
	if err != nil {
		t.Fatalf("GetCheckout() error = %v", err)
	}
	<-done

	if got := readFile(t, filepath.Join(path, "README.md")); got != testutil.TestFileContent {
		t.Errorf("README.md = %q", got)
	}
	want := filepath.Join(c.checkoutDir, normalizeURL(source), testutil.TestBranchMain, "docs")
	if path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	again, err := c.GetCheckout(ctx, source, "docs")
	if err != nil {
		t.Fatal(err)
	}
	if again != path {
		t.Errorf("same key returned %s, want %s", again, path)
	}

	other, err := c.GetCheckout(ctx, source, "build", WithRef(testutil.TestBranchMain))
	if err != nil {
		t.Fatal(err)
	}
	if other == path {
		t.Error("different cache keys share a checkout")
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.BareRepos != 1 || stats.Checkouts != 2 || stats.BareSize == 0 {
		t.Errorf("Stats() = %+v", stats)
	}

	metadata := c.Checkouts()[makeCompositeKey(source, testutil.TestBranchMain, "docs")]
	if metadata == nil || len(metadata.Head) != git.IDLength {
		t.Errorf("metadata = %+v, want the checked out commit recorded", metadata)
	}
}

func TestGetCheckout_Update(t *testing.T) {
	c, env := newGitCache(t)
	source := newSource(t, env)
	ctx := context.Background()

	path, err := c.GetCheckout(ctx, source, "docs")
	if err != nil {
		t.Fatal(err)
	}
	testutil.WriteFile(t, path, "scratch.txt", "local junk\n")

	head := testutil.CommitFile(t, source, env, "README.md", "updated\n", testutil.TestFeatureCommit)

	// Without WithUpdate the cached state is returned as-is.
	if _, err := c.GetCheckout(ctx, source, "docs"); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(path, "README.md")); got != testutil.TestFileContent {
		t.Errorf("stale checkout changed without WithUpdate: %q", got)
	}

	if _, err := c.GetCheckout(ctx, source, "docs", WithUpdate()); err != nil {
		t.Fatalf("GetCheckout(WithUpdate) error = %v", err)
	}
	if got := readFile(t, filepath.Join(path, "README.md")); got != "updated\n" {
		t.Errorf("README.md after update = %q", got)
	}
	if _, err := os.Stat(filepath.Join(path, "scratch.txt")); !os.IsNotExist(err) {
		t.Error("untracked file survived the refresh")
	}
	if got := c.Checkouts()[makeCompositeKey(source, testutil.TestBranchMain, "docs")].Head; got != head {
		t.Errorf("recorded head = %s, want %s", got, head)
	}
}

func TestGetCheckout_Tag(t *testing.T) {
	c, env := newGitCache(t)
	source := newSource(t, env)
	testutil.Git(t, source, env, "tag", "v1.0.0")
	testutil.CommitFile(t, source, env, "README.md", "after tag\n", testutil.TestFeatureCommit)

	path, err := c.GetCheckout(context.Background(), source, "release", WithRef("v1.0.0"))
	if err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(path, "README.md")); got != testutil.TestFileContent {
		t.Errorf("tag checkout has %q", got)
	}
}

func TestGetCheckout_UnknownRepository(t *testing.T) {
	c, _ := newGitCache(t)
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	_, err := c.GetCheckout(context.Background(), missing, "key", WithRef("main"))
	if err == nil {
		t.Fatal("expected an error for a missing remote")
	}
	if _, statErr := os.Stat(c.barePath(normalizeURL(missing))); !os.IsNotExist(statErr) {
		t.Error("failed clone left a bare directory behind")
	}
}

func TestRemoveCheckout(t *testing.T) {
	c, env := newGitCache(t)
	source := newSource(t, env)
	ctx := context.Background()

	path, err := c.GetCheckout(ctx, source, "tmp", WithTTL(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.RemoveCheckout(ctx, source, "tmp"); err != nil {
		t.Fatalf("RemoveCheckout() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("checkout directory still exists")
	}

	bare, err := git.Open(ctx, c.barePath(normalizeURL(source)), git.WithEnv(env))
	if err != nil {
		t.Fatal(err)
	}
	wts, err := bare.ListWorktrees(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(wts) != 1 {
		t.Errorf("bare clone still lists %d worktrees, want only itself", len(wts))
	}

	// The same key can be checked out again.
	if _, err := c.GetCheckout(ctx, source, "tmp"); err != nil {
		t.Errorf("GetCheckout() after removal error = %v", err)
	}
}

func TestClear(t *testing.T) {
	c, env := newGitCache(t)
	first := newSource(t, env)
	second := newSource(t, env)
	ctx := context.Background()

	for _, key := range []string{"a", "b"} {
		if _, err := c.GetCheckout(ctx, first, key); err != nil {
			t.Fatal(err)
		}
	}
	kept, err := c.GetCheckout(ctx, second, "a")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(ctx, first); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := os.Stat(c.barePath(normalizeURL(first))); !os.IsNotExist(err) {
		t.Error("bare clone survived Clear")
	}
	if len(c.Checkouts()) != 1 {
		t.Errorf("index has %d checkouts, want 1", len(c.Checkouts()))
	}
	if _, err := os.Stat(kept); err != nil {
		t.Errorf("other repository's checkout was removed: %v", err)
	}
}

func TestWarm(t *testing.T) {
	c, env := newGitCache(t)
	sources := []string{newSource(t, env), newSource(t, env), newSource(t, env)}
	ctx := context.Background()

	if err := c.Warm(ctx, sources); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	for _, s := range sources {
		if _, err := os.Stat(c.barePath(normalizeURL(s))); err != nil {
			t.Errorf("no bare clone for %s: %v", s, err)
		}
	}

	testutil.CommitFile(t, sources[0], env, "README.md", "new\n", testutil.TestFeatureCommit)
	if err := c.Warm(ctx, sources, WithUpdate()); err != nil {
		t.Fatalf("Warm(WithUpdate) error = %v", err)
	}

	fresh, err := NewRepositoryCache(c.Path(), WithGitOptions(git.WithEnv(env)))
	if err != nil {
		t.Fatal(err)
	}
	path, err := fresh.GetCheckout(ctx, sources[0], "check")
	if err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(path, "README.md")); got != "new\n" {
		t.Errorf("warmed clone was not fetched: %q", got)
	}
}

func TestPrune_RemovesWorktrees(t *testing.T) {
	c, env := newGitCache(t)
	source := newSource(t, env)
	ctx := context.Background()

	path, err := c.GetCheckout(ctx, source, "ci", WithTTL(time.Nanosecond))
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	n, err := c.Prune(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Prune() = %d, %v; want 1, nil", n, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("pruned checkout still exists")
	}
}

package git

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmgilman/gitcli/git/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openFixture builds a real repository with one commit and opens it.
func openFixture(t *testing.T) (*Repository, string, map[string]string) {
	t.Helper()
	testutil.RequireGit(t)
	env := testutil.IsolatedEnv(t)
	dir := testutil.NewRepo(t, env)
	testutil.CommitFile(t, dir, env, "README.md", testutil.TestFileContent, testutil.TestInitialCommit)

	repo, err := Open(context.Background(), dir, WithEnv(env))
	require.NoError(t, err)
	return repo, dir, env
}

func TestIntegration_CommitWorkflow(t *testing.T) {
	repo, dir, _ := openFixture(t)
	ctx := context.Background()

	status, err := repo.Status(ctx, StatusOptions{})
	require.NoError(t, err)
	assert.True(t, status.IsClean())
	assert.Equal(t, testutil.TestBranchMain, status.Branch.Head)

	testutil.WriteFile(t, dir, "dir/new file.txt", "hello\n")
	status, err = repo.Status(ctx, StatusOptions{UntrackedFiles: "all"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/new file.txt"}, status.Untracked)

	require.NoError(t, repo.Add(ctx, "dir/new file.txt"))
	id, err := repo.CreateCommit(ctx, CommitOptions{Message: testutil.TestFeatureCommit})
	require.NoError(t, err)

	head, err := repo.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, head)

	var subjects []string
	for c, err := range repo.Log(ctx, "", LogOptions{}) {
		require.NoError(t, err)
		subjects = append(subjects, c.Subject())
	}
	assert.Equal(t, []string{testutil.TestFeatureCommit, testutil.TestInitialCommit}, subjects)

	diff, err := repo.Diff(ctx, DiffOptions{}, "HEAD~1", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/new file.txt"}, diff.Paths())

	commit, err := repo.GetCommit(ctx, "HEAD")
	require.NoError(t, err)
	details, err := commit.Details()
	require.NoError(t, err)
	assert.Equal(t, testutil.TestAuthor, details.Author.Name)
	assert.Len(t, details.Parents, 1)

	_, err = repo.CreateCommit(ctx, CommitOptions{Message: "nothing"})
	assert.ErrorIs(t, err, ErrNothingToCommit)
}

func TestIntegration_BranchesAndTags(t *testing.T) {
	repo, _, _ := openFixture(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateBranch(ctx, "feature", "HEAD"))
	assert.ErrorIs(t, repo.CreateBranch(ctx, "feature", "HEAD"), ErrBranchExists)

	branches, err := repo.ListBranches(ctx)
	require.NoError(t, err)
	names := make([]string, len(branches))
	for i, b := range branches {
		names[i] = b.Name
	}
	assert.ElementsMatch(t, []string{"feature", testutil.TestBranchMain}, names)

	require.NoError(t, repo.CreateTag(ctx, "v1.0.0", "HEAD", "Release 1.0.0"))
	require.NoError(t, repo.CreateLightweightTag(ctx, "light", "HEAD"))

	tags, err := repo.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	for _, tag := range tags {
		peeled, err := repo.Peel(ctx, tag.Ref)
		require.NoError(t, err)
		require.NotNil(t, peeled.Commit)
		if tag.Name == "v1.0.0" {
			require.NotNil(t, peeled.Tag)
			assert.Equal(t, "Release 1.0.0\n", peeled.Tag.Message)
		} else {
			assert.Nil(t, peeled.Tag)
		}
	}

	require.NoError(t, repo.CheckoutBranch(ctx, "feature"))
	current, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "feature", current)
}

func TestIntegration_MergeConflict(t *testing.T) {
	repo, dir, env := openFixture(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateBranch(ctx, "topic", "HEAD"))
	testutil.CommitFile(t, dir, env, "README.md", "main side\n", "Main change")
	require.NoError(t, repo.CheckoutBranch(ctx, "topic"))
	testutil.CommitFile(t, dir, env, "README.md", "topic side\n", "Topic change")
	require.NoError(t, repo.CheckoutBranch(ctx, testutil.TestBranchMain))

	res, err := repo.Merge(ctx, "topic", MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, MergeConflicted, res.Status)
	require.NotEmpty(t, res.Conflicts)
	assert.Equal(t, "README.md", res.Conflicts[0].Path)

	status, err := repo.Status(ctx, StatusOptions{})
	require.NoError(t, err)
	require.Len(t, status.Unmerged, 1)

	require.NoError(t, repo.AbortMerge(ctx))
	status, err = repo.Status(ctx, StatusOptions{})
	require.NoError(t, err)
	assert.True(t, status.IsClean())
}

func TestIntegration_ConfigAndWorktrees(t *testing.T) {
	repo, _, _ := openFixture(t)
	ctx := context.Background()

	require.NoError(t, repo.ConfigSet(ctx, "gitcli.test", "value"))
	value, ok, err := repo.ConfigGet(ctx, "gitcli.test")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", value)

	entries, err := repo.Config(ctx)
	require.NoError(t, err)
	var found bool
	for _, e := range entries {
		if e.Key == "gitcli.test" {
			found = true
			assert.Equal(t, ConfigLevelLocal, e.Level)
		}
	}
	assert.True(t, found)

	require.NoError(t, repo.ConfigUnset(ctx, "gitcli.test"))
	assert.ErrorIs(t, repo.ConfigUnset(ctx, "gitcli.test"), ErrConfigNotFound)

	path := filepath.Join(t.TempDir(), "wt")
	wt, err := repo.CreateWorktree(ctx, path, "", WorktreeOptions{CreateBranch: "wt-branch"})
	require.NoError(t, err)

	wts, err := repo.ListWorktrees(ctx)
	require.NoError(t, err)
	assert.Len(t, wts, 2)

	current, err := wt.Repository().CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "wt-branch", current)

	require.NoError(t, wt.Remove(ctx, false))
	wts, err = repo.ListWorktrees(ctx)
	require.NoError(t, err)
	assert.Len(t, wts, 1)
}

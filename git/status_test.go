package git

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/jmgilman/gitcli/git/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	a := hexID('a')
	fake := testutil.NewFakeExecutor().On("status", testutil.Response{
		Stdout: "# branch.oid " + a + "\x00" +
			"# branch.head main\x00" +
			"# branch.upstream origin/main\x00" +
			"# branch.ab +0 -2\x00" +
			"1 .M N... 100644 100644 100644 " + a + " " + a + " README.md\x00" +
			"? notes.txt\x00",
		Chunk: 1,
	})
	repo := newFakeRepo(t, fake)

	status, err := repo.Status(context.Background(), StatusOptions{UntrackedFiles: "all", Paths: []string{"README.md", "notes.txt"}})
	require.NoError(t, err)
	assert.Equal(t, "main", status.Branch.Head)
	require.NotNil(t, status.Branch.AheadBehind)
	assert.Equal(t, 2, status.Branch.AheadBehind.Behind)
	require.Len(t, status.Entries, 1)
	assert.Equal(t, ChangeModified, status.Entries[0].Unstaged)
	assert.Equal(t, []string{"notes.txt"}, status.Untracked)
	assert.False(t, status.IsClean())

	call := lastCall(t, fake, "status")
	assert.Equal(t, "--no-optional-locks", call.Args[1], "status never takes optional locks")
	assert.Equal(t, []string{
		"status", "--porcelain=v2", "--branch", "--show-stash", "-z",
		"--untracked-files=all", "--", "README.md", "notes.txt",
	}, call.Args[6:])
}

func TestStatus_Clean(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("status", testutil.Response{
		Stdout: "# branch.oid (initial)\x00# branch.head main\x00",
	})
	status, err := newFakeRepo(t, fake).Status(context.Background(), StatusOptions{NoAheadBehind: true})
	require.NoError(t, err)
	assert.True(t, status.IsClean())
	assert.True(t, status.Branch.Initial)
	assert.True(t, lastCall(t, fake, "status").Has("--no-ahead-behind"))
}

func TestStatus_Invalid(t *testing.T) {
	fake := testutil.NewFakeExecutor()
	repo := newFakeRepo(t, fake)

	_, err := repo.Status(context.Background(), StatusOptions{UntrackedFiles: "some"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = repo.Status(context.Background(), StatusOptions{Paths: []string{""}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, fake.Calls())
}

func TestStatus_Malformed(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("status", testutil.Response{Stdout: "1 .M\x00"})
	_, err := newFakeRepo(t, fake).Status(context.Background(), StatusOptions{})
	require.ErrorIs(t, err, ErrMalformedOutput)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, statusFormat, pe.Format)
}

func TestDiff(t *testing.T) {
	a, b := hexID('a'), hexID('b')
	fake := testutil.NewFakeExecutor().On("diff", testutil.Response{
		Stdout: ":100644 100644 " + a + " " + b + " M\x00file.txt\x00" +
			":100644 100644 " + a + " " + a + " R090\x00old.txt\x00new.txt\x00",
		Chunk: 4,
	})
	repo := newFakeRepo(t, fake)

	diff, err := repo.Diff(context.Background(), DiffOptions{FindRenames: true}, "main", "feature")
	require.NoError(t, err)
	require.Len(t, diff.Changes, 2)
	assert.Equal(t, ChangeModified, diff.Changes[0].Type)
	assert.Equal(t, filemode.Regular, diff.Changes[0].DestMode)
	assert.Equal(t, mustID(t, b), diff.Changes[0].DestID)
	assert.Equal(t, "old.txt", diff.Changes[1].OriginalPath)
	assert.Equal(t, 90, diff.Changes[1].Score)
	assert.Equal(t, []string{"file.txt", "new.txt"}, diff.Paths())

	call := lastCall(t, fake, "diff")
	assert.Equal(t, []string{
		"diff", "-z", "--no-ext-diff", "--no-color", "--raw", "--no-abbrev",
		"--find-renames", "main", "feature", "--",
	}, call.Args[5:])
}

func TestDiffNameStatus(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("diff", testutil.Response{Stdout: "A\x00added.txt\x00D\x00gone.txt\x00"})
	repo := newFakeRepo(t, fake)

	diff, err := repo.DiffNameStatus(context.Background(), DiffOptions{Cached: true, Paths: []string{"."}}, "HEAD")
	require.NoError(t, err)
	require.Len(t, diff.Changes, 2)
	assert.Equal(t, ChangeAdded, diff.Changes[0].Type)
	assert.Equal(t, ChangeDeleted, diff.Changes[1].Type)

	call := lastCall(t, fake, "diff")
	assert.True(t, call.Has("--name-status"))
	assert.True(t, call.Has("--cached"))
	assert.True(t, call.Has("--no-renames"))
	assert.Equal(t, []string{"HEAD", "--", "."}, call.Args[len(call.Args)-3:])
}

func TestDiff_Invalid(t *testing.T) {
	repo := newFakeRepo(t, testutil.NewFakeExecutor())
	ctx := context.Background()

	_, err := repo.Diff(ctx, DiffOptions{}, "a", "b", "c")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = repo.Diff(ctx, DiffOptions{Cached: true}, "a", "b")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = repo.Diff(ctx, DiffOptions{}, "--output=x")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDiff_UnknownRevision(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("diff", testutil.Response{
		Stderr:   "fatal: ambiguous argument 'nope': unknown revision or path not in the working tree.\n",
		ExitCode: 128,
	})
	_, err := newFakeRepo(t, fake).Diff(context.Background(), DiffOptions{}, "nope")
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestIndexEntries(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("ls-files", testutil.Response{
		Stdout: "100644 " + hexID('a') + " 0\tREADME.md\x00" +
			"100755 " + hexID('b') + " 0\tscripts/run.sh\x00",
	})
	repo := newFakeRepo(t, fake)

	entries, err := repo.IndexEntries(context.Background(), "README.md", "scripts")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, filemode.Executable, entries[1].Mode)
	assert.Equal(t, "scripts/run.sh", entries[1].Path)
	assert.Equal(t, []string{"ls-files", "--stage", "-z", "--", "README.md", "scripts"}, lastCall(t, fake, "ls-files").Args[5:])
}

func TestAddAndUnstage(t *testing.T) {
	fake := testutil.NewFakeExecutor().
		On("add", testutil.Response{}).
		On("reset", testutil.Response{})
	repo := newFakeRepo(t, fake)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx))
	assert.Equal(t, []string{"add", "--all"}, lastCall(t, fake, "add").Args[5:])

	require.NoError(t, repo.Add(ctx, "-weird-name.txt"))
	assert.Equal(t, []string{"add", "--", "-weird-name.txt"}, lastCall(t, fake, "add").Args[5:])

	require.NoError(t, repo.Unstage(ctx, "a.txt"))
	assert.Equal(t, []string{"reset", "--quiet", "--", "a.txt"}, lastCall(t, fake, "reset").Args[5:])
}

func TestAdd_PathNotFound(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("add", testutil.Response{
		Stderr:   "fatal: pathspec 'missing.txt' did not match any files\n",
		ExitCode: 128,
	})
	err := newFakeRepo(t, fake).Add(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, ErrPathNotFound)
}

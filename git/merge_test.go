package git

import (
	"context"
	"testing"

	"github.com/jmgilman/gitcli/git/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout(t *testing.T) {
	fake := testutil.NewFakeExecutor().
		On("checkout", testutil.Response{Stderr: "Updating files: 100% (4/4), done.\nSwitched to a new branch 'topic'\n"}).
		On("rev-parse", testutil.Response{Stdout: hexID('a') + "\n"})
	repo := newFakeRepo(t, fake)

	events := make(chan ProgressEvent, 4)
	res, err := repo.Checkout(context.Background(), "main", CheckoutOptions{CreateBranch: "topic", Progress: events})
	require.NoError(t, err)
	assert.Equal(t, mustID(t, hexID('a')), res.Head)

	got := collect(events)
	require.Len(t, got, 1)
	assert.Equal(t, "Updating files", got[0].Stage)
	assert.Equal(t, []string{"checkout", "--progress", "-b", "topic", "main", "--"}, lastCall(t, fake, "checkout").Args[5:])
}

func TestCheckout_Errors(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("checkout", testutil.Response{
		Stderr: "error: Your local changes to the following files would be overwritten by checkout:\n\ta.txt\n" +
			"Please commit your changes or stash them before you switch branches.\nAborting\n",
		ExitCode: 1,
	})
	repo := newFakeRepo(t, fake)

	err := repo.CheckoutBranch(context.Background(), "other")
	assert.ErrorIs(t, err, ErrUncommittedChanges)

	_, err = repo.Checkout(context.Background(), "main", CheckoutOptions{CreateBranch: "x", Detach: true})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRestorePaths(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("checkout", testutil.Response{})
	repo := newFakeRepo(t, fake)

	require.NoError(t, repo.RestorePaths(context.Background(), "a.txt", "dir"))
	assert.Equal(t, []string{"checkout", "--", "a.txt", "dir"}, lastCall(t, fake, "checkout").Args[5:])
	assert.ErrorIs(t, repo.RestorePaths(context.Background()), ErrInvalidArgument)
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		resp   testutil.Response
		opts   MergeOptions
		status MergeStatus
		args   []string
	}{
		{
			name:   "fast-forward",
			resp:   testutil.Response{Stdout: "Updating 1234567..89abcde\nFast-forward\n a.txt | 1 +\n"},
			status: MergeFastForward,
			args:   []string{"merge", "--no-edit", "feature"},
		},
		{
			name:   "merge commit",
			resp:   testutil.Response{Stdout: "Merge made by the 'ort' strategy.\n"},
			opts:   MergeOptions{NoFastForward: true, Message: "Merge feature"},
			status: MergeNonFastForward,
			args:   []string{"merge", "--no-ff", "-m", "Merge feature", "feature"},
		},
		{
			name:   "up to date",
			resp:   testutil.Response{Stdout: "Already up to date.\n"},
			opts:   MergeOptions{FFOnly: true},
			status: MergeUpToDate,
			args:   []string{"merge", "--ff-only", "--no-edit", "feature"},
		},
		{
			name: "conflict is a result",
			resp: testutil.Response{
				Stdout:   "Auto-merging a.txt\nCONFLICT (content): Merge conflict in a.txt\nAutomatic merge failed; fix conflicts and then commit the result.\n",
				ExitCode: 1,
			},
			status: MergeConflicted,
			args:   []string{"merge", "--no-edit", "feature"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeExecutor().
				On("merge", tt.resp).
				On("rev-parse", testutil.Response{Stdout: hexID('c') + "\n"})
			repo := newFakeRepo(t, fake)

			res, err := repo.Merge(context.Background(), "feature", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, mustID(t, hexID('c')), res.Head)
			assert.Equal(t, tt.args, lastCall(t, fake, "merge").Args[5:])
		})
	}
}

func TestMerge_Failures(t *testing.T) {
	t.Run("unrelated histories", func(t *testing.T) {
		fake := testutil.NewFakeExecutor().On("merge", testutil.Response{
			Stderr:   "fatal: refusing to merge unrelated histories\n",
			ExitCode: 128,
		})
		_, err := newFakeRepo(t, fake).Merge(context.Background(), "orphan", MergeOptions{})
		assert.ErrorIs(t, err, ErrUnrelatedHistories)
	})

	t.Run("exit 1 without conflicts", func(t *testing.T) {
		fake := testutil.NewFakeExecutor().On("merge", testutil.Response{
			Stderr:   "merge: nope - not something we can merge\n",
			ExitCode: 1,
		})
		_, err := newFakeRepo(t, fake).Merge(context.Background(), "nope", MergeOptions{})
		assert.ErrorIs(t, err, ErrReferenceNotFound)
	})

	t.Run("exclusive options", func(t *testing.T) {
		_, err := newFakeRepo(t, testutil.NewFakeExecutor()).Merge(context.Background(), "x", MergeOptions{FFOnly: true, NoFastForward: true})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestAbortMerge(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("merge", testutil.Response{
		Stderr:   "fatal: There is no merge to abort (MERGE_HEAD missing).\n",
		ExitCode: 128,
	})
	assert.ErrorIs(t, newFakeRepo(t, fake).AbortMerge(context.Background()), ErrNoMergeInProgress)
}

func TestRebase(t *testing.T) {
	fake := testutil.NewFakeExecutor().
		On("rebase", testutil.Response{
			Stderr: "Rebasing (1/2)\rRebasing (2/2)\rSuccessfully rebased and updated refs/heads/topic.\n",
		}).
		On("rev-parse", testutil.Response{Stdout: hexID('d') + "\n"})
	repo := newFakeRepo(t, fake)

	events := make(chan ProgressEvent, 4)
	res, err := repo.Rebase(context.Background(), "main", RebaseOptions{Onto: "release", Progress: events})
	require.NoError(t, err)
	assert.Equal(t, RebaseCompleted, res.Status)
	assert.Equal(t, mustID(t, hexID('d')), res.Head)

	got := collect(events)
	require.Len(t, got, 2)
	assert.Equal(t, ProgressRebase, got[0].Kind)
	assert.Equal(t, 50, got[0].Percent)
	assert.True(t, got[1].Done)
	assert.Equal(t, []string{"rebase", "--onto", "release", "main"}, lastCall(t, fake, "rebase").Args[5:])
}

func TestRebase_Conflict(t *testing.T) {
	fake := testutil.NewFakeExecutor().
		On("rebase", testutil.Response{
			Stdout: "Auto-merging a.txt\nCONFLICT (content): Merge conflict in a.txt\n",
			Stderr: "Rebasing (1/1)\rerror: could not apply 1234567... Change a\n" +
				"hint: Resolve all conflicts manually\n",
			ExitCode: 1,
		}).
		On("rev-parse", testutil.Response{Stdout: hexID('d') + "\n"})
	repo := newFakeRepo(t, fake)

	res, err := repo.Rebase(context.Background(), "main", RebaseOptions{})
	require.NoError(t, err)
	assert.Equal(t, RebaseConflicted, res.Status)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "a.txt", res.Conflicts[0].Path)
	assert.Equal(t, "1234567... Change a", res.Stopped)
}

func TestRebase_UpToDate(t *testing.T) {
	fake := testutil.NewFakeExecutor().
		On("rebase", testutil.Response{Stdout: "Current branch topic is up to date.\n"}).
		On("rev-parse", testutil.Response{Stdout: hexID('d') + "\n"})
	res, err := newFakeRepo(t, fake).Rebase(context.Background(), "main", RebaseOptions{})
	require.NoError(t, err)
	assert.Equal(t, RebaseUpToDate, res.Status)
	assert.Equal(t, "up to date", res.Status.String())
}

func TestRebase_ContinueAndAbort(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("rebase",
		testutil.Response{Stderr: "Successfully rebased and updated refs/heads/topic.\n"},
		testutil.Response{Stderr: "fatal: No rebase in progress?\n", ExitCode: 128},
	).On("rev-parse", testutil.Response{Stdout: hexID('d') + "\n"})
	repo := newFakeRepo(t, fake)

	res, err := repo.ContinueRebase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RebaseCompleted, res.Status)
	assert.Equal(t, []string{"rebase", "--continue"}, lastCall(t, fake, "rebase").Args[5:])

	assert.ErrorIs(t, repo.AbortRebase(context.Background()), ErrNoRebaseInProgress)
}

func TestStash(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("stash",
		testutil.Response{Stdout: "Saved working directory and index state On main: wip\n"},
		testutil.Response{Stdout: "No local changes to save\n"},
	)
	repo := newFakeRepo(t, fake)
	ctx := context.Background()

	saved, err := repo.Stash(ctx, StashOptions{Message: "wip", IncludeUntracked: true})
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, []string{"stash", "push", "--message", "wip", "--include-untracked"}, lastCall(t, fake, "stash").Args[5:])

	saved, err = repo.Stash(ctx, StashOptions{})
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestStashListApplyDrop(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("stash",
		testutil.Response{Stdout: hexID('a') + "\tstash@{0}\tOn main: wip\n"},
		testutil.Response{
			Stdout:   "Auto-merging a.txt\nCONFLICT (content): Merge conflict in a.txt\n",
			ExitCode: 1,
		},
		testutil.Response{Stderr: "error: stash@{3} is not a valid reference\n", ExitCode: 1},
	)
	repo := newFakeRepo(t, fake)
	ctx := context.Background()

	entries, err := repo.StashList(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "On main: wip", entries[0].Message)

	res, err := repo.StashPop(ctx, 0)
	require.NoError(t, err)
	assert.True(t, res.Conflicted)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, []string{"stash", "pop", "stash@{0}"}, lastCall(t, fake, "stash").Args[5:])

	assert.ErrorIs(t, repo.StashDrop(ctx, 3), ErrStashNotFound)
	_, err = repo.StashApply(ctx, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestClean(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("clean",
		testutil.Response{Stdout: "Would remove build/\nWould remove tmp.txt\n"},
		testutil.Response{
			Stdout:   "Removing build/\n",
			Stderr:   "warning: failed to remove locked.txt: Permission denied\n",
			ExitCode: 1,
		},
	)
	repo := newFakeRepo(t, fake)
	ctx := context.Background()

	res, err := repo.Clean(ctx, CleanOptions{Directories: true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, []string{"build/", "tmp.txt"}, res.Removed)
	assert.Equal(t, []string{"clean", "--dry-run", "-d", "--"}, lastCall(t, fake, "clean").Args[5:])

	res, err = repo.Clean(ctx, CleanOptions{Force: true, Ignored: true, Paths: []string{"build"}})
	require.NoError(t, err, "per-path failures are part of the result")
	assert.False(t, res.DryRun)
	assert.Equal(t, []string{"build/"}, res.Removed)
	assert.Equal(t, []CleanFailure{{Path: "locked.txt", Message: "Permission denied"}}, res.Failed)
	assert.Equal(t, []string{"clean", "--force", "-x", "--", "build"}, lastCall(t, fake, "clean").Args[5:])
}

func TestClean_RequireForce(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("clean", testutil.Response{
		Stderr:   "fatal: clean.requireForce defaults to true and neither -i, -n, nor -f given; refusing to clean\n",
		ExitCode: 128,
	})
	_, err := newFakeRepo(t, fake).Clean(context.Background(), CleanOptions{Force: true})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

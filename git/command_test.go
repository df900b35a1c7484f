package git

import (
	"context"
	osexec "os/exec"
	"testing"
	"time"

	"github.com/jmgilman/gitcli/git/testutil"
	"github.com/jmgilman/gitcli/internal/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_Argv(t *testing.T) {
	c := gitCommand(nil, "status", "-z")
	assert.Equal(t, []string{"-c", "color.ui=false", "-c", "core.quotepath=false", "status", "-z"}, c.argv())

	c.family = familyStatus
	assert.Equal(t, "--no-optional-locks", c.argv()[0])

	c.family = familyConfig
	assert.Equal(t, []string{"status", "-z"}, c.argv())
	assert.Equal(t, "status", c.name())
	assert.Empty(t, gitCommand(nil).name())
}

func TestCommand_Accepts(t *testing.T) {
	c := gitCommand(nil, "merge")
	assert.False(t, c.accepts(1, ""))

	c.allow = []int{1}
	assert.True(t, c.accepts(1, ""))
	assert.False(t, c.accepts(128, ""))

	c.soft = func(code int, stderr string) bool { return code == 128 && stderr == "soft" }
	assert.True(t, c.accepts(128, "soft"))
	assert.False(t, c.accepts(128, "hard"))
}

func TestRunner_ExitFailureBeatsParseError(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("for-each-ref", testutil.Response{
		Stdout:   "garbage\n",
		Stderr:   "fatal: not a git repository (or any of the parent directories): .git\n",
		ExitCode: 128,
	})
	_, err := newFakeRepo(t, fake).ListTags(context.Background())
	assert.ErrorIs(t, err, ErrNotRepository)
	assert.NotErrorIs(t, err, ErrMalformedOutput)
}

func TestRunner_StreamStop(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("rev-list", testutil.Response{Stdout: "a\x00b\x00c\x00", Hang: true})
	repo := newFakeRepo(t, fake)

	var got []string
	err := repo.run.stream(context.Background(), gitCommand(logRules, "rev-list"), revListFormat, func(rd *buffer.Reader) error {
		rec, err := rd.ReadUntil(0)
		if err != nil {
			return err
		}
		got = append(got, string(rec))
		return errStop
	})
	require.NoError(t, err, "stopping early cancels the process without reporting it")
	assert.Equal(t, []string{"a"}, got)
}

func TestRunner_ProgressAbandoned(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("fetch", testutil.Response{
		Stderr: "Receiving objects:  10% (1/10)\rReceiving objects:  20% (2/10)\r",
		Hang:   true,
	})
	repo := newFakeRepo(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Nobody receives; the fetch must still end once the context does.
	events := make(chan ProgressEvent)
	res, err := repo.Fetch(ctx, FetchOptions{Progress: events})
	require.NoError(t, err)
	assert.True(t, res.Canceled)

	_, open := <-events
	assert.False(t, open, "the channel is closed after the operation")
}

// shellRunner runs commands through sh instead of git so a test can build a
// process tree whose grandchildren keep the output pipes open.
func shellRunner(t *testing.T) *runner {
	t.Helper()
	sh, err := osexec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return newRunner(newRepositoryOptions([]RepositoryOption{WithGitPath(sh)}), t.TempDir())
}

func shellCommand(script string) *command {
	c := gitCommand(nil, "-c", script)
	c.family = familyConfig
	return c
}

func TestRunner_TransferCanceledWithOrphanedChild(t *testing.T) {
	run := shellRunner(t)
	c := shellCommand("sleep 5 & echo 'Receiving objects:  10% (1/10)' >&2; wait")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan ProgressEvent)
	got := make(chan ProgressEvent, 1)
	go func() {
		first := <-events
		got <- first
		cancel()
		for range events {
		}
	}()

	start := time.Now()
	out, err := run.transfer(ctx, c, events, nil)
	require.NoError(t, err)
	assert.True(t, out.Canceled)
	assert.Less(t, time.Since(start), 3*time.Second, "cancel must not wait for the backgrounded sleep")

	first := <-got
	assert.Equal(t, ProgressStage, first.Kind)
	assert.Equal(t, "Receiving objects", first.Stage)
	assert.Equal(t, 10, first.Percent)
}

func TestRunner_StreamCanceledWithOrphanedChild(t *testing.T) {
	run := shellRunner(t)
	c := shellCommand("sleep 5 & echo first; wait")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var got []string
	start := time.Now()
	err := run.stream(ctx, c, "lines", func(rd *buffer.Reader) error {
		for {
			line, err := rd.ReadUntil('\n')
			if err != nil {
				return err
			}
			got = append(got, string(line))
		}
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second, "cancel must not wait for the backgrounded sleep")
	assert.Equal(t, []string{"first"}, got)
}

func TestRunner_StreamStopWithOrphanedChild(t *testing.T) {
	run := shellRunner(t)
	c := shellCommand("sleep 5 & echo first; wait")

	start := time.Now()
	err := run.stream(context.Background(), c, "lines", func(rd *buffer.Reader) error {
		_, err := rd.ReadUntil('\n')
		if err != nil {
			return err
		}
		return errStop
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRunner_BufferPoolSharedAcrossWorktrees(t *testing.T) {
	repo := newFakeRepo(t, testutil.NewFakeExecutor())
	wt := repo.worktree("/work/wt")
	assert.Same(t, repo.run.pool, wt.Repository().run.pool)
	assert.Equal(t, "/work/wt", wt.Repository().run.dir)
	assert.Equal(t, "/work/repo", repo.run.dir)
}

func TestRunner_BufferSize(t *testing.T) {
	fake := testutil.NewFakeExecutor()
	assert.Equal(t, buffer.DefaultSize, newFakeRepo(t, fake, WithBufferSize(1)).run.bufSize)
	assert.Equal(t, 1<<20, newFakeRepo(t, fake, WithBufferSize(1<<20)).run.bufSize)
}

package git

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/jmgilman/gitcli/git/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTag(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("tag", testutil.Response{})
	repo := newFakeRepo(t, fake)

	require.NoError(t, repo.CreateTag(context.Background(), "v1.0.0", "HEAD", "Release 1.0.0\n\nNotes."))
	call := lastCall(t, fake, "tag")
	assert.Equal(t, []string{"tag", "--annotate", "--file=-", "v1.0.0", "HEAD"}, call.Args[5:])
	assert.Equal(t, "Release 1.0.0\n\nNotes.", call.Stdin)
}

func TestCreateTag_Invalid(t *testing.T) {
	fake := testutil.NewFakeExecutor()
	repo := newFakeRepo(t, fake)
	ctx := context.Background()

	assert.ErrorIs(t, repo.CreateTag(ctx, "v1.0.0", "HEAD", "  "), ErrInvalidArgument)
	assert.ErrorIs(t, repo.CreateTag(ctx, "v1..0", "HEAD", "m"), ErrInvalidName)
	assert.ErrorIs(t, repo.CreateLightweightTag(ctx, "x", ""), ErrInvalidArgument)
	assert.Empty(t, fake.Calls())
}

func TestCreateTag_Exists(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("tag", testutil.Response{
		Stderr:   "fatal: tag 'v1.0.0' already exists\n",
		ExitCode: 128,
	})
	err := newFakeRepo(t, fake).CreateLightweightTag(context.Background(), "v1.0.0", "HEAD")
	assert.ErrorIs(t, err, ErrTagExists)
}

func TestListTags(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("for-each-ref", testutil.Response{
		Stdout: refLine("refs/tags/v1.0.0", "tag", hexID('c'), "", " ") +
			refLine("refs/tags/light", "commit", hexID('a'), "", " "),
	})
	repo := newFakeRepo(t, fake)

	tags, err := repo.ListTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "v1.0.0", tags[0].Name)
	assert.Equal(t, plumbing.ReferenceName("refs/tags/v1.0.0"), tags[0].FullName)
	assert.True(t, tags[0].Annotated)
	assert.False(t, tags[1].Annotated)
	assert.Equal(t, "refs/tags", lastCall(t, fake, "for-each-ref").Args[len(lastCall(t, fake, "for-each-ref").Args)-1])
}

func TestDeleteTag(t *testing.T) {
	fake := testutil.NewFakeExecutor().On("tag", testutil.Response{})
	repo := newFakeRepo(t, fake)

	require.NoError(t, repo.DeleteTag(context.Background(), "v1.0.0"))
	assert.Equal(t, []string{"tag", "--delete", "v1.0.0"}, lastCall(t, fake, "tag").Args[5:])
}

func TestPeel_AnnotatedTag(t *testing.T) {
	commitID, tagID := hexID('a'), hexID('c')
	commitBody := "tree " + hexID('e') + "\n" +
		"author Test User <test@example.com> 1700000000 +0000\n" +
		"committer Test User <test@example.com> 1700000000 +0000\n" +
		"\nInitial commit\n"
	tagBody := "object " + commitID + "\ntype commit\ntag v1.0.0\n" +
		"tagger Test User <test@example.com> 1700000000 +0000\n\nRelease\n"

	fake := testutil.NewFakeExecutor().
		On("for-each-ref", testutil.Response{Stdout: refLine("refs/tags/v1.0.0", "tag", tagID, "", " ")}).
		On("cat-file", testutil.Response{
			Stdout: objectRecord(commitID, "commit", commitBody) + objectRecord(tagID, "tag", tagBody),
		})
	repo := newFakeRepo(t, fake)

	tags, err := repo.ListTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 1)

	peeled, err := repo.Peel(context.Background(), tags[0].Ref)
	require.NoError(t, err)
	require.NotNil(t, peeled.Commit)
	assert.Equal(t, mustID(t, commitID), peeled.Commit.ID)
	require.NotNil(t, peeled.Tag)
	assert.Equal(t, "v1.0.0", peeled.Tag.Name)

	call := lastCall(t, fake, "cat-file")
	assert.Equal(t, tagID+"^{commit}\n"+tagID+"\n", call.Stdin)

	again, err := repo.Peel(context.Background(), tags[0].Ref)
	require.NoError(t, err)
	assert.Same(t, peeled, again)
	assert.Len(t, fake.Calls(), 2, "peel result is cached on the reference")
}

package gitops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) remote(t *testing.T, id, url string) Key {
	t.Helper()
	f.store.add(RepositoryRecord{ID: id, OwnerID: testOwner, URL: url})
	return Key{OwnerID: testOwner, RepositoryID: id}
}

func TestCloneThenListBranches(t *testing.T) {
	remote := bareRemote(t)
	f := newFixture(t)
	ctx := context.Background()
	key := f.remote(t, "1", remote)

	branches, err := f.svc.ListBranches(ctx, key)
	require.NoError(t, err)
	require.NotEmpty(t, branches)
	assert.Equal(t, Branch{
		Name:           "main",
		IsCurrent:      true,
		HeadCommitHash: strings.TrimSpace(runGit(t, remote, "rev-parse", "main")),
		CommitCount:    1,
	}, branches[0])

	files, err := f.svc.ListFiles(ctx, key, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello.txt"}, names(files))
}

func TestRoundTripWithPush(t *testing.T) {
	remote := bareRemote(t)
	f := newFixture(t)
	ctx := context.Background()
	key := f.remote(t, "1", remote)

	require.NoError(t, f.svc.SaveFile(ctx, key, "a.txt", []byte("a\n")))
	require.NoError(t, f.svc.AddFiles(ctx, key, []string{"a.txt"}))

	res, err := f.svc.CommitChanges(ctx, key, "add a", Identity{})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Regexp(t, hexHash, res.Success().Commit)

	status, err := f.svc.GetStatus(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "origin/main", status.TrackingRef)

	push, err := f.svc.PushChanges(ctx, key)
	require.NoError(t, err)
	require.True(t, push.OK(), "%+v", push.Failure())
	require.NotNil(t, push.Success().Pushed)
	assert.True(t, *push.Success().Pushed)

	assert.Equal(t, res.Success().Commit, strings.TrimSpace(runGit(t, remote, "rev-parse", "main")))

	again, err := f.svc.PushChanges(ctx, key)
	require.NoError(t, err)
	require.True(t, again.OK())
	assert.False(t, *again.Success().Pushed)
}

func TestStatusAheadBehind(t *testing.T) {
	remote := bareRemote(t)
	f := newFixture(t)
	ctx := context.Background()
	key := f.remote(t, "1", remote)

	require.NoError(t, f.svc.SaveFile(ctx, key, "local.txt", []byte("l")))
	require.NoError(t, f.svc.AddFiles(ctx, key, []string{"local.txt"}))
	_, err := f.svc.CommitChanges(ctx, key, "local", Identity{})
	require.NoError(t, err)

	status, err := f.svc.GetStatus(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Ahead)
	assert.Equal(t, 0, status.Behind)
}

func TestPullPicksUpRemoteCommits(t *testing.T) {
	remote := bareRemote(t)
	f := newFixture(t)
	ctx := context.Background()
	key := f.remote(t, "1", remote)

	_, err := f.svc.ListFiles(ctx, key, "")
	require.NoError(t, err)

	other := t.TempDir()
	runGit(t, other, "clone", remote, ".")
	require.NoError(t, os.WriteFile(filepath.Join(other, "upstream.txt"), []byte("u"), 0o644))
	runGit(t, other, "add", "upstream.txt")
	runGit(t, other, "commit", "-m", "upstream change")
	runGit(t, other, "push", "origin", "main")

	files, err := f.svc.ListFiles(ctx, key, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"hello.txt", "upstream.txt"}, names(files))
}

func TestCloneEmptyRemote(t *testing.T) {
	requireGit(t)
	remote := t.TempDir()
	runGit(t, remote, "init", "--bare", "--initial-branch=main")

	f := newFixture(t)
	ctx := context.Background()
	key := f.remote(t, "1", remote)

	branches, err := f.svc.ListBranches(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []Branch{{Name: "main", IsCurrent: true}}, branches)

	commits, err := f.svc.ListCommits(ctx, key, "", 0)
	require.NoError(t, err)
	assert.Empty(t, commits)

	push, err := f.svc.PushChanges(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, ReasonNoCommits, push.Failure().Reason)

	require.NoError(t, f.svc.SaveFile(ctx, key, "first.txt", []byte("1")))
	require.NoError(t, f.svc.AddFiles(ctx, key, []string{"."}))
	res, err := f.svc.CommitChanges(ctx, key, "first", Identity{})
	require.NoError(t, err)
	require.True(t, res.OK())

	push, err = f.svc.PushChanges(ctx, key)
	require.NoError(t, err)
	assert.True(t, push.OK(), "%+v", push.Failure())
}

func TestCloneFailure(t *testing.T) {
	f := newFixture(t)
	key := f.remote(t, "1", filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := f.svc.ListBranches(context.Background(), key)
	assert.ErrorIs(t, err, ErrCloneFailed)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.NotNil(t, toolErr.Cause)
}

func TestMergeBranch(t *testing.T) {
	requireGit(t)
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	checkout(t, repo, "feature", true)
	tip := commitFiles(t, repo, "feature", map[string]string{"feature.txt": "f"})
	checkout(t, repo, "main", false)

	res, err := f.svc.MergeBranch(ctx, key, "feature", "main", Identity{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Conflicts)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, tip, head.Hash())

	_, err = f.svc.MergeBranch(ctx, key, "missing", "main", Identity{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMergeConflictIsAborted(t *testing.T) {
	requireGit(t)
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	checkout(t, repo, "feature", true)
	commitFiles(t, repo, "feature edit", map[string]string{"README.md": "feature\n"})
	checkout(t, repo, "main", false)
	mainTip := commitFiles(t, repo, "main edit", map[string]string{"README.md": "main\n"})

	res, err := f.svc.MergeBranch(ctx, key, "feature", "main", Identity{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"README.md"}, res.Conflicts)
	assert.Contains(t, res.Message, "aborted")

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, mainTip, head.Hash())

	status, err := f.svc.GetStatus(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, status.Entries)

	content, err := f.svc.ReadFileContent(ctx, key, "README.md")
	require.NoError(t, err)
	assert.Equal(t, "main\n", string(content))
}

func TestMergeChecksOutTarget(t *testing.T) {
	requireGit(t)
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	checkout(t, repo, "feature", true)
	commitFiles(t, repo, "feature", map[string]string{"feature.txt": "f"})
	checkout(t, repo, "release", true)

	res, err := f.svc.MergeBranch(ctx, key, "feature", "main", Identity{})
	require.NoError(t, err)
	require.True(t, res.Success)

	branches, err := f.svc.ListBranches(ctx, key)
	require.NoError(t, err)
	for _, b := range branches {
		assert.Equal(t, b.Name == "main", b.IsCurrent, b.Name)
	}
}

func TestRemoteOnlyBranchesAreTracked(t *testing.T) {
	remote := bareRemote(t)

	other := t.TempDir()
	runGit(t, other, "clone", remote, ".")
	runGit(t, other, "checkout", "-b", "release")
	require.NoError(t, os.WriteFile(filepath.Join(other, "release.txt"), []byte("r"), 0o644))
	runGit(t, other, "add", "release.txt")
	runGit(t, other, "commit", "-m", "release prep")
	runGit(t, other, "push", "origin", "release")
	runGit(t, other, "checkout", "-b", "feature", "main")
	require.NoError(t, os.WriteFile(filepath.Join(other, "feature.txt"), []byte("f"), 0o644))
	runGit(t, other, "add", "feature.txt")
	runGit(t, other, "commit", "-m", "feature work")
	runGit(t, other, "push", "origin", "feature")

	f := newFixture(t)
	ctx := context.Background()
	key := f.remote(t, "1", remote)

	b, err := f.svc.CreateBranch(ctx, key, "hotfix", "release")
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(runGit(t, remote, "rev-parse", "release")), b.HeadCommitHash)
	assert.Equal(t, 2, b.CommitCount)

	res, err := f.svc.MergeBranch(ctx, key, "feature", "main", Identity{})
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)

	branches, err := f.svc.ListBranches(ctx, key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main", "release", "hotfix", "feature"}, branchNames(branches))

	repo, err := git.PlainOpen(filepath.Join(f.root, "7", "1"))
	require.NoError(t, err)
	cfg, err := repo.Config()
	require.NoError(t, err)
	require.Contains(t, cfg.Branches, "release")
	assert.Equal(t, "origin", cfg.Branches["release"].Remote)

	files, err := f.svc.ListFiles(ctx, key, "")
	require.NoError(t, err)
	assert.Contains(t, names(files), "feature.txt")
}

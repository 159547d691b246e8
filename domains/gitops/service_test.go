package gitops

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexHash = regexp.MustCompile(`^[0-9a-f]{40}$`)

func TestUnknownRepositoryIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListBranches(ctx, Key{OwnerID: testOwner, RepositoryID: "404"})
	assert.ErrorIs(t, err, ErrNotFound)

	key, _ := f.local(t, "1")
	_, err = f.svc.ListBranches(ctx, Key{OwnerID: testOwner + 1, RepositoryID: key.RepositoryID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreReturningForeignRecordIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.store.add(RepositoryRecord{ID: "1", OwnerID: testOwner})

	svc := New(f.svc.l, foreignStore{f.store}, f.svc.runner, nil, Options{Root: f.root})
	_, err := svc.ListBranches(context.Background(), Key{OwnerID: testOwner, RepositoryID: "1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

// foreignStore ignores the owner filter and returns a record that belongs
// to someone else.
type foreignStore struct{ *fakeStore }

func (s foreignStore) FindRepository(ctx context.Context, id string, _ int64) (*RepositoryRecord, error) {
	rec, err := s.fakeStore.FindRepository(ctx, id, testOwner)
	if err != nil {
		return nil, err
	}
	rec.OwnerID = testOwner + 100
	return rec, nil
}

func TestInvalidKeyFailsBeforeIO(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListFiles(context.Background(), Key{OwnerID: testOwner, RepositoryID: "../x"}, "")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	entries, err := os.ReadDir(f.root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPathContainment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, _ := f.local(t, "1")

	outside := filepath.Join(filepath.Dir(f.root), "outside.txt")
	bad := []string{"../outside.txt", "../../outside.txt", "/etc/passwd", ".git/config", "a/../../outside.txt", outside}

	for _, p := range bad {
		assert.ErrorIs(t, f.svc.SaveFile(ctx, key, p, []byte("x")), ErrInvalidInput, p)
		assert.ErrorIs(t, f.svc.CreateDirectory(ctx, key, p), ErrInvalidInput, p)
		assert.ErrorIs(t, f.svc.DeleteFile(ctx, key, p), ErrInvalidInput, p)
		assert.ErrorIs(t, f.svc.RenameFile(ctx, key, "README.md", p), ErrInvalidInput, p)
		assert.ErrorIs(t, f.svc.RenameFile(ctx, key, p, "moved.txt"), ErrInvalidInput, p)
		assert.ErrorIs(t, f.svc.UploadFile(ctx, key, p, Upload{OriginalName: "u.txt"}), ErrInvalidInput, p)
		_, err := f.svc.ListFiles(ctx, key, p)
		assert.ErrorIs(t, err, ErrInvalidInput, p)
		_, err = f.svc.ReadFileContent(ctx, key, p)
		assert.ErrorIs(t, err, ErrInvalidInput, p)
	}

	assert.ErrorIs(t, f.svc.UploadFile(ctx, key, "", Upload{OriginalName: "../evil.txt"}), ErrInvalidInput)
	assert.ErrorIs(t, f.svc.DeleteFile(ctx, key, ""), ErrInvalidInput)

	_, err := os.Stat(outside)
	assert.True(t, os.IsNotExist(err))

	files, err := f.svc.ListFiles(ctx, key, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md"}, names(files))

	_, err = os.Stat(filepath.Join(f.root, "7", "1", ".git", "config"))
	assert.NoError(t, err, ".git must be intact")
}

func TestEnsureReadyIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	head := func() plumbing.Hash {
		ref, err := repo.Head()
		require.NoError(t, err)
		c, err := repo.CommitObject(ref.Hash())
		require.NoError(t, err)
		return c.TreeHash
	}

	before := head()
	_, err := f.svc.ensureReady(ctx, key)
	require.NoError(t, err)
	_, err = f.svc.ensureReady(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, before, head())

	status, err := f.svc.GetStatus(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, status.Entries)
}

func TestListBranchesExactlyOneCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	checkout(t, repo, "feature", true)
	commitFiles(t, repo, "feature work", map[string]string{"f.txt": "f"})
	checkout(t, repo, "main", false)

	_, err := f.svc.CreateBranch(ctx, key, "topic", "")
	require.NoError(t, err)

	branches, err := f.svc.ListBranches(ctx, key)
	require.NoError(t, err)
	require.Len(t, branches, 3)

	current := 0
	for _, b := range branches {
		if b.IsCurrent {
			current++
			assert.Equal(t, "topic", b.Name)
		}
	}
	assert.Equal(t, 1, current)

	byName := map[string]Branch{}
	for _, b := range branches {
		byName[b.Name] = b
	}
	assert.Equal(t, 2, byName["feature"].CommitCount)
	assert.Equal(t, 1, byName["main"].CommitCount)
	assert.Regexp(t, hexHash, byName["main"].HeadCommitHash)
}

func TestCreateBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	checkout(t, repo, "release", true)
	tip := commitFiles(t, repo, "release prep", map[string]string{"CHANGELOG.md": "v1"})
	checkout(t, repo, "main", false)

	b, err := f.svc.CreateBranch(ctx, key, "hotfix", "release")
	require.NoError(t, err)
	assert.True(t, b.IsCurrent)
	assert.Equal(t, tip.String(), b.HeadCommitHash)
	assert.Equal(t, 2, b.CommitCount)

	_, err = f.svc.CreateBranch(ctx, key, "hotfix", "")
	assert.ErrorIs(t, err, ErrBranchExists)

	_, err = f.svc.CreateBranch(ctx, key, "", "")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = f.svc.CreateBranch(ctx, key, "bad name", "")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = f.svc.CreateBranch(ctx, key, "other", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBranchKeepsUncommittedChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, _ := f.local(t, "1")

	require.NoError(t, f.svc.SaveFile(ctx, key, "draft.txt", []byte("wip")))
	_, err := f.svc.CreateBranch(ctx, key, "wip", "")
	require.NoError(t, err)

	content, err := f.svc.ReadFileContent(ctx, key, "draft.txt")
	require.NoError(t, err)
	assert.Equal(t, "wip", string(content))
}

func TestDeleteCurrentBranchRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, _ := f.local(t, "1")

	res, err := f.svc.DeleteBranch(ctx, key, "main")
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Equal(t, ReasonCannotDeleteCurrent, res.Failure().Reason)

	branches, err := f.svc.ListBranches(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, branchNames(branches), "main")
}

func TestDeleteBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	checkout(t, repo, "old", true)
	checkout(t, repo, "main", false)

	res, err := f.svc.DeleteBranch(ctx, key, "old")
	require.NoError(t, err)
	assert.True(t, res.OK())

	branches, err := f.svc.ListBranches(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, branchNames(branches))

	_, err = f.svc.DeleteBranch(ctx, key, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommitWithNothingStaged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	require.NoError(t, f.svc.SaveFile(ctx, key, "unstaged.txt", []byte("x")))

	res, err := f.svc.CommitChanges(ctx, key, "msg", Identity{})
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Equal(t, ReasonNothingStaged, res.Failure().Reason)
	assert.Equal(t, 1, logLength(t, repo))

	_, err = f.svc.CommitChanges(ctx, key, "  ", Identity{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConcurrentCommitsAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	require.NoError(t, f.svc.SaveFile(ctx, key, "a.txt", []byte("a")))
	require.NoError(t, f.svc.AddFiles(ctx, key, []string{"a.txt"}))

	var wg sync.WaitGroup
	results := make([]OperationResult, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.svc.CommitChanges(ctx, key, "add a", Identity{})
		}()
	}
	wg.Wait()

	ok := 0
	for i, r := range results {
		require.NoError(t, errs[i])
		if r.OK() {
			ok++
		} else {
			assert.Equal(t, ReasonNothingStaged, r.Failure().Reason)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 2, logLength(t, repo))
}

func TestStageCommitRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	require.NoError(t, f.svc.SaveFile(ctx, key, "a.txt", []byte("hello\n")))
	require.NoError(t, f.svc.AddFiles(ctx, key, []string{"a.txt"}))

	res, err := f.svc.CommitChanges(ctx, key, "add a", Identity{Name: "jane", Email: "jane@example.com"})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Regexp(t, hexHash, res.Success().Commit)
	assert.Equal(t, "main", res.Success().Ref)

	c, err := repo.CommitObject(plumbing.NewHash(res.Success().Commit))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", c.Author.Email)

	commits, err := f.svc.ListCommits(ctx, key, "", 0)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "add a", commits[0].Message)
	assert.Equal(t, ChangeStats{Additions: 1, FilesTouched: 1}, commits[0].Changes)

	push, err := f.svc.PushChanges(ctx, key)
	require.NoError(t, err)
	require.False(t, push.OK())
	assert.Equal(t, ReasonNoRemote, push.Failure().Reason)

	counters, _ := f.store.countersFor(key.RepositoryID)
	assert.Equal(t, 2, counters.CommitCount)
	assert.Equal(t, 1, counters.BranchCount)
	assert.False(t, counters.LastUpdated.IsZero())
}

func TestCommitUsesDefaultAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	require.NoError(t, f.svc.SaveFile(ctx, key, "a.txt", []byte("a")))
	require.NoError(t, f.svc.AddFiles(ctx, key, []string{"."}))
	res, err := f.svc.CommitChanges(ctx, key, "add", Identity{})
	require.NoError(t, err)
	require.True(t, res.OK())

	c, err := repo.CommitObject(plumbing.NewHash(res.Success().Commit))
	require.NoError(t, err)
	assert.Equal(t, "Desk", c.Author.Name)
	assert.Equal(t, "desk@example.com", c.Author.Email)
}

func TestCounterFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, _ := f.local(t, "1")

	f.store.failNext = errors.New("db down")
	_, err := f.svc.CreateBranch(ctx, key, "topic", "")
	assert.NoError(t, err)

	_, updates := f.store.countersFor(key.RepositoryID)
	assert.Equal(t, 1, updates)
}

func TestFileOperationsDoNotWriteCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, _ := f.local(t, "1")

	require.NoError(t, f.svc.SaveFile(ctx, key, "a.txt", []byte("a")))
	require.NoError(t, f.svc.UploadFile(ctx, key, "up", Upload{OriginalName: "u.txt", Content: []byte("u")}))
	require.NoError(t, f.svc.CreateDirectory(ctx, key, "dir"))
	require.NoError(t, f.svc.RenameFile(ctx, key, "a.txt", "b.txt"))
	require.NoError(t, f.svc.DeleteFile(ctx, key, "b.txt"))
	require.NoError(t, f.svc.AddFiles(ctx, key, []string{"."}))

	_, updates := f.store.countersFor(key.RepositoryID)
	assert.Zero(t, updates)

	res, err := f.svc.CommitChanges(ctx, key, "upload", Identity{})
	require.NoError(t, err)
	require.True(t, res.OK())

	counters, updates := f.store.countersFor(key.RepositoryID)
	assert.Equal(t, 1, updates)
	assert.Equal(t, 2, counters.CommitCount)
}

func TestReadsDoNotWriteCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, _ := f.local(t, "1")

	_, err := f.svc.ListFiles(ctx, key, "")
	require.NoError(t, err)
	_, err = f.svc.GetStats(ctx, key)
	require.NoError(t, err)

	_, updates := f.store.countersFor(key.RepositoryID)
	assert.Zero(t, updates)
}

func TestAddFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, _ := f.local(t, "1")

	err := f.svc.AddFiles(ctx, key, []string{"missing.txt"})
	assert.ErrorIs(t, err, ErrAddFailed)
	var toolErr *ToolError
	assert.True(t, errors.As(err, &toolErr))

	assert.ErrorIs(t, f.svc.AddFiles(ctx, key, nil), ErrInvalidInput)

	// staging a deletion
	require.NoError(t, f.svc.DeleteFile(ctx, key, "README.md"))
	require.NoError(t, f.svc.AddFiles(ctx, key, []string{"README.md"}))

	status, err := f.svc.GetStatus(ctx, key)
	require.NoError(t, err)
	require.Len(t, status.Entries, 1)
	assert.Equal(t, StatusEntry{Path: "README.md", IndexState: "D", WorkingTreeState: " "}, status.Entries[0])
}

func TestStatusClassification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, _ := f.local(t, "1")

	require.NoError(t, f.svc.SaveFile(ctx, key, "README.md", []byte("changed\n")))
	require.NoError(t, f.svc.SaveFile(ctx, key, "new.txt", []byte("new")))
	require.NoError(t, f.svc.SaveFile(ctx, key, "staged.txt", []byte("staged")))
	require.NoError(t, f.svc.AddFiles(ctx, key, []string{"staged.txt"}))

	status, err := f.svc.GetStatus(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, "main", status.CurrentBranch)
	assert.Empty(t, status.TrackingRef)
	assert.Equal(t, []string{"staged.txt"}, status.Staged())
	assert.Equal(t, []string{"README.md"}, status.Unstaged())
	assert.Equal(t, []string{"new.txt"}, status.Untracked())
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	commitAs(t, repo, "two", "Ann", "ann@example.com", map[string]string{"a.txt": "1"})
	commitAs(t, repo, "three", "Ann", "ann@example.com", map[string]string{"a.txt": "2"})
	checkout(t, repo, "side", true)
	checkout(t, repo, "main", false)

	stats, err := f.svc.GetStats(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCommits)
	assert.Equal(t, 2, stats.TotalBranches)
	assert.Equal(t, 1, stats.ActiveBranches)
	require.NotNil(t, stats.LatestCommit)
	assert.Equal(t, "three", stats.LatestCommit.Message)
	assert.Equal(t, []Contributor{
		{Name: "Ann", Email: "ann@example.com", Commits: 2},
		{Name: "Tester", Email: "tester@example.com", Commits: 1},
	}, stats.Contributors)
}

func TestListCommits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, repo := f.local(t, "1")

	for _, c := range []string{"b", "c", "d"} {
		commitFiles(t, repo, "commit "+c, map[string]string{c + ".txt": c})
	}
	checkout(t, repo, "feature", true)
	commitFiles(t, repo, "feature only", map[string]string{"f.txt": "f"})
	checkout(t, repo, "main", false)

	commits, err := f.svc.ListCommits(ctx, key, "", 2)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "commit d", commits[0].Message)
	assert.Equal(t, "commit c", commits[1].Message)
	assert.True(t, commits[0].Date.After(commits[1].Date))

	commits, err = f.svc.ListCommits(ctx, key, "feature", 0)
	require.NoError(t, err)
	require.Len(t, commits, 5)
	assert.Equal(t, "feature only", commits[0].Message)

	_, err = f.svc.ListCommits(ctx, key, "nope", 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.ListCommits(ctx, key, "..bad", 0)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestPurge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key, _ := f.local(t, "1")

	require.NoError(t, f.svc.Purge(ctx, key))
	_, err := os.Stat(filepath.Join(f.root, "7", "1"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, f.svc.Purge(ctx, key))
}

func names(entries []FileEntry) []string {
	out := []string{}
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func branchNames(branches []Branch) []string {
	out := []string{}
	for _, b := range branches {
		out = append(out, b.Name)
	}
	return out
}

package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/gomantics/gitdesk/libs/gitrepo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testOwner int64 = 7

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available in PATH")
	}
}

type fakeStore struct {
	mu       sync.Mutex
	records  map[string]*RepositoryRecord
	counters map[string]Counters
	updates  int
	failNext error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:  make(map[string]*RepositoryRecord),
		counters: make(map[string]Counters),
	}
}

func (f *fakeStore) add(rec RepositoryRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ID] = &rec
}

func (f *fakeStore) FindRepository(_ context.Context, id string, ownerID int64) (*RepositoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: repository %s", ErrNotFound, id)
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) UpdateCounters(_ context.Context, id string, c Counters) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	f.counters[id] = c
	return nil
}

func (f *fakeStore) countersFor(id string) (Counters, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counters[id], f.updates
}

type fixture struct {
	svc   *Service
	store *fakeStore
	root  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	root := t.TempDir()
	svc := New(zap.NewNop(), store, gitrepo.NewExecRunner("git"), nil, Options{
		Root:        root,
		RemoteName:  "origin",
		CommitStats: true,
		Author:      Identity{Name: "Desk", Email: "desk@example.com"},
	})
	return &fixture{svc: svc, store: store, root: svc.Resolver().Root()}
}

// local registers a repository whose working copy already exists and has
// no remote, so no network or git binary is involved.
func (f *fixture) local(t *testing.T, id string) (Key, *git.Repository) {
	t.Helper()
	key := Key{OwnerID: testOwner, RepositoryID: id}
	f.store.add(RepositoryRecord{ID: id, OwnerID: testOwner, URL: "https://example.com/" + id + ".git"})

	path, err := f.svc.Resolver().Resolve(key)
	require.NoError(t, err)

	repo, err := git.PlainInitWithOptions(path, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	require.NoError(t, err)
	commitFiles(t, repo, "initial", map[string]string{"README.md": "# " + id + "\n"})
	return key, repo
}

var clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func commitFiles(t *testing.T, repo *git.Repository, msg string, files map[string]string) plumbing.Hash {
	t.Helper()
	return commitAs(t, repo, msg, "Tester", "tester@example.com", files)
}

func commitAs(t *testing.T, repo *git.Repository, msg, name, email string, files map[string]string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)

	for rel, content := range files {
		p := filepath.Join(wt.Filesystem.Root(), filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		_, err := wt.Add(rel)
		require.NoError(t, err)
	}

	clock = clock.Add(time.Minute)
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: name, Email: email, When: clock},
	})
	require.NoError(t, err)
	return hash
}

func checkout(t *testing.T, repo *git.Repository, branch string, create bool) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
	}))
}

func logLength(t *testing.T, repo *git.Repository) int {
	t.Helper()
	head, err := repo.Head()
	require.NoError(t, err)
	n, err := gitrepo.CountCommits(repo, head.Hash())
	require.NoError(t, err)
	return n
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Remote", "GIT_AUTHOR_EMAIL=remote@example.com",
		"GIT_COMMITTER_NAME=Remote", "GIT_COMMITTER_EMAIL=remote@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return string(out)
}

// bareRemote returns a bare repository on main holding one commit.
func bareRemote(t *testing.T) string {
	t.Helper()
	requireGit(t)

	remote := t.TempDir()
	runGit(t, remote, "init", "--bare", "--initial-branch=main")

	seed := t.TempDir()
	runGit(t, seed, "clone", remote, ".")
	runGit(t, seed, "symbolic-ref", "HEAD", "refs/heads/main")
	require.NoError(t, os.WriteFile(filepath.Join(seed, "hello.txt"), []byte("hello\n"), 0o644))
	runGit(t, seed, "add", "hello.txt")
	runGit(t, seed, "commit", "-m", "seed")
	runGit(t, seed, "push", "origin", "main")
	return remote
}

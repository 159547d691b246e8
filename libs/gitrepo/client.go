package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"go.uber.org/zap"
)

// DefaultBranch is used for checkouts initialised from an empty remote.
const DefaultBranch = "main"

var (
	ErrDetachedHead = errors.New("HEAD is detached")
	ErrNoRemote     = errors.New("remote not configured")
)

// CloneOptions describes a clone into Dest.
type CloneOptions struct {
	URL        string
	Dest       string
	RemoteName string
	Depth      int
	Auth       transport.AuthMethod
}

// Clone clones opts.URL into opts.Dest. A remote without commits yields an
// initialised checkout on DefaultBranch with the remote configured, so later
// pulls pick up the first push.
func Clone(ctx context.Context, l *zap.Logger, opts CloneOptions) (*git.Repository, error) {
	url := opts.URL
	if p := DefaultRegistry.Detect(url); p != nil {
		url = p.NormalizeURL(url)
	}

	l.Info("cloning repository",
		zap.String("url", redactTokens(url)),
		zap.String("dest", opts.Dest),
		zap.Int("depth", opts.Depth),
	)

	_, statErr := os.Stat(filepath.Join(opts.Dest, git.GitDirName))
	hadGitDir := statErr == nil

	repo, err := git.PlainCloneContext(ctx, opts.Dest, false, &git.CloneOptions{
		URL:        url,
		RemoteName: opts.RemoteName,
		Depth:      opts.Depth,
		Auth:       opts.Auth,
	})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		l.Info("remote is empty, initialising checkout", zap.String("dest", opts.Dest))
		return initEmpty(opts.Dest, opts.RemoteName, url)
	}
	if err != nil {
		// go-git only cleans up directories it created itself
		if !hadGitDir {
			_ = os.RemoveAll(filepath.Join(opts.Dest, git.GitDirName))
		}
		return nil, err
	}

	l.Info("repository cloned")
	return repo, nil
}

func initEmpty(dest, remoteName, url string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dest)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInitWithOptions(dest, &git.PlainInitOptions{
			InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(DefaultBranch)},
		})
	}
	if err != nil {
		return nil, err
	}

	if _, err := repo.Remote(remoteName); errors.Is(err, git.ErrRemoteNotFound) {
		_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: remoteName, URLs: []string{url}})
		if err != nil {
			return nil, fmt.Errorf("failed to configure remote: %w", err)
		}
	}
	return repo, nil
}

// CurrentBranch returns the checked-out branch. unborn is true when the
// branch has no commits yet.
func CurrentBranch(repo *git.Repository) (name plumbing.ReferenceName, unborn bool, err error) {
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", false, err
	}
	if head.Type() != plumbing.SymbolicReference {
		return "", false, ErrDetachedHead
	}

	target := head.Target()
	if _, err := repo.Reference(target, true); errors.Is(err, plumbing.ErrReferenceNotFound) {
		return target, true, nil
	} else if err != nil {
		return "", false, err
	}
	return target, false, nil
}

// Pull fast-forwards the checked-out branch from its counterpart on
// remoteName. It reports whether anything changed. Branches that do not
// exist on the remote, empty remotes and repositories without the remote
// are left alone.
func Pull(ctx context.Context, repo *git.Repository, remoteName string, auth transport.AuthMethod) (bool, error) {
	branch, _, err := CurrentBranch(repo)
	if err != nil {
		return false, err
	}

	if _, err := repo.Remote(remoteName); errors.Is(err, git.ErrRemoteNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return false, err
	}

	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    remoteName,
		ReferenceName: branch,
		Auth:          auth,
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, git.NoErrAlreadyUpToDate),
		errors.Is(err, plumbing.ErrReferenceNotFound),
		errors.Is(err, transport.ErrEmptyRemoteRepository):
		return false, nil
	default:
		return false, err
	}
}

// Push pushes branch to the same name on remoteName. pushed is false when
// the remote was already up to date.
func Push(ctx context.Context, repo *git.Repository, remoteName string, branch plumbing.ReferenceName, auth transport.AuthMethod) (pushed bool, err error) {
	spec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", branch, branch))

	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{spec},
		Auth:       auth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RemoteFor picks remoteName when configured, otherwise the first remote.
func RemoteFor(repo *git.Repository, remoteName string) (string, error) {
	remotes, err := repo.Remotes()
	if err != nil {
		return "", err
	}
	if len(remotes) == 0 {
		return "", ErrNoRemote
	}
	for _, r := range remotes {
		if r.Config().Name == remoteName {
			return remoteName, nil
		}
	}
	return remotes[0].Config().Name, nil
}

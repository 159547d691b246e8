package gitops

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/gomantics/gitdesk/libs/gitrepo"
	"go.uber.org/zap"
)

// workspace is a working copy that ensureReady has brought up to date.
type workspace struct {
	key    Key
	root   string
	repo   *git.Repository
	record *RepositoryRecord
	auth   transport.AuthMethod
	l      *zap.Logger
}

// ensureReady clones the working copy on first use and pulls the current
// branch afterwards. Calling it again without remote changes leaves the
// workspace untouched.
func (s *Service) ensureReady(ctx context.Context, key Key) (*workspace, error) {
	path, err := s.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}

	record, err := s.store.FindRepository(ctx, key.RepositoryID, key.OwnerID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.OwnerID != key.OwnerID {
		return nil, fmt.Errorf("%w: repository %s", ErrNotFound, key.RepositoryID)
	}

	l := s.logger(key)
	auth := gitrepo.AuthFor(record.URL, record.Token)

	repo, err := git.PlainOpen(path)
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists):
		repo, err = gitrepo.Clone(ctx, l, gitrepo.CloneOptions{
			URL:        record.URL,
			Dest:       path,
			RemoteName: s.opts.RemoteName,
			Depth:      s.opts.CloneDepth,
			Auth:       auth,
		})
		if err != nil {
			l.Warn("clone failed", zap.String("error", gitrepo.RedactError(err)))
			return nil, toolError(ErrCloneFailed, err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to open working copy: %w", err)
	default:
		changed, err := gitrepo.Pull(ctx, repo, s.opts.RemoteName, auth)
		if err != nil {
			l.Warn("pull failed", zap.String("error", gitrepo.RedactError(err)))
			return nil, toolError(ErrSyncFailed, err)
		}
		if changed {
			l.Info("working copy updated")
		} else {
			l.Debug("working copy up to date")
		}
	}

	return &workspace{
		key:    key,
		root:   path,
		repo:   repo,
		record: record,
		auth:   auth,
		l:      l,
	}, nil
}

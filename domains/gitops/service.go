// Package gitops manages per-owner working copies of remote repositories
// and the git and file operations performed on them.
//
// Every operation takes the workspace lock for its Key, brings the working
// copy up to date (clone on first use, pull afterwards) and only then runs.
// Operations on different keys run in parallel.
package gitops

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gomantics/gitdesk/libs/gitrepo"
	"github.com/gomantics/gitdesk/libs/metrics"
	"go.uber.org/zap"
)

// DefaultCommitLimit bounds listCommits when the caller passes no limit.
const DefaultCommitLimit = 50

type Options struct {
	Root        string
	RemoteName  string
	CloneDepth  int
	CommitStats bool
	// Author is used when a commit is made without an identity.
	Author Identity
}

type Service struct {
	l        *zap.Logger
	store    RecordStore
	runner   gitrepo.Runner
	metrics  *metrics.Metrics
	resolver *Resolver
	locks    *lockRegistry
	opts     Options
}

// New builds a Service. metrics may be nil.
func New(l *zap.Logger, store RecordStore, runner gitrepo.Runner, m *metrics.Metrics, opts Options) *Service {
	if opts.RemoteName == "" {
		opts.RemoteName = "origin"
	}
	if opts.Author.Name == "" {
		opts.Author = Identity{Name: "gitdesk", Email: "gitdesk@localhost"}
	}
	return &Service{
		l:        l,
		store:    store,
		runner:   runner,
		metrics:  m,
		resolver: NewResolver(opts.Root),
		locks:    newLockRegistry(),
		opts:     opts,
	}
}

func (s *Service) Resolver() *Resolver { return s.resolver }

// do runs fn on a ready workspace while holding the key's lock.
func do[T any](ctx context.Context, s *Service, op string, key Key, fn func(w *workspace) (T, error)) (T, error) {
	var zero T
	if err := validateKey(key); err != nil {
		return zero, err
	}

	start := time.Now()
	unlock := s.locks.lock(key)
	defer unlock()
	s.metrics.ObserveLockWait(time.Since(start))

	w, err := s.ensureReady(ctx, key)
	if err != nil {
		s.metrics.ObserveOperation(op, "error", time.Since(start))
		return zero, err
	}

	res, err := fn(w)
	s.metrics.ObserveOperation(op, outcome(res, err), time.Since(start))
	return res, err
}

func outcome(res any, err error) string {
	if err != nil {
		return "error"
	}
	if r, ok := res.(OperationResult); ok && !r.OK() {
		return "failed"
	}
	if r, ok := res.(MergeResult); ok && !r.Success {
		return "failed"
	}
	return "ok"
}

// Purge removes the working copy of key. It is used when the repository
// record is deleted; a missing working copy is not an error.
func (s *Service) Purge(_ context.Context, key Key) error {
	start := time.Now()
	path, err := s.resolver.Path(key)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(key)
	defer unlock()
	s.metrics.ObserveLockWait(time.Since(start))

	if err := os.RemoveAll(path); err != nil {
		s.metrics.ObserveOperation("purge", "error", time.Since(start))
		return fmt.Errorf("failed to remove working copy: %w", err)
	}

	s.l.Info("working copy purged",
		zap.Int64("owner_id", key.OwnerID),
		zap.String("repo_id", key.RepositoryID),
	)
	s.metrics.ObserveOperation("purge", "ok", time.Since(start))
	return nil
}

func (s *Service) logger(key Key) *zap.Logger {
	return s.l.With(zap.Int64("owner_id", key.OwnerID), zap.String("repo_id", key.RepositoryID))
}

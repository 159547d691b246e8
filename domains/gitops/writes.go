package gitops

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/gomantics/gitdesk/libs/gitrepo"
	"go.uber.org/zap"
)

// CreateBranch creates name from the tip of from (the current branch when
// empty) and checks it out. Uncommitted changes are carried over.
func (s *Service) CreateBranch(ctx context.Context, key Key, name, from string) (Branch, error) {
	if err := validBranch(name); err != nil {
		return Branch{}, err
	}
	if from != "" {
		if err := validBranch(from); err != nil {
			return Branch{}, err
		}
	}

	return do(ctx, s, "create_branch", key, func(w *workspace) (Branch, error) {
		ref := plumbing.NewBranchReferenceName(name)
		if _, err := w.repo.Reference(ref, false); err == nil {
			return Branch{}, fmt.Errorf("%w: %s", ErrBranchExists, name)
		} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Branch{}, err
		}

		wt, err := w.repo.Worktree()
		if err != nil {
			return Branch{}, err
		}

		if from != "" {
			if err := w.switchTo(wt, from, s.opts.RemoteName); err != nil {
				return Branch{}, err
			}
		}

		current, unborn, err := gitrepo.CurrentBranch(w.repo)
		if err != nil {
			return Branch{}, err
		}

		if unborn {
			// nothing to branch from yet, so only HEAD moves
			if err := w.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, ref)); err != nil {
				return Branch{}, fmt.Errorf("failed to move HEAD: %w", err)
			}
			s.refreshCounters(ctx, w)
			return Branch{Name: name, IsCurrent: true}, nil
		}

		head, err := w.repo.Reference(current, true)
		if err != nil {
			return Branch{}, err
		}
		err = wt.Checkout(&git.CheckoutOptions{
			Hash:   head.Hash(),
			Branch: ref,
			Create: true,
			Keep:   true,
		})
		if err != nil {
			return Branch{}, toolError(ErrCheckoutFailed, err)
		}

		count, err := gitrepo.CountCommits(w.repo, head.Hash())
		if err != nil {
			return Branch{}, err
		}

		w.l.Info("branch created", zap.String("branch", name), zap.String("from", current.Short()))
		s.refreshCounters(ctx, w)
		return Branch{
			Name:           name,
			IsCurrent:      true,
			HeadCommitHash: head.Hash().String(),
			CommitCount:    count,
		}, nil
	})
}

// DeleteBranch removes a local branch. The checked-out branch cannot be
// deleted.
func (s *Service) DeleteBranch(ctx context.Context, key Key, name string) (OperationResult, error) {
	if err := validBranch(name); err != nil {
		return OperationResult{}, err
	}

	return do(ctx, s, "delete_branch", key, func(w *workspace) (OperationResult, error) {
		current, _, err := gitrepo.CurrentBranch(w.repo)
		if err != nil {
			return OperationResult{}, err
		}

		ref := plumbing.NewBranchReferenceName(name)
		if ref == current {
			return Failed(ReasonCannotDeleteCurrent, "cannot delete the current branch", name), nil
		}

		if _, err := w.repo.Reference(ref, false); errors.Is(err, plumbing.ErrReferenceNotFound) {
			return OperationResult{}, fmt.Errorf("%w: branch %s", ErrNotFound, name)
		} else if err != nil {
			return OperationResult{}, err
		}

		if err := w.repo.Storer.RemoveReference(ref); err != nil {
			return OperationResult{}, fmt.Errorf("failed to delete branch: %w", err)
		}
		if err := w.repo.DeleteBranch(name); err != nil && !errors.Is(err, git.ErrBranchNotFound) {
			return OperationResult{}, fmt.Errorf("failed to delete branch config: %w", err)
		}

		w.l.Info("branch deleted", zap.String("branch", name))
		s.refreshCounters(ctx, w)
		return Succeeded(Success{Message: "branch deleted", Ref: name}), nil
	})
}

// MergeBranch checks out target and merges source into it with the git
// binary. Conflicts abort the merge, leaving target at its previous tip,
// and are reported in the result.
func (s *Service) MergeBranch(ctx context.Context, key Key, source, target string, author Identity) (MergeResult, error) {
	if err := validBranch(source); err != nil {
		return MergeResult{}, err
	}
	if err := validBranch(target); err != nil {
		return MergeResult{}, err
	}
	author = s.identity(author)

	return do(ctx, s, "merge", key, func(w *workspace) (MergeResult, error) {
		for _, name := range []string{source, target} {
			if _, err := w.localBranch(name, s.opts.RemoteName); err != nil {
				return MergeResult{}, err
			}
		}

		run := func(args ...string) (string, error) {
			return s.runner.Run(ctx, w.root, args...)
		}

		current, _, err := gitrepo.CurrentBranch(w.repo)
		if err != nil {
			return MergeResult{}, err
		}
		if current.Short() != target {
			if _, err := run("checkout", target); err != nil {
				return MergeResult{}, toolError(ErrCheckoutFailed, err)
			}
		}

		_, mergeErr := run(
			"-c", "user.name="+author.Name,
			"-c", "user.email="+author.Email,
			"merge", "--no-edit", source,
		)
		if mergeErr != nil {
			out, err := run("diff", "--name-only", "--diff-filter=U")
			conflicts := splitLines(out)
			if err != nil || len(conflicts) == 0 {
				return MergeResult{}, toolError(ErrMergeFailed, mergeErr)
			}

			if _, err := run("merge", "--abort"); err != nil {
				w.l.Warn("failed to abort merge", zap.String("error", gitrepo.RedactError(err)))
			}
			w.l.Info("merge has conflicts",
				zap.String("source", source),
				zap.String("target", target),
				zap.Strings("conflicts", conflicts),
			)
			return MergeResult{
				Success:   false,
				Message:   "merge aborted due to conflicts; resolve them and merge again",
				Conflicts: conflicts,
			}, nil
		}

		w.l.Info("branch merged", zap.String("source", source), zap.String("target", target))
		s.refreshCounters(ctx, w)
		return MergeResult{Success: true, Message: "merged", Conflicts: []string{}}, nil
	})
}

// AddFiles stages paths. "." stages every change including deletions.
func (s *Service) AddFiles(ctx context.Context, key Key, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("%w: no paths to add", ErrInvalidInput)
	}
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		c, err := cleanRel(p, true)
		if err != nil {
			return err
		}
		cleaned = append(cleaned, c)
	}

	_, err := do(ctx, s, "add", key, func(w *workspace) (struct{}, error) {
		wt, err := w.repo.Worktree()
		if err != nil {
			return struct{}{}, err
		}
		idx, err := w.repo.Storer.Index()
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to read index: %w", err)
		}

		for _, p := range cleaned {
			if p == "" {
				if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
					return struct{}{}, toolError(ErrAddFailed, err)
				}
				continue
			}

			slashed := filepath.ToSlash(p)
			if !w.matches(idx, p) {
				return struct{}{}, toolError(ErrAddFailed, fmt.Errorf("pathspec %q did not match any files", slashed))
			}
			if _, err := wt.Add(slashed); err != nil {
				return struct{}{}, toolError(ErrAddFailed, err)
			}
		}
		return struct{}{}, nil
	})
	return err
}

// CommitChanges commits the index as author. An empty index is reported as
// a failed result and no commit is made.
func (s *Service) CommitChanges(ctx context.Context, key Key, message string, author Identity) (OperationResult, error) {
	if strings.TrimSpace(message) == "" {
		return OperationResult{}, fmt.Errorf("%w: empty commit message", ErrInvalidInput)
	}
	author = s.identity(author)

	return do(ctx, s, "commit", key, func(w *workspace) (OperationResult, error) {
		wt, err := w.repo.Worktree()
		if err != nil {
			return OperationResult{}, err
		}
		st, err := wt.Status()
		if err != nil {
			return OperationResult{}, fmt.Errorf("failed to read status: %w", err)
		}
		if !hasStaged(st) {
			return Failed(ReasonNothingStaged, "nothing staged", "no staged changes"), nil
		}

		hash, err := wt.Commit(message, &git.CommitOptions{
			Author: &object.Signature{Name: author.Name, Email: author.Email, When: time.Now()},
		})
		if err != nil {
			return OperationResult{}, fmt.Errorf("failed to commit: %w", err)
		}

		current, _, err := gitrepo.CurrentBranch(w.repo)
		if err != nil {
			return OperationResult{}, err
		}

		w.l.Info("changes committed", zap.String("hash", hash.String()), zap.String("branch", current.Short()))
		s.refreshCounters(ctx, w)
		return Succeeded(Success{Message: "committed", Ref: current.Short(), Commit: hash.String()}), nil
	})
}

// PushChanges pushes the current branch. Every failure to push, including
// auth and network errors, is reported in the result.
func (s *Service) PushChanges(ctx context.Context, key Key) (OperationResult, error) {
	return do(ctx, s, "push", key, func(w *workspace) (OperationResult, error) {
		remote, err := gitrepo.RemoteFor(w.repo, s.opts.RemoteName)
		if errors.Is(err, gitrepo.ErrNoRemote) {
			return Failed(ReasonNoRemote, "no remote configured", "no remote repository configured"), nil
		}
		if err != nil {
			return OperationResult{}, err
		}

		current, unborn, err := gitrepo.CurrentBranch(w.repo)
		if err != nil {
			return OperationResult{}, err
		}
		if unborn {
			return Failed(ReasonNoCommits, "nothing to push", "branch "+current.Short()+" has no commits"), nil
		}

		pushed, err := gitrepo.Push(ctx, w.repo, remote, current, w.auth)
		if err != nil {
			detail := gitrepo.RedactError(err)
			w.l.Warn("push failed", zap.String("remote", remote), zap.String("error", detail))
			return Failed(ReasonPushFailed, "push failed", detail), nil
		}

		msg := "already up to date"
		if pushed {
			msg = "pushed"
			w.l.Info("branch pushed", zap.String("remote", remote), zap.String("branch", current.Short()))
		}
		s.refreshCounters(ctx, w)
		return Succeeded(Success{Message: msg, Ref: current.Short(), Pushed: &pushed}), nil
	})
}

// refreshCounters writes branch and commit counts back to the store. A
// failed write is logged and does not fail the operation.
func (s *Service) refreshCounters(ctx context.Context, w *workspace) {
	branches, err := w.branches()
	if err != nil {
		w.l.Warn("failed to compute counters", zap.Error(err))
		return
	}
	tip, err := w.branchTip("")
	if err != nil {
		w.l.Warn("failed to compute counters", zap.Error(err))
		return
	}
	commits, err := gitrepo.CountCommits(w.repo, tip)
	if err != nil {
		w.l.Warn("failed to compute counters", zap.Error(err))
		return
	}

	err = s.store.UpdateCounters(ctx, w.key.RepositoryID, Counters{
		BranchCount: len(branches),
		CommitCount: commits,
		LastUpdated: time.Now(),
	})
	if err != nil {
		w.l.Warn("failed to update repository counters", zap.Error(err))
	}
}

func (s *Service) identity(id Identity) Identity {
	if id.Name == "" {
		id.Name = s.opts.Author.Name
	}
	if id.Email == "" {
		id.Email = s.opts.Author.Email
	}
	return id
}

// switchTo checks out name unless it is already current. A branch known
// only on remote is created locally first.
func (w *workspace) switchTo(wt *git.Worktree, name, remote string) error {
	ref, err := w.localBranch(name, remote)
	if err != nil {
		return err
	}

	current, _, err := gitrepo.CurrentBranch(w.repo)
	if err != nil {
		return err
	}
	if current == ref {
		return nil
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref}); err != nil {
		return toolError(ErrCheckoutFailed, err)
	}
	return nil
}

// localBranch returns the local ref for name. When only
// refs/remotes/<remote>/<name> exists, a local branch tracking it is
// created at the remote tip.
func (w *workspace) localBranch(name, remote string) (plumbing.ReferenceName, error) {
	ref := plumbing.NewBranchReferenceName(name)
	if _, err := w.repo.Reference(ref, false); err == nil {
		return ref, nil
	} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", err
	}

	upstream, err := w.repo.Reference(plumbing.NewRemoteReferenceName(remote, name), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", fmt.Errorf("%w: branch %s", ErrNotFound, name)
	} else if err != nil {
		return "", err
	}

	if err := w.repo.Storer.SetReference(plumbing.NewHashReference(ref, upstream.Hash())); err != nil {
		return "", fmt.Errorf("failed to create local branch: %w", err)
	}
	err = w.repo.CreateBranch(&gitconfig.Branch{Name: name, Remote: remote, Merge: ref})
	if err != nil && !errors.Is(err, git.ErrBranchExists) {
		return "", fmt.Errorf("failed to configure branch: %w", err)
	}

	w.l.Info("tracking remote branch", zap.String("branch", name), zap.String("remote", remote))
	return ref, nil
}

// matches reports whether p exists on disk or is tracked in the index,
// either as a file or as a directory prefix.
func (w *workspace) matches(idx *index.Index, p string) bool {
	if abs, err := within(w.root, p); err == nil && exists(abs) {
		return true
	}
	slashed := filepath.ToSlash(p)
	for _, e := range idx.Entries {
		if e.Name == slashed || strings.HasPrefix(e.Name, slashed+"/") {
			return true
		}
	}
	return false
}

func validBranch(name string) error {
	if err := gitrepo.ValidateBranchName(name); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func splitLines(s string) []string {
	out := []string{}
	for line := range strings.SplitSeq(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

package gitops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/gomantics/gitdesk/libs/gitrepo"
	"go.uber.org/zap"
)

// ListCommits returns the history of branch, newest first. An empty branch
// means the checked-out one. limit <= 0 applies DefaultCommitLimit.
func (s *Service) ListCommits(ctx context.Context, key Key, branch string, limit int) ([]Commit, error) {
	if branch != "" {
		if err := validBranch(branch); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = DefaultCommitLimit
	}

	return do(ctx, s, "list_commits", key, func(w *workspace) ([]Commit, error) {
		tip, err := w.branchTip(branch)
		if err != nil {
			return nil, err
		}
		return w.commits(tip, limit, s.opts.CommitStats)
	})
}

// ListBranches returns the local branches sorted by name. Exactly one is
// current; an unborn current branch is reported with no commits.
func (s *Service) ListBranches(ctx context.Context, key Key) ([]Branch, error) {
	return do(ctx, s, "list_branches", key, func(w *workspace) ([]Branch, error) {
		return w.branches()
	})
}

// ListFiles returns the immediate children of rel. The .git directory is
// never listed.
func (s *Service) ListFiles(ctx context.Context, key Key, rel string) ([]FileEntry, error) {
	clean, err := cleanRel(rel, true)
	if err != nil {
		return nil, err
	}

	return do(ctx, s, "list_files", key, func(w *workspace) ([]FileEntry, error) {
		dir, err := within(w.root, clean)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrNotADirectory, rel)
		}

		items, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory: %w", err)
		}

		entries := make([]FileEntry, 0, len(items))
		for _, item := range items {
			if clean == "" && strings.EqualFold(item.Name(), git.GitDirName) {
				continue
			}
			info, err := item.Info()
			if err != nil {
				// removed between ReadDir and Info
				continue
			}

			entry := FileEntry{
				RelativePath: filepath.ToSlash(filepath.Join(clean, item.Name())),
				Name:         item.Name(),
				Kind:         KindFile,
				LastModified: info.ModTime().UTC(),
			}
			if info.IsDir() {
				entry.Kind = KindDirectory
			} else {
				size := info.Size()
				entry.SizeBytes = &size
			}
			entries = append(entries, entry)
		}
		return entries, nil
	})
}

// ReadFileContent returns the raw content of the file at rel.
func (s *Service) ReadFileContent(ctx context.Context, key Key, rel string) ([]byte, error) {
	clean, err := cleanRel(rel, false)
	if err != nil {
		return nil, err
	}

	return do(ctx, s, "read_file", key, func(w *workspace) ([]byte, error) {
		p, err := within(w.root, clean)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrNotAFile, rel)
		}
		return os.ReadFile(p)
	})
}

// branchTip resolves a local branch, or the current branch when name is
// empty. An unborn current branch yields the zero hash.
func (w *workspace) branchTip(name string) (plumbing.Hash, error) {
	if name == "" {
		current, unborn, err := gitrepo.CurrentBranch(w.repo)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if unborn {
			return plumbing.ZeroHash, nil
		}
		ref, err := w.repo.Reference(current, true)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return ref.Hash(), nil
	}

	ref, err := w.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, fmt.Errorf("%w: branch %s", ErrNotFound, name)
	}
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

func (w *workspace) commits(tip plumbing.Hash, limit int, withStats bool) ([]Commit, error) {
	out := []Commit{}
	if tip.IsZero() {
		return out, nil
	}

	iter, err := w.repo.Log(&git.LogOptions{From: tip, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && len(out) >= limit {
			return storer.ErrStop
		}
		commit := toCommit(c)
		if withStats {
			commit.Changes = w.changeStats(c)
		}
		out = append(out, commit)
		return nil
	})
	if err != nil && !errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return out, nil
}

// changeStats diffs c against its first parent. Commits whose parent is
// cut off by a shallow clone report zero.
func (w *workspace) changeStats(c *object.Commit) ChangeStats {
	stats, err := c.Stats()
	if err != nil {
		w.l.Debug("commit stats unavailable", zap.String("hash", c.Hash.String()), zap.Error(err))
		return ChangeStats{}
	}

	var cs ChangeStats
	for _, f := range stats {
		cs.Additions += f.Addition
		cs.Deletions += f.Deletion
	}
	cs.FilesTouched = len(stats)
	return cs
}

func toCommit(c *object.Commit) Commit {
	return Commit{
		Hash:        c.Hash.String(),
		Message:     strings.TrimRight(c.Message, "\n"),
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		Date:        c.Author.When,
	}
}

func (w *workspace) branches() ([]Branch, error) {
	current, unborn, err := gitrepo.CurrentBranch(w.repo)
	if err != nil {
		return nil, err
	}

	iter, err := w.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer iter.Close()

	out := []Branch{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		count, err := gitrepo.CountCommits(w.repo, ref.Hash())
		if err != nil {
			return fmt.Errorf("failed to count commits on %s: %w", ref.Name().Short(), err)
		}
		out = append(out, Branch{
			Name:           ref.Name().Short(),
			IsCurrent:      ref.Name() == current,
			HeadCommitHash: ref.Hash().String(),
			CommitCount:    count,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if unborn {
		out = append(out, Branch{Name: current.Short(), IsCurrent: true})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

package gitops

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/gomantics/gitdesk/libs/gitrepo"
)

// GetStatus reports the live index and worktree state together with the
// position of the current branch against its remote counterpart.
func (s *Service) GetStatus(ctx context.Context, key Key) (RepositoryStatus, error) {
	return do(ctx, s, "status", key, func(w *workspace) (RepositoryStatus, error) {
		return w.status(s.opts.RemoteName)
	})
}

// GetStats aggregates history and branches of the current branch.
// Contributors are distinct author emails, most active first.
func (s *Service) GetStats(ctx context.Context, key Key) (Stats, error) {
	return do(ctx, s, "stats", key, func(w *workspace) (Stats, error) {
		tip, err := w.branchTip("")
		if err != nil {
			return Stats{}, err
		}
		commits, err := w.commits(tip, 0, false)
		if err != nil {
			return Stats{}, err
		}
		branches, err := w.branches()
		if err != nil {
			return Stats{}, err
		}

		stats := Stats{
			TotalCommits:  len(commits),
			TotalBranches: len(branches),
			Contributors:  contributors(commits),
		}
		for _, b := range branches {
			if b.IsCurrent {
				stats.ActiveBranches++
			}
		}
		if len(commits) > 0 {
			latest := commits[0]
			if s.opts.CommitStats {
				if c, err := w.repo.CommitObject(plumbing.NewHash(latest.Hash)); err == nil {
					latest.Changes = w.changeStats(c)
				}
			}
			stats.LatestCommit = &latest
		}
		return stats, nil
	})
}

func (w *workspace) status(remoteName string) (RepositoryStatus, error) {
	current, unborn, err := gitrepo.CurrentBranch(w.repo)
	if err != nil {
		return RepositoryStatus{}, err
	}

	wt, err := w.repo.Worktree()
	if err != nil {
		return RepositoryStatus{}, err
	}
	st, err := wt.Status()
	if err != nil {
		return RepositoryStatus{}, fmt.Errorf("failed to read status: %w", err)
	}

	out := RepositoryStatus{
		CurrentBranch: current.Short(),
		Entries:       statusEntries(st),
	}

	tracking := plumbing.NewRemoteReferenceName(remoteName, current.Short())
	remoteRef, err := w.repo.Reference(tracking, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return out, nil
	}
	if err != nil {
		return RepositoryStatus{}, err
	}
	out.TrackingRef = tracking.Short()

	local := plumbing.ZeroHash
	if !unborn {
		ref, err := w.repo.Reference(current, true)
		if err != nil {
			return RepositoryStatus{}, err
		}
		local = ref.Hash()
	}

	out.Ahead, out.Behind, err = gitrepo.AheadBehind(w.repo, local, remoteRef.Hash())
	if err != nil {
		return RepositoryStatus{}, fmt.Errorf("failed to compare with %s: %w", out.TrackingRef, err)
	}
	return out, nil
}

func statusEntries(st git.Status) []StatusEntry {
	out := []StatusEntry{}
	for path, fs := range st {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		out = append(out, StatusEntry{
			Path:             path,
			IndexState:       string(rune(fs.Staging)),
			WorkingTreeState: string(rune(fs.Worktree)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func hasStaged(st git.Status) bool {
	for _, fs := range st {
		if fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			return true
		}
	}
	return false
}

func contributors(commits []Commit) []Contributor {
	byEmail := make(map[string]*Contributor)
	order := []string{}
	for _, c := range commits {
		entry, ok := byEmail[c.AuthorEmail]
		if !ok {
			entry = &Contributor{Name: c.AuthorName, Email: c.AuthorEmail}
			byEmail[c.AuthorEmail] = entry
			order = append(order, c.AuthorEmail)
		}
		entry.Commits++
	}

	out := make([]Contributor, 0, len(order))
	for _, email := range order {
		out = append(out, *byEmail[email])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Commits > out[j].Commits })
	return out
}

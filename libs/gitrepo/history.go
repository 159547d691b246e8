package gitrepo

import (
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CountCommits counts commits reachable from tip, like rev-list --count.
// History cut off by a shallow clone ends the walk without error.
func CountCommits(repo *git.Repository, tip plumbing.Hash) (int, error) {
	n := 0
	err := walk(repo, tip, func(*object.Commit) { n++ })
	return n, err
}

// AheadBehind returns how many commits local has that upstream lacks and
// the reverse.
func AheadBehind(repo *git.Repository, local, upstream plumbing.Hash) (ahead, behind int, err error) {
	if local == upstream {
		return 0, 0, nil
	}

	localSet, err := reachable(repo, local)
	if err != nil {
		return 0, 0, err
	}
	upstreamSet, err := reachable(repo, upstream)
	if err != nil {
		return 0, 0, err
	}

	for h := range localSet {
		if _, ok := upstreamSet[h]; !ok {
			ahead++
		}
	}
	for h := range upstreamSet {
		if _, ok := localSet[h]; !ok {
			behind++
		}
	}
	return ahead, behind, nil
}

func reachable(repo *git.Repository, tip plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	set := make(map[plumbing.Hash]struct{})
	err := walk(repo, tip, func(c *object.Commit) { set[c.Hash] = struct{}{} })
	return set, err
}

func walk(repo *git.Repository, tip plumbing.Hash, fn func(*object.Commit)) error {
	if tip.IsZero() {
		return nil
	}

	iter, err := repo.Log(&git.LogOptions{From: tip})
	if err != nil {
		return err
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		fn(c)
		return nil
	})
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil
	}
	return err
}

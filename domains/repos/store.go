package repos

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gomantics/gitdesk/domains/credentials"
	"github.com/gomantics/gitdesk/domains/gitops"
)

// Store exposes repository records to gitops.
type Store struct{}

var _ gitops.RecordStore = Store{}

func (Store) FindRepository(ctx context.Context, repositoryID string, ownerID int64) (*gitops.RepositoryRecord, error) {
	id, err := parseID(repositoryID)
	if err != nil {
		return nil, err
	}

	repo, err := GetForOwner(ctx, id, ownerID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: repository %s", gitops.ErrNotFound, repositoryID)
	}
	if err != nil {
		return nil, err
	}

	record := &gitops.RepositoryRecord{
		ID:        repositoryID,
		OwnerID:   repo.OwnerID,
		URL:       repo.URL,
		IsPrivate: repo.IsPrivate,
	}

	if repo.CredentialID != nil {
		token, err := credentials.Token(ctx, *repo.CredentialID, ownerID)
		switch {
		case errors.Is(err, credentials.ErrNotFound):
			// credential was deleted; try anonymously
		case err != nil:
			return nil, fmt.Errorf("failed to load credential: %w", err)
		default:
			record.Token = token
		}
	}
	return record, nil
}

func (Store) UpdateCounters(ctx context.Context, repositoryID string, c gitops.Counters) error {
	id, err := parseID(repositoryID)
	if err != nil {
		return err
	}
	return UpdateCounters(ctx, id, Counters{
		BranchCount: c.BranchCount,
		CommitCount: c.CommitCount,
		LastUpdated: c.LastUpdated.Unix(),
	})
}

// ParseID accepts only the canonical decimal form of a record id, so each
// record maps to exactly one working-copy key. "01" and "+1" are rejected.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 || strconv.FormatInt(id, 10) != s {
		return 0, false
	}
	return id, true
}

// parseID maps an identifier no record can carry to not found.
func parseID(repositoryID string) (int64, error) {
	id, ok := ParseID(repositoryID)
	if !ok {
		return 0, fmt.Errorf("%w: repository %s", gitops.ErrNotFound, repositoryID)
	}
	return id, nil
}

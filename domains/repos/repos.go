package repos

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gomantics/gitdesk/db"
	"github.com/gomantics/gitdesk/pkg/pgconv"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound      = errors.New("repository not found")
	ErrAlreadyExists = errors.New("repository already exists")
)

// Create stores a new repository record. The existing record is returned
// together with ErrAlreadyExists when the owner already registered the URL.
func Create(ctx context.Context, params CreateParams) (*Repo, error) {
	url := normalizeURL(params.URL)

	existing, err := db.Query1(ctx, func(q *db.Queries) (db.Repository, error) {
		return q.GetRepositoryByOwnerAndURL(ctx, db.GetRepositoryByOwnerAndURLParams{
			OwnerID: params.OwnerID,
			Url:     url,
		})
	})
	if err == nil {
		return toRepo(existing), ErrAlreadyExists
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	name := params.Name
	if name == "" {
		name = nameFromURL(url)
	}

	now := time.Now().Unix()
	row, err := db.Query1(ctx, func(q *db.Queries) (db.Repository, error) {
		return q.CreateRepository(ctx, db.CreateRepositoryParams{
			OwnerID:      params.OwnerID,
			CredentialID: pgconv.ToInt8(params.CredentialID),
			Name:         name,
			Description:  pgconv.ToText(params.Description),
			Url:          url,
			IsPrivate:    params.IsPrivate,
			Created:      now,
			Updated:      now,
		})
	})
	if err != nil {
		return nil, err
	}

	return toRepo(row), nil
}

// GetForOwner returns the repository only if ownerID owns it; any other
// owner gets ErrNotFound.
func GetForOwner(ctx context.Context, id, ownerID int64) (*Repo, error) {
	row, err := db.Query1(ctx, func(q *db.Queries) (db.Repository, error) {
		return q.GetRepositoryForOwner(ctx, db.GetRepositoryForOwnerParams{ID: id, OwnerID: ownerID})
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toRepo(row), nil
}

func List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}

	var rows []db.Repository
	var total int64

	err := db.Query(ctx, func(q *db.Queries) error {
		var err error
		rows, err = q.ListRepositoriesByOwner(ctx, db.ListRepositoriesByOwnerParams{
			OwnerID: params.OwnerID,
			Limit:   int32(params.Limit),
			Offset:  int32(params.Offset),
		})
		if err != nil {
			return err
		}
		total, err = q.CountRepositoriesByOwner(ctx, params.OwnerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]Repo, len(rows))
	for i, row := range rows {
		out[i] = *toRepo(row)
	}

	return &ListResult{Repos: out, Total: total}, nil
}

func Update(ctx context.Context, id, ownerID int64, params UpdateParams) (*Repo, error) {
	row, err := db.Tx1(ctx, func(q *db.Queries) (db.Repository, error) {
		current, err := q.GetRepositoryForOwner(ctx, db.GetRepositoryForOwnerParams{ID: id, OwnerID: ownerID})
		if err != nil {
			return current, err
		}

		next := db.UpdateRepositoryParams{
			ID:           id,
			OwnerID:      ownerID,
			Name:         pgconv.ValOr(params.Name, current.Name),
			Description:  current.Description,
			CredentialID: current.CredentialID,
			IsPrivate:    pgconv.ValOr(params.IsPrivate, current.IsPrivate),
			Updated:      time.Now().Unix(),
		}
		if params.Description != nil {
			next.Description = pgconv.ToText(params.Description)
		}
		if params.CredentialID != nil {
			next.CredentialID = pgconv.ToInt8(params.CredentialID)
		}

		return q.UpdateRepository(ctx, next)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toRepo(row), nil
}

func Delete(ctx context.Context, id, ownerID int64) error {
	n, err := db.Query1(ctx, func(q *db.Queries) (int64, error) {
		return q.DeleteRepository(ctx, db.DeleteRepositoryParams{ID: id, OwnerID: ownerID})
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateCounters overwrites the git-derived counters of a repository.
func UpdateCounters(ctx context.Context, id int64, c Counters) error {
	n, err := db.Query1(ctx, func(q *db.Queries) (int64, error) {
		return q.UpdateRepositoryCounters(ctx, db.UpdateRepositoryCountersParams{
			ID:          id,
			BranchCount: int32(c.BranchCount),
			CommitCount: int32(c.CommitCount),
			LastUpdated: pgconv.ToInt8(&c.LastUpdated),
		})
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toRepo(row db.Repository) *Repo {
	return &Repo{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		CredentialID: pgconv.FromInt8(row.CredentialID),
		Name:         row.Name,
		Description:  pgconv.FromText(row.Description),
		URL:          row.Url,
		IsPrivate:    row.IsPrivate,
		BranchCount:  row.BranchCount,
		CommitCount:  row.CommitCount,
		LastUpdated:  pgconv.FromInt8(row.LastUpdated),
		Created:      row.Created,
		Updated:      row.Updated,
	}
}

func normalizeURL(url string) string {
	url = strings.TrimSpace(url)
	return strings.TrimSuffix(url, "/")
}

// nameFromURL returns the last path segment of a clone URL without the
// .git suffix, e.g. "https://github.com/acme/widgets.git" -> "widgets".
func nameFromURL(url string) string {
	url = strings.TrimSuffix(normalizeURL(url), ".git")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	if url == "" {
		return "repository"
	}
	return url
}

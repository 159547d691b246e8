package repositories

import (
	"errors"
	"strconv"

	"github.com/gomantics/gitdesk/api/web"
	"github.com/gomantics/gitdesk/domains/credentials"
	"github.com/gomantics/gitdesk/domains/gitops"
	"github.com/gomantics/gitdesk/domains/repos"
	"github.com/gomantics/gitdesk/libs/gitrepo"
	"go.uber.org/zap"
)

// RepoResponse is a repository record as returned by the API
type RepoResponse struct {
	ID           int64   `json:"id"`
	OwnerID      int64   `json:"owner_id"`
	CredentialID *int64  `json:"credential_id,omitempty"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	URL          string  `json:"url"`
	IsPrivate    bool    `json:"is_private"`
	BranchCount  int32   `json:"branch_count"`
	CommitCount  int32   `json:"commit_count"`
	LastUpdated  *int64  `json:"last_updated,omitempty"`
	Created      int64   `json:"created"`
	Updated      int64   `json:"updated"`
}

// ListResponse is the response for listing repositories
type ListResponse struct {
	Repos []RepoResponse `json:"repos"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func toResponse(r *repos.Repo) RepoResponse {
	return RepoResponse{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		CredentialID: r.CredentialID,
		Name:         r.Name,
		Description:  r.Description,
		URL:          r.URL,
		IsPrivate:    r.IsPrivate,
		BranchCount:  r.BranchCount,
		CommitCount:  r.CommitCount,
		LastUpdated:  r.LastUpdated,
		Created:      r.Created,
		Updated:      r.Updated,
	}
}

// CreateRequest is the request body for creating a repository
type CreateRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	URL          string  `json:"url"`
	IsPrivate    bool    `json:"is_private"`
	CredentialID *int64  `json:"credential_id,omitempty"`
}

// Create handles POST /v1/repositories
func Create(c web.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("invalid request body")
	}

	if req.URL == "" {
		return c.BadRequest("url is required")
	}
	if err := gitrepo.ValidateRepoURL(req.URL); err != nil {
		return c.BadRequest(err.Error())
	}

	ctx := c.Request().Context()

	if req.CredentialID != nil {
		if _, err := credentials.GetForOwner(ctx, *req.CredentialID, c.UserID()); err != nil {
			if errors.Is(err, credentials.ErrNotFound) {
				return c.BadRequest("credential not found")
			}
			c.L.Error("failed to get credential", zap.Error(err))
			return c.InternalError("failed to create repository")
		}
	}

	repo, err := repos.Create(ctx, repos.CreateParams{
		OwnerID:      c.UserID(),
		CredentialID: req.CredentialID,
		Name:         req.Name,
		Description:  req.Description,
		URL:          req.URL,
		IsPrivate:    req.IsPrivate,
	})
	if errors.Is(err, repos.ErrAlreadyExists) {
		return c.OK(toResponse(repo))
	}
	if err != nil {
		c.L.Error("failed to create repo", zap.Error(err))
		return c.InternalError("failed to create repository")
	}

	c.L.Info("repository created", zap.Int64("repo_id", repo.ID))
	return c.Created(toResponse(repo))
}

// List handles GET /v1/repositories
func List(c web.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result, err := repos.List(c.Request().Context(), repos.ListParams{
		OwnerID: c.UserID(),
		Limit:   limit,
		Offset:  (page - 1) * limit,
	})
	if err != nil {
		c.L.Error("failed to list repos", zap.Error(err))
		return c.InternalError("failed to list repositories")
	}

	out := make([]RepoResponse, len(result.Repos))
	for i := range result.Repos {
		out[i] = toResponse(&result.Repos[i])
	}

	return c.OK(ListResponse{Repos: out, Total: result.Total, Page: page, Limit: limit})
}

// Get handles GET /v1/repositories/:id
func Get(c web.Context) error {
	id, ok := repos.ParseID(c.Param("id"))
	if !ok {
		return c.BadRequest("invalid repository id")
	}

	repo, err := repos.GetForOwner(c.Request().Context(), id, c.UserID())
	if errors.Is(err, repos.ErrNotFound) {
		return c.NotFound("repository not found")
	}
	if err != nil {
		c.L.Error("failed to get repo", zap.Error(err))
		return c.InternalError("failed to get repository")
	}

	return c.OK(toResponse(repo))
}

// UpdateRequest changes repository metadata. Omitted fields are kept.
type UpdateRequest struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	IsPrivate    *bool   `json:"is_private,omitempty"`
	CredentialID *int64  `json:"credential_id,omitempty"`
}

// Update handles PATCH /v1/repositories/:id
func Update(c web.Context) error {
	id, ok := repos.ParseID(c.Param("id"))
	if !ok {
		return c.BadRequest("invalid repository id")
	}

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("invalid request body")
	}
	if req.Name != nil && *req.Name == "" {
		return c.BadRequest("name must not be empty")
	}

	ctx := c.Request().Context()

	if req.CredentialID != nil {
		if _, err := credentials.GetForOwner(ctx, *req.CredentialID, c.UserID()); errors.Is(err, credentials.ErrNotFound) {
			return c.BadRequest("credential not found")
		} else if err != nil {
			c.L.Error("failed to get credential", zap.Error(err))
			return c.InternalError("failed to update repository")
		}
	}

	repo, err := repos.Update(ctx, id, c.UserID(), repos.UpdateParams{
		Name:         req.Name,
		Description:  req.Description,
		IsPrivate:    req.IsPrivate,
		CredentialID: req.CredentialID,
	})
	if errors.Is(err, repos.ErrNotFound) {
		return c.NotFound("repository not found")
	}
	if err != nil {
		c.L.Error("failed to update repo", zap.Error(err))
		return c.InternalError("failed to update repository")
	}

	return c.OK(toResponse(repo))
}

// delete handles DELETE /v1/repositories/:id and purges the working copy.
func (h *handler) delete(c web.Context) error {
	id, ok := repos.ParseID(c.Param("id"))
	if !ok {
		return c.BadRequest("invalid repository id")
	}

	ctx := c.Request().Context()

	err := repos.Delete(ctx, id, c.UserID())
	if errors.Is(err, repos.ErrNotFound) {
		return c.NotFound("repository not found")
	}
	if err != nil {
		c.L.Error("failed to delete repo", zap.Error(err))
		return c.InternalError("failed to delete repository")
	}

	key := gitops.Key{OwnerID: c.UserID(), RepositoryID: strconv.FormatInt(id, 10)}
	if err := h.purger.Purge(ctx, key); err != nil {
		c.L.Warn("failed to purge working copy", zap.Int64("repo_id", id), zap.Error(err))
	}

	c.L.Info("repository deleted", zap.Int64("repo_id", id))
	return c.NoContent()
}

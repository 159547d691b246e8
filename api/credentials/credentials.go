package credentials

import (
	"errors"
	"strconv"

	"github.com/gomantics/gitdesk/api/web"
	"github.com/gomantics/gitdesk/domains/credentials"
	"go.uber.org/zap"
)

// CreateRequest is the request body for storing a credential
type CreateRequest struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
	Token    string `json:"token"`
}

// CredentialResponse never includes the token
type CredentialResponse struct {
	ID       int64  `json:"id"`
	Provider string `json:"provider"`
	Name     string `json:"name"`
	Created  int64  `json:"created"`
	Updated  int64  `json:"updated"`
}

// ListResponse is the response for listing credentials
type ListResponse struct {
	Credentials []CredentialResponse `json:"credentials"`
}

func toResponse(cred *credentials.Credential) CredentialResponse {
	return CredentialResponse{
		ID:       cred.ID,
		Provider: string(cred.Provider),
		Name:     cred.Name,
		Created:  cred.Created,
		Updated:  cred.Updated,
	}
}

// Create handles POST /v1/credentials
func Create(c web.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("invalid request body")
	}

	if req.Name == "" {
		return c.BadRequest("name is required")
	}
	if req.Token == "" {
		return c.BadRequest("token is required")
	}

	provider := credentials.Provider(req.Provider)
	if provider == "" {
		provider = credentials.ProviderGeneric
	}
	if !provider.Valid() {
		return c.BadRequest("invalid provider, must be 'github', 'gitlab' or 'generic'")
	}

	cred, err := credentials.Create(c.Request().Context(), credentials.CreateParams{
		OwnerID:  c.UserID(),
		Provider: provider,
		Name:     req.Name,
		Token:    req.Token,
	})
	if errors.Is(err, credentials.ErrAlreadyExists) {
		return c.Conflict(err.Error())
	}
	if err != nil {
		c.L.Error("failed to create credential", zap.Error(err))
		return c.InternalError("failed to create credential")
	}

	c.L.Info("credential created",
		zap.Int64("id", cred.ID),
		zap.String("provider", string(cred.Provider)),
	)

	return c.Created(toResponse(cred))
}

// List handles GET /v1/credentials
func List(c web.Context) error {
	creds, err := credentials.ListByOwner(c.Request().Context(), c.UserID())
	if err != nil {
		c.L.Error("failed to list credentials", zap.Error(err))
		return c.InternalError("failed to list credentials")
	}

	out := make([]CredentialResponse, len(creds))
	for i := range creds {
		out[i] = toResponse(&creds[i])
	}
	return c.OK(ListResponse{Credentials: out})
}

// Delete handles DELETE /v1/credentials/:id. Repositories referencing the
// credential fall back to anonymous access.
func Delete(c web.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.BadRequest("invalid credential id")
	}

	if err := credentials.Delete(c.Request().Context(), id, c.UserID()); err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return c.NotFound("credential not found")
		}
		c.L.Error("failed to delete credential", zap.Error(err))
		return c.InternalError("failed to delete credential")
	}

	c.L.Info("credential deleted", zap.Int64("id", id))
	return c.NoContent()
}

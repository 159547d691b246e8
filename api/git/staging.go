package git

import (
	"github.com/gomantics/gitdesk/api/web"
	"github.com/gomantics/gitdesk/domains/gitops"
)

type AddRequest struct {
	FilePaths []string `json:"file_paths"`
}

// add handles POST /v1/repositories/:id/add
func (h *handler) add(c web.Context) error {
	var req AddRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("invalid request body")
	}
	if len(req.FilePaths) == 0 {
		return c.BadRequest("file_paths is required")
	}

	if err := h.svc.AddFiles(c.Request().Context(), key(c), req.FilePaths); err != nil {
		return fail(c, err)
	}
	return c.OK(messageResponse{Message: "files staged"})
}

type CommitRequest struct {
	Message string `json:"message"`
}

// commit handles POST /v1/repositories/:id/commit
func (h *handler) commit(c web.Context) error {
	var req CommitRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("invalid request body")
	}
	if req.Message == "" {
		return c.BadRequest("message is required")
	}

	res, err := h.svc.CommitChanges(c.Request().Context(), key(c), req.Message, h.author(c))
	if err != nil {
		return fail(c, err)
	}
	return result(c, res)
}

// push handles POST /v1/repositories/:id/push
func (h *handler) push(c web.Context) error {
	res, err := h.svc.PushChanges(c.Request().Context(), key(c))
	if err != nil {
		return fail(c, err)
	}
	return result(c, res)
}

type StatusResponse struct {
	gitops.RepositoryStatus
	Staged    []string `json:"staged"`
	Unstaged  []string `json:"unstaged"`
	Untracked []string `json:"untracked"`
}

// status handles GET /v1/repositories/:id/status
func (h *handler) status(c web.Context) error {
	st, err := h.svc.GetStatus(c.Request().Context(), key(c))
	if err != nil {
		return fail(c, err)
	}
	return c.OK(StatusResponse{
		RepositoryStatus: st,
		Staged:           st.Staged(),
		Unstaged:         st.Unstaged(),
		Untracked:        st.Untracked(),
	})
}

// stats handles GET /v1/repositories/:id/stats
func (h *handler) stats(c web.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context(), key(c))
	if err != nil {
		return fail(c, err)
	}
	return c.OK(stats)
}

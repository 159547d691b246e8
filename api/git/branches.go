package git

import (
	"strconv"
	"strings"

	"github.com/gomantics/gitdesk/api/web"
	"github.com/gomantics/gitdesk/domains/gitops"
	"go.uber.org/zap"
)

const maxCommitLimit = 500

type CommitsResponse struct {
	Commits []gitops.Commit `json:"commits"`
}

// listCommits handles GET /v1/repositories/:id/commits?branch=&limit=
func (h *handler) listCommits(c web.Context) error {
	limit := gitops.DefaultCommitLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.BadRequest("limit must be a positive integer")
		}
		limit = min(n, maxCommitLimit)
	}

	commits, err := h.svc.ListCommits(c.Request().Context(), key(c), c.QueryParam("branch"), limit)
	if err != nil {
		return fail(c, err)
	}
	return c.OK(CommitsResponse{Commits: commits})
}

type BranchesResponse struct {
	Branches []gitops.Branch `json:"branches"`
}

// listBranches handles GET /v1/repositories/:id/branches
func (h *handler) listBranches(c web.Context) error {
	branches, err := h.svc.ListBranches(c.Request().Context(), key(c))
	if err != nil {
		return fail(c, err)
	}
	return c.OK(BranchesResponse{Branches: branches})
}

type CreateBranchRequest struct {
	BranchName string `json:"branch_name"`
	FromBranch string `json:"from_branch,omitempty"`
}

// createBranch handles POST /v1/repositories/:id/branches
func (h *handler) createBranch(c web.Context) error {
	var req CreateBranchRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("invalid request body")
	}
	if strings.TrimSpace(req.BranchName) == "" {
		return c.BadRequest("branch_name is required")
	}

	branch, err := h.svc.CreateBranch(c.Request().Context(), key(c), req.BranchName, req.FromBranch)
	if err != nil {
		return fail(c, err)
	}

	c.L.Info("branch created", zap.String("repo_id", c.Param("id")), zap.String("branch", branch.Name))
	return c.Created(branch)
}

// deleteBranch handles DELETE /v1/repositories/:id/branches/:name
func (h *handler) deleteBranch(c web.Context) error {
	res, err := h.svc.DeleteBranch(c.Request().Context(), key(c), c.Param("name"))
	if err != nil {
		return fail(c, err)
	}
	return result(c, res)
}

type MergeRequest struct {
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
}

// merge handles POST /v1/repositories/:id/merge. Conflicts are a 200 with
// success=false.
func (h *handler) merge(c web.Context) error {
	var req MergeRequest
	if err := c.Bind(&req); err != nil {
		return c.BadRequest("invalid request body")
	}
	if req.SourceBranch == "" || req.TargetBranch == "" {
		return c.BadRequest("source_branch and target_branch are required")
	}

	res, err := h.svc.MergeBranch(c.Request().Context(), key(c), req.SourceBranch, req.TargetBranch, h.author(c))
	if err != nil {
		return fail(c, err)
	}
	return c.OK(res)
}

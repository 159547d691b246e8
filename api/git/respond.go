package git

import (
	"errors"
	"net/http"

	"github.com/gomantics/gitdesk/api/web"
	"github.com/gomantics/gitdesk/domains/gitops"
	"go.uber.org/zap"
)

// fail translates a gitops error into a response.
func fail(c web.Context, err error) error {
	var toolErr *gitops.ToolError
	switch {
	case errors.Is(err, gitops.ErrInvalidInput):
		return c.BadRequest(err.Error())
	case errors.Is(err, gitops.ErrNotFound):
		return c.NotFound(err.Error())
	case errors.Is(err, gitops.ErrNotAFile), errors.Is(err, gitops.ErrNotADirectory):
		return c.BadRequest(err.Error())
	case errors.Is(err, gitops.ErrBranchExists), errors.Is(err, gitops.ErrCheckoutFailed):
		return c.Conflict(err.Error())
	case errors.Is(err, gitops.ErrCloneFailed), errors.Is(err, gitops.ErrSyncFailed):
		c.L.Warn("failed to sync working copy", zap.Error(err))
		return c.BadGateway(err.Error())
	case errors.As(err, &toolErr):
		c.L.Error("git failed", zap.Error(err))
		return c.InternalError(err.Error())
	default:
		c.L.Error("git operation failed", zap.Error(err))
		return c.InternalError("internal error")
	}
}

// result writes an OperationResult. Refusing to delete the current branch
// is a client error; other failures are reported with 200.
func result(c web.Context, res gitops.OperationResult) error {
	if f := res.Failure(); f != nil && f.Reason == gitops.ReasonCannotDeleteCurrent {
		return c.JSON(http.StatusBadRequest, res)
	}
	return c.OK(res)
}

type messageResponse struct {
	Message string `json:"message"`
}

package gitops

import (
	"errors"
	"fmt"

	"github.com/gomantics/gitdesk/libs/gitrepo"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidIdentifier = fmt.Errorf("%w: invalid repository identifier", ErrInvalidInput)
	ErrInvalidPath       = fmt.Errorf("%w: path escapes the workspace", ErrInvalidInput)
	ErrInvalidName       = fmt.Errorf("%w: invalid branch name", ErrInvalidInput)

	ErrNotFound      = errors.New("not found")
	ErrNotAFile      = errors.New("not a file")
	ErrNotADirectory = errors.New("not a directory")
	ErrBranchExists  = errors.New("branch already exists")
)

// Kinds of external tool failures, matched with errors.Is on a *ToolError.
var (
	ErrCloneFailed    = errors.New("clone failed")
	ErrSyncFailed     = errors.New("sync failed")
	ErrAddFailed      = errors.New("add failed")
	ErrMergeFailed    = errors.New("merge failed")
	ErrCheckoutFailed = errors.New("checkout failed")
)

// ToolError wraps a failure reported by git. Cause is kept for
// diagnostics and is not meant to be parsed.
type ToolError struct {
	Kind  error
	Cause error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, gitrepo.RedactError(e.Cause))
}

func (e *ToolError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

func toolError(kind, cause error) error {
	return &ToolError{Kind: kind, Cause: cause}
}

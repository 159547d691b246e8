package gitops

import "encoding/json"

// Reasons carried by a Failure.
const (
	ReasonNothingStaged       = "nothing_staged"
	ReasonNoRemote            = "no_remote"
	ReasonCannotDeleteCurrent = "cannot_delete_current"
	ReasonPushFailed          = "push_failed"
	ReasonNoCommits           = "no_commits"
)

type Success struct {
	Message string
	Ref     string
	Commit  string
	// Pushed is set by push only.
	Pushed *bool
}

type Failure struct {
	Reason  string
	Message string
	Detail  string
}

// OperationResult is the outcome of a write operation: exactly one of
// Success or Failure. Expected failures such as an empty index are
// results, not errors.
type OperationResult struct {
	success *Success
	failure *Failure
}

func Succeeded(s Success) OperationResult { return OperationResult{success: &s} }

func Failed(reason, message, detail string) OperationResult {
	return OperationResult{failure: &Failure{Reason: reason, Message: message, Detail: detail}}
}

func (r OperationResult) OK() bool { return r.success != nil }

// Success returns the success payload, nil for failures.
func (r OperationResult) Success() *Success { return r.success }

// Failure returns the failure payload, nil for successes.
func (r OperationResult) Failure() *Failure { return r.failure }

type resultJSON struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Ref     string `json:"ref,omitempty"`
	Commit  string `json:"commit,omitempty"`
	Pushed  *bool  `json:"pushed,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r OperationResult) MarshalJSON() ([]byte, error) {
	var out resultJSON
	switch {
	case r.success != nil:
		out = resultJSON{
			Success: true,
			Message: r.success.Message,
			Ref:     r.success.Ref,
			Commit:  r.success.Commit,
			Pushed:  r.success.Pushed,
		}
	case r.failure != nil:
		out = resultJSON{
			Message: r.failure.Message,
			Reason:  r.failure.Reason,
			Error:   r.failure.Detail,
		}
	}
	return json.Marshal(out)
}

package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Runner executes git subcommands in a working copy. It backs the
// operations go-git does not implement, such as three-way merges.
type Runner interface {
	Run(ctx context.Context, root string, args ...string) (string, error)
}

// ExecRunner executes the configured git binary.
type ExecRunner struct {
	GitBin string
}

func NewExecRunner(gitBin string) *ExecRunner {
	if strings.TrimSpace(gitBin) == "" {
		gitBin = "git"
	}
	return &ExecRunner{GitBin: gitBin}
}

// Run returns stdout. On failure the error carries stderr (or stdout when
// stderr is empty) with credentials scrubbed.
func (e *ExecRunner) Run(ctx context.Context, root string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, e.GitBin, args...)
	if strings.TrimSpace(root) != "" {
		cmd.Dir = root
	}
	// never block on a credential prompt
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0")

	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(errb.String())
		if msg == "" {
			msg = strings.TrimSpace(out.String())
		}
		if msg == "" {
			msg = err.Error()
		}
		return out.String(), &CommandError{
			Command: sanitizeArgs(args),
			Output:  redactTokens(out.String()),
			Message: redactTokens(msg),
		}
	}
	return out.String(), nil
}

// CommandError is a failed git invocation.
type CommandError struct {
	Command string
	Output  string // stdout, redacted
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("git %s: %s", e.Command, e.Message)
}

var safeWord = regexp.MustCompile(`^[a-z][a-z-]*$`)

// sanitizeArgs returns a short, non-sensitive summary of the git
// operation: leading "-c key=value" pairs are dropped and at most two
// subcommand words are kept.
func sanitizeArgs(args []string) string {
	for len(args) >= 2 && args[0] == "-c" {
		args = args[2:]
	}
	if len(args) == 0 {
		return "<no-args>"
	}

	safe := make([]string, 0, 2)
	for _, a := range args {
		if !safeWord.MatchString(a) {
			break
		}
		safe = append(safe, a)
		if len(safe) == 2 {
			break
		}
	}
	if len(safe) == 0 {
		return "<redacted>"
	}
	return strings.Join(safe, " ")
}

var (
	credentialURL = regexp.MustCompile(`(https?)://[^\s/@]+@`)
	secretParam   = regexp.MustCompile(`(?i)(token|secret|password|passwd|bearer)=[^\s&]+`)
)

// redactTokens removes credentials embedded in URLs and key=value pairs.
func redactTokens(s string) string {
	s = credentialURL.ReplaceAllString(s, "$1://<redacted>@")
	s = secretParam.ReplaceAllString(s, "$1=<redacted>")
	return s
}

// RedactError returns err's message with credentials removed.
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	return redactTokens(err.Error())
}

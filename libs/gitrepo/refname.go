package gitrepo

import (
	"errors"
	"strings"
)

var ErrInvalidBranchName = errors.New("invalid branch name")

// ValidateBranchName applies the git check-ref-format rules to a short
// branch name.
func ValidateBranchName(name string) error {
	switch {
	case name == "", name == "HEAD", name == "@":
		return ErrInvalidBranchName
	case strings.HasPrefix(name, "-"), strings.HasPrefix(name, "/"), strings.HasSuffix(name, "/"):
		return ErrInvalidBranchName
	case strings.HasSuffix(name, "."), strings.HasSuffix(name, ".lock"):
		return ErrInvalidBranchName
	case strings.Contains(name, ".."), strings.Contains(name, "//"), strings.Contains(name, "@{"):
		return ErrInvalidBranchName
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(" ~^:?*[\\", r) {
			return ErrInvalidBranchName
		}
	}

	for part := range strings.SplitSeq(name, "/") {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".lock") {
			return ErrInvalidBranchName
		}
	}
	return nil
}

package gitops

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/go-git/go-git/v5"
)

// cleanRel checks a user supplied path relative to the workspace root and
// returns it in OS form. "" and "." name the root, which only allowRoot
// callers accept. The .git directory counts as outside the workspace.
func cleanRel(rel string, allowRoot bool) (string, error) {
	if strings.ContainsRune(rel, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}

	slashed := strings.ReplaceAll(rel, `\`, "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}
	for seg := range strings.SplitSeq(slashed, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, rel)
		}
	}

	cleaned := path.Clean(slashed)
	if cleaned == "." {
		if !allowRoot {
			return "", fmt.Errorf("%w: workspace root", ErrInvalidPath)
		}
		return "", nil
	}

	first, _, _ := strings.Cut(cleaned, "/")
	if strings.EqualFold(first, git.GitDirName) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}

	native := filepath.FromSlash(cleaned)
	if !filepath.IsLocal(native) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}
	return native, nil
}

// within joins a path accepted by cleanRel onto root, resolving symlinks
// so the result cannot leave root.
func within(root, rel string) (string, error) {
	if rel == "" || rel == "." {
		return root, nil
	}
	joined, err := securejoin.SecureJoin(root, rel)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", rel, err)
	}

	// a symlink chain may still land on .git
	if err := outsideGitDir(root, joined, rel); err != nil {
		return "", err
	}
	return joined, nil
}

// outsideGitDir rejects p when it is root itself or lies under root/.git.
func outsideGitDir(root, p, rel string) error {
	inner, err := filepath.Rel(root, p)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}
	first, _, _ := strings.Cut(filepath.ToSlash(inner), "/")
	if strings.EqualFold(first, git.GitDirName) || inner == "." {
		return fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}
	return nil
}

// entryWithin is within for operations that act on the entry itself.
// Only the parent is resolved, so a trailing symlink names the link and
// not its target.
func entryWithin(root, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("%w: workspace root", ErrInvalidPath)
	}
	parent, err := within(root, filepath.Dir(rel))
	if err != nil {
		return "", err
	}
	joined := filepath.Join(parent, filepath.Base(rel))
	if err := outsideGitDir(root, joined, rel); err != nil {
		return "", err
	}
	return joined, nil
}

// validateBaseName accepts a plain file name with no directory part.
func validateBaseName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`+"\x00") {
		return fmt.Errorf("%w: file name %q", ErrInvalidInput, name)
	}
	if strings.EqualFold(name, git.GitDirName) {
		return fmt.Errorf("%w: file name %q", ErrInvalidInput, name)
	}
	return nil
}

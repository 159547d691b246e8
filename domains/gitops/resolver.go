package gitops

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Resolver maps a Key to its working-copy directory, root/owner/repository.
type Resolver struct {
	root string
}

func NewResolver(root string) *Resolver {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Resolver{root: filepath.Clean(root)}
}

func (r *Resolver) Root() string { return r.root }

// Path returns the working-copy path for key without touching the disk.
func (r *Resolver) Path(key Key) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(r.root, strconv.FormatInt(key.OwnerID, 10), key.RepositoryID), nil
}

// Resolve is Path plus creating the owner directory. The checkout itself
// is left to the initializer.
func (r *Resolver) Resolve(key Key) (string, error) {
	path, err := r.Path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create workspace parent: %w", err)
	}
	return path, nil
}

func validateKey(key Key) error {
	if key.OwnerID <= 0 {
		return fmt.Errorf("%w: owner %d", ErrInvalidIdentifier, key.OwnerID)
	}

	id := key.RepositoryID
	switch {
	case id == "", id == ".", id == "..":
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	case strings.ContainsAny(id, `/\`+"\x00"), strings.Contains(id, ".."):
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return nil
}

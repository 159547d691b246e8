package gitops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File operations change the working tree only. Staging stays a separate
// AddFiles call, and none of them write counters back to the store.

// UploadFiles writes each upload to dir/OriginalName, creating dir as
// needed and overwriting existing files.
func (s *Service) UploadFiles(ctx context.Context, key Key, dir string, files []Upload) error {
	cleanDir, err := cleanRel(dir, true)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no files", ErrInvalidInput)
	}
	targets := make([]string, 0, len(files))
	for _, f := range files {
		if err := validateBaseName(f.OriginalName); err != nil {
			return err
		}
		target, err := cleanRel(filepath.Join(cleanDir, f.OriginalName), false)
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}

	_, err = do(ctx, s, "upload", key, func(w *workspace) (struct{}, error) {
		for i, f := range files {
			if err := w.writeFile(targets[i], f.Content); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	return err
}

func (s *Service) UploadFile(ctx context.Context, key Key, dir string, file Upload) error {
	return s.UploadFiles(ctx, key, dir, []Upload{file})
}

// SaveFile creates or overwrites the file at rel.
func (s *Service) SaveFile(ctx context.Context, key Key, rel string, content []byte) error {
	clean, err := cleanRel(rel, false)
	if err != nil {
		return err
	}

	_, err = do(ctx, s, "save", key, func(w *workspace) (struct{}, error) {
		if err := w.writeFile(clean, content); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	return err
}

// CreateDirectory creates rel and its parents. An existing directory is
// not an error.
func (s *Service) CreateDirectory(ctx context.Context, key Key, rel string) error {
	clean, err := cleanRel(rel, false)
	if err != nil {
		return err
	}

	_, err = do(ctx, s, "create_directory", key, func(w *workspace) (struct{}, error) {
		p, err := within(w.root, clean)
		if err != nil {
			return struct{}{}, err
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return struct{}{}, fmt.Errorf("%w: %s", ErrNotADirectory, rel)
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return struct{}{}, fmt.Errorf("failed to create directory: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

// DeleteFile removes the file or directory at rel. A missing path is not
// an error; the workspace root cannot be deleted.
func (s *Service) DeleteFile(ctx context.Context, key Key, rel string) error {
	clean, err := cleanRel(rel, false)
	if err != nil {
		return err
	}

	_, err = do(ctx, s, "delete", key, func(w *workspace) (struct{}, error) {
		p, err := entryWithin(w.root, clean)
		if err != nil {
			return struct{}{}, err
		}
		if err := os.RemoveAll(p); err != nil {
			return struct{}{}, fmt.Errorf("failed to delete: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

// RenameFile moves oldRel to newRel, creating the parents of newRel.
func (s *Service) RenameFile(ctx context.Context, key Key, oldRel, newRel string) error {
	cleanOld, err := cleanRel(oldRel, false)
	if err != nil {
		return err
	}
	cleanNew, err := cleanRel(newRel, false)
	if err != nil {
		return err
	}

	_, err = do(ctx, s, "rename", key, func(w *workspace) (struct{}, error) {
		from, err := entryWithin(w.root, cleanOld)
		if err != nil {
			return struct{}{}, err
		}
		to, err := entryWithin(w.root, cleanNew)
		if err != nil {
			return struct{}{}, err
		}

		if _, err := os.Lstat(from); errors.Is(err, fs.ErrNotExist) {
			return struct{}{}, fmt.Errorf("%w: %s", ErrNotFound, oldRel)
		} else if err != nil {
			return struct{}{}, err
		}

		if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
			return struct{}{}, fmt.Errorf("failed to create parent directory: %w", err)
		}
		if err := os.Rename(from, to); err != nil {
			return struct{}{}, fmt.Errorf("failed to rename: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

func (w *workspace) writeFile(rel string, content []byte) error {
	p, err := within(w.root, rel)
	if err != nil {
		return err
	}
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotAFile, filepath.ToSlash(rel))
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

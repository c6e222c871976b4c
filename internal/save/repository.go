package save

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound reports that no blob is stored for (profile, username).
// Not an error condition for callers: a fresh account has no save.
var ErrNotFound = errors.New("save not found")

// FileRepository stores one blob per (profile, username) under
// <root>/<profile>/<username>.sav. Last write wins. The repository is
// policy-free: verification is the caller's job.
type FileRepository struct {
	root string
}

// NewFileRepository создаёт репозиторий с корнем root.
// Каталоги профилей создаются лениво при первой записи.
func NewFileRepository(root string) *FileRepository {
	return &FileRepository{root: root}
}

// Load reads the blob for (profile, username).
// Returns ErrNotFound if nothing is stored.
func (r *FileRepository) Load(profile, username string) ([]byte, error) {
	path, err := r.path(profile, username)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading save %s: %w", path, err)
	}
	return data, nil
}

// Store durably writes the blob for (profile, username), creating the
// profile namespace if needed. Пишем во временный файл и переименовываем:
// упавшая запись не затирает предыдущий блоб.
func (r *FileRepository) Store(profile, username string, data []byte) error {
	path, err := r.path(profile, username)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating profile dir for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp save file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing save %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing save %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming save %s: %w", path, err)
	}
	return nil
}

// path builds the blob location. Единственная точка, где живёт
// соглашение об именах. Компоненты из сети не должны уметь выходить
// за пределы root.
func (r *FileRepository) path(profile, username string) (string, error) {
	for _, part := range [...]string{profile, username} {
		if part == "" || part == "." || part == ".." ||
			strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid save path component %q", part)
		}
	}
	return filepath.Join(r.root, profile, username+".sav"), nil
}

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrOutsideRoot is returned for names that resolve outside the store root.
var ErrOutsideRoot = errors.New("path escapes storage root")

// DiskStore keeps exported schedules on local disk under a root directory.
type DiskStore struct {
	root string
	now  func() time.Time
}

// NewDiskStore creates the root directory when missing.
func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		root = "./exports"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve export root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create export root: %w", err)
	}
	return &DiskStore{root: abs, now: time.Now}, nil
}

// Save writes data to name, relative to the root, and returns the cleaned name.
func (s *DiskStore) Save(name string, data []byte) (string, error) {
	path, rel, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return rel, nil
}

// Open returns a read-only handle for a stored file.
func (s *DiskStore) Open(name string) (*os.File, error) {
	path, _, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	return file, nil
}

// Remove deletes a stored file. Missing files are ignored.
func (s *DiskStore) Remove(name string) error {
	path, _, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove export: %w", err)
	}
	return nil
}

// Prune removes files last modified more than ttl ago and returns their names.
func (s *DiskStore) Prune(ttl time.Duration) ([]string, error) {
	cutoff := s.now().Add(-ttl)
	var removed []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, _ := filepath.Rel(s.root, path)
		removed = append(removed, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("prune exports: %w", err)
	}
	return removed, nil
}

func (s *DiskStore) resolve(name string) (path, rel string, err error) {
	if name == "" || filepath.IsAbs(name) {
		return "", "", ErrOutsideRoot
	}
	path = filepath.Join(s.root, filepath.FromSlash(name))
	rel, err = filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", "", ErrOutsideRoot
	}
	return path, filepath.ToSlash(rel), nil
}

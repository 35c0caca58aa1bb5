package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DiskStorage is the local blob store holding fetched source assets and
// rendered videos, keyed by relative paths like "audio/ab12cd_track.mp3".
type DiskStorage struct {
	root string
}

func NewDiskStorage(root string) (*DiskStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root %s: %w", root, err)
	}
	return &DiskStorage{root: root}, nil
}

// Root returns the absolute base directory.
func (s *DiskStorage) Root() string { return s.root }

// Path resolves a storage key to an absolute path.
func (s *DiskStorage) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Save streams r into the file addressed by key, creating parent directories.
// Writes go to a temp file first so a crashed download never leaves a
// half-written asset under the final key.
func (s *DiskStorage) Save(key string, r io.Reader) (string, error) {
	dst := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return "", err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()
	if _, err := io.Copy(tmp, r); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Remove deletes the file addressed by key; missing files are not an error.
func (s *DiskStorage) Remove(key string) error {
	err := os.Remove(s.Path(key))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

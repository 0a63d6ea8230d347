// Package blob stores raw file bytes on the local filesystem, addressed by
// (user id, file name). Writes are staged to a temp file in the destination
// directory and renamed into place, so a final path never holds partial data.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const tempPrefix = ".tmp-"

// Store is a filesystem blob store rooted at Root.
type Store struct {
	Root string
}

// New returns a store rooted at root and makes sure the root directory exists.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("blob: empty storage root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root %s: %w", root, err)
	}
	return &Store{Root: root}, nil
}

// UserDir returns the directory holding one user's blobs.
func (s *Store) UserDir(userID uint) string {
	return filepath.Join(s.Root, strconv.FormatUint(uint64(userID), 10))
}

// Path returns the destination path for a user's file. The name must already
// be sanitized; this is pure path derivation.
func (s *Store) Path(userID uint, name string) string {
	return filepath.Join(s.UserDir(userID), name)
}

// Exists reports whether a regular file is present at path.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// WriteTemp stages data as a temp file in the user's directory, creating the
// directory on demand, and returns the temp path. Nothing is visible at a
// final path until the caller promotes it; a failed request only ever leaves
// temp files behind, never replaces committed bytes.
func (s *Store) WriteTemp(userID uint, data []byte) (string, error) {
	dir := s.UserDir(userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("blob: create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("blob: create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("blob: write temp %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("blob: close temp %s: %w", tmpName, err)
	}
	return tmpName, nil
}

// Promote atomically renames a staged temp file onto its destination,
// replacing any existing file there.
func (s *Store) Promote(tmpPath, dest string) error {
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("blob: rename %s -> %s: %w", tmpPath, dest, err)
	}
	return nil
}

// Write persists data for a user under name in one step (stage plus
// promote) and returns the final path.
func (s *Store) Write(userID uint, name string, data []byte) (string, error) {
	tmpName, err := s.WriteTemp(userID, data)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.UserDir(userID), name)
	if err := s.Promote(tmpName, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Remove deletes the blob at path. A missing file is not an error; removal is
// used as compensation after a failed metadata commit, and the commit may
// have failed before anything reached disk.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: remove %s: %w", path, err)
	}
	return nil
}

// SweepTemp removes leftover temp files under the root (a crash between
// staging and rename can strand them). Returns the number removed.
func (s *Store) SweepTemp() (int, error) {
	removed := 0
	err := filepath.Walk(s.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && strings.HasPrefix(info.Name(), tempPrefix) {
			if rmErr := os.Remove(path); rmErr == nil {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("blob: sweep %s: %w", s.Root, err)
	}
	return removed, nil
}

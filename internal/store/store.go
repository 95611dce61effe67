package store

import (
	"os"
	"path/filepath"
	"strings"

	certerrors "github.com/princespaghetti/certfetch/internal/errors"
)

// DefaultDir is the bundle directory created relative to the working directory.
const DefaultDir = "certs"

// Store writes verified certificate bundles into a local directory.
type Store struct {
	dir string
	fs  FileSystem
}

// NewStore creates a Store rooted at dir. An empty dir selects DefaultDir
// relative to the invoking working directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{
		dir: dir,
		fs:  &OSFileSystem{},
	}
}

// Dir returns the bundle directory.
func (s *Store) Dir() string {
	return s.dir
}

// BundlePath returns the destination path for the given bundle filename.
func (s *Store) BundlePath(filename string) string {
	return filepath.Join(s.dir, filename)
}

// Persist writes bundle data to its destination, creating the bundle
// directory if absent. An existing file is overwritten; re-running a
// successful fetch replaces the file with identical verified content.
func (s *Store) Persist(filename string, data []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return &certerrors.FetchError{
			Op:   "create bundle directory",
			Path: s.dir,
			Err:  err,
		}
	}

	path := s.BundlePath(filename)
	if err := s.fs.WriteFile(path, data, 0644); err != nil {
		return &certerrors.FetchError{
			Op:   "write bundle",
			Path: path,
			Err:  err,
		}
	}

	return nil
}

// Discard removes the file for the given bundle filename. A missing file
// is not an error; Discard is called after verification failures where a
// partial or stale file may or may not exist.
func (s *Store) Discard(filename string) error {
	path := s.BundlePath(filename)
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return &certerrors.FetchError{
			Op:   "remove bundle",
			Path: path,
			Err:  err,
		}
	}
	return nil
}

// ReadBundle reads a previously persisted bundle.
func (s *Store) ReadBundle(filename string) ([]byte, error) {
	path := s.BundlePath(filename)
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, &certerrors.FetchError{
			Op:   "read bundle",
			Path: path,
			Err:  err,
		}
	}
	return data, nil
}

// BundleExists reports whether a file exists for the given bundle filename.
func (s *Store) BundleExists(filename string) bool {
	_, err := s.fs.Stat(s.BundlePath(filename))
	return err == nil
}

// BundleSize returns the on-disk size of a bundle, or 0 if it is absent.
func (s *Store) BundleSize(filename string) int64 {
	info, err := s.fs.Stat(s.BundlePath(filename))
	if err != nil {
		return 0
	}
	return info.Size()
}

// CleanStray removes leftover .tmp and .lock files from the bundle
// directory and returns how many were removed.
func (s *Store) CleanStray() (int, error) {
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, &certerrors.FetchError{
			Op:   "read bundle directory",
			Path: s.dir,
			Err:  err,
		}
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".tmp") && !strings.HasSuffix(name, ".lock") {
			continue
		}
		if err := s.fs.Remove(filepath.Join(s.dir, name)); err != nil {
			return removed, &certerrors.FetchError{
				Op:   "remove stray file",
				Path: filepath.Join(s.dir, name),
				Err:  err,
			}
		}
		removed++
	}

	return removed, nil
}

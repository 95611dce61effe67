package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	certerrors "github.com/princespaghetti/certfetch/internal/errors"
)

// Manifest records what the store currently holds. It is advisory: the
// bundle files on disk are the source of truth, the manifest only saves
// status and verify from re-deriving provenance.
type Manifest struct {
	Version string                  `json:"version"`
	Bundles map[string]BundleRecord `json:"bundles"`
}

// BundleRecord describes one fetched bundle.
type BundleRecord struct {
	Filename  string    `json:"filename"`
	Source    string    `json:"source"`
	SHA256    string    `json:"sha256"`
	SizeBytes int64     `json:"size_bytes"`
	FetchedAt time.Time `json:"fetched_at"`
}

const (
	// currentSchemaVersion is the current manifest schema version.
	currentSchemaVersion = "1"

	manifestFilename = "manifest.json"
)

// NewManifest creates a new manifest instance with default values.
func NewManifest() *Manifest {
	return &Manifest{
		Version: currentSchemaVersion,
		Bundles: map[string]BundleRecord{},
	}
}

// ManifestPath returns the path of the manifest file inside the store.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.dir, manifestFilename)
}

// ReadManifest reads and parses the manifest. Returns ErrNoManifest when
// no manifest has been written yet.
func (s *Store) ReadManifest() (*Manifest, error) {
	data, err := s.fs.ReadFile(s.ManifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &certerrors.FetchError{
				Op:   "read manifest",
				Path: s.ManifestPath(),
				Err:  certerrors.ErrNoManifest,
			}
		}
		return nil, &certerrors.FetchError{
			Op:   "read manifest",
			Path: s.ManifestPath(),
			Err:  err,
		}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &certerrors.FetchError{
			Op:   "parse manifest",
			Path: s.ManifestPath(),
			Err:  err,
		}
	}

	// Migrate if needed
	if m.Version != currentSchemaVersion {
		if err := migrateManifest(&m); err != nil {
			return nil, fmt.Errorf("migrate manifest: %w", err)
		}
	}

	if m.Bundles == nil {
		m.Bundles = map[string]BundleRecord{}
	}

	return &m, nil
}

// writeManifest writes the manifest to manifest.json.
func (s *Store) writeManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return &certerrors.FetchError{
			Op:  "marshal manifest",
			Err: err,
		}
	}

	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return &certerrors.FetchError{
			Op:   "create bundle directory",
			Path: s.dir,
			Err:  err,
		}
	}

	if err := s.fs.WriteFile(s.ManifestPath(), data, 0644); err != nil {
		return &certerrors.FetchError{
			Op:   "write manifest",
			Path: s.ManifestPath(),
			Err:  err,
		}
	}

	return nil
}

// UpdateManifest updates the manifest using the provided function.
// It acquires a file lock so overlapping certfetch invocations do not
// interleave manifest writes. A missing manifest starts from empty.
func (s *Store) UpdateManifest(ctx context.Context, fn func(*Manifest) error) error {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return &certerrors.FetchError{
			Op:   "create bundle directory",
			Path: s.dir,
			Err:  err,
		}
	}

	lock := NewFileLock(s.ManifestPath())
	if err := lock.Lock(ctx); err != nil {
		return fmt.Errorf("failed to lock manifest: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	manifest, err := s.ReadManifest()
	if err != nil {
		if !certerrors.IsError(err, certerrors.ErrNoManifest) {
			return err
		}
		manifest = NewManifest()
	}

	if err := fn(manifest); err != nil {
		return err
	}

	return s.writeManifest(manifest)
}

// RemoveManifest deletes the manifest file. A missing manifest is not an error.
func (s *Store) RemoveManifest() error {
	if err := s.fs.Remove(s.ManifestPath()); err != nil && !os.IsNotExist(err) {
		return &certerrors.FetchError{
			Op:   "remove manifest",
			Path: s.ManifestPath(),
			Err:  err,
		}
	}
	return nil
}

// migrateManifest handles schema version migrations.
func migrateManifest(m *Manifest) error {
	// Currently only v1 exists, so no migrations needed yet
	// Future versions would add migration logic here
	m.Version = currentSchemaVersion
	return nil
}

// Package storage implements the SafeDrop object store: encrypted
// files kept as direct children of a single storage root, one file per
// identifier.
//
// Every path derived from an identifier is re-verified to lie under
// the root before use. The identifier scheme already guarantees safe
// storage keys by construction; the store does not trust that and
// checks again on every call.
package storage

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/safedroporg/safedrop-go/crypt"
	"github.com/safedroporg/safedrop-go/fileid"
)

// StoredExtension is the suffix of every stored object file.
const StoredExtension = ".sdf"

// fallbackName restores files whose original name had no usable
// filename component.
const fallbackName = "safedrop_file"

// Store persists encrypted objects under a single flat directory.
type Store struct {
	root   string
	mu     sync.Mutex
	logger *slog.Logger
}

// New creates a Store rooted at root, creating the directory with
// owner-only permissions if needed.
func New(root string, logger *slog.Logger) (*Store, error) {
	if root == "" {
		return nil, ErrInvalidRoot
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return &Store{
		root:   root,
		logger: logger.With(slog.String("component", "storage")),
	}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// StoredName returns the filename an ID is stored under.
func StoredName(id string) string {
	return fileid.StorageKey(id) + StoredExtension
}

// SafePath computes the absolute storage path for an ID and rejects
// with ErrTraversal any result that does not resolve to a direct
// child of the storage root. The check runs on every call and is
// never cached.
func (s *Store) SafePath(id string) (string, error) {
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("%w: resolve root: %w", ErrIOFailure, err)
	}

	candidate, err := filepath.Abs(filepath.Join(rootAbs, StoredName(id)))
	if err != nil {
		return "", fmt.Errorf("%w: resolve candidate: %w", ErrIOFailure, err)
	}

	rel, err := filepath.Rel(rootAbs, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: id %q escapes storage root", ErrTraversal, id)
	}
	// Direct children only: a key carrying separators would nest.
	if filepath.Dir(rel) != "." {
		return "", fmt.Errorf("%w: id %q resolves to a nested path", ErrTraversal, id)
	}

	return candidate, nil
}

// Store encrypts the file at src under key and writes the object for
// id. The ciphertext is written to a temporary file in the root and
// renamed into place, so a crash never leaves a half-written object
// at the final path. Returns the stored path.
func (s *Store) Store(src, id, key string) (string, error) {
	dest, err := s.SafePath(id)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := dest + ".tmp"
	if err := crypt.EncryptFile(src, tmp, key); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("%w: finalize object: %w", ErrIOFailure, err)
	}

	s.logger.Info("object stored",
		slog.String("id", id),
		slog.String("path", filepath.Base(dest)),
	)
	return dest, nil
}

// Retrieve decrypts the object for id into destDir under the original
// filename. Only the filename component of originalName is used; any
// directory part is discarded so a hostile name cannot steer the
// output outside destDir. Name collisions get a numeric suffix before
// the extension; existing files are never overwritten.
func (s *Store) Retrieve(id, destDir, originalName, key string) (string, error) {
	stored, err := s.SafePath(id)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(stored); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: id %q", ErrNotFound, id)
		}
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	if err := os.MkdirAll(destDir, 0700); err != nil {
		return "", fmt.Errorf("%w: create destination: %w", ErrIOFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	destPath := collisionFreePath(destDir, sanitizeName(originalName))
	if err := crypt.DecryptFile(stored, destPath, key); err != nil {
		return "", err
	}

	s.logger.Info("object retrieved",
		slog.String("id", id),
		slog.String("dest", destPath),
	)
	return destPath, nil
}

// Exists reports whether an object is stored for id. A traversal
// error counts as absent.
func (s *Store) Exists(id string) bool {
	stored, err := s.SafePath(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(stored)
	return err == nil
}

// StoredSize returns the on-disk (encrypted) size of the object.
func (s *Store) StoredSize(id string) (int64, error) {
	stored, err := s.SafePath(id)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(stored)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: id %q", ErrNotFound, id)
		}
		return 0, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return info.Size(), nil
}

// Delete removes the object for id, reporting whether anything was
// removed. Absence is not an error.
func (s *Store) Delete(id string) (bool, error) {
	stored, err := s.SafePath(id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(stored); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	s.logger.Info("object deleted", slog.String("id", id))
	return true, nil
}

// Flatten repairs the store's flat-layout invariant: every file found
// nested under a subdirectory of the root is moved up to the root
// (with collision-suffix renaming), and the emptied subdirectory
// trees are removed. Returns the number of files relocated.
func (s *Store) Flatten() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("%w: read root: %w", ErrIOFailure, err)
	}

	relocated := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		subdir := filepath.Join(s.root, entry.Name())

		err := filepath.WalkDir(subdir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			dest := collisionFreePath(s.root, d.Name())
			if err := os.Rename(path, dest); err != nil {
				return fmt.Errorf("%w: relocate %s: %w", ErrIOFailure, path, err)
			}
			s.logger.Info("flatten: relocated nested file",
				slog.String("from", path),
				slog.String("to", filepath.Base(dest)),
			)
			relocated++
			return nil
		})
		if err != nil {
			return relocated, err
		}

		if err := os.RemoveAll(subdir); err != nil {
			s.logger.Warn("flatten: could not remove nested directory",
				slog.String("dir", subdir),
				slog.String("error", err.Error()),
			)
		}
	}

	if relocated > 0 {
		s.logger.Info("flatten complete", slog.Int("relocated", relocated))
	}
	return relocated, nil
}

// sanitizeName strips any directory components from a user-supplied
// filename, falling back to a fixed name when nothing usable remains.
func sanitizeName(name string) string {
	// Backslashes are treated as separators too: a name crafted on
	// another platform must not smuggle path structure through.
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(filepath.FromSlash(name))
	if base == "" || base == "." || base == string(filepath.Separator) || base == ".." {
		return fallbackName
	}
	return base
}

// collisionFreePath joins dir and name, appending _1, _2, ... before
// the extension until the path does not exist.
func collisionFreePath(dir, name string) string {
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for counter := 1; ; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

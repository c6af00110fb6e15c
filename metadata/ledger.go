// Package metadata implements the SafeDrop metadata ledger: a durable
// mapping from file ID to Record, backed by a single JSON document.
//
// Every operation is a full load-mutate-persist cycle run under one
// process-wide mutex plus an exclusive file lock on a sibling .lock
// file, so concurrent processes serialize too. The document is small
// relative to disk I/O cost; coarse locking trivially rules out
// lost-update races.
package metadata

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/safedroporg/safedrop-go/fileid"
)

// ObjectStore is the slice of the object store the expiry sweep
// needs: deleting the stored object for an ID.
type ObjectStore interface {
	Delete(id string) (bool, error)
}

// Ledger is the durable ID-to-Record mapping.
type Ledger struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewLedger creates a ledger persisting to the document at path. The
// document is created on first write.
func NewLedger(path string, logger *slog.Logger) *Ledger {
	return &Ledger{
		path:   path,
		logger: logger.With(slog.String("component", "metadata")),
	}
}

// Path returns the metadata document location.
func (l *Ledger) Path() string {
	return l.path
}

// withLock runs fn over the freshly loaded record map while holding
// both the in-process mutex and the cross-process file lock. When fn
// reports dirty, the map is persisted before the locks release.
func (l *Ledger) withLock(fn func(records map[string]*Record) (dirty bool, err error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fl, err := acquireLock(l.path + ".lock")
	if err != nil {
		return fmt.Errorf("metadata: acquire lock: %w", err)
	}
	defer releaseLock(fl)

	records, err := l.load()
	if err != nil {
		return err
	}

	dirty, err := fn(records)
	if err != nil {
		return err
	}
	if dirty {
		return l.persist(records)
	}
	return nil
}

// load reads the metadata document. A missing document is an empty
// ledger, not an error.
func (l *Ledger) load() (map[string]*Record, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*Record), nil
		}
		return nil, fmt.Errorf("metadata: read document: %w", err)
	}

	records := make(map[string]*Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return records, nil
}

// persist writes the whole document, pretty-printed, via a temporary
// file and atomic rename so an interrupted write never leaves a
// truncated document behind.
func (l *Ledger) persist(records map[string]*Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("metadata: marshal document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("metadata: create directory: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("metadata: write document: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("metadata: finalize document: %w", err)
	}
	return nil
}

// Save upserts a record, keyed by the canonical storage key of its ID.
func (l *Ledger) Save(rec *Record) error {
	if rec.ID == "" {
		return fmt.Errorf("metadata: record has no ID")
	}
	return l.withLock(func(records map[string]*Record) (bool, error) {
		records[fileid.StorageKey(rec.ID)] = rec.clone()
		l.logger.Debug("record saved", slog.String("id", rec.ID))
		return true, nil
	})
}

// Get looks up a record by ID. Dashed and plain forms are both
// accepted; the key is normalized internally.
func (l *Ledger) Get(id string) (*Record, bool, error) {
	var found *Record
	err := l.withLock(func(records map[string]*Record) (bool, error) {
		if rec, ok := records[fileid.StorageKey(id)]; ok {
			found = rec.clone()
		}
		return false, nil
	})
	if err != nil {
		return nil, false, err
	}
	return found, found != nil, nil
}

// Updates carries the fields a partial update may change. Nil fields
// are left untouched. Creation via update is not possible.
type Updates struct {
	DownloadCount *int
	Note          *string
	ExpiryTime    *time.Time
}

// Update merges the given fields into an existing record, reporting
// whether the record existed.
func (l *Ledger) Update(id string, u Updates) (bool, error) {
	updated := false
	err := l.withLock(func(records map[string]*Record) (bool, error) {
		rec, ok := records[fileid.StorageKey(id)]
		if !ok {
			return false, nil
		}
		if u.DownloadCount != nil {
			rec.DownloadCount = *u.DownloadCount
		}
		if u.Note != nil {
			rec.Note = *u.Note
		}
		if u.ExpiryTime != nil {
			t := *u.ExpiryTime
			rec.ExpiryTime = &t
		}
		updated = true
		return true, nil
	})
	return updated, err
}

// Delete removes a record, reporting whether it existed.
func (l *Ledger) Delete(id string) (bool, error) {
	deleted := false
	err := l.withLock(func(records map[string]*Record) (bool, error) {
		key := fileid.StorageKey(id)
		if _, ok := records[key]; !ok {
			return false, nil
		}
		delete(records, key)
		deleted = true
		l.logger.Debug("record deleted", slog.String("id", id))
		return true, nil
	})
	return deleted, err
}

// ListAll returns a snapshot of every record. Order is not
// significant.
func (l *Ledger) ListAll() ([]*Record, error) {
	var out []*Record
	err := l.withLock(func(records map[string]*Record) (bool, error) {
		out = make([]*Record, 0, len(records))
		for _, rec := range records {
			out = append(out, rec.clone())
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SweepExpired removes every record whose expiry is at or before now,
// deleting each stored object before dropping its metadata entry and
// persisting once at the end. The object-first ordering bounds the
// inconsistency window of a mid-sweep crash to orphaned metadata,
// which self-heals on the next download attempt.
func (l *Ledger) SweepExpired(store ObjectStore) (int, error) {
	removed := 0
	now := time.Now().UTC()

	err := l.withLock(func(records map[string]*Record) (bool, error) {
		for key, rec := range records {
			if !rec.Expired(now) {
				continue
			}
			if _, err := store.Delete(rec.ID); err != nil {
				// Keep the record: dropping it now would orphan an
				// object we failed to remove.
				l.logger.Warn("sweep: object delete failed",
					slog.String("id", rec.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			delete(records, key)
			removed++
			l.logger.Info("expired file removed",
				slog.String("id", rec.ID),
				slog.String("name", rec.OriginalName),
			)
		}
		return removed > 0, nil
	})
	return removed, err
}

package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/safedroporg/safedrop-go/crypt"
	"github.com/safedroporg/safedrop-go/fileid"
	"github.com/safedroporg/safedrop-go/metadata"
	"github.com/safedroporg/safedrop-go/scan"
	"github.com/safedroporg/safedrop-go/storage"
)

// UploadOpts holds options for the Upload operation.
type UploadOpts struct {
	Path       string // local file to deposit
	ExpiryDays int    // days until expiry; 0 = never expires
	AutoDelete bool   // remove after first successful download
	Note       string // optional free-form note
}

// UploadResult reports a completed deposit.
type UploadResult struct {
	ID         string
	Filename   string
	Size       int64
	ExpiryTime *time.Time // nil = never expires
	AutoDelete bool
}

// Upload validates and scans a local file, then encrypts it into the
// object store under a fresh opaque ID and records it in the ledger.
// A rejected or invalid file leaves no trace in either store.
func (e *Engine) Upload(opts *UploadOpts) (*UploadResult, error) {
	info, err := os.Stat(opts.Path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, opts.Path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, opts.Path)
	}
	if max := e.Config.MaxFileSizeBytes(); info.Size() > max {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, info.Size(), max)
	}

	expiry, err := e.resolveExpiry(opts.ExpiryDays)
	if err != nil {
		return nil, err
	}

	if v := scan.Scan(opts.Path); !v.Safe {
		e.Logger.Warn("upload rejected", "path", opts.Path, "reason", v.Reason)
		return nil, &RejectionError{Reason: v.Reason}
	}

	id, err := fileid.Generate()
	if err != nil {
		return nil, fmt.Errorf("engine: generate ID: %w", err)
	}
	key, err := crypt.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("engine: generate key: %w", err)
	}

	if _, err := e.Store.Store(opts.Path, id, key); err != nil {
		return nil, fmt.Errorf("engine: store object: %w", err)
	}

	rec := &metadata.Record{
		ID:            id,
		OriginalName:  filepath.Base(opts.Path),
		StoredName:    storage.StoredName(id),
		Size:          info.Size(),
		UploadTime:    time.Now().UTC(),
		ExpiryTime:    expiry,
		AutoDelete:    opts.AutoDelete,
		EncryptionKey: key,
		Note:          opts.Note,
	}
	if err := e.Ledger.Save(rec); err != nil {
		// Without a record the object is unreachable; remove it.
		_, _ = e.Store.Delete(id)
		return nil, fmt.Errorf("engine: save record: %w", err)
	}

	e.Logger.Info("file uploaded",
		"id", id,
		"name", rec.OriginalName,
		"size", rec.Size,
		"auto_delete", rec.AutoDelete)

	return &UploadResult{
		ID:         id,
		Filename:   rec.OriginalName,
		Size:       rec.Size,
		ExpiryTime: expiry,
		AutoDelete: opts.AutoDelete,
	}, nil
}

// resolveExpiry maps the caller's expiry choice onto an absolute time.
// Zero means the file never expires.
func (e *Engine) resolveExpiry(days int) (*time.Time, error) {
	if days == 0 {
		return nil, nil
	}
	if days < 0 || days > e.Config.MaxExpiryDays {
		return nil, fmt.Errorf("%w: %d days (limit %d)", ErrExpiryOutOfRange, days, e.Config.MaxExpiryDays)
	}
	t := time.Now().UTC().AddDate(0, 0, days)
	return &t, nil
}

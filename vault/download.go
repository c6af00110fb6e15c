package vault

import (
	"errors"
	"fmt"
	"time"

	"github.com/safedroporg/safedrop-go/crypt"
	"github.com/safedroporg/safedrop-go/fileid"
	"github.com/safedroporg/safedrop-go/metadata"
	"github.com/safedroporg/safedrop-go/storage"
)

// DownloadOpts holds options for the Download operation.
type DownloadOpts struct {
	ID      string // dashed or plain ID form
	DestDir string // directory to restore into
}

// DownloadResult reports a completed retrieval.
type DownloadResult struct {
	Path          string // restored plaintext path
	Filename      string // original name the file was deposited under
	Size          int64
	DownloadCount int  // count after this download
	AutoDeleted   bool // object and record removed after this download
}

// Download restores a deposited file into DestDir under its original
// name. Expired files are cleaned up on access and reported via
// ErrExpired; auto-delete files are removed after the first successful
// restore. A failed decryption leaves the record and object intact.
func (e *Engine) Download(opts *DownloadOpts) (*DownloadResult, error) {
	if !fileid.IsValidFormat(opts.ID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, opts.ID)
	}
	id := fileid.Normalize(opts.ID)

	rec, ok, err := e.Ledger.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if rec.Expired(time.Now().UTC()) {
		// Lazy cleanup: the sweep has not run yet, do it now.
		_, _ = e.Store.Delete(id)
		_, _ = e.Ledger.Delete(id)
		e.Logger.Info("expired file removed on access", "id", id)
		return nil, fmt.Errorf("%w: %s", ErrExpired, id)
	}

	path, err := e.Store.Retrieve(id, opts.DestDir, rec.OriginalName, rec.EncryptionKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Record without object: a crash orphan. Drop the stale
			// record so the ID stops resolving.
			_, _ = e.Ledger.Delete(id)
			e.Logger.Warn("stale record removed, object missing", "id", id)
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if errors.Is(err, crypt.ErrAuthentication) {
			return nil, err
		}
		return nil, fmt.Errorf("engine: retrieve: %w", err)
	}

	count := rec.DownloadCount + 1
	autoDeleted := false
	if rec.AutoDelete {
		_, _ = e.Store.Delete(id)
		_, _ = e.Ledger.Delete(id)
		autoDeleted = true
		e.Logger.Info("auto-delete file removed after download", "id", id)
	} else {
		if _, err := e.Ledger.Update(id, metadata.Updates{DownloadCount: &count}); err != nil {
			e.Logger.Warn("download count update failed", "id", id, "error", err)
		}
	}

	e.Logger.Info("file downloaded",
		"id", id,
		"name", rec.OriginalName,
		"count", count,
		"auto_deleted", autoDeleted)

	return &DownloadResult{
		Path:          path,
		Filename:      rec.OriginalName,
		Size:          rec.Size,
		DownloadCount: count,
		AutoDeleted:   autoDeleted,
	}, nil
}

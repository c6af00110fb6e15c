package metadata

import "time"

// Record describes one stored object. Persisted as a value in the
// metadata document, keyed by the canonical storage key.
type Record struct {
	// ID is the dashed canonical identifier, unique in the ledger.
	ID string `json:"id"`

	// OriginalName is the user-supplied filename. May contain
	// arbitrary characters; never used directly as a path.
	OriginalName string `json:"original_name"`

	// StoredName is the object filename, derived from ID.
	StoredName string `json:"stored_name"`

	// Size is the plaintext byte length at upload time.
	Size int64 `json:"size"`

	// UploadTime is when the object was stored, UTC.
	UploadTime time.Time `json:"upload_time"`

	// ExpiryTime is when the object becomes unavailable. Nil means
	// never expires.
	ExpiryTime *time.Time `json:"expiry_time,omitempty"`

	// DownloadCount increments exactly once per successful restore.
	DownloadCount int `json:"download_count"`

	// AutoDelete removes the object after its first restore.
	// Immutable after creation.
	AutoDelete bool `json:"auto_delete"`

	// EncryptionKey is the encoded per-object key. Stored alongside
	// the rest of the record: the ledger is the sole trust boundary
	// for retrieval in this single-user tool.
	EncryptionKey string `json:"encryption_key"`

	// Note is free-form uploader text, display-only.
	Note string `json:"note,omitempty"`
}

// Expired reports whether the record's expiry is at or before now.
// Records without an expiry never expire.
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiryTime != nil && !r.ExpiryTime.After(now)
}

// clone returns a copy so callers cannot mutate ledger-held state.
func (r *Record) clone() *Record {
	copied := *r
	if r.ExpiryTime != nil {
		t := *r.ExpiryTime
		copied.ExpiryTime = &t
	}
	return &copied
}

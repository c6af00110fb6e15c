package vault

import (
	"sort"

	"github.com/safedroporg/safedrop-go/metadata"
)

// List returns all records, newest upload first.
func (e *Engine) List() ([]*metadata.Record, error) {
	records, err := e.Ledger.ListAll()
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UploadTime.After(records[j].UploadTime)
	})
	return records, nil
}

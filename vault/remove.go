package vault

import (
	"fmt"

	"github.com/safedroporg/safedrop-go/fileid"
)

// Remove deletes a deposited file and its record. The object is
// removed before the record so a crash cannot leave an unreachable
// object behind. Returns false when the ID resolves to nothing.
func (e *Engine) Remove(id string) (bool, error) {
	if !fileid.IsValidFormat(id) {
		return false, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	id = fileid.Normalize(id)

	_, hadRecord, err := e.Ledger.Get(id)
	if err != nil {
		return false, err
	}

	hadObject, err := e.Store.Delete(id)
	if err != nil {
		return false, fmt.Errorf("engine: delete object: %w", err)
	}
	if hadRecord {
		if _, err := e.Ledger.Delete(id); err != nil {
			return false, fmt.Errorf("engine: delete record: %w", err)
		}
	}

	removed := hadRecord || hadObject
	if removed {
		e.Logger.Info("file removed", "id", id)
	}
	return removed, nil
}

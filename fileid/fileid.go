// Package fileid implements the SafeDrop identifier scheme: short
// human-shareable codes that address one stored object each.
//
// IDs are 12 characters drawn from a restricted alphabet (no 0/O, no
// 1/I/l lookalikes), displayed as three dash-separated groups of four
// (XXXX-XXXX-XXXX). The dashes are purely cosmetic; the canonical
// storage key is the stripped, upper-cased form.
package fileid

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// Alphabet is the restricted ID character set: uppercase letters
	// and digits with visually ambiguous symbols (0, O, 1, I) removed.
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// Length is the number of alphabet symbols in an ID, excluding
	// separators. 32^12 ≈ 1.15e18 possible IDs.
	Length = 12

	// Separator joins the display groups of an ID.
	Separator = "-"
)

// groupSize is the number of symbols per display group.
const groupSize = Length / 3

// Generate produces a new random file ID in dashed canonical form.
// Each symbol is drawn uniformly and independently from Alphabet
// using a cryptographically secure source.
func Generate() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("fileid: read random: %w", err)
	}

	// len(Alphabet) is 32, which divides 256 evenly, so the modulo
	// mapping is unbiased.
	symbols := make([]byte, Length)
	for i, b := range buf {
		symbols[i] = Alphabet[int(b)%len(Alphabet)]
	}

	return insertSeparators(string(symbols)), nil
}

// Normalize canonicalizes a user-provided ID: whitespace is trimmed,
// the string is upper-cased, and separators are removed. If exactly
// Length symbols remain, separators are re-inserted in canonical
// positions. Inputs of any other length are returned trimmed and
// upper-cased but otherwise unmodified, so format validation can
// reject them downstream.
func Normalize(id string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(id))
	raw := strings.NewReplacer(Separator, "", " ", "").Replace(trimmed)
	if len(raw) == Length {
		return insertSeparators(raw)
	}
	return trimmed
}

// IsValidFormat reports whether id is a well-formed file ID. Both
// dashed (XXXX-XXXX-XXXX) and plain (XXXXXXXXXXXX) forms are accepted.
func IsValidFormat(id string) bool {
	raw := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(id)), Separator, "")
	if len(raw) != Length {
		return false
	}
	for _, c := range raw {
		if !strings.ContainsRune(Alphabet, c) {
			return false
		}
	}
	return true
}

// StorageKey returns the canonical storage key for an ID: separators
// stripped and upper-cased. This key is the metadata map key and the
// stored filename stem. The alphabet contains no path separators and
// no dots, so a valid key can never carry ".." or escape a directory.
func StorageKey(id string) string {
	return strings.ToUpper(strings.ReplaceAll(id, Separator, ""))
}

// insertSeparators formats a stripped Length-symbol ID into its
// dashed display form.
func insertSeparators(raw string) string {
	return raw[:groupSize] + Separator + raw[groupSize:2*groupSize] + Separator + raw[2*groupSize:]
}

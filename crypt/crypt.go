// Package crypt implements the SafeDrop encryption codec: symmetric
// authenticated encryption of whole files, keyed per stored object.
//
// Key derivation formula:
//
//	aes_key = HKDF-SHA256(object_key, salt, "safedrop-file-encryption")
//
// where object_key is 32 fresh random bytes generated at upload time
// and salt is 16 fresh random bytes generated per encryption. The
// ciphertext is self-contained: salt and nonce travel inside it, so
// the caller only keeps the encoded object key.
//
// Object keys live in the metadata document beside the records they
// unlock. The codec protects stored objects against disclosure on
// their own; it does not defend against a reader of the metadata file.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
)

const (
	// HKDFInfo is the constant info string used in HKDF-SHA256 key derivation.
	HKDFInfo = "safedrop-file-encryption"

	// KeyLen is the length of the raw object key in bytes.
	KeyLen = 32

	// SaltLen is the length of the per-encryption HKDF salt in bytes.
	SaltLen = 16

	// NonceLen is the length of the AES-GCM nonce in bytes.
	NonceLen = 12

	// GCMTagLen is the length of the GCM authentication tag in bytes.
	GCMTagLen = 16

	// MinCiphertextLen is the minimum valid ciphertext length
	// (salt + nonce + tag); anything shorter has been truncated.
	MinCiphertextLen = SaltLen + NonceLen + GCMTagLen
)

// keyEncoding encodes raw object keys for storage in the metadata
// document. Raw URL base64 keeps the value JSON- and filename-safe.
var keyEncoding = base64.RawURLEncoding

// GenerateKey produces a fresh random object key, encoded for storage.
// Keys are independent per call and never reused across objects.
func GenerateKey() (string, error) {
	raw := make([]byte, KeyLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("crypt: generate key: %w", err)
	}
	return keyEncoding.EncodeToString(raw), nil
}

// decodeKey decodes and validates a stored object key.
func decodeKey(key string) ([]byte, error) {
	raw, err := keyEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if len(raw) != KeyLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(raw), KeyLen)
	}
	return raw, nil
}

// deriveAESKey expands an object key into the AES-256 key using
// HKDF-SHA256 with the given salt.
func deriveAESKey(objectKey, salt []byte) ([]byte, error) {
	hkdfReader := hkdf.New(sha256.New, objectKey, salt, []byte(HKDFInfo))
	aesKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, aesKey); err != nil {
		return nil, fmt.Errorf("crypt: HKDF derivation: %w", err)
	}
	return aesKey, nil
}

// Encrypt seals plaintext under the given encoded object key.
//
// Output format: salt(16B) || nonce(12B) || AES-256-GCM(plaintext) || tag(16B).
// The output is indistinguishable from random without the key and
// embeds authentication, so tampering is detectable at decrypt time.
func Encrypt(plaintext []byte, key string) ([]byte, error) {
	objectKey, err := decodeKey(key)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("crypt: generate salt: %w", err)
	}

	aesKey, err := deriveAESKey(objectKey, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("crypt: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: create GCM: %w", err)
	}

	nonce := make([]byte, NonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypt: generate nonce: %w", err)
	}

	out := make([]byte, 0, SaltLen+NonceLen+len(plaintext)+GCMTagLen)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// Decrypt opens a ciphertext produced by Encrypt. It fails with
// ErrAuthentication when the key is wrong or the ciphertext has been
// altered or truncated; corrupted plaintext is never returned.
func Decrypt(ciphertext []byte, key string) ([]byte, error) {
	objectKey, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < MinCiphertextLen {
		return nil, fmt.Errorf("%w: ciphertext truncated (%d bytes)", ErrAuthentication, len(ciphertext))
	}

	salt := ciphertext[:SaltLen]
	nonce := ciphertext[SaltLen : SaltLen+NonceLen]
	sealed := ciphertext[SaltLen+NonceLen:]

	aesKey, err := deriveAESKey(objectKey, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("crypt: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return plaintext, nil
}

// EncryptFile encrypts the file at src and writes the ciphertext to
// dest, creating parent directories as needed.
//
// The file is processed as one buffer; sizes are bounded by the upload
// cap enforced before any encryption happens.
func EncryptFile(src, dest, key string) error {
	plaintext, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("crypt: read source: %w", err)
	}

	ciphertext, err := Encrypt(plaintext, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0700); err != nil {
		return fmt.Errorf("crypt: create destination directory: %w", err)
	}
	if err := os.WriteFile(dest, ciphertext, 0600); err != nil {
		return fmt.Errorf("crypt: write ciphertext: %w", err)
	}
	return nil
}

// DecryptFile decrypts the file at src and writes the plaintext to
// dest. Authentication happens before dest is created, so a wrong key
// or corrupted ciphertext leaves no partial output behind.
func DecryptFile(src, dest, key string) error {
	ciphertext, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("crypt: read ciphertext: %w", err)
	}

	plaintext, err := Decrypt(ciphertext, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0700); err != nil {
		return fmt.Errorf("crypt: create destination directory: %w", err)
	}
	if err := os.WriteFile(dest, plaintext, 0600); err != nil {
		return fmt.Errorf("crypt: write plaintext: %w", err)
	}
	return nil
}

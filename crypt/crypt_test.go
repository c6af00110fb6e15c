package crypt

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestKey generates a key, failing the test on error.
func newTestKey(t *testing.T) string {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	return key
}

// --- GenerateKey tests ---

func TestGenerateKey(t *testing.T) {
	key := newTestKey(t)
	raw, err := decodeKey(key)
	require.NoError(t, err)
	assert.Len(t, raw, KeyLen)
}

func TestGenerateKey_Independent(t *testing.T) {
	k1 := newTestKey(t)
	k2 := newTestKey(t)
	assert.NotEqual(t, k1, k2)
}

// --- Encrypt / Decrypt round-trip tests ---

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"single byte", []byte{0x42}},
		{"text", []byte("hello, safedrop")},
		{"binary with zeros", []byte{0x00, 0x01, 0x00, 0xff, 0x00}},
	}

	key := newTestKey(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ciphertext, err := Encrypt(tc.plaintext, key)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(ciphertext), MinCiphertextLen)

			plaintext, err := Decrypt(ciphertext, key)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tc.plaintext, plaintext))
		})
	}
}

func TestRoundTrip_MultiMegabyte(t *testing.T) {
	plaintext := make([]byte, 3*1024*1024)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	key := newTestKey(t)
	ciphertext, err := Encrypt(plaintext, key)
	require.NoError(t, err)

	decrypted, err := Decrypt(ciphertext, key)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(plaintext, decrypted))
}

func TestEncrypt_OutputDiffersPerCall(t *testing.T) {
	// Fresh salt and nonce per call: identical plaintext must not
	// produce identical ciphertext.
	key := newTestKey(t)
	plaintext := []byte("same content")

	c1, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	c2, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2)
}

// --- Authentication failure tests ---

func TestDecrypt_WrongKey(t *testing.T) {
	k1 := newTestKey(t)
	k2 := newTestKey(t)

	ciphertext, err := Encrypt([]byte("secret"), k1)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, k2)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestDecrypt_Tampered(t *testing.T) {
	key := newTestKey(t)
	ciphertext, err := Encrypt([]byte("secret content"), key)
	require.NoError(t, err)

	// Flip one bit in the sealed portion.
	tampered := append([]byte(nil), ciphertext...)
	tampered[len(tampered)-1] ^= 0x01

	_, err = Decrypt(tampered, key)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestDecrypt_Truncated(t *testing.T) {
	key := newTestKey(t)
	ciphertext, err := Encrypt([]byte("secret content"), key)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext[:MinCiphertextLen-1], key)
	assert.ErrorIs(t, err, ErrAuthentication)

	_, err = Decrypt(nil, key)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestDecrypt_InvalidKey(t *testing.T) {
	key := newTestKey(t)
	ciphertext, err := Encrypt([]byte("x"), key)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, "not-base64!!!")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = Decrypt(ciphertext, keyEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

// --- File codec tests ---

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.txt")
	enc := filepath.Join(dir, "nested", "cipher.sdf")
	out := filepath.Join(dir, "restored.txt")

	content := []byte("file content for the round trip")
	require.NoError(t, os.WriteFile(src, content, 0600))

	key := newTestKey(t)
	require.NoError(t, EncryptFile(src, enc, key))

	// Stored bytes must not contain the plaintext.
	stored, err := os.ReadFile(enc)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(stored, content))

	require.NoError(t, DecryptFile(enc, out, key))
	restored, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, content, restored)
}

func TestDecryptFile_WrongKeyLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.txt")
	enc := filepath.Join(dir, "cipher.sdf")
	out := filepath.Join(dir, "restored.txt")

	require.NoError(t, os.WriteFile(src, []byte("content"), 0600))
	require.NoError(t, EncryptFile(src, enc, newTestKey(t)))

	err := DecryptFile(enc, out, newTestKey(t))
	assert.ErrorIs(t, err, ErrAuthentication)

	// Authentication happens before the destination is created.
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEncryptFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := EncryptFile(filepath.Join(dir, "absent"), filepath.Join(dir, "out"), newTestKey(t))
	assert.Error(t, err)
}

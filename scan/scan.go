// Package scan implements the SafeDrop threat scanner: an ordered
// pipeline of independent content checks run against a file before it
// is accepted for storage.
//
// Four checks run in a fixed order; the first rejection terminates the
// pipeline and its reason becomes the verdict. Checks that cannot read
// the file pass it through (fail open): an upload is never blocked
// solely because a check could not re-read the file. The scanner never
// mutates or moves the file it inspects.
package scan

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Verdict is the outcome of a check or of the whole pipeline. Reason
// is empty when Safe is true and human-readable when it is false.
type Verdict struct {
	Safe   bool
	Reason string
}

// safe is the passing verdict shared by all checks.
var safe = Verdict{Safe: true}

func rejected(format string, args ...any) Verdict {
	return Verdict{Safe: false, Reason: fmt.Sprintf(format, args...)}
}

// Check is one named threat check. Checks are pure functions of the
// file path and are independently callable for targeted testing.
type Check struct {
	Name string
	Fn   func(path string) Verdict
}

// Checks returns the pipeline in execution order.
func Checks() []Check {
	return []Check{
		{"extension", CheckExtension},
		{"signature", CheckSignature},
		{"entropy", CheckEntropy},
		{"patterns", CheckPatterns},
	}
}

// Scan runs all checks against the file at path and returns the first
// rejection, or a safe verdict when every check passes.
func Scan(path string) Verdict {
	for _, check := range Checks() {
		if v := check.Fn(path); !v.Safe {
			return v
		}
	}
	return safe
}

// CheckExtension rejects filenames whose suffix is on the dangerous
// extension deny-list. The comparison is case-insensitive.
func CheckExtension(path string) Verdict {
	ext := strings.ToLower(filepath.Ext(path))
	if _, found := dangerousExtensions[ext]; found {
		return rejected("dangerous file extension detected: %q", ext)
	}
	return safe
}

// CheckSignature reads the file header and compares it against known
// executable and container signatures. An unreadable file passes.
func CheckSignature(path string) Verdict {
	f, err := os.Open(path)
	if err != nil {
		return safe // fail open
	}
	defer f.Close()

	header := make([]byte, headerLen)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return safe // fail open
	}
	header = header[:n]

	for _, sig := range dangerousSignatures {
		end := sig.Offset + len(sig.Pattern)
		if end > len(header) {
			continue
		}
		if bytes.Equal(header[sig.Offset:end], sig.Pattern) {
			return rejected("dangerous file signature detected: %s", sig.Description)
		}
	}
	return safe
}

// CheckEntropy computes Shannon entropy over a bounded leading sample
// of the file and rejects values above EntropyThreshold. Samples
// smaller than EntropyMinSize are exempt. An unreadable file passes.
func CheckEntropy(path string) Verdict {
	f, err := os.Open(path)
	if err != nil {
		return safe // fail open
	}
	defer f.Close()

	sample := make([]byte, EntropySampleSize)
	n, err := io.ReadFull(f, sample)
	if err != nil && err != io.ErrUnexpectedEOF {
		return safe // fail open
	}
	sample = sample[:n]

	if len(sample) < EntropyMinSize {
		return safe
	}

	entropy := shannonEntropy(sample)
	if entropy > EntropyThreshold {
		return rejected("suspiciously high entropy (%.2f/8.0): file may be packed, encrypted, or obfuscated", entropy)
	}
	return safe
}

// CheckPatterns searches the full content of small files for known
// malicious command and script fragments, case-insensitively. Files
// over MaxPatternScanSize are exempt; an unreadable file passes.
func CheckPatterns(path string) Verdict {
	info, err := os.Stat(path)
	if err != nil {
		return safe // fail open
	}
	if info.Size() > MaxPatternScanSize {
		return safe // too large to pattern-scan efficiently
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return safe // fail open
	}

	upper := bytes.ToUpper(content)
	for _, pattern := range suspiciousPatterns {
		if bytes.Contains(upper, bytes.ToUpper(pattern)) {
			return rejected("suspicious script pattern detected: %q", string(pattern))
		}
	}
	return safe
}

// shannonEntropy returns the base-2 Shannon entropy of data in bits
// per byte (0.0 through 8.0).
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}
	length := float64(len(data))
	entropy := 0.0
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

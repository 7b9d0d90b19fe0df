package conversion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const fingerprintChunkSize = 32 * 1024

// Fingerprint derives the content key for an artifact and its
// conversion parameters: a SHA-256 over the artifact bytes followed by
// the canonicalized parameter string. The digest doubles as the storage
// key, so it must be stable across processes and collision-resistant.
func Fingerprint(r io.Reader, params map[string]string) (string, error) {
	h := sha256.New()
	buf := make([]byte, fingerprintChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}
	h.Write([]byte(canonicalParams(params)))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintFile fingerprints the file at path without loading it
// into memory at once.
func FingerprintFile(path string, params map[string]string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	return Fingerprint(f, params)
}

// canonicalParams serializes parameters sorted lexicographically by
// key, so semantically identical sets always hash identically
// regardless of construction order.
func canonicalParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

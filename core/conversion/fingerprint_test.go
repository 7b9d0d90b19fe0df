package conversion

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestFingerprintDeterminism(t *testing.T) {
	data := []byte("model weights")
	params := map[string]string{"format": "coreml", "nms": "true"}

	first, err := Fingerprint(bytes.NewReader(data), params)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	second, err := Fingerprint(bytes.NewReader(data), params)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if first != second {
		t.Fatalf("fingerprint not deterministic: %s vs %s", first, second)
	}
	if len(first) != hex.EncodedLen(sha256.Size) {
		t.Fatalf("unexpected digest length: %d", len(first))
	}
}

func TestFingerprintMatchesHashConstruction(t *testing.T) {
	data := []byte("bytes under test")
	params := map[string]string{"b": "2", "a": "1"}

	got, err := Fingerprint(bytes.NewReader(data), params)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	h := sha256.New()
	h.Write(data)
	h.Write([]byte("a=1;b=2"))
	want := hex.EncodeToString(h.Sum(nil))
	if got != want {
		t.Fatalf("content-then-canonical-params order broken: got %s want %s", got, want)
	}
}

func TestFingerprintParameterOrderInvariance(t *testing.T) {
	data := []byte("same bytes")
	a, err := Fingerprint(bytes.NewReader(data), map[string]string{"a": "1", "b": "2", "c": "3"})
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	b, err := Fingerprint(bytes.NewReader(data), map[string]string{"c": "3", "b": "2", "a": "1"})
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if a != b {
		t.Fatalf("parameter order changed the fingerprint")
	}
}

func TestFingerprintContentSensitivity(t *testing.T) {
	params := map[string]string{"format": "coreml"}
	a, _ := Fingerprint(bytes.NewReader([]byte("weights-a")), params)
	b, _ := Fingerprint(bytes.NewReader([]byte("weights-b")), params)
	if a == b {
		t.Fatalf("distinct content produced identical fingerprints")
	}

	c, _ := Fingerprint(bytes.NewReader([]byte("weights-a")), map[string]string{"format": "onnx"})
	if a == c {
		t.Fatalf("distinct parameters produced identical fingerprints")
	}
}

func TestFingerprintFile(t *testing.T) {
	data := bytes.Repeat([]byte("chunked artifact content "), 10000)
	path := filepath.Join(t.TempDir(), "model.pt")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	params := map[string]string{"format": "coreml"}

	fromFile, err := FingerprintFile(path, params)
	if err != nil {
		t.Fatalf("fingerprint file: %v", err)
	}
	fromBytes, err := Fingerprint(bytes.NewReader(data), params)
	if err != nil {
		t.Fatalf("fingerprint bytes: %v", err)
	}
	if fromFile != fromBytes {
		t.Fatalf("streamed fingerprint diverged from in-memory fingerprint")
	}
}

func TestFingerprintFileMissing(t *testing.T) {
	if _, err := FingerprintFile(filepath.Join(t.TempDir(), "nope.pt"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestCanonicalParams(t *testing.T) {
	if got := canonicalParams(nil); got != "" {
		t.Fatalf("expected empty canonical form, got %q", got)
	}
	got := canonicalParams(map[string]string{"z": "26", "a": "1", "m": "13"})
	if got != "a=1;m=13;z=26" {
		t.Fatalf("unexpected canonical form: %q", got)
	}
}

package conversion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"
)

// Converter is the opaque external conversion routine: it takes a local
// model file plus a parameter map and produces a directory-shaped
// output artifact, or fails.
type Converter interface {
	Convert(ctx context.Context, modelPath string, params map[string]string) (string, error)
}

// CheckContainer rejects inputs that are not the expected model
// container before the expensive conversion runs. PyTorch weights are
// either zip archives (modern serialization) or legacy pickle streams.
func CheckContainer(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return fmt.Errorf("%w: file too short", ErrInvalidArtifact)
	}
	if bytes.HasPrefix(magic, []byte("PK\x03\x04")) {
		return nil
	}
	if magic[0] == 0x80 && magic[1] <= 0x05 {
		return nil
	}
	return fmt.Errorf("%w: unrecognized container magic %x", ErrInvalidArtifact, magic)
}

// ExecConverter shells out to a configured converter command:
//
//	<command> <model-path> <output-dir> [key=value ...]
//
// The command must create exactly one *.mlpackage directory under
// output-dir. Its stderr is captured into the failure detail.
type ExecConverter struct {
	Command string
	Timeout time.Duration
}

func (c *ExecConverter) Convert(ctx context.Context, modelPath string, params map[string]string) (string, error) {
	if c.Command == "" {
		return "", fmt.Errorf("%w: converter command not configured", ErrConvert)
	}
	outDir := filepath.Join(filepath.Dir(modelPath), "converted")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %v", ErrConvert, err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := []string{modelPath, outDir}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, k+"="+params[k])
	}

	// #nosec G204 -- command comes from operator config, args are built here.
	cmd := exec.CommandContext(ctx, c.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := stderr.String()
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("%w: %s", ErrConvert, detail)
	}

	return findOutput(outDir)
}

// findOutput locates the single .mlpackage directory the converter
// produced.
func findOutput(outDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(outDir, "*.mlpackage"))
	if err != nil {
		return "", fmt.Errorf("%w: scan output dir: %v", ErrConvert, err)
	}
	for _, m := range matches {
		info, err := os.Stat(m)
		if err == nil && info.IsDir() {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: output package not created", ErrConvert)
}

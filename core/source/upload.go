package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type uploadResolver struct {
	content  []byte
	maxBytes int64
}

func (r *uploadResolver) Fetch(ctx context.Context, dir string) (Artifact, error) {
	if len(r.content) == 0 {
		return Artifact{}, fmt.Errorf("%w: empty upload", ErrInvalidReference)
	}
	if r.maxBytes > 0 && int64(len(r.content)) > r.maxBytes {
		return Artifact{}, fmt.Errorf("%w: upload exceeds %d bytes", ErrInvalidReference, r.maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	path := filepath.Join(dir, artifactFileName)
	if err := os.WriteFile(path, r.content, 0o600); err != nil {
		return Artifact{}, fmt.Errorf("%w: write upload: %v", ErrUnavailable, err)
	}
	return Artifact{Path: path, Size: int64(len(r.content))}, nil
}

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const artifactFileName = "model.pt"

// fetchURL streams a remote file into dir. The body is written to a
// .partial scratch file and renamed only after the stream closes
// cleanly, so a truncated download never becomes visible as a finished
// artifact.
func fetchURL(ctx context.Context, client *http.Client, rawURL string, header http.Header, dir string) (Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %s", ErrInvalidReference, rawURL)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return Artifact{}, fmt.Errorf("%w: %s", ErrAuthRequired, rawURL)
	case http.StatusForbidden:
		return Artifact{}, fmt.Errorf("%w: %s", ErrAccessDenied, rawURL)
	case http.StatusNotFound:
		return Artifact{}, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	default:
		return Artifact{}, fmt.Errorf("%w: status %d from %s", ErrUnavailable, resp.StatusCode, rawURL)
	}

	partial := filepath.Join(dir, artifactFileName+".partial")
	f, err := os.Create(partial)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: create scratch file: %v", ErrUnavailable, err)
	}
	n, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(partial)
		return Artifact{}, fmt.Errorf("%w: stream interrupted after %d bytes: %v", ErrUnavailable, n, err)
	}

	final := filepath.Join(dir, artifactFileName)
	if err := os.Rename(partial, final); err != nil {
		os.Remove(partial)
		return Artifact{}, fmt.Errorf("%w: finalize download: %v", ErrUnavailable, err)
	}
	return Artifact{Path: final, Size: n}, nil
}

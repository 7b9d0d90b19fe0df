package source

import (
	"context"
	"net/http"
	"strings"
)

type huggingfaceResolver struct {
	locator string
	token   string
	client  *http.Client
}

// ResolveURL rewrites a Hugging Face model-page URL into the form that
// serves the binary directly.
//
//	.../YOLO11/blob/main/yolo11m.pt -> .../YOLO11/resolve/main/yolo11m.pt
func ResolveURL(u string) string {
	return strings.Replace(u, "/blob/", "/resolve/", 1)
}

func (r *huggingfaceResolver) Fetch(ctx context.Context, dir string) (Artifact, error) {
	if strings.TrimSpace(r.locator) == "" {
		return Artifact{}, ErrInvalidReference
	}
	header := http.Header{}
	if r.token != "" {
		header.Set("Authorization", "Bearer "+r.token)
	}
	return fetchURL(ctx, r.client, ResolveURL(r.locator), header, dir)
}

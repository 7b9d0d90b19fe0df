package source

import (
	"context"
	"net/http"
	"strings"
)

type githubResolver struct {
	locator string
	token   string
	client  *http.Client
}

// RawContentURL rewrites a human-facing github.com file URL into its
// raw-content form. URLs already pointing at raw content pass through.
func RawContentURL(u string) string {
	if strings.Contains(u, "github.com") {
		u = strings.Replace(u, "github.com", "raw.githubusercontent.com", 1)
		u = strings.Replace(u, "/blob/", "/", 1)
	}
	return u
}

func (r *githubResolver) Fetch(ctx context.Context, dir string) (Artifact, error) {
	if strings.TrimSpace(r.locator) == "" {
		return Artifact{}, ErrInvalidReference
	}
	header := http.Header{}
	if r.token != "" {
		header.Set("Authorization", "token "+r.token)
	}
	return fetchURL(ctx, r.client, RawContentURL(r.locator), header, dir)
}

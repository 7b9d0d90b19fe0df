// Package source resolves artifact references into local files. A
// reference is either an inline upload or a remote locator on a known
// host dialect; every variant lands the bytes in a caller-owned scratch
// directory through a single streamed pass.
package source

import (
	"context"
	"net/http"
	"time"
)

// Kind tags the closed set of supported source dialects.
type Kind string

const (
	KindUpload      Kind = "upload"
	KindGitHub      Kind = "github"
	KindHuggingFace Kind = "huggingface"
)

// ParseKind validates a source kind string.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindUpload, KindGitHub, KindHuggingFace:
		return Kind(s), true
	}
	return "", false
}

// Reference addresses an artifact. Immutable once constructed: either
// Content (upload) or Locator+Credential (remote) is populated.
type Reference struct {
	Kind       Kind
	Content    []byte
	Locator    string
	Credential string
}

// Artifact is a resolved local copy of the referenced model.
type Artifact struct {
	Path string
	Size int64
}

// Resolver fetches the referenced bytes into dir.
type Resolver interface {
	Fetch(ctx context.Context, dir string) (Artifact, error)
}

// Options configures resolver construction.
type Options struct {
	// MaxUploadBytes bounds inline uploads. Zero means no bound.
	MaxUploadBytes int64

	// HTTPClient is used for remote fetches. Nil selects a client
	// with a bounded timeout.
	HTTPClient *http.Client
}

const defaultFetchTimeout = 5 * time.Minute

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: defaultFetchTimeout}
}

// For returns the resolver for a reference, dispatching on its kind.
func For(ref Reference, opts Options) (Resolver, error) {
	switch ref.Kind {
	case KindUpload:
		return &uploadResolver{content: ref.Content, maxBytes: opts.MaxUploadBytes}, nil
	case KindGitHub:
		return &githubResolver{locator: ref.Locator, token: ref.Credential, client: opts.client()}, nil
	case KindHuggingFace:
		return &huggingfaceResolver{locator: ref.Locator, token: ref.Credential, client: opts.client()}, nil
	}
	return nil, ErrInvalidReference
}

// Package objectstore provides the content-addressed store for packaged
// model artifacts. Keys are derived from artifact fingerprints, so the
// store itself is the conversion cache: an object existing at a key means
// that conversion has already run.
package objectstore

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the store transport failed. A clean not-found
// probe is never reported through this error.
var ErrUnavailable = errors.New("objectstore: store unavailable")

// PackagedExt is the extension of packaged conversion outputs.
const PackagedExt = ".mlpackage.zip"

// ObjectKey derives the storage key for a fingerprint.
func ObjectKey(fingerprint string) string {
	return "models/" + fingerprint + PackagedExt
}

// Grant is a time-bounded capability to read a stored object.
type Grant struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Config holds the store client settings. It is constructed explicitly
// at startup and never mutated.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Insecure  bool
}

// Store is the object space holding packaged artifacts.
type Store interface {
	// Exists probes for an object by key. Not-found is (false, nil);
	// only transport failures return an error.
	Exists(ctx context.Context, key string) (bool, error)

	// Put uploads the file at localPath under key. Overwriting a key
	// with identical bytes is safe; keys are content-derived.
	Put(ctx context.Context, localPath, key string) error

	// PresignGet issues an independent signed read URL valid for ttl.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (Grant, error)
}

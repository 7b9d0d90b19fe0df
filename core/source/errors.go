package source

import "errors"

// Sentinel errors mapping the remote-source contract. Use errors.Is()
// to classify failures; every resolver wraps exactly one of these.
var (
	// ErrAuthRequired indicates the source rejected the request for
	// missing or bad credentials (HTTP 401).
	ErrAuthRequired = errors.New("source: authentication required")

	// ErrAccessDenied indicates the credential was insufficient
	// (HTTP 403).
	ErrAccessDenied = errors.New("source: access denied")

	// ErrNotFound indicates the locator does not resolve to a file
	// (HTTP 404).
	ErrNotFound = errors.New("source: not found")

	// ErrUnavailable indicates any other transport or status failure;
	// the wrapped detail carries the raw status for diagnostics.
	ErrUnavailable = errors.New("source: unavailable")

	// ErrInvalidReference indicates a malformed or empty reference.
	ErrInvalidReference = errors.New("source: invalid reference")
)

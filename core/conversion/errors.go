package conversion

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yoloverlay/model-service/core/infra/objectstore"
	"github.com/yoloverlay/model-service/core/source"
)

// FailureKind is the machine-distinguishable classification attached to
// every terminal request failure.
type FailureKind string

const (
	KindSourceAuthRequired FailureKind = "source_auth_required"
	KindSourceAccessDenied FailureKind = "source_access_denied"
	KindSourceNotFound     FailureKind = "source_not_found"
	KindSourceUnavailable  FailureKind = "source_unavailable"
	KindInvalidArtifact    FailureKind = "invalid_artifact"
	KindConversionError    FailureKind = "conversion_error"
	KindPackagingError     FailureKind = "packaging_error"
	KindStoreError         FailureKind = "store_error"
	KindInternalError      FailureKind = "internal_error"
)

// Sentinel errors for the pipeline stages owned by this package.
var (
	// ErrInvalidArtifact indicates the input is not the expected
	// model container.
	ErrInvalidArtifact = errors.New("conversion: not a valid model container")

	// ErrConvert indicates the external conversion routine failed.
	ErrConvert = errors.New("conversion: converter failed")

	// ErrPackaging indicates the conversion output could not be
	// archived.
	ErrPackaging = errors.New("conversion: packaging failed")
)

// Failure is a classified terminal error carrying the kind plus a
// human-readable detail. No automatic retry happens inside this
// subsystem; the caller gets enough structure to decide.
type Failure struct {
	Kind   FailureKind
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// HTTPStatus maps a failure kind onto the outbound status code.
func (k FailureKind) HTTPStatus() int {
	switch k {
	case KindSourceAuthRequired:
		return http.StatusUnauthorized
	case KindSourceAccessDenied:
		return http.StatusForbidden
	case KindSourceNotFound:
		return http.StatusNotFound
	case KindSourceUnavailable:
		return http.StatusBadGateway
	case KindInvalidArtifact:
		return http.StatusBadRequest
	case KindConversionError:
		return http.StatusUnprocessableEntity
	case KindPackagingError:
		return http.StatusInternalServerError
	case KindStoreError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Classify wraps err into a Failure with exactly one taxonomy kind.
// Already-classified failures pass through unchanged.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	kind := KindInternalError
	switch {
	case errors.Is(err, source.ErrAuthRequired):
		kind = KindSourceAuthRequired
	case errors.Is(err, source.ErrAccessDenied):
		kind = KindSourceAccessDenied
	case errors.Is(err, source.ErrNotFound):
		kind = KindSourceNotFound
	case errors.Is(err, source.ErrUnavailable):
		kind = KindSourceUnavailable
	case errors.Is(err, source.ErrInvalidReference):
		kind = KindInvalidArtifact
	case errors.Is(err, ErrInvalidArtifact):
		kind = KindInvalidArtifact
	case errors.Is(err, ErrConvert):
		kind = KindConversionError
	case errors.Is(err, ErrPackaging):
		kind = KindPackagingError
	case errors.Is(err, objectstore.ErrUnavailable):
		kind = KindStoreError
	}
	return &Failure{Kind: kind, Detail: err.Error(), Err: err}
}

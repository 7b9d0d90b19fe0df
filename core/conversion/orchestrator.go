package conversion

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/yoloverlay/model-service/core/infra/logging"
	"github.com/yoloverlay/model-service/core/infra/metrics"
	"github.com/yoloverlay/model-service/core/infra/objectstore"
	"github.com/yoloverlay/model-service/core/source"
)

// Stage identifies a step of the conversion state machine.
type Stage string

const (
	StageResolving      Stage = "resolving"
	StageFingerprinting Stage = "fingerprinting"
	StageCacheCheck     Stage = "cache_check"
	StageConverting     Stage = "converting"
	StagePackaging      Stage = "packaging"
	StageUploading      Stage = "uploading"
	StageGranting       Stage = "granting"
	StageDone           Stage = "done"
	StageFailed         Stage = "failed"
)

// Event is a stage transition, published for observability only.
type Event struct {
	RequestID   string    `json:"request_id"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Stage       Stage     `json:"stage"`
	Detail      string    `json:"detail,omitempty"`
	Time        time.Time `json:"ts"`
}

// Request carries one conversion through the pipeline.
type Request struct {
	ID        string
	Reference source.Reference
	Name      string
	Params    map[string]string
}

// Metadata describes the converted model in the response.
type Metadata struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	FileSize    int64     `json:"file_size"`
	SourceURL   string    `json:"source_url,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Cached      bool      `json:"cached"`
	CreatedAt   time.Time `json:"created_at"`
}

// Result is returned only after a grant was issued; callers never see
// a partially valid result.
type Result struct {
	Grant    objectstore.Grant
	Metadata Metadata
}

// Orchestrator ties resolver, fingerprinter, converter and store
// together. It holds no cross-request state: independent requests
// proceed fully in parallel, and the store is the only shared
// resource. Two concurrent requests with the same fingerprint may both
// convert; identical bytes under the same key make that race harmless.
type Orchestrator struct {
	Store     objectstore.Store
	Converter Converter
	GrantTTL  time.Duration

	// MaxUploadBytes bounds inline uploads.
	MaxUploadBytes int64

	// HTTPClient overrides the remote-fetch client; nil uses a
	// bounded default.
	HTTPClient *http.Client

	// Metrics may be nil.
	Metrics metrics.ConversionMetrics

	// OnEvent, when set, receives stage transitions. Must not block.
	OnEvent func(Event)

	// WorkDir is where scratch directories are created. Empty means
	// the system temp dir.
	WorkDir string
}

// Run executes the state machine for one request. Every failure is
// terminal and classified; scratch files are removed on all exit
// paths.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	src := string(req.Reference.Kind)
	if o.Metrics != nil {
		o.Metrics.IncConversionsStarted(src)
	}

	res, err := o.run(ctx, req)
	if err != nil {
		failure := Classify(err)
		o.emit(req.ID, "", StageFailed, string(failure.Kind))
		if o.Metrics != nil {
			o.Metrics.IncConversionsCompleted(src, string(failure.Kind))
		}
		logging.Error("orchestrator", "conversion failed",
			"request_id", req.ID, "source", src, "kind", string(failure.Kind), "detail", failure.Detail)
		return nil, failure
	}

	if o.Metrics != nil {
		o.Metrics.IncConversionsCompleted(src, "ok")
		o.Metrics.ObserveConversionDuration(src, time.Since(started).Seconds())
	}
	o.emit(req.ID, res.Metadata.Fingerprint, StageDone, "")
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, req Request) (*Result, error) {
	scratch, err := os.MkdirTemp(o.WorkDir, "modelconv-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	// RESOLVING
	o.emit(req.ID, "", StageResolving, string(req.Reference.Kind))
	resolver, err := source.For(req.Reference, source.Options{
		MaxUploadBytes: o.MaxUploadBytes,
		HTTPClient:     o.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	artifact, err := resolver.Fetch(ctx, scratch)
	if err != nil {
		return nil, err
	}

	// FINGERPRINTING
	o.emit(req.ID, "", StageFingerprinting, "")
	fp, err := FingerprintFile(artifact.Path, req.Params)
	if err != nil {
		return nil, err
	}
	key := objectstore.ObjectKey(fp)

	name := req.Name
	if name == "" {
		name = "model_" + fp[:8]
	}

	// CACHE_CHECK: the existence probe is the single source of truth.
	// A hit means the expensive conversion never re-runs for this
	// fingerprint.
	o.emit(req.ID, fp, StageCacheCheck, key)
	exists, err := o.Store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	src := string(req.Reference.Kind)

	if exists {
		if o.Metrics != nil {
			o.Metrics.IncCacheHit(src)
		}
		logging.Info("orchestrator", "cache hit", "request_id", req.ID, "fingerprint", fp)
		o.emit(req.ID, fp, StageGranting, "")
		grant, err := o.Store.PresignGet(ctx, key, o.grantTTL())
		if err != nil {
			return nil, err
		}
		return &Result{
			Grant: grant,
			Metadata: Metadata{
				Name:        name,
				Description: describe(req, true),
				FileSize:    artifact.Size,
				SourceURL:   req.Reference.Locator,
				Fingerprint: fp,
				Cached:      true,
				CreatedAt:   time.Now().UTC(),
			},
		}, nil
	}
	if o.Metrics != nil {
		o.Metrics.IncCacheMiss(src)
	}

	// CONVERTING
	o.emit(req.ID, fp, StageConverting, "")
	if err := CheckContainer(artifact.Path); err != nil {
		return nil, err
	}
	outputDir, err := o.Converter.Convert(ctx, artifact.Path, req.Params)
	if err != nil {
		return nil, err
	}

	// PACKAGING
	o.emit(req.ID, fp, StagePackaging, "")
	renamed := filepath.Join(filepath.Dir(outputDir), name+".mlpackage")
	if renamed != outputDir {
		if err := os.Rename(outputDir, renamed); err != nil {
			return nil, fmt.Errorf("%w: rename output: %v", ErrPackaging, err)
		}
		outputDir = renamed
	}
	zipPath := filepath.Join(scratch, fp+objectstore.PackagedExt)
	if err := PackageOutput(outputDir, zipPath); err != nil {
		return nil, err
	}
	packageInfo, err := os.Stat(zipPath)
	if err != nil {
		return nil, fmt.Errorf("%w: stat package: %v", ErrPackaging, err)
	}

	// UPLOADING: the object is cached only once Put returns.
	o.emit(req.ID, fp, StageUploading, "")
	if err := o.Store.Put(ctx, zipPath, key); err != nil {
		return nil, err
	}

	// GRANTING: issuing a grant right after upload also verifies the
	// stored object is usable.
	o.emit(req.ID, fp, StageGranting, "")
	grant, err := o.Store.PresignGet(ctx, key, o.grantTTL())
	if err != nil {
		return nil, err
	}

	logging.Info("orchestrator", "conversion stored",
		"request_id", req.ID, "fingerprint", fp, "key", key, "size", packageInfo.Size())

	return &Result{
		Grant: grant,
		Metadata: Metadata{
			Name:        name,
			Description: describe(req, false),
			FileSize:    packageInfo.Size(),
			SourceURL:   req.Reference.Locator,
			Fingerprint: fp,
			Cached:      false,
			CreatedAt:   time.Now().UTC(),
		},
	}, nil
}

func (o *Orchestrator) grantTTL() time.Duration {
	if o.GrantTTL > 0 {
		return o.GrantTTL
	}
	return time.Hour
}

func (o *Orchestrator) emit(requestID, fingerprint string, stage Stage, detail string) {
	if o.OnEvent == nil {
		return
	}
	o.OnEvent(Event{
		RequestID:   requestID,
		Fingerprint: fingerprint,
		Stage:       stage,
		Detail:      detail,
		Time:        time.Now().UTC(),
	})
}

func describe(req Request, cached bool) string {
	origin := req.Reference.Locator
	if req.Reference.Kind == source.KindUpload {
		origin = "upload"
	}
	if cached {
		return fmt.Sprintf("model converted from %s (cached)", origin)
	}
	return fmt.Sprintf("model converted from %s", origin)
}

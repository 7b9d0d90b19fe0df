package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yoloverlay/model-service/core/conversion"
	"github.com/yoloverlay/model-service/core/infra/config"
	"github.com/yoloverlay/model-service/core/infra/logging"
	"github.com/yoloverlay/model-service/core/infra/records"
	"github.com/yoloverlay/model-service/core/source"
)

// bodySlack covers base64 expansion and the JSON envelope around an
// inline upload.
const bodySlack = int64(1 << 20)

type convertRequest struct {
	Source        string            `json:"source"`
	URL           string            `json:"url"`
	ContentBase64 string            `json:"content_base64"`
	Token         string            `json:"token"`
	Name          string            `json:"name"`
	Preset        string            `json:"preset"`
	Parameters    map[string]string `json:"parameters"`
}

type convertResponse struct {
	DownloadURL string              `json:"download_url"`
	ExpiresAt   time.Time           `json:"expires_at"`
	Metadata    conversion.Metadata `json:"metadata"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func writeFailure(w http.ResponseWriter, f *conversion.Failure) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.Kind.HTTPStatus())
	_ = json.NewEncoder(w).Encode(errorResponse{Error: string(f.Kind), Detail: f.Detail})
}

func writeBadRequest(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: "bad_request", Detail: detail})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (s *server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*4/3+bodySlack)
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json body")
		return
	}

	kind, ok := source.ParseKind(strings.TrimSpace(req.Source))
	if !ok {
		writeBadRequest(w, "source must be one of upload, github, huggingface")
		return
	}

	ref := source.Reference{Kind: kind, Locator: strings.TrimSpace(req.URL), Credential: req.Token}
	if kind == source.KindUpload {
		if req.ContentBase64 == "" {
			writeBadRequest(w, "content_base64 required for upload source")
			return
		}
		content, err := base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			writeBadRequest(w, "invalid base64 content")
			return
		}
		ref.Content = content
	} else if ref.Locator == "" {
		writeBadRequest(w, "url required for remote source")
		return
	}

	params, err := s.resolveParams(req.Preset, req.Parameters)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	convReq := conversion.Request{
		ID:        uuid.NewString(),
		Reference: ref,
		Name:      sanitizeName(req.Name),
		Params:    params,
	}

	logging.Info(component, "conversion requested",
		"request_id", convReq.ID, "source", string(kind), "name", convReq.Name)

	result, err := s.orch.Run(r.Context(), convReq)
	if err != nil {
		writeFailure(w, conversion.Classify(err))
		return
	}

	s.appendRecord(r.Context(), convReq, result)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(convertResponse{
		DownloadURL: result.Grant.URL,
		ExpiresAt:   result.Grant.ExpiresAt,
		Metadata:    result.Metadata,
	})
}

// defaultParams is the conversion parameter set used when the request
// names neither a preset nor explicit parameters.
var defaultParams = map[string]string{
	"format": "coreml",
	"nms":    "true",
	"imgsz":  "640",
}

// resolveParams merges preset parameters with request overrides.
func (s *server) resolveParams(preset string, overrides map[string]string) (map[string]string, error) {
	base := defaultParams
	if preset != "" {
		p, ok := s.presets.Lookup(preset)
		if !ok {
			return nil, &unknownPresetError{name: preset}
		}
		base = p
	}
	params := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		params[k] = v
	}
	for k, v := range overrides {
		params[k] = v
	}
	return params, nil
}

type unknownPresetError struct{ name string }

func (e *unknownPresetError) Error() string {
	return "unknown preset: " + e.name
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	return name
}

func (s *server) appendRecord(ctx context.Context, req conversion.Request, result *conversion.Result) {
	if s.records == nil {
		return
	}
	err := s.records.Append(ctx, records.Record{
		ID:          req.ID,
		Fingerprint: result.Metadata.Fingerprint,
		Name:        result.Metadata.Name,
		Source:      string(req.Reference.Kind),
		SourceURL:   req.Reference.Locator,
		SizeBytes:   result.Metadata.FileSize,
		Cached:      result.Metadata.Cached,
		CreatedAt:   result.Metadata.CreatedAt,
	})
	if err != nil {
		// History is advisory; a failed append never fails the request.
		logging.Error(component, "record append failed", "request_id", req.ID, "error", err)
	}
}

func (s *server) handleListConversions(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		http.Error(w, "conversion history disabled", http.StatusServiceUnavailable)
		return
	}
	limit := int64(50)
	if q := r.URL.Query().Get("limit"); q != "" {
		if v, err := strconv.ParseInt(q, 10, 64); err == nil && v > 0 {
			limit = v
		}
	}
	items, err := s.records.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

func (s *server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets := map[string]config.Preset{}
	if s.presets != nil {
		presets = s.presets.Presets
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"default": defaultParams,
		"presets": presets,
	})
}

// Package service exposes the model conversion pipeline over HTTP.
package service

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yoloverlay/model-service/core/conversion"
	"github.com/yoloverlay/model-service/core/infra/config"
	"github.com/yoloverlay/model-service/core/infra/logging"
	infraMetrics "github.com/yoloverlay/model-service/core/infra/metrics"
	"github.com/yoloverlay/model-service/core/infra/objectstore"
	"github.com/yoloverlay/model-service/core/infra/records"
)

const component = "model-service"

type server struct {
	cfg     *config.Config
	orch    *conversion.Orchestrator
	records *records.Store
	presets *config.PresetsConfig
	metrics infraMetrics.ServiceMetrics
	started time.Time

	clients   map[*websocket.Conn]chan conversion.Event
	clientsMu sync.RWMutex
	eventsCh  chan conversion.Event
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Run wires the store, converter and orchestrator together and serves
// until the listener fails.
func Run(cfg *config.Config) error {
	if cfg == nil {
		cfg = config.Load()
	}

	store, err := objectstore.NewS3Store(objectstore.Config{
		Endpoint:  cfg.StoreEndpoint,
		AccessKey: cfg.StoreAccessKey,
		SecretKey: cfg.StoreSecretKey,
		Bucket:    cfg.StoreBucket,
		Region:    cfg.StoreRegion,
		Insecure:  cfg.StoreInsecure,
	})
	if err != nil {
		return fmt.Errorf("init object store: %w", err)
	}

	var recordStore *records.Store
	if cfg.RedisURL != "" {
		recordStore, err = records.NewRedisStore(cfg.RedisURL)
		if err != nil {
			logging.Error(component, "record store unavailable, continuing without history", "error", err)
			recordStore = nil
		} else {
			defer recordStore.Close()
		}
	}

	presets, err := config.LoadPresets(cfg.PresetsPath)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}
	if presets != nil {
		logging.Info(component, "presets loaded", "path", cfg.PresetsPath, "count", len(presets.Presets))
	}

	converter := &conversion.ExecConverter{
		Command: cfg.ConverterCmd,
		Timeout: cfg.ConverterTimeout,
	}

	s := newServer(cfg, store, converter, recordStore, presets, infraMetrics.NewServiceProm("modelsvc"), infraMetrics.NewProm("modelsvc"))
	return s.serve()
}

func newServer(
	cfg *config.Config,
	store objectstore.Store,
	converter conversion.Converter,
	recordStore *records.Store,
	presets *config.PresetsConfig,
	svcMetrics infraMetrics.ServiceMetrics,
	convMetrics infraMetrics.ConversionMetrics,
) *server {
	s := &server{
		cfg:      cfg,
		records:  recordStore,
		presets:  presets,
		metrics:  svcMetrics,
		started:  time.Now().UTC(),
		clients:  make(map[*websocket.Conn]chan conversion.Event),
		eventsCh: make(chan conversion.Event, 512),
	}
	s.orch = &conversion.Orchestrator{
		Store:          store,
		Converter:      converter,
		GrantTTL:       cfg.GrantTTL,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Metrics:        convMetrics,
		OnEvent:        s.publishEvent,
	}
	go s.broadcastEvents()
	return s
}

func (s *server) serve() error {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", infraMetrics.Handler())
	go func() {
		srv := &http.Server{
			Addr:         s.cfg.MetricsAddr,
			Handler:      metricsMux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		logging.Info(component, "metrics listening", "addr", s.cfg.MetricsAddr+"/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error(component, "metrics server error", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:        s.cfg.HTTPAddr,
		Handler:     s.routes(),
		ReadTimeout: 10 * time.Minute,
		IdleTimeout: 120 * time.Second,
	}
	logging.Info(component, "http listening", "addr", s.cfg.HTTPAddr)
	return srv.ListenAndServe()
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/convert", s.instrumented("/api/v1/convert", s.handleConvert))
	mux.HandleFunc("GET /api/v1/conversions", s.instrumented("/api/v1/conversions", s.handleListConversions))
	mux.HandleFunc("GET /api/v1/presets", s.instrumented("/api/v1/presets", s.handleListPresets))
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)

	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *server) instrumented(route string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, fmt.Sprintf("%d", rec.status), time.Since(start).Seconds())
		}
	}
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultMetricsAddr    = ":9091"
	defaultStoreBucket    = "models"
	defaultStoreRegion    = "auto"
	defaultConverterCmd   = "convert-model"
	defaultConverterLimit = 10 * time.Minute
	defaultGrantTTL       = time.Hour
	defaultMaxUploadBytes = int64(512 << 20)
	defaultPresetsPath    = "config/presets.yaml"

	envHTTPAddr       = "MODELSVC_HTTP_ADDR"
	envMetricsAddr    = "MODELSVC_METRICS_ADDR"
	envRedisURL       = "REDIS_URL"
	envStoreEndpoint  = "STORE_ENDPOINT"
	envStoreAccessKey = "STORE_ACCESS_KEY_ID"
	envStoreSecretKey = "STORE_SECRET_ACCESS_KEY"
	envStoreBucket    = "STORE_BUCKET"
	envStoreRegion    = "STORE_REGION"
	envStoreInsecure  = "STORE_INSECURE"
	envConverterCmd   = "CONVERTER_CMD"
	envConverterLimit = "CONVERTER_TIMEOUT"
	envGrantTTL       = "GRANT_TTL"
	envMaxUploadBytes = "MAX_UPLOAD_BYTES"
	envPresetsPath    = "PRESETS_PATH"
)

// Config holds runtime configuration for the conversion service.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	// RedisURL enables the advisory conversion-records index when set.
	RedisURL string

	StoreEndpoint  string
	StoreAccessKey string
	StoreSecretKey string
	StoreBucket    string
	StoreRegion    string
	StoreInsecure  bool

	ConverterCmd     string
	ConverterTimeout time.Duration

	GrantTTL       time.Duration
	MaxUploadBytes int64
	PresetsPath    string
}

// Load returns configuration using environment variables with sane defaults.
func Load() *Config {
	return &Config{
		HTTPAddr:         stringEnv(envHTTPAddr, defaultHTTPAddr),
		MetricsAddr:      stringEnv(envMetricsAddr, defaultMetricsAddr),
		RedisURL:         strings.TrimSpace(os.Getenv(envRedisURL)),
		StoreEndpoint:    strings.TrimSpace(os.Getenv(envStoreEndpoint)),
		StoreAccessKey:   strings.TrimSpace(os.Getenv(envStoreAccessKey)),
		StoreSecretKey:   strings.TrimSpace(os.Getenv(envStoreSecretKey)),
		StoreBucket:      stringEnv(envStoreBucket, defaultStoreBucket),
		StoreRegion:      stringEnv(envStoreRegion, defaultStoreRegion),
		StoreInsecure:    boolEnv(envStoreInsecure),
		ConverterCmd:     stringEnv(envConverterCmd, defaultConverterCmd),
		ConverterTimeout: durationEnv(envConverterLimit, defaultConverterLimit),
		GrantTTL:         durationEnv(envGrantTTL, defaultGrantTTL),
		MaxUploadBytes:   int64Env(envMaxUploadBytes, defaultMaxUploadBytes),
		PresetsPath:      stringEnv(envPresetsPath, defaultPresetsPath),
	}
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "true")
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func int64Env(key string, fallback int64) int64 {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

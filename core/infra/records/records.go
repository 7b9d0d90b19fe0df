// Package records keeps an advisory history of completed conversions.
// It is observability only: cache decisions are made solely against the
// object store, and the service runs fine with records disabled.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	recentKey  = "conversions:recent"
	recordKey  = "conversions:rec:"
	defaultTTL = 7 * 24 * time.Hour
	defaultCap = 500

	envRecordTTL = "CONVERSION_RECORD_TTL"
)

// Record describes one completed conversion request.
type Record struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	SourceURL   string    `json:"source_url,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	Cached      bool      `json:"cached"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists conversion records in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	max    int64
}

// NewRedisStore constructs a record store backed by Redis.
func NewRedisStore(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &Store{
		client: client,
		ttl:    parseDurationEnv(envRecordTTL, defaultTTL),
		max:    defaultCap,
	}, nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Append stores a record and trims the history to its cap.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("record store unavailable")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	key := recordKey + rec.ID
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, payload, s.ttl)
	pipe.ZAdd(ctx, recentKey, redis.Z{Score: float64(rec.CreatedAt.UnixMicro()), Member: rec.ID})
	pipe.ZRemRangeByRank(ctx, recentKey, 0, -(s.max + 1))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return nil
}

// Recent returns the newest records, most recent first. Records whose
// payload expired are skipped.
func (s *Store) Recent(ctx context.Context, limit int64) ([]Record, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("record store unavailable")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 50
	}
	ids, err := s.client.ZRevRange(ctx, recentKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, recordKey+id).Bytes()
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseDurationEnv(key string, fallback time.Duration) time.Duration {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

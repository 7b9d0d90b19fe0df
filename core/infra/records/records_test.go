package records

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(srv.Close)
	store, err := NewRedisStore("redis://" + srv.Addr())
	if err != nil {
		t.Fatalf("create record store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, fp := range []string{"fp-old", "fp-mid", "fp-new"} {
		err := store.Append(ctx, Record{
			Fingerprint: fp,
			Name:        "model-" + fp,
			Source:      "huggingface",
			SizeBytes:   int64(100 + i),
			Cached:      i == 2,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("append %s: %v", fp, err)
		}
	}

	recs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("unexpected record count: %d", len(recs))
	}
	if recs[0].Fingerprint != "fp-new" || recs[2].Fingerprint != "fp-old" {
		t.Fatalf("unexpected order: %s .. %s", recs[0].Fingerprint, recs[2].Fingerprint)
	}
	if !recs[0].Cached {
		t.Fatalf("cached flag lost")
	}
	if recs[0].ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestRecentLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, Record{Fingerprint: "fp", SizeBytes: int64(i)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	recs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("limit not applied: %d", len(recs))
	}
}

func TestParseDurationEnv(t *testing.T) {
	if got := parseDurationEnv("NOT_SET", 5*time.Second); got != 5*time.Second {
		t.Fatalf("unexpected fallback duration")
	}
	t.Setenv(envRecordTTL, "2s")
	if got := parseDurationEnv(envRecordTTL, 5*time.Second); got != 2*time.Second {
		t.Fatalf("unexpected parsed duration")
	}
	t.Setenv(envRecordTTL, "bad")
	if got := parseDurationEnv(envRecordTTL, 5*time.Second); got != 5*time.Second {
		t.Fatalf("expected fallback for invalid duration")
	}
}

package objectstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("abc123")
	if key != "models/abc123.mlpackage.zip" {
		t.Fatalf("unexpected key: %s", key)
	}
}

func TestNewS3StoreValidation(t *testing.T) {
	if _, err := NewS3Store(Config{Bucket: "models"}); err == nil {
		t.Fatalf("expected error for missing endpoint")
	}
	if _, err := NewS3Store(Config{Endpoint: "storage.example.com"}); err == nil {
		t.Fatalf("expected error for missing bucket")
	}
}

// fakeS3 serves just enough of the S3 HEAD/PUT surface for the client.
func fakeS3(t *testing.T, status int) (*S3Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			if status != http.StatusOK {
				w.WriteHeader(status)
				return
			}
			w.Header().Set("Content-Length", "4")
			w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	t.Cleanup(srv.Close)

	endpoint := strings.TrimPrefix(srv.URL, "http://")
	store, err := NewS3Store(Config{
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "models",
		Region:    "auto",
		Insecure:  true,
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store, srv
}

func TestExistsHit(t *testing.T) {
	store, _ := fakeS3(t, http.StatusOK)
	ok, err := store.Exists(context.Background(), ObjectKey("fp"))
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Fatalf("expected existing object")
	}
}

func TestExistsMissIsNotAnError(t *testing.T) {
	store, _ := fakeS3(t, http.StatusNotFound)
	ok, err := store.Exists(context.Background(), ObjectKey("fp"))
	if err != nil {
		t.Fatalf("expected authoritative miss, got error: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}
}

func TestExistsTransportFailure(t *testing.T) {
	store, _ := fakeS3(t, http.StatusInternalServerError)
	_, err := store.Exists(context.Background(), ObjectKey("fp"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestPut(t *testing.T) {
	store, _ := fakeS3(t, http.StatusOK)
	path := filepath.Join(t.TempDir(), "artifact.zip")
	if err := os.WriteFile(path, []byte("zipbytes"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	if err := store.Put(context.Background(), path, ObjectKey("fp")); err != nil {
		t.Fatalf("put: %v", err)
	}
}

func TestPresignGet(t *testing.T) {
	store, _ := fakeS3(t, http.StatusOK)
	before := time.Now().UTC()
	grant, err := store.PresignGet(context.Background(), ObjectKey("fp"), time.Hour)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	u, err := url.Parse(grant.URL)
	if err != nil {
		t.Fatalf("parse grant url: %v", err)
	}
	if !strings.Contains(u.Path, "models/fp.mlpackage.zip") {
		t.Fatalf("unexpected presigned path: %s", u.Path)
	}
	if u.Query().Get("X-Amz-Signature") == "" {
		t.Fatalf("expected signed url, got %s", grant.URL)
	}
	if grant.ExpiresAt.Before(before.Add(59*time.Minute)) || grant.ExpiresAt.After(before.Add(61*time.Minute)) {
		t.Fatalf("unexpected expiry: %s", grant.ExpiresAt)
	}

	// Repeated calls yield independently valid grants.
	again, err := store.PresignGet(context.Background(), ObjectKey("fp"), time.Hour)
	if err != nil {
		t.Fatalf("second presign: %v", err)
	}
	if again.URL == "" {
		t.Fatalf("expected second grant url")
	}
}

package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestRawContentURL(t *testing.T) {
	in := "https://github.com/owner/repo/blob/main/weights/best.pt"
	want := "https://raw.githubusercontent.com/owner/repo/main/weights/best.pt"
	if got := RawContentURL(in); got != want {
		t.Fatalf("unexpected rewrite: %s", got)
	}
	direct := "https://example.com/files/best.pt"
	if got := RawContentURL(direct); got != direct {
		t.Fatalf("expected passthrough, got %s", got)
	}
}

func TestResolveURL(t *testing.T) {
	in := "https://huggingface.co/Ultralytics/YOLO11/blob/main/yolo11m.pt"
	want := "https://huggingface.co/Ultralytics/YOLO11/resolve/main/yolo11m.pt"
	if got := ResolveURL(in); got != want {
		t.Fatalf("unexpected rewrite: %s", got)
	}
	if got := ResolveURL(want); got != want {
		t.Fatalf("expected passthrough, got %s", got)
	}
}

func TestRemoteFetchSuccess(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("weights"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	r, _ := For(Reference{Kind: KindHuggingFace, Locator: srv.URL + "/m/blob/main/a.pt", Credential: "tok"}, Options{HTTPClient: srv.Client()})
	art, err := r.Fetch(context.Background(), dir)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	data, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "weights" || art.Size != 7 {
		t.Fatalf("unexpected artifact: %q size=%d", data, art.Size)
	}
	if _, err := os.Stat(art.Path + ".partial"); !os.IsNotExist(err) {
		t.Fatalf("scratch file left behind")
	}
}

func TestGitHubTokenHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	r, _ := For(Reference{Kind: KindGitHub, Locator: srv.URL + "/w.pt", Credential: "ghp_x"}, Options{HTTPClient: srv.Client()})
	if _, err := r.Fetch(context.Background(), t.TempDir()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotAuth != "token ghp_x" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
}

func TestRemoteStatusTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuthRequired},
		{http.StatusForbidden, ErrAccessDenied},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTeapot, ErrUnavailable},
		{http.StatusBadGateway, ErrUnavailable},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		dir := t.TempDir()
		r, _ := For(Reference{Kind: KindGitHub, Locator: srv.URL + "/w.pt"}, Options{HTTPClient: srv.Client()})
		_, err := r.Fetch(context.Background(), dir)
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Fatalf("status %d: temp artifacts left behind: %v", tc.status, entries)
		}
		srv.Close()
	}
}

func TestRemoteTruncatedStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("short"))
		// Returning with fewer bytes than declared aborts the
		// client-side stream.
	}))
	defer srv.Close()

	dir := t.TempDir()
	r, _ := For(Reference{Kind: KindHuggingFace, Locator: srv.URL + "/m.pt"}, Options{HTTPClient: srv.Client()})
	_, err := r.Fetch(context.Background(), dir)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "model.pt")); !os.IsNotExist(statErr) {
		t.Fatalf("half-written artifact visible as finished download")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "model.pt.partial")); !os.IsNotExist(statErr) {
		t.Fatalf("partial scratch file left behind")
	}
}

func TestRemoteConnectionRefused(t *testing.T) {
	r, _ := For(Reference{Kind: KindGitHub, Locator: "http://127.0.0.1:1/w.pt"}, Options{})
	_, err := r.Fetch(context.Background(), t.TempDir())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

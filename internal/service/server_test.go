package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pagefreeze/snap"
)

// stubCapturer records the options it was invoked with and returns a fixed
// result or error.
type stubCapturer struct {
	lastTarget string
	lastOpts   snap.Options
	result     *snap.Result
	err        error
}

func (c *stubCapturer) Capture(_ context.Context, target string, opts snap.Options, _ bool) (*snap.Result, []byte, error) {
	c.lastTarget = target
	c.lastOpts = opts
	if c.err != nil {
		return nil, nil, c.err
	}
	return c.result, nil, nil
}

func newTestServer(t *testing.T, cap *stubCapturer) *Server {
	t.Helper()
	cfg := Config{
		Addr:      ":0",
		OutputDir: t.TempDir(),
		SitesDir:  t.TempDir(),
		DefaultOptions: snap.Options{
			RemoveScripts:        true,
			RemoveOriginalStyles: true,
		},
	}
	return New(cfg, cap)
}

func TestServerPing(t *testing.T) {
	srv := newTestServer(t, &stubCapturer{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("ping: %d %q", rec.Code, rec.Body.String())
	}
}

func TestServerIndex(t *testing.T) {
	srv := newTestServer(t, &stubCapturer{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/snapshot") {
		t.Fatalf("index: %d %q", rec.Code, rec.Body.String())
	}
}

func TestServerSnapshot(t *testing.T) {
	cap := &stubCapturer{result: &snap.Result{
		DocumentText: "<!DOCTYPE html>\n<html></html>",
		Title:        "Example Page",
		Warnings:     []snap.Warning{{Message: "stylesheet x: fetch failed"}},
	}}
	srv := newTestServer(t, cap)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot?url=https://example.com/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot: %d %q", rec.Code, rec.Body.String())
	}
	if cap.lastTarget != "https://example.com/" {
		t.Fatalf("captured wrong target %q", cap.lastTarget)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "Example-Page.html") {
		t.Fatalf("attachment name should come from the sanitized title: %q",
			rec.Header().Get("Content-Disposition"))
	}
	if rec.Header().Get("X-Snapshot-Warnings") != "1" {
		t.Fatalf("warning count header: %q", rec.Header().Get("X-Snapshot-Warnings"))
	}
	if rec.Body.String() != cap.result.DocumentText {
		t.Fatalf("body mismatch: %q", rec.Body.String())
	}
}

func TestServerSnapshotSchemePrefix(t *testing.T) {
	cap := &stubCapturer{result: &snap.Result{DocumentText: "<html></html>"}}
	srv := newTestServer(t, cap)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot?url=example.com/page", nil))
	if cap.lastTarget != "https://example.com/page" {
		t.Fatalf("bare host should get https, got %q", cap.lastTarget)
	}
}

func TestServerSnapshotOptions(t *testing.T) {
	cap := &stubCapturer{result: &snap.Result{DocumentText: "<html></html>"}}
	srv := newTestServer(t, cap)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/snapshot?url=https://example.com/&scripts=keep&styles=keep&relay=1&policy=1", nil))
	want := snap.Options{UseRelay: true, AddPolicy: true}
	if cap.lastOpts != want {
		t.Fatalf("options = %#v, want %#v", cap.lastOpts, want)
	}
}

func TestServerSnapshotMissingURL(t *testing.T) {
	srv := newTestServer(t, &stubCapturer{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing url: %d", rec.Code)
	}
}

func TestServerSnapshotCaptureFailure(t *testing.T) {
	srv := newTestServer(t, &stubCapturer{err: fmt.Errorf("capture https://example.com/: no document found")})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot?url=https://example.com/", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("capture failure should map to 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no document found") {
		t.Fatalf("error body should carry the reason: %q", rec.Body.String())
	}
}

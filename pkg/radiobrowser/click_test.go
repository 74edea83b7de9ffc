package radiobrowser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCountClick(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("want POST, got %s", r.Method)
		}
		if r.URL.Path != "/json/url/abc-123" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"ok": "true", "message": "retrieved station url", "stationuuid": "abc-123", "name": "SomaFM", "url": "http://example.com/stream"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	resp, err := c.CountClick(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("CountClick failed: %v", err)
	}
	if resp.OK != "true" || resp.StationUUID != "abc-123" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCountClickFallsBack(t *testing.T) {
	dead := deadMirror(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": "true", "stationuuid": "abc-123"}`))
	}))
	defer srv.Close()

	c := testClient(dead, srv.URL)

	resp, err := c.CountClick(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("CountClick failed: %v", err)
	}
	if resp.OK != "true" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCountClickEmptyUUID(t *testing.T) {
	srv, hits := countingMirror(t, http.StatusOK, `{}`)
	c := testClient(srv.URL)

	if _, err := c.CountClick(context.Background(), "  "); err == nil {
		t.Fatal("want an error for an empty uuid")
	}
	if hits.Load() != 0 {
		t.Error("empty uuid should not touch the network")
	}
}

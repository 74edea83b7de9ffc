package radiobrowser

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(mirrors ...string) *Client {
	return New(Config{Mirrors: mirrors}, testLogger())
}

// countingMirror returns a test server that serves the given body and a
// counter of requests it received.
func countingMirror(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

// deadMirror returns a URL that refuses connections.
func deadMirror(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	return url
}

func TestSearchEmptyQuery(t *testing.T) {
	srv, hits := countingMirror(t, http.StatusOK, `[]`)
	c := testClient(srv.URL)

	for _, query := range []string{"", "   ", "\t\n"} {
		stations, err := c.Search(context.Background(), query)
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", query, err)
		}
		if len(stations) != 0 {
			t.Fatalf("Search(%q): want empty result, got %d stations", query, len(stations))
		}
	}

	if n := hits.Load(); n != 0 {
		t.Fatalf("want zero network calls for empty queries, got %d", n)
	}
}

func TestSearchRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/stations/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("name"); got != "groove salad" {
			t.Errorf("want name=groove salad, got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("want limit=20, got %q", got)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	if _, err := c.Search(context.Background(), "groove salad"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
}

func TestSearchNormalizesNullFields(t *testing.T) {
	body := `[
		{"stationuuid": "abc-123", "name": "SomaFM", "url": "http://example.com/a", "url_resolved": null, "favicon": null},
		{"name": null, "url": "http://example.com/b", "homepage": "http://example.com", "tags": "jazz,smooth", "country": "Germany", "language": "german"}
	]`
	srv, _ := countingMirror(t, http.StatusOK, body)
	c := testClient(srv.URL)

	stations, err := c.Search(context.Background(), "soma")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("want 2 stations, got %d", len(stations))
	}

	want := Station{ID: "abc-123", Name: "SomaFM", URL: "http://example.com/a"}
	if stations[0] != want {
		t.Errorf("station 0: want %+v, got %+v", want, stations[0])
	}

	want = Station{
		URL:      "http://example.com/b",
		Homepage: "http://example.com",
		Tags:     "jazz,smooth",
		Country:  "Germany",
		Language: "german",
	}
	if stations[1] != want {
		t.Errorf("station 1: want %+v, got %+v", want, stations[1])
	}
}

func TestSearchFirstSuccessShortCircuits(t *testing.T) {
	bad, badHits := countingMirror(t, http.StatusInternalServerError, "boom")
	good, goodHits := countingMirror(t, http.StatusOK, `[{"name": "one"}]`)
	after, afterHits := countingMirror(t, http.StatusOK, `[{"name": "two"}]`)

	c := testClient(bad.URL, good.URL, after.URL)

	stations, err := c.Search(context.Background(), "rock")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(stations) != 1 || stations[0].Name != "one" {
		t.Fatalf("want the first successful mirror's result, got %+v", stations)
	}

	if badHits.Load() != 1 || goodHits.Load() != 1 {
		t.Errorf("want one hit on each of the first two mirrors, got %d and %d", badHits.Load(), goodHits.Load())
	}
	if afterHits.Load() != 0 {
		t.Errorf("mirror after the winner was contacted %d times", afterHits.Load())
	}
}

func TestSearchAllMirrorsFailReturnsLastError(t *testing.T) {
	first, _ := countingMirror(t, http.StatusBadGateway, "")
	last, _ := countingMirror(t, http.StatusServiceUnavailable, "")

	c := testClient(first.URL, last.URL)

	stations, err := c.Search(context.Background(), "jazz")
	if err == nil {
		t.Fatal("want an error when all mirrors fail")
	}
	if stations != nil {
		t.Fatalf("want no stations on total failure, got %+v", stations)
	}

	// Last-error-wins: the surfaced error is from the final mirror tried.
	if want := "status 503"; !strings.Contains(err.Error(), want) {
		t.Errorf("want error from the last mirror (%s), got %q", want, err)
	}
}

func TestSearchDecodeFailureAdvances(t *testing.T) {
	garbage, _ := countingMirror(t, http.StatusOK, `{"not": "an array"}`)
	good, _ := countingMirror(t, http.StatusOK, `[{"name": "fallback"}]`)

	c := testClient(garbage.URL, good.URL)

	stations, err := c.Search(context.Background(), "jazz")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(stations) != 1 || stations[0].Name != "fallback" {
		t.Fatalf("want result from the mirror after the decode failure, got %+v", stations)
	}
}

func TestSearchMirrorOutageScenario(t *testing.T) {
	// First two mirrors refuse connections, the third answers with two
	// records, one of them missing favicon and tags. Mirrors after the
	// winner must not be contacted.
	deadOne := deadMirror(t)
	deadTwo := deadMirror(t)

	body := `[
		{"stationuuid": "u1", "name": "Jazz One", "url": "http://example.com/1", "favicon": "http://example.com/1.png", "tags": "jazz"},
		{"stationuuid": "u2", "name": "Jazz Two", "url": "http://example.com/2"}
	]`
	winner, _ := countingMirror(t, http.StatusOK, body)

	var untouched []*atomic.Int64
	mirrors := []string{deadOne, deadTwo, winner.URL}
	for i := 0; i < 4; i++ {
		srv, hits := countingMirror(t, http.StatusOK, `[]`)
		mirrors = append(mirrors, srv.URL)
		untouched = append(untouched, hits)
	}

	c := testClient(mirrors...)

	stations, err := c.Search(context.Background(), "jazz")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("want 2 stations, got %d", len(stations))
	}

	// Winning mirror's order is preserved.
	if stations[0].ID != "u1" || stations[1].ID != "u2" {
		t.Errorf("station order not preserved: %+v", stations)
	}
	if stations[1].Favicon != "" || stations[1].Tags != "" {
		t.Errorf("missing fields not normalized to empty: %+v", stations[1])
	}
	if stations[0].Favicon != "http://example.com/1.png" || stations[0].Tags != "jazz" {
		t.Errorf("present fields not preserved: %+v", stations[0])
	}

	for i, hits := range untouched {
		if hits.Load() != 0 {
			t.Errorf("mirror %d after the winner was contacted", i+4)
		}
	}
}

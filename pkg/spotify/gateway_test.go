package spotify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"spotify-insights-mcp/pkg/metrics"
	"spotify-insights-mcp/pkg/music"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestClient wires a Client against a fake API handler and a fake auth
// endpoint, returning the refresh counter for assertions.
func newTestClient(t *testing.T, api http.Handler) (*Client, *int64) {
	t.Helper()
	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	m, calls := newTestTokenManager(t)
	c := NewClient(m, discardLogger())
	c.baseURL = apiSrv.URL
	return c, calls
}

func TestGetRetriesOnceAfter401(t *testing.T) {
	var apiCalls int64
	c, refreshes := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&apiCalls, 1) == 1 {
			http.Error(w, "expired", http.StatusUnauthorized)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-2" {
			t.Errorf("retry used %q, want the refreshed token", got)
		}
		w.Write([]byte(`{"ok":true}`))
	}))

	raw, err := c.get(context.Background(), "/artists/x", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Errorf("unexpected payload %s", raw)
	}
	if apiCalls != 2 {
		t.Errorf("expected exactly one retry, saw %d calls", apiCalls)
	}
	// Initial lazy fetch plus the forced refresh.
	if *refreshes != 2 {
		t.Errorf("expected 2 token refreshes, saw %d", *refreshes)
	}
}

func TestGetPermanentAuthFailureAfterRetry(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))

	_, err := c.get(context.Background(), "/artists/x", nil)
	if music.KindOf(err) != music.KindUpstreamAuth {
		t.Fatalf("expected upstream_auth_error, got %v", err)
	}
}

func TestGetStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		want   music.Kind
	}{
		{http.StatusNotFound, music.KindNotFound},
		{http.StatusTooManyRequests, music.KindRateLimited},
		{http.StatusForbidden, music.KindUpstreamAuth},
		{http.StatusInternalServerError, music.KindUpstreamUnavailable},
		{http.StatusBadGateway, music.KindUpstreamUnavailable},
		{http.StatusBadRequest, music.KindBadRequest},
		{http.StatusUnprocessableEntity, music.KindBadRequest},
	}
	for _, tc := range cases {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "err", tc.status)
		}))
		_, err := c.get(context.Background(), "/tracks/x", nil)
		if music.KindOf(err) != tc.want {
			t.Errorf("status %d classified as %v, want %v", tc.status, music.KindOf(err), tc.want)
		}
	}
}

func TestGetTimeoutIsUpstreamUnavailable(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	c.httpClient = &http.Client{Timeout: 20 * time.Millisecond}

	_, err := c.get(context.Background(), "/search", nil)
	if music.KindOf(err) != music.KindUpstreamUnavailable {
		t.Fatalf("expected upstream_unavailable on timeout, got %v", err)
	}
}

func TestGetRejectsInvalidJSONBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))

	_, err := c.get(context.Background(), "/albums/x", nil)
	if music.KindOf(err) != music.KindMalformedUpstream {
		t.Fatalf("expected malformed_upstream_response, got %v", err)
	}
}

func TestRouteTemplateBoundsMetricsLabels(t *testing.T) {
	cases := map[string]string{
		"/search":                                    "/search",
		"/audio-features":                            "/audio-features",
		"/audio-features/6rqhFgbbKwnb9MLmUQDhG6":     "/audio-features/{id}",
		"/artists/4gzpq5DPGxSnKTe4SA8HAU":            "/artists/{id}",
		"/artists/4gzpq5DPGxSnKTe4SA8HAU/top-tracks": "/artists/{id}/top-tracks",
		"/albums/2noRn2Aes5aoNVsU6iWThc/tracks":      "/albums/{id}/tracks",
	}
	for path, want := range cases {
		if got := routeTemplate(path); got != want {
			t.Errorf("routeTemplate(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestUpstreamMetricsUseRouteTemplate(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	m := metrics.New()
	c.WithMetrics(m)

	for _, id := range []string{"4gzpq5DPGxSnKTe4SA8HAU", "1vCWHaC5f2uS3yhpwWbIA6"} {
		if _, err := c.get(context.Background(), "/artists/"+id, nil); err != nil {
			t.Fatal(err)
		}
	}

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	if !strings.Contains(body, `spotify_mcp_upstream_requests_total{endpoint="/artists/{id}",status="2xx"} 2`) {
		t.Errorf("distinct ids were not folded into one series:\n%s", body)
	}
}

func TestGetPropagatesTokenFailure(t *testing.T) {
	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer authSrv.Close()

	m := NewTokenManager("id", "secret")
	m.authURL = authSrv.URL
	c := NewClient(m, discardLogger())

	_, err := c.get(context.Background(), "/search", nil)
	if music.KindOf(err) != music.KindAuthUnavailable {
		t.Fatalf("expected auth_unavailable, got %v", err)
	}
}

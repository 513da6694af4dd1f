package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveTool("search_tracks", "ok")
	m.ObserveUpstream("/search", "200", time.Millisecond)
	m.ObserveTokenRefresh()
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveTool("search_tracks", "ok")
	m.ObserveUpstream("/search", "200", 5*time.Millisecond)
	m.ObserveTokenRefresh()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`spotify_mcp_tool_invocations_total{outcome="ok",tool="search_tracks"} 1`,
		`spotify_mcp_upstream_requests_total{endpoint="/search",status="200"} 1`,
		"spotify_mcp_token_refreshes_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

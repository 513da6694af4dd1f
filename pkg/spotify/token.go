// Package spotify implements music.Catalog against the Spotify Web API using
// the client credentials flow. The package owns the full lifecycle of the
// application access token: it is fetched lazily on first use, cached with
// its expiry, refreshed before it can expire and shared by every concurrent
// lookup. Raw API payloads never leave this package; each lookup normalizes
// its response into the record types defined in pkg/music.
package spotify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"spotify-insights-mcp/pkg/metrics"
	"spotify-insights-mcp/pkg/music"
)

const (
	// AuthURL is the Spotify accounts endpoint used for the client
	// credentials grant.
	AuthURL = "https://accounts.spotify.com/api/token"

	// expiryMargin is subtracted from the reported token lifetime so a
	// refresh always happens before the token can actually expire. This
	// masks clock skew and the latency of requests already in flight.
	expiryMargin = 60 * time.Second
)

// TokenManager obtains and caches the application access token. The mutex is
// held for the duration of a refresh so concurrent callers racing an expired
// token block until the single in-flight refresh completes and then all
// observe the same token.
type TokenManager struct {
	clientID     string
	clientSecret string
	authURL      string
	httpClient   *http.Client
	metrics      *metrics.Metrics

	// now is replaceable in tests to simulate clock advancement.
	now func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTokenManager returns a manager for the given application credentials.
// No network call is made until the first Token request.
func NewTokenManager(clientID, clientSecret string) *TokenManager {
	return &TokenManager{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      AuthURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		now:          time.Now,
	}
}

// WithMetrics attaches collectors for refresh counting and returns the
// manager for chaining.
func (m *TokenManager) WithMetrics(mx *metrics.Metrics) *TokenManager {
	m.metrics = mx
	return m
}

// Token returns a bearer token whose remaining lifetime exceeds the safety
// margin, refreshing it first when necessary. A failed refresh is returned
// as a KindAuthUnavailable error and is never cached, so the next caller
// retries.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != "" && m.now().Before(m.expiry) {
		return m.token, nil
	}
	return m.refreshLocked(ctx)
}

// Invalidate drops the cached token, but only if it still equals tok. The
// conditional guards the forced-refresh path after an upstream 401: if
// another caller already replaced the token there is nothing to discard and
// the newer token must not be thrown away.
func (m *TokenManager) Invalidate(tok string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == tok {
		m.token = ""
		m.expiry = time.Time{}
	}
}

// refreshLocked exchanges the client credentials for a fresh token. The
// caller must hold m.mu.
func (m *TokenManager) refreshLocked(ctx context.Context) (string, error) {
	const op = "spotify.Token"

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", music.Wrap(music.KindAuthUnavailable, op, err, "build token request")
	}
	req.SetBasicAuth(m.clientID, m.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	m.metrics.ObserveTokenRefresh()
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", music.Wrap(music.KindAuthUnavailable, op, err, "token request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", music.E(music.KindAuthUnavailable, op, "token endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", music.Wrap(music.KindAuthUnavailable, op, err, "decode token response")
	}
	if body.AccessToken == "" || body.ExpiresIn <= 0 {
		return "", music.E(music.KindAuthUnavailable, op, "token response missing access_token or expires_in")
	}

	m.token = body.AccessToken
	m.expiry = m.now().Add(time.Duration(body.ExpiresIn)*time.Second - expiryMargin)
	return m.token, nil
}

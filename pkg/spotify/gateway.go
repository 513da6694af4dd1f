// This file contains the outbound HTTP gateway: one helper that performs a
// catalog request with the current bearer token and classifies the outcome.
// The gateway returns raw JSON untouched; field reshaping happens in the
// normalizers.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"spotify-insights-mcp/pkg/music"
)

// BaseURL is the Spotify Web API root.
const BaseURL = "https://api.spotify.com/v1"

// maxResponseBytes bounds how much of an upstream body is read. Catalog
// payloads are small; anything larger indicates a misbehaving upstream.
const maxResponseBytes = 4 << 20

// get performs one GET against the catalog API. On a 401 the cached token is
// invalidated and the call retried exactly once with a freshly obtained
// token; a second authorization failure is permanent. No other status is
// retried here: 429 in particular is surfaced immediately so callers see the
// upstream's backpressure signal.
func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	op := "spotify.get " + path

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	raw, status, err := c.do(ctx, op, path, query, tok)
	if err == nil && status == http.StatusUnauthorized {
		c.log.WithField("path", path).Warn("upstream rejected token, forcing refresh")
		c.tokens.Invalidate(tok)
		tok, err = c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		raw, status, err = c.do(ctx, op, path, query, tok)
	}
	if err != nil {
		return nil, err
	}
	return classify(op, raw, status)
}

// do issues the request and returns the body and status. Transport-level
// failures (dial errors, timeouts, cancelled contexts) are classified as
// upstream unavailability; HTTP statuses are returned to the caller for
// classification so the 401 retry can be decided one level up.
func (c *Client) do(ctx context.Context, op, path string, query url.Values, tok string) ([]byte, int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, music.Wrap(music.KindUpstreamUnavailable, op, err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	endpoint := routeTemplate(path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(endpoint, "network_error", time.Since(start))
		return nil, 0, music.Wrap(music.KindUpstreamUnavailable, op, err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	c.metrics.ObserveUpstream(endpoint, statusClass(resp.StatusCode), elapsed)
	c.log.WithFields(logrus.Fields{
		"path":    path,
		"status":  resp.StatusCode,
		"elapsed": elapsed,
	}).Debug("upstream request")
	if err != nil {
		return nil, 0, music.Wrap(music.KindUpstreamUnavailable, op, err, "read response body")
	}
	return body, resp.StatusCode, nil
}

// classify maps an HTTP status to the error taxonomy. 401 never reaches this
// point on the first attempt (the gateway retries it); seeing it here means
// the forced refresh did not help.
func classify(op string, body []byte, status int) (json.RawMessage, error) {
	switch {
	case status >= 200 && status < 300:
		if !json.Valid(body) {
			return nil, music.E(music.KindMalformedUpstream, op, "response is not valid JSON")
		}
		return json.RawMessage(body), nil
	case status == http.StatusNotFound:
		return nil, music.E(music.KindNotFound, op, "entity not found")
	case status == http.StatusTooManyRequests:
		return nil, music.E(music.KindRateLimited, op, "upstream rate limit reached")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, music.E(music.KindUpstreamAuth, op, "authorization rejected with status %d", status)
	case status >= 500:
		return nil, music.E(music.KindUpstreamUnavailable, op, "upstream returned status %d", status)
	default:
		return nil, music.E(music.KindBadRequest, op, "upstream rejected request with status %d", status)
	}
}

// decode unmarshals a gateway payload into v. Decode failures on a 2xx body
// count as schema drift, not unavailability.
func decode(op string, raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return music.Wrap(music.KindMalformedUpstream, op, err, "decode upstream response")
	}
	return nil
}

// routeTemplate replaces the entity id segment of a catalog path with a
// placeholder so the metrics label stays bounded. Every catalog path is
// either a bare collection ("/search", "/audio-features") or has the id as
// its second segment ("/artists/<id>/top-tracks").
func routeTemplate(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		parts[2] = "{id}"
	}
	return strings.Join(parts, "/")
}

// statusClass buckets a status code for the metrics label.
func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}

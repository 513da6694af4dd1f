// This file implements the unauthenticated service endpoints: the liveness
// probe, which also reports whether an upstream token can currently be
// obtained, and the MCP discovery document mirroring the conventional
// .well-known layout.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// healthTimeout bounds the token probe so a stuck authorization endpoint
// cannot hang the health check.
const healthTimeout = 5 * time.Second

// Healthz reports process liveness and the upstream token status.
func (app *Application) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	tokenStatus := "ok"
	if _, err := app.Tokens.Token(ctx); err != nil {
		tokenStatus = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":               "ok",
		"spotify_token_status": tokenStatus,
		"mcp_endpoint":         "/mcp",
	}); err != nil {
		app.Log.WithError(err).Error("encode health response")
	}
}

// WellKnown serves the MCP discovery document so clients can find the
// endpoint and transport without out-of-band configuration.
func (app *Application) WellKnown(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	doc := map[string]any{
		"mcpServers": map[string]any{
			"spotify-insights": map[string]string{
				"url":           scheme + "://" + r.Host + "/mcp",
				"transportType": "streamable-http",
			},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		app.Log.WithError(err).Error("encode discovery document")
	}
}

// Package handlers wires the MCP tool surface to the music catalog. The
// Application struct bundles the dependencies used by the tool handlers and
// the plain HTTP endpoints (health, discovery); main constructs one instance
// and registers everything on the MCP server and the route mux.
package handlers

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"spotify-insights-mcp/pkg/metrics"
	"spotify-insights-mcp/pkg/music"
)

// TokenChecker reports whether an upstream access token can currently be
// obtained. The health endpoint uses it to surface credential problems.
type TokenChecker interface {
	Token(ctx context.Context) (string, error)
}

// Application bundles the dependencies shared by all handlers.
type Application struct {
	Catalog music.Catalog
	Tokens  TokenChecker
	Log     *logrus.Logger
	Metrics *metrics.Metrics
}

// finish converts a tool outcome into an MCP result and records it. Errors
// are always returned as typed tool error results, never as protocol
// failures, so one bad invocation cannot take the serving process down.
func (app *Application) finish(tool string, v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		outcome := "error"
		if kind := music.KindOf(err); kind != 0 {
			outcome = kind.String()
		}
		app.Metrics.ObserveTool(tool, outcome)
		app.Log.WithError(err).WithField("tool", tool).Warn("tool call failed")
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, merr := json.Marshal(v)
	if merr != nil {
		app.Metrics.ObserveTool(tool, "encode_error")
		app.Log.WithError(merr).WithField("tool", tool).Error("encode tool result")
		return mcp.NewToolResultError("failed to encode tool result"), nil
	}
	app.Metrics.ObserveTool(tool, "ok")
	return mcp.NewToolResultText(string(data)), nil
}

// badRequest builds the validation error reported before any upstream call
// is made.
func badRequest(tool, message string, args ...any) error {
	return music.E(music.KindBadRequest, tool, message, args...)
}

// Command server initializes the Spotify insights MCP server and starts the
// HTTP listener. Configuration is provided via environment variables for the
// Spotify API credentials and the inbound bearer token. The server exposes
// the MCP endpoint at /mcp plus unauthenticated health, discovery and
// metrics endpoints, and shuts down gracefully on SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"spotify-insights-mcp/pkg/handlers"
	"spotify-insights-mcp/pkg/metrics"
	"spotify-insights-mcp/pkg/spotify"
)

const (
	serverName    = "spotify-insights"
	serverVersion = "1.0.0"

	defaultPort     = "8080"
	shutdownTimeout = 10 * time.Second
)

// config holds the environment-derived settings the server needs to run.
type config struct {
	clientID     string
	clientSecret string
	authToken    string
	port         string
	logLevel     string
}

// loadConfig reads configuration from the environment. The Spotify
// credentials and the inbound bearer token are required; without them the
// server cannot serve a single request, so missing values are an error
// rather than a degraded mode.
func loadConfig() (config, error) {
	cfg := config{
		clientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		clientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		authToken:    os.Getenv("MCP_AUTH_TOKEN"),
		port:         os.Getenv("PORT"),
		logLevel:     os.Getenv("LOG_LEVEL"),
	}
	if cfg.clientID == "" || cfg.clientSecret == "" {
		return config{}, errors.New("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}
	if cfg.authToken == "" {
		return config{}, errors.New("MCP_AUTH_TOKEN must be set")
	}
	if cfg.port == "" {
		cfg.port = defaultPort
	}
	if cfg.logLevel == "" {
		cfg.logLevel = "info"
	}
	return cfg, nil
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		log.WithField("level", level).Warn("unknown log level, using info")
	}
	log.SetLevel(lvl)
	return log
}

// routes builds the full HTTP handler tree: the MCP endpoint behind the
// middleware chain, and the unauthenticated service endpoints.
func routes(app *handlers.Application, mx *metrics.Metrics, authToken string, log *logrus.Logger) http.Handler {
	mcpServer := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	app.RegisterTools(mcpServer)
	streamable := server.NewStreamableHTTPServer(mcpServer)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handlers.Chain(streamable,
		handlers.RequestID,
		func(next http.Handler) http.Handler { return handlers.AccessLog(log, next) },
		handlers.SecurityHeaders,
		func(next http.Handler) http.Handler { return handlers.BearerAuth(authToken, next) },
	))
	mux.HandleFunc("/healthz", app.Healthz)
	mux.HandleFunc("/.well-known/mcp.json", app.WellKnown)
	mux.Handle("/metrics", mx.Handler())
	return mux
}

// main configures application dependencies and runs the HTTP server until a
// termination signal arrives.
func main() {
	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatal(err)
	}
	log := newLogger(cfg.logLevel)

	mx := metrics.New()
	tokens := spotify.NewTokenManager(cfg.clientID, cfg.clientSecret).WithMetrics(mx)
	catalog := spotify.NewClient(tokens, log).WithMetrics(mx)

	app := &handlers.Application{
		Catalog: catalog,
		Tokens:  tokens,
		Log:     log,
		Metrics: mx,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.port,
		Handler:      routes(app, mx, cfg.authToken, log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("starting MCP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		log.WithError(err).Fatal("http server error")
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}
}

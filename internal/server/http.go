package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/cors"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"rtimcp/internal/metrics"
	"rtimcp/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout is the default timeout for writing responses.
	// Kusto queries can run for minutes, so this is intentionally generous.
	DefaultWriteTimeout = 10 * time.Minute
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second
	// DefaultShutdownTimeout bounds a graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// HealthPath is served without authentication.
	HealthPath = "/health"
	// MetricsPath exposes Prometheus metrics without authentication.
	MetricsPath = "/metrics"

	healthServerName = "fabric-rti-mcp"
	healthTimeLayout = "2006-01-02 15:04:05 UTC"
)

// HTTPOptions configures the HTTP transport.
type HTTPOptions struct {
	Host      string
	Port      int
	Path      string
	Stateless bool

	// Gate guards the MCP endpoint. Nil serves it without authentication.
	Gate *Gate
}

// HTTPServer serves the MCP endpoint over streamable HTTP next to the health
// and metrics endpoints.
type HTTPServer struct {
	opts       HTTPOptions
	mcp        http.Handler
	startedAt  time.Time
	httpServer *http.Server
}

// NewHTTPServer wraps an MCP server in a streamable HTTP transport.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, opts HTTPOptions) *HTTPServer {
	if opts.Path == "" {
		opts.Path = "/mcp"
	}
	handler := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(opts.Path),
		mcpserver.WithStateLess(opts.Stateless),
	)
	return newHTTPServer(handler, opts)
}

func newHTTPServer(mcp http.Handler, opts HTTPOptions) *HTTPServer {
	return &HTTPServer{
		opts:      opts,
		mcp:       mcp,
		startedAt: time.Now().UTC(),
	}
}

// Addr returns the listen address.
func (s *HTTPServer) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Handler returns the complete handler chain: CORS, then the auth gate, then
// the routes.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, s.handleHealth)
	mux.Handle(MetricsPath, metrics.Handler())
	mux.Handle(s.opts.Path, s.mcp)

	var handler http.Handler = mux
	if s.opts.Gate != nil {
		handler = s.opts.Gate.Wrap(handler)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Mcp-Session-Id"},
		AllowCredentials: true,
	})(handler)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":           "healthy",
		"current_time_utc": time.Now().UTC().Format(healthTimeLayout),
		"server":           healthServerName,
		"start_time_utc":   s.startedAt.Format(healthTimeLayout),
	})
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Server", "Listening on http://%s%s", s.Addr(), s.opts.Path)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully stops the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	logging.Info("Server", "Shutting down")
	return s.httpServer.Shutdown(ctx)
}

// ServeStdio runs the MCP server over stdin and stdout until ctx is done.
func ServeStdio(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	logging.Info("Server", "Serving MCP over stdio")
	return mcpserver.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout)
}

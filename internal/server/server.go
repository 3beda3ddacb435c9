// Package server provides the telepathy HTTP server: a Gin engine behind
// the standard middleware stack (recovery, request IDs, CORS, body-size
// limiting, request logging), served with h2c so HTTP/2 clients work
// without TLS.
//
// Endpoints live in server/endpoint:
//
//   - /health: backend readiness and device status
//   - /version: build version information
//   - /transcribe: the transcription request pipeline
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/skillsenselab/telepathy/internal/logger"
	"github.com/skillsenselab/telepathy/internal/server/endpoint"
	"github.com/skillsenselab/telepathy/internal/server/middleware"
	"github.com/skillsenselab/telepathy/internal/telemetry"
	"github.com/skillsenselab/telepathy/internal/transcribe"
)

// Server is the telepathy HTTP server.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     Config
	log        *logger.Logger
}

// New creates a Server with the middleware stack applied. Routes are not
// registered yet — call RegisterRoutes before Start.
func New(cfg Config, log *logger.Logger) *Server {
	cfg.ApplyDefaults()

	// Gin mode follows the global zerolog level.
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Middleware wraps the engine at the handler level so it also covers
	// requests Gin answers itself (404s, method mismatches).
	handler := middleware.Chain(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)),
		middleware.BodySizeLimit(cfg.MaxBodyBytes),
		middleware.RequestLogger(log),
	)(engine)

	// h2c for HTTP/2 cleartext alongside HTTP/1.1 on the same port.
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          time.Duration(cfg.IdleTimeout) * time.Second,
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h2c.NewHandler(handler, h2s),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		config:     cfg,
		log:        log.WithComponent("server"),
	}
}

// RegisterRoutes mounts the service endpoints on the engine.
func (s *Server) RegisterRoutes(loader *transcribe.Loader, metrics *telemetry.Metrics) {
	s.engine.GET("/health", endpoint.Health(loader))
	s.engine.GET("/version", endpoint.Version())
	s.engine.POST("/transcribe", endpoint.Transcribe(loader, metrics, s.log))
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the fully wrapped handler. Tests drive it directly.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a
// goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	return nil
}

// Stop gracefully shuts down the server, letting in-flight requests drain
// until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

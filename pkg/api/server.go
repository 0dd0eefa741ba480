// Package api provides the relay's HTTP status API
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/op/go-logging.v1"

	"github.com/ZentaChain/chatrelay/pkg/config"
	"github.com/ZentaChain/chatrelay/pkg/network"
)

// StatsSource is what the API reports on
type StatsSource interface {
	GetStats() network.Stats
}

// Server represents the HTTP API server
type Server struct {
	relay      StatsSource
	router     *gin.Engine
	address    string
	httpServer *http.Server
	log        *logging.Logger
	startedAt  time.Time
}

// NewServer creates a new HTTP API server
func NewServer(relay StatsSource, cfg *config.API, log *logging.Logger) *Server {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		relay:     relay,
		router:    router,
		address:   cfg.Address,
		log:       log,
		startedAt: time.Now(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.router.Use(CORSMiddleware())
	s.router.Use(RateLimitMiddleware(requestsPerMinute))
	s.router.Use(LoggingMiddleware(s.log))
	s.router.Use(gin.Recovery())
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)
		v1.GET("/health", s.handleHealth)
	}

	// Outside versioning
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Noticef("🌐 HTTP API server listening on %s", ln.Addr())
		errc <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Noticef("Shutting down HTTP API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

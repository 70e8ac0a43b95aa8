// Package api - Thin HTTP layer over the calculation engine
// The API is ONLY responsible for: request decoding, engine orchestration, response encoding.
// The API NEVER performs bill, savings or ROI logic.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"green-roi/core/engine"
	"green-roi/core/output"
)

// Options configures the HTTP server
type Options struct {
	// Version is reported by /health and /version
	Version string

	// AllowedOrigins is the CORS allow list; empty allows none
	AllowedOrigins []string

	// Logger receives one line per request; nil discards
	Logger *zap.Logger
}

// Server is the API server
type Server struct {
	engine  *engine.Engine
	router  *gin.Engine
	handler http.Handler
	formats *output.Registry
	logger  *zap.Logger
	version string
}

// NewServer creates a new API server around an engine
func NewServer(eng *engine.Engine, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(recovery(logger))
	router.Use(requestID())
	router.Use(requestLogger(logger))

	s := &Server{
		engine:  eng,
		router:  router,
		formats: output.NewRegistry(),
		logger:  logger,
		version: opts.Version,
	}
	s.registerRoutes()

	s.handler = cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler(router)

	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/version", s.handleVersion)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/bill", s.handleBill)
		v1.POST("/usage", s.handleUsage)
		v1.POST("/recommend", s.handleRecommend)
		v1.POST("/project", s.handleProject)
		v1.POST("/calculate", s.handleCalculate)

		v1.GET("/tariffs/:commodity", s.handleTariff)
		v1.GET("/states", s.handleStates)
		v1.GET("/houses", s.handleHouses)
	}

	s.router.NoRoute(func(c *gin.Context) {
		writeError(c, errNoRoute(c.Request.URL.Path))
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for at most shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

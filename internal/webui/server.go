// Package webui serves the chat widget and the JSON API over gin.
package webui

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"pooly/internal/catalog"
	"pooly/internal/chat"
	"pooly/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

//go:embed static
var staticFiles embed.FS

// ChatService is what the HTTP layer needs from chat.Service.
type ChatService interface {
	HandleTurn(ctx context.Context, req chat.TurnRequest) (chat.TurnResponse, error)
	CatalogText(ctx context.Context) (string, bool)
	SearchCatalog(ctx context.Context, query string, max int) []catalog.Snippet
	RegenerateCatalogText(ctx context.Context) (catalog.Generated, error)
}

// Options configures the server.
type Options struct {
	Port   int
	Layout catalog.Layout

	// RateLimit applies to /api/chat per client address.
	RateLimit RateLimit

	// SearchLimit caps /api/catalog/search results.
	SearchLimit int

	// AllowOrigins restricts CORS; empty allows any origin.
	AllowOrigins []string

	// Registry receives the server metrics. Nil creates a private one.
	Registry *prometheus.Registry
}

// Server represents the web backend.
type Server struct {
	service ChatService
	opts    Options
	engine  *gin.Engine
	limiter *ipLimiter
	metrics *metrics
}

// NewServer builds the router; call Start to listen.
func NewServer(service ChatService, opts Options) (*Server, error) {
	if opts.Port == 0 {
		opts.Port = 2025
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 20
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	m, err := newMetrics(opts.Registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	s := &Server{
		service: service,
		opts:    opts,
		limiter: newIPLimiter(opts.RateLimit),
		metrics: m,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() error {
	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}
	r.Use(logging.GinLogrusLogger(), logging.GinLogrusRecovery(), corsMiddleware(s.opts.AllowOrigins), s.metrics.middleware())

	r.GET("/healthz", func(c *gin.Context) {
		logging.SkipGinRequestLogging(c)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	metricsHandler := s.metrics.handler()
	r.GET("/metrics", func(c *gin.Context) {
		logging.SkipGinRequestLogging(c)
		metricsHandler.ServeHTTP(c.Writer, c.Request)
	})

	r.POST("/api/chat", s.limiter.middleware(s.metrics), s.handleChat)

	// /api/catalogo is the path the first widget release used.
	for _, prefix := range []string{"/api/catalog", "/api/catalogo"} {
		g := r.Group(prefix)
		g.GET("", s.handleCatalogInfo(prefix))
		g.GET("/pdf", s.handleCatalogPDF)
		g.GET("/txt", s.handleCatalogTxt)
		g.GET("/search", s.handleCatalogSearch)
		g.GET("/generate-text", s.handleGenerateText)
		g.POST("/generate-text", s.handleGenerateText)
	}

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to load static files: %w", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	})

	s.engine = r
	return nil
}

// Start serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("webui: shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("webui: shutdown")
		}
	}()

	log.Infof("webui: 🌐 listening on http://localhost:%d", s.opts.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webui server error: %w", err)
	}
	return nil
}

func corsMiddleware(allowOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))

		allowedOrigin := ""
		if origin != "" {
			switch {
			case len(allowOrigins) == 0:
				allowedOrigin = "*"
			case originAllowed(allowOrigins, origin):
				allowedOrigin = origin
			}
		}
		if allowedOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowedOrigin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
			if allowedOrigin != "*" {
				c.Header("Vary", "Origin")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(allowOrigins []string, origin string) bool {
	for _, allowed := range allowOrigins {
		allowed = strings.TrimSpace(allowed)
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

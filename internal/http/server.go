// Package http exposes the fanlink JSON API: link resolution, tracklist
// assembly, smart link publishing and the view-page data endpoint, plus the
// usual health and metrics surface.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fanlink/internal/assemble"
	"fanlink/internal/core"
	"fanlink/internal/spotify"
	"fanlink/internal/store"
)

// TracklistAssembler builds preview/tracklist data for an entity.
type TracklistAssembler interface {
	Assemble(ctx context.Context, req assemble.Request) (*core.Tracklist, error)
}

// LinkStore persists and serves published smart links.
type LinkStore interface {
	Publish(ctx context.Context, rec store.PublishRecord) (string, error)
	GetBySlug(ctx context.Context, slug string) (*store.SmartLink, error)
}

// MetadataFetcher fetches Spotify page metadata. Optional; nil disables the
// spotify-metadata endpoint.
type MetadataFetcher interface {
	Metadata(ctx context.Context, url string) (*spotify.Metadata, error)
}

// Server is the fanlink HTTP server.
type Server struct {
	config    *core.ServerConfig
	logger    *zap.Logger
	server    *http.Server
	metrics   *Metrics
	resolver  core.LinkResolver
	assembler TracklistAssembler
	store     LinkStore
	metadata  MetadataFetcher
}

// NewServer wires the API routes. metadata may be nil when Spotify
// credentials are not configured.
func NewServer(
	config *core.ServerConfig,
	logger *zap.Logger,
	resolver core.LinkResolver,
	assembler TracklistAssembler,
	linkStore LinkStore,
	metadata MetadataFetcher,
) *Server {
	return newServer(config, logger, resolver, assembler, linkStore, metadata, prometheus.DefaultRegisterer)
}

func newServer(
	config *core.ServerConfig,
	logger *zap.Logger,
	resolver core.LinkResolver,
	assembler TracklistAssembler,
	linkStore LinkStore,
	metadata MetadataFetcher,
	registerer prometheus.Registerer,
) *Server {
	s := &Server{
		config:    config,
		logger:    logger,
		metrics:   NewMetrics(registerer),
		resolver:  resolver,
		assembler: assembler,
		store:     linkStore,
		metadata:  metadata,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "fanlink"})
	})
	engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": "fanlink"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.GET("/resolve", s.handleResolve)
	api.GET("/tracks", s.handleTracks)
	api.POST("/links", s.handlePublish)
	api.GET("/links/:slug", s.handleGetLink)
	api.GET("/spotify-metadata", s.handleSpotifyMetadata)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      engine,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// Handler returns the root HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

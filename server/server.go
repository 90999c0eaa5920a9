// Package server exposes the chat, studio and search sessions over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Desarso/parsa/models"
	"github.com/Desarso/parsa/sessions"
	"github.com/Desarso/parsa/stores"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Desarso/parsa/docs"
)

// Options configures the HTTP server.
type Options struct {
	Addr            string
	Environment     string
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
	// ImageDir is served under /images/ when set.
	ImageDir string
}

// Deps are the sessions and stores the handlers work on.
type Deps struct {
	Registry *sessions.Registry
	Studio   *sessions.StudioSession
	Gateway  models.Gateway
	Store    stores.MessageStore // optional
}

// Server wraps the gin engine with graceful shutdown helpers.
type Server struct {
	opts   Options
	engine *gin.Engine
	log    zerolog.Logger
}

// New constructs the HTTP server with default middleware and routes.
func New(opts Options, deps Deps, log zerolog.Logger) *Server {
	if opts.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	log = log.With().Str("component", "http").Logger()
	engine := gin.New()
	engine.Use(gin.Recovery(), accessLog(log))
	engine.MaxMultipartMemory = opts.MaxUploadBytes

	chat := &ChatHandler{registry: deps.Registry, store: deps.Store, maxUpload: opts.MaxUploadBytes, log: log}
	studio := &StudioHandler{studio: deps.Studio, gateway: deps.Gateway, maxUpload: opts.MaxUploadBytes, log: log}

	engine.GET("/healthz", func(c *gin.Context) {
		if deps.Store != nil {
			if err := deps.Store.Ping(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if opts.ImageDir != "" {
		engine.Static("/images", opts.ImageDir)
	}

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/conversations", chat.CreateConversation)
		v1.GET("/conversations", chat.ListConversations)
		v1.GET("/conversations/:id", chat.GetConversation)
		v1.GET("/conversations/:id/render", chat.RenderConversation)
		v1.DELETE("/conversations/:id", chat.ClearConversation)
		v1.POST("/conversations/:id/messages", chat.SubmitMessage)

		v1.POST("/images/generations", studio.GenerateImage)
		v1.POST("/images/edits", studio.EditImage)
		v1.POST("/search/web", studio.SearchWeb)
		v1.POST("/search/maps", studio.SearchMaps)
	}
	engine.GET("/ws/conversations/:id", chat.ConversationSocket)

	return &Server{opts: opts, engine: engine, log: log}
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.opts.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

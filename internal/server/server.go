package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/pngcrypt-go/internal/auth"
	"github.com/pngcrypt-go/internal/cache"
	"github.com/pngcrypt-go/internal/config"
	"github.com/pngcrypt-go/internal/dao"
	"github.com/pngcrypt-go/internal/fetch"
	"github.com/pngcrypt-go/internal/handler"
	"github.com/pngcrypt-go/internal/storage"
)

// binaryRoutes return raw bytes and are never gzipped
var binaryRoutes = []string{"/api/block/", "/api/png/"}

// Server represents the HTTP/2 server
type Server struct {
	cfg         *config.Config
	store       storage.Backend
	codecs      *cache.CodecCache
	router      *gin.Engine
	httpServer  *http.Server
	httpsServer *http.Server
	jwtAuth     *auth.JWTAuth
	userDAO     *dao.UserDAO
	jobDAO      *dao.JobDAO
	fetcher     *fetch.Client
}

// New creates a new server instance
func New(cfg *config.Config) (*Server, error) {
	store, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	return NewWithStore(cfg, store), nil
}

// NewWithStore creates a server on an already opened store. The server
// owns the store and closes it on Shutdown.
func NewWithStore(cfg *config.Config, store storage.Backend) *Server {
	ttl := time.Duration(cfg.Cache.Expiration) * time.Minute
	maxEntries := cfg.Cache.MaxEntries
	if !cfg.Cache.Enable {
		maxEntries = 0
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		codecs:  cache.NewCodecCache(ttl, maxEntries),
		jwtAuth: handler.NewJWTAuth(cfg),
		userDAO: dao.NewUserDAO(store),
		jobDAO:  dao.NewJobDAO(store),
		fetcher: fetch.NewClient(cfg.Fetch),
	}

	// Ensure default admin user exists
	if err := s.userDAO.EnsureDefaultUser(); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure default user")
	}

	s.setupRoutes()
	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := gin.New()
	s.router = r

	// Middleware
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gzip.Gzip(gzip.BestSpeed, gzip.WithExcludedPaths(binaryRoutes)))

	r.GET("/health", HealthHandler)
	r.GET("/ready", ReadyHandler(s.store))

	apiHandler := handler.NewAPIHandler(s.cfg, s.jwtAuth, s.userDAO)
	transformHandler := handler.NewTransformHandler(s.cfg, s.codecs, s.fetcher, s.jobDAO)

	api := r.Group("/api")
	// Public routes (no auth required)
	api.POST("/login", apiHandler.Login)

	// Protected routes (auth required)
	protected := api.Group("", AuthMiddleware(s.jwtAuth))
	protected.GET("/user", apiHandler.GetUserInfo)
	protected.POST("/user/password", apiHandler.UpdatePassword)
	protected.GET("/algorithms", apiHandler.Algorithms)

	protected.POST("/block/encrypt", transformHandler.BlockEncrypt)
	protected.POST("/block/decrypt", transformHandler.BlockDecrypt)
	protected.POST("/png/encrypt", transformHandler.PNGEncrypt)
	protected.POST("/png/decrypt", transformHandler.PNGDecrypt)

	protected.GET("/jobs", transformHandler.ListJobs)
	protected.GET("/jobs/:id", transformHandler.GetJob)
}

// Start starts the server(s) and blocks until one of them fails
func (s *Server) Start() error {
	errChan := make(chan error, 2)

	// Start HTTP server
	s.httpServer = s.newHTTPServer()
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("Starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start HTTPS server if enabled
	if s.cfg.IsHTTPSEnabled() {
		srv, err := s.newHTTPSServer()
		if err != nil {
			return err
		}
		s.httpsServer = srv
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("Starting HTTPS server with HTTP/2")
			if err := srv.ListenAndServeTLS(s.cfg.Server.CertFile, s.cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("HTTPS server error: %w", err)
			}
		}()
	}

	// Wait for error
	return <-errChan
}

func (s *Server) newHTTPServer() *http.Server {
	var httpHandler http.Handler = s.router

	// Enable h2c (HTTP/2 cleartext) if configured
	if s.cfg.Server.EnableH2C {
		h2s := &http2.Server{
			MaxConcurrentStreams: 250,
			IdleTimeout:          120 * time.Second,
		}
		httpHandler = h2c.NewHandler(s.router, h2s)
		log.Info().Msg("HTTP/2 cleartext (h2c) enabled")
	}

	return &http.Server{
		Addr:              s.cfg.GetHTTPAddr(),
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (s *Server) newHTTPSServer() (*http.Server, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		NextProtos: []string{"h2", "http/1.1"},
	}

	srv := &http.Server{
		Addr:              s.cfg.GetHTTPSAddr(),
		Handler:           s.router,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Enable HTTP/2
	if err := http2.ConfigureServer(srv, &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}); err != nil {
		return nil, fmt.Errorf("configure HTTP/2: %w", err)
	}
	return srv, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down server...")

	var lastErr error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			lastErr = err
		}
	}

	if s.httpsServer != nil {
		if err := s.httpsServer.Shutdown(ctx); err != nil {
			lastErr = err
		}
	}

	s.codecs.Close()

	if err := s.store.Close(); err != nil {
		lastErr = err
	}

	return lastErr
}

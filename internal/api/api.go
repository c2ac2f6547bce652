// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/corewatch/internal/alerting"
	"github.com/good-yellow-bee/corewatch/internal/api/health"
	"github.com/good-yellow-bee/corewatch/internal/broadcast"
	"github.com/good-yellow-bee/corewatch/internal/eventlog"
	"github.com/good-yellow-bee/corewatch/internal/scenario"
	"github.com/good-yellow-bee/corewatch/internal/storage"
	"github.com/good-yellow-bee/corewatch/internal/telemetry"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address              string
	JWTSecret            []byte
	OperatorUsername     string // Username accepted at login
	OperatorPasswordHash string // bcrypt hash of the operator password
	HTTPTLSEnabled       bool   // Enable HTTPS for API server
	HTTPTLSCertFile      string // HTTPS certificate file
	HTTPTLSKeyFile       string // HTTPS private key file
	AccessTokenTTL       time.Duration
	RateLimitPerIP       int
	RateLimitPerToken    int
	LockoutThreshold     int
	LockoutDuration      time.Duration
	QueryTimeout         time.Duration // Timeout for storage-backed API calls
	Verbose              bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.OperatorUsername == "" {
		c.OperatorUsername = "operator"
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 12 * time.Hour
	}
	if c.RateLimitPerIP == 0 {
		c.RateLimitPerIP = 10 // login attempts per minute
	}
	if c.RateLimitPerToken == 0 {
		c.RateLimitPerToken = 300 // requests per minute
	}
	if c.LockoutThreshold == 0 {
		c.LockoutThreshold = 5
	}
	if c.LockoutDuration == 0 {
		c.LockoutDuration = 15 * time.Minute
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 10 * time.Second
	}
}

// Server is the HTTP API server.
type Server struct {
	config        *Config
	storage       storage.Storage
	latest        *telemetry.LatestStore
	alerts        *alerting.Manager
	hub           *broadcast.Hub
	orchestrator  *scenario.Orchestrator
	recorder      *eventlog.Recorder
	server        *http.Server
	healthHandler *health.Handler
}

// New creates a new API server.
func New(cfg *Config, store storage.Storage, latest *telemetry.LatestStore, alerts *alerting.Manager, hub *broadcast.Hub, orch *scenario.Orchestrator, recorder *eventlog.Recorder) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT secret is required")
	}
	if cfg.OperatorPasswordHash == "" {
		return nil, fmt.Errorf("operator password hash is required")
	}

	cfg.SetDefaults()

	s := &Server{
		config:        cfg,
		storage:       store,
		latest:        latest,
		alerts:        alerts,
		hub:           hub,
		orchestrator:  orch,
		recorder:      recorder,
		healthHandler: health.NewHandler(),
	}

	router := s.setupRouter()

	s.server = &http.Server{
		Addr:        cfg.Address,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout is intentionally 0 (disabled) because the server
		// carries long-lived WebSocket stream connections. A global
		// WriteTimeout would kill them. Non-streaming handlers bound
		// their own storage calls with context deadlines.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	if cfg.HTTPTLSEnabled {
		s.server.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS13,
		}
	}

	return s, nil
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("HTTP API listening on %s", s.config.Address)
		var err error
		if s.config.HTTPTLSEnabled {
			err = s.server.ListenAndServeTLS(s.config.HTTPTLSCertFile, s.config.HTTPTLSKeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// RegisterHealthChecker adds a health checker to the server.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	if s.healthHandler != nil {
		s.healthHandler.RegisterChecker(c)
	}
}

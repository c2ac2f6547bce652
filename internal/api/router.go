package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/corewatch/internal/api/alerts"
	"github.com/good-yellow-bee/corewatch/internal/api/auth"
	"github.com/good-yellow-bee/corewatch/internal/api/connections"
	"github.com/good-yellow-bee/corewatch/internal/api/insights"
	"github.com/good-yellow-bee/corewatch/internal/api/middleware"
	"github.com/good-yellow-bee/corewatch/internal/api/readings"
	"github.com/good-yellow-bee/corewatch/internal/api/scenarios"
	"github.com/good-yellow-bee/corewatch/internal/api/stream"
	"github.com/good-yellow-bee/corewatch/internal/api/syslog"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	jwtService := auth.NewJWTService(s.config.JWTSecret, s.config.AccessTokenTTL)
	lockoutTracker := auth.NewLockoutTracker(s.config.LockoutThreshold, s.config.LockoutDuration)

	ipLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)
	tokenLimiter := middleware.NewRateLimiter(s.config.RateLimitPerToken)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public, IP rate limited)
		r.Route("/auth", func(r chi.Router) {
			authHandler := auth.NewHandler(
				s.config.OperatorUsername,
				s.config.OperatorPasswordHash,
				jwtService,
				lockoutTracker,
			)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(ipLimiter))
				r.Post("/login", authHandler.Login)
			})
		})

		// WebSocket stream. Does its own token check so browser
		// clients can pass the token as a query parameter.
		streamHandler := stream.NewHandler(s.hub, jwtService)
		r.Get("/stream", streamHandler.Serve)

		// Dashboard data routes (protected)
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtService))
			r.Use(middleware.RateLimitByToken(tokenLimiter))

			readingsHandler := readings.NewHandler(s.latest, s.storage.Readings(), s.config.QueryTimeout)
			r.Route("/readings", func(r chi.Router) {
				r.Get("/", readingsHandler.List)
				r.Get("/{sensorID}/history", readingsHandler.History)
			})

			alertsHandler := alerts.NewHandler(s.alerts, s.hub, s.recorder, s.config.QueryTimeout)
			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", alertsHandler.List)
				r.Post("/{id}/ack", alertsHandler.Acknowledge)
			})

			insightsHandler := insights.NewHandler(s.storage.Recommendations(), s.config.QueryTimeout)
			r.Get("/insights", insightsHandler.List)

			logsHandler := syslog.NewHandler(s.storage.SystemLog(), s.config.QueryTimeout)
			r.Get("/logs", logsHandler.List)

			connectionsHandler := connections.NewHandler(s.storage.Connections(), s.hub, s.config.QueryTimeout)
			r.Get("/connections", connectionsHandler.List)

			scenariosHandler := scenarios.NewHandler(s.orchestrator)
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", scenariosHandler.List)
				r.Get("/active", scenariosHandler.Active)
				r.Post("/stop", scenariosHandler.Stop)
				r.Post("/{id}/start", scenariosHandler.Start)
			})
		})
	})

	// Health checks (public, no rate limit)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	return r
}

// Package server exposes the identity and connection APIs over HTTP. It is a
// thin JSON adapter: all behavior lives in the auth, oauthflow and companies
// packages.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/taxbyte/go-identity-server/auth"
	"github.com/taxbyte/go-identity-server/companies"
	"github.com/taxbyte/go-identity-server/internal/config"
	"github.com/taxbyte/go-identity-server/internal/metrics"
)

type Server struct {
	router   chi.Router
	config   config.Config
	auth     *auth.Service
	connect  *companies.ConnectService
	throttle *ipThrottle
}

func New(cfg config.Config, authService *auth.Service, connectService *companies.ConnectService, gatherer prometheus.Gatherer) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[server.New] config is required")
	}
	if authService == nil {
		return nil, errors.New("[server.New] auth service is required")
	}
	if connectService == nil {
		return nil, errors.New("[server.New] connect service is required")
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		auth:    authService,
		connect: connectService,
	}
	s.routes(gatherer)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops the server's background goroutines.
func (s *Server) Close() {
	s.throttle.stop()
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(recoverer)

	s.router.Get("/health", s.healthHandler())
	if gatherer != nil {
		s.router.Handle("/metrics", metrics.Handler(gatherer))
	}

	s.throttle = newIPThrottle()
	s.router.Route("/auth", func(r chi.Router) {
		r.With(s.throttle.middleware).Post("/register", s.registerHandler())
		r.With(s.throttle.middleware).Post("/login", s.loginHandler())
		r.Post("/logout", s.logoutHandler())

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/logout-all", s.logoutAllHandler())
			r.Get("/me", s.meHandler())
		})
	})

	s.router.Route("/companies/{companyID}/drive", func(r chi.Router) {
		r.Use(s.requireSession)
		r.Post("/connect", s.connectDriveHandler())
		r.Post("/refresh", s.refreshDriveHandler())
		r.Post("/disconnect", s.disconnectDriveHandler())
		r.Get("/test", s.testDriveHandler())
	})

	// The provider redirects the browser here; the pending state carries the
	// company and user, so no session is required.
	s.router.Get("/oauth/callback", s.oauthCallbackHandler())
}

func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "env": s.config.GetEnv()})
	}
}

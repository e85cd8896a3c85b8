package adapthttp

import (
	"net/http"

	"jobflow/internal/app"
	"jobflow/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the application services the HTTP adapter routes to.
type Deps struct {
	Auth        *app.AuthService
	Sessions    *app.SessionManager
	Gate        *app.Gate
	Jobs        *app.JobService
	Connections *app.ConnectionService
	Outreach    *app.OutreachService
	Dashboard   *app.DashboardService
	Health      *app.HealthService

	// Metrics and MetricsHandler are optional.
	Metrics        *telemetry.Metrics
	MetricsHandler http.Handler

	// OIDC is nil when SSO is not configured.
	OIDC *OIDCConfig

	WebDir     string
	Production bool
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	Deps
}

// New creates a Server wired to the given application services.
func New(d Deps) *Server {
	return &Server{Deps: d}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.tracing)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(s.metrics)
	r.Use(withNoCache)

	if s.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/config", s.handleConfig)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Get("/sso/login", s.handleSSOLogin)
			r.Get("/sso/callback", s.handleSSOCallback)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAPI)
				r.Post("/logout-all", s.handleLogoutAll)
				r.Get("/me", s.handleMe)
				r.Post("/password", s.handleChangePassword)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAPI)

			r.Get("/jobs", s.handleJobsList)
			r.Post("/jobs", s.handleJobCreate)
			r.Get("/jobs/{id}", s.handleJobGet)
			r.Patch("/jobs/{id}", s.handleJobUpdate)
			r.Delete("/jobs/{id}", s.handleJobDelete)

			r.Get("/connections", s.handleConnectionsList)
			r.Post("/connections", s.handleConnectionCreate)
			r.Get("/connections/{id}", s.handleConnectionGet)
			r.Patch("/connections/{id}", s.handleConnectionUpdate)
			r.Delete("/connections/{id}", s.handleConnectionDelete)
			r.Get("/connections/{id}/outreach", s.handleOutreachList)
			r.Post("/connections/{id}/outreach", s.handleOutreachCreate)
			r.Delete("/outreach/{id}", s.handleOutreachDelete)

			r.Get("/dashboard", s.handleDashboard)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
		})
	})

	spa := spaFromDisk(s.WebDir)
	r.Group(func(r chi.Router) {
		r.Use(s.requirePage)
		for _, p := range []string{"/", "/jobs", "/jobs/{id}", "/connections", "/connections/{id}"} {
			r.Get(p, spa.ServeHTTP)
		}
	})
	r.Get("/login", spa.ServeHTTP)
	r.Get("/signup", spa.ServeHTTP)
	r.NotFound(spa.ServeHTTP)

	return r
}

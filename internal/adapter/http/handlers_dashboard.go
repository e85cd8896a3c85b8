package adapthttp

import (
	"net/http"

	"github.com/rs/zerolog"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Dashboard.Summary(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	users, err := s.Health.Check(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "users": users})
}

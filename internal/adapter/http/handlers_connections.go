package adapthttp

import (
	"net/http"
	"time"

	"jobflow/internal/domain"

	"github.com/go-chi/chi/v5"
)

type connectionRequest struct {
	Name        string `json:"name"`
	Company     string `json:"company"`
	Title       string `json:"title"`
	Email       string `json:"email"`
	LinkedInURL string `json:"linkedinUrl"`
	Notes       string `json:"notes"`
}

type connectionPatchRequest struct {
	Name        *string `json:"name"`
	Company     *string `json:"company"`
	Title       *string `json:"title"`
	Email       *string `json:"email"`
	LinkedInURL *string `json:"linkedinUrl"`
	Notes       *string `json:"notes"`
}

type outreachRequest struct {
	Type       domain.OutreachType `json:"type"`
	OccurredAt *time.Time          `json:"occurredAt"`
	Notes      string              `json:"notes"`
}

func (s *Server) handleConnectionsList(w http.ResponseWriter, r *http.Request) {
	filter := domain.ConnectionFilter{Query: r.URL.Query().Get("q")}
	page := domain.NewPage(intQuery(r, "page", 1), domain.DefaultPageSize)

	conns, total, err := s.Connections.List(r.Context(), userID(r), filter, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if conns == nil {
		conns = []domain.Connection{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": conns, "pagination": page.Describe(total)})
}

func (s *Server) handleConnectionCreate(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	conn, err := s.Connections.Create(r.Context(), userID(r), domain.ConnectionInput(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

func (s *Server) handleConnectionGet(w http.ResponseWriter, r *http.Request) {
	detail, err := s.Connections.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleConnectionUpdate(w http.ResponseWriter, r *http.Request) {
	var req connectionPatchRequest
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	conn, err := s.Connections.Update(r.Context(), userID(r), chi.URLParam(r, "id"), domain.ConnectionPatch(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (s *Server) handleConnectionDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.Connections.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleOutreachList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Outreach.ListForConnection(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"outreach": entries})
}

// handleOutreachCreate defaults occurredAt to now when the client omits it.
func (s *Server) handleOutreachCreate(w http.ResponseWriter, r *http.Request) {
	var req outreachRequest
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in := domain.OutreachInput{Type: req.Type, Notes: req.Notes, OccurredAt: time.Now().UTC()}
	if req.OccurredAt != nil {
		in.OccurredAt = *req.OccurredAt
	}

	entry, err := s.Outreach.Create(r.Context(), userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleOutreachDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.Outreach.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

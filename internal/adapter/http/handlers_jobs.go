package adapthttp

import (
	"encoding/json"
	"net/http"
	"time"

	"jobflow/internal/domain"

	"github.com/go-chi/chi/v5"
)

type jobRequest struct {
	Company     string           `json:"company"`
	Role        string           `json:"role"`
	Status      domain.JobStatus `json:"status"`
	URL         string           `json:"url"`
	Location    string           `json:"location"`
	SalaryRange string           `json:"salaryRange"`
	Notes       string           `json:"notes"`
	AppliedAt   *time.Time       `json:"appliedAt"`
}

type jobPatchRequest struct {
	Company     *string           `json:"company"`
	Role        *string           `json:"role"`
	Status      *domain.JobStatus `json:"status"`
	URL         *string           `json:"url"`
	Location    *string           `json:"location"`
	SalaryRange *string           `json:"salaryRange"`
	Notes       *string           `json:"notes"`
	AppliedAt   optionalTime      `json:"appliedAt"`
}

// optionalTime tells an absent field apart from an explicit null.
type optionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *optionalTime) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

func (s *Server) handleJobsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.JobFilter{
		Status: domain.JobStatus(q.Get("status")),
		Query:  q.Get("q"),
	}
	page := domain.NewPage(intQuery(r, "page", 1), domain.DefaultPageSize)

	jobs, total, err := s.Jobs.List(r.Context(), userID(r), filter, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []domain.JobApplication{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "pagination": page.Describe(total)})
}

func (s *Server) handleJobCreate(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.Jobs.Create(r.Context(), userID(r), domain.JobInput{
		Company:     req.Company,
		Role:        req.Role,
		Status:      req.Status,
		URL:         req.URL,
		Location:    req.Location,
		SalaryRange: req.SalaryRange,
		Notes:       req.Notes,
		AppliedAt:   req.AppliedAt,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleJobGet(w http.ResponseWriter, r *http.Request) {
	job, err := s.Jobs.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobUpdate(w http.ResponseWriter, r *http.Request) {
	var req jobPatchRequest
	if err := parseJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch := domain.JobPatch{
		Company:     req.Company,
		Role:        req.Role,
		Status:      req.Status,
		URL:         req.URL,
		Location:    req.Location,
		SalaryRange: req.SalaryRange,
		Notes:       req.Notes,
	}
	if req.AppliedAt.Set {
		patch.AppliedAt = req.AppliedAt.Value
		patch.ClearAppliedAt = req.AppliedAt.Value == nil
	}

	job, err := s.Jobs.Update(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.Jobs.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

package app

import (
	"context"
	"strings"

	"jobflow/internal/domain"
)

// JobService encapsulates job application use cases. Every method takes the
// authenticated user's id; no owner id ever comes from the client.
type JobService struct {
	repo domain.JobRepository
}

// NewJobService creates a JobService backed by the given repository.
func NewJobService(repo domain.JobRepository) *JobService {
	return &JobService{repo: repo}
}

// List returns one page of the user's applications, newest first, and the
// total number of matches.
func (s *JobService) List(ctx context.Context, userID string, f domain.JobFilter, p domain.Page) ([]domain.JobApplication, int, error) {
	if f.Status == "ALL" {
		f.Status = ""
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, domain.Validation("jobs.list", "invalid status")
	}
	f.Query = strings.TrimSpace(f.Query)
	jobs, total, err := s.repo.ListJobs(ctx, userID, f, p)
	if err != nil {
		return nil, 0, domain.Internal("jobs.list", err)
	}
	return jobs, total, nil
}

// Create validates and stores a new application owned by userID.
func (s *JobService) Create(ctx context.Context, userID string, in domain.JobInput) (*domain.JobApplication, error) {
	const op = "jobs.create"
	in.Company = strings.TrimSpace(in.Company)
	in.Role = strings.TrimSpace(in.Role)
	if in.Company == "" {
		return nil, domain.Validation(op, "company is required")
	}
	if in.Role == "" {
		return nil, domain.Validation(op, "role is required")
	}
	if in.Status == "" {
		in.Status = domain.StatusWishlist
	}
	if !in.Status.Valid() {
		return nil, domain.Validation(op, "invalid status")
	}
	job, err := s.repo.CreateJob(ctx, userID, in)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	return job, nil
}

// Get returns the application if userID owns it.
func (s *JobService) Get(ctx context.Context, userID, id string) (*domain.JobApplication, error) {
	return Authorize(ctx, "jobs.get", s.repo.FindJob, id, userID)
}

// Update applies a partial update in one owner-scoped write.
func (s *JobService) Update(ctx context.Context, userID, id string, p domain.JobPatch) (*domain.JobApplication, error) {
	const op = "jobs.update"
	if p.Company != nil && strings.TrimSpace(*p.Company) == "" {
		return nil, domain.Validation(op, "company cannot be empty")
	}
	if p.Role != nil && strings.TrimSpace(*p.Role) == "" {
		return nil, domain.Validation(op, "role cannot be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return nil, domain.Validation(op, "invalid status")
	}
	return Authorize(ctx, op, func(ctx context.Context, id, ownerID string) (*domain.JobApplication, error) {
		return s.repo.UpdateJob(ctx, id, ownerID, p)
	}, id, userID)
}

// Delete removes the application if userID owns it.
func (s *JobService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.repo.DeleteJob(ctx, id, userID)
	return mutated("jobs.delete", ok, err)
}

package domain

import (
	"context"
	"time"
)

// JobStatus is the pipeline stage of a job application.
type JobStatus string

const (
	StatusWishlist  JobStatus = "WISHLIST"
	StatusApplied   JobStatus = "APPLIED"
	StatusScreen    JobStatus = "SCREEN"
	StatusInterview JobStatus = "INTERVIEW"
	StatusOffer     JobStatus = "OFFER"
	StatusRejected  JobStatus = "REJECTED"
)

// JobStatuses lists every status in pipeline order.
var JobStatuses = []JobStatus{
	StatusWishlist, StatusApplied, StatusScreen, StatusInterview, StatusOffer, StatusRejected,
}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	for _, v := range JobStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Active reports whether the application is still in flight.
func (s JobStatus) Active() bool {
	return s == StatusApplied || s == StatusScreen || s == StatusInterview
}

// JobApplication is a tracked application owned by exactly one user.
type JobApplication struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Company     string     `json:"company"`
	Role        string     `json:"role"`
	Status      JobStatus  `json:"status"`
	URL         string     `json:"url,omitempty"`
	Location    string     `json:"location,omitempty"`
	SalaryRange string     `json:"salaryRange,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	AppliedAt   *time.Time `json:"appliedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// JobInput carries the fields of a new job application. Owner comes from the
// session, never from the input.
type JobInput struct {
	Company     string
	Role        string
	Status      JobStatus
	URL         string
	Location    string
	SalaryRange string
	Notes       string
	AppliedAt   *time.Time
}

// JobPatch is a partial update; nil fields are left untouched and empty
// strings clear optional columns.
type JobPatch struct {
	Company        *string
	Role           *string
	Status         *JobStatus
	URL            *string
	Location       *string
	SalaryRange    *string
	Notes          *string
	AppliedAt      *time.Time
	ClearAppliedAt bool
}

// Apply copies the set fields of p onto j.
func (p JobPatch) Apply(j *JobApplication) {
	if p.Company != nil {
		j.Company = *p.Company
	}
	if p.Role != nil {
		j.Role = *p.Role
	}
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.URL != nil {
		j.URL = *p.URL
	}
	if p.Location != nil {
		j.Location = *p.Location
	}
	if p.SalaryRange != nil {
		j.SalaryRange = *p.SalaryRange
	}
	if p.Notes != nil {
		j.Notes = *p.Notes
	}
	if p.ClearAppliedAt {
		j.AppliedAt = nil
	} else if p.AppliedAt != nil {
		t := *p.AppliedAt
		j.AppliedAt = &t
	}
}

// JobFilter narrows a job listing. Empty fields do not filter.
type JobFilter struct {
	Status JobStatus
	Query  string
}

// JobRepository is the port for job application persistence. Every method
// that touches a single record takes both the record id and the owner id and
// applies them in the same statement; lookups return (nil, nil) on a miss.
type JobRepository interface {
	CreateJob(ctx context.Context, ownerID string, in JobInput) (*JobApplication, error)
	FindJob(ctx context.Context, id, ownerID string) (*JobApplication, error)
	ListJobs(ctx context.Context, ownerID string, f JobFilter, p Page) ([]JobApplication, int, error)
	UpdateJob(ctx context.Context, id, ownerID string, p JobPatch) (*JobApplication, error)
	DeleteJob(ctx context.Context, id, ownerID string) (bool, error)
	CountJobsByStatus(ctx context.Context, ownerID string) (map[JobStatus]int, error)
}

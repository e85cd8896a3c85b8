package app

import (
	"context"

	"jobflow/internal/domain"
)

// HealthService reports whether storage is reachable.
type HealthService struct {
	db    domain.Pinger
	users domain.UserRepository
}

// NewHealthService creates a HealthService.
func NewHealthService(db domain.Pinger, users domain.UserRepository) *HealthService {
	return &HealthService{db: db, users: users}
}

// Check pings storage and returns the number of registered users.
func (s *HealthService) Check(ctx context.Context) (int, error) {
	if err := s.db.Ping(ctx); err != nil {
		return 0, domain.Internal("health.ping", err)
	}
	n, err := s.users.Count(ctx)
	if err != nil {
		return 0, domain.Internal("health.count_users", err)
	}
	return n, nil
}

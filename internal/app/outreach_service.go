package app

import (
	"context"
	"strings"

	"jobflow/internal/domain"
)

// OutreachService encapsulates outreach use cases. Outreach entries have a
// second ownership link through their connection, and both links must point
// at the caller.
type OutreachService struct {
	repo        domain.OutreachRepository
	connections domain.ConnectionRepository
}

// NewOutreachService creates an OutreachService.
func NewOutreachService(repo domain.OutreachRepository, connections domain.ConnectionRepository) *OutreachService {
	return &OutreachService{repo: repo, connections: connections}
}

// ListForConnection returns the outreach logged against a connection the
// user owns, newest first.
func (s *OutreachService) ListForConnection(ctx context.Context, userID, connectionID string) ([]domain.OutreachEntry, error) {
	const op = "outreach.list"
	if _, err := Authorize(ctx, op, s.connections.FindConnection, connectionID, userID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListOutreachForConnection(ctx, connectionID, userID)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	if entries == nil {
		entries = []domain.OutreachEntry{}
	}
	return entries, nil
}

// Create logs outreach against connectionID. The connection must belong to
// userID; the store re-checks that in the insert itself, so a connection
// deleted or reassigned in between still yields NotFound.
func (s *OutreachService) Create(ctx context.Context, userID, connectionID string, in domain.OutreachInput) (*domain.OutreachEntry, error) {
	const op = "outreach.create"
	in.Notes = strings.TrimSpace(in.Notes)
	if !in.Type.Valid() {
		return nil, domain.Validation(op, "invalid outreach type")
	}
	if in.OccurredAt.IsZero() {
		return nil, domain.Validation(op, "occurredAt is required")
	}
	if in.Notes == "" {
		return nil, domain.Validation(op, "notes are required")
	}

	if _, err := Authorize(ctx, op, s.connections.FindConnection, connectionID, userID); err != nil {
		return nil, err
	}
	return Authorize(ctx, op, func(ctx context.Context, connectionID, ownerID string) (*domain.OutreachEntry, error) {
		return s.repo.CreateOutreach(ctx, ownerID, connectionID, in)
	}, connectionID, userID)
}

// Delete removes an outreach entry if userID owns it.
func (s *OutreachService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.repo.DeleteOutreach(ctx, id, userID)
	return mutated("outreach.delete", ok, err)
}

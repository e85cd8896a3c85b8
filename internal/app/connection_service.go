package app

import (
	"context"
	"strings"

	"jobflow/internal/domain"
)

// ConnectionService encapsulates connection use cases.
type ConnectionService struct {
	repo     domain.ConnectionRepository
	outreach domain.OutreachRepository
}

// NewConnectionService creates a ConnectionService.
func NewConnectionService(repo domain.ConnectionRepository, outreach domain.OutreachRepository) *ConnectionService {
	return &ConnectionService{repo: repo, outreach: outreach}
}

// ConnectionDetail is a connection together with its outreach history.
type ConnectionDetail struct {
	domain.Connection
	OutreachEntries []domain.OutreachEntry `json:"outreachEntries"`
}

// List returns one page of the user's connections and the total count.
func (s *ConnectionService) List(ctx context.Context, userID string, f domain.ConnectionFilter, p domain.Page) ([]domain.Connection, int, error) {
	f.Query = strings.TrimSpace(f.Query)
	items, total, err := s.repo.ListConnections(ctx, userID, f, p)
	if err != nil {
		return nil, 0, domain.Internal("connections.list", err)
	}
	return items, total, nil
}

// Create validates and stores a new connection owned by userID.
func (s *ConnectionService) Create(ctx context.Context, userID string, in domain.ConnectionInput) (*domain.Connection, error) {
	const op = "connections.create"
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.Validation(op, "name is required")
	}
	c, err := s.repo.CreateConnection(ctx, userID, in)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	return c, nil
}

// Get returns the connection and its outreach entries, newest first.
func (s *ConnectionService) Get(ctx context.Context, userID, id string) (*ConnectionDetail, error) {
	const op = "connections.get"
	c, err := Authorize(ctx, op, s.repo.FindConnection, id, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.outreach.ListOutreachForConnection(ctx, c.ID, userID)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	if entries == nil {
		entries = []domain.OutreachEntry{}
	}
	return &ConnectionDetail{Connection: *c, OutreachEntries: entries}, nil
}

// Update applies a partial update in one owner-scoped write.
func (s *ConnectionService) Update(ctx context.Context, userID, id string, p domain.ConnectionPatch) (*domain.Connection, error) {
	const op = "connections.update"
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return nil, domain.Validation(op, "name cannot be empty")
	}
	return Authorize(ctx, op, func(ctx context.Context, id, ownerID string) (*domain.Connection, error) {
		return s.repo.UpdateConnection(ctx, id, ownerID, p)
	}, id, userID)
}

// Delete removes the connection and its outreach entries if userID owns it.
func (s *ConnectionService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.repo.DeleteConnection(ctx, id, userID)
	return mutated("connections.delete", ok, err)
}

package domain

import (
	"context"
	"time"
)

// Connection is a professional contact owned by exactly one user.
type Connection struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Company     string    `json:"company,omitempty"`
	Title       string    `json:"title,omitempty"`
	Email       string    `json:"email,omitempty"`
	LinkedInURL string    `json:"linkedinUrl,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ConnectionInput carries the fields of a new connection.
type ConnectionInput struct {
	Name        string
	Company     string
	Title       string
	Email       string
	LinkedInURL string
	Notes       string
}

// ConnectionPatch is a partial update; nil fields are left untouched.
type ConnectionPatch struct {
	Name        *string
	Company     *string
	Title       *string
	Email       *string
	LinkedInURL *string
	Notes       *string
}

// Apply copies the set fields of p onto c.
func (p ConnectionPatch) Apply(c *Connection) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.LinkedInURL != nil {
		c.LinkedInURL = *p.LinkedInURL
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
}

// ConnectionFilter narrows a connection listing by name or company.
type ConnectionFilter struct {
	Query string
}

// ConnectionRepository is the port for connection persistence. Deleting a
// connection removes its outreach entries.
type ConnectionRepository interface {
	CreateConnection(ctx context.Context, ownerID string, in ConnectionInput) (*Connection, error)
	FindConnection(ctx context.Context, id, ownerID string) (*Connection, error)
	ListConnections(ctx context.Context, ownerID string, f ConnectionFilter, p Page) ([]Connection, int, error)
	UpdateConnection(ctx context.Context, id, ownerID string, p ConnectionPatch) (*Connection, error)
	DeleteConnection(ctx context.Context, id, ownerID string) (bool, error)
	CountConnections(ctx context.Context, ownerID string) (int, error)
}

package domain

import (
	"context"
	"time"
)

// OutreachType is the channel an outreach event went through.
type OutreachType string

const (
	OutreachEmail    OutreachType = "EMAIL"
	OutreachLinkedIn OutreachType = "LINKEDIN"
	OutreachCall     OutreachType = "CALL"
	OutreachOther    OutreachType = "OTHER"
)

// Valid reports whether t is a known outreach type.
func (t OutreachType) Valid() bool {
	switch t {
	case OutreachEmail, OutreachLinkedIn, OutreachCall, OutreachOther:
		return true
	}
	return false
}

// OutreachEntry logs one contact attempt. It is owned by a user and attached
// to a connection that the same user owns.
type OutreachEntry struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	ConnectionID string       `json:"connectionId"`
	Type         OutreachType `json:"type"`
	OccurredAt   time.Time    `json:"occurredAt"`
	Notes        string       `json:"notes"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// OutreachInput carries the fields of a new outreach entry.
type OutreachInput struct {
	Type       OutreachType
	OccurredAt time.Time
	Notes      string
}

// RecentOutreach is an outreach entry joined with a summary of its connection.
type RecentOutreach struct {
	OutreachEntry
	ConnectionName    string `json:"connectionName"`
	ConnectionCompany string `json:"connectionCompany,omitempty"`
}

// OutreachRepository is the port for outreach persistence.
//
// CreateOutreach must insert only when connectionID is owned by ownerID,
// checked in the same statement; it returns (nil, nil) otherwise.
type OutreachRepository interface {
	CreateOutreach(ctx context.Context, ownerID, connectionID string, in OutreachInput) (*OutreachEntry, error)
	ListOutreachForConnection(ctx context.Context, connectionID, ownerID string) ([]OutreachEntry, error)
	ListRecentOutreach(ctx context.Context, ownerID string, limit int) ([]RecentOutreach, error)
	DeleteOutreach(ctx context.Context, id, ownerID string) (bool, error)
	CountOutreach(ctx context.Context, ownerID string) (int, error)
}

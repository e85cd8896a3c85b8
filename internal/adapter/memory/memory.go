// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"jobflow/internal/domain"

	"github.com/google/uuid"
)

// DB implements an in-memory database storage. Records are kept in insertion
// order, so iterating backwards yields newest first.
type DB struct {
	mu          sync.Mutex
	users       []*domain.User
	sessions    map[string]*domain.Session
	jobs        []*domain.JobApplication
	connections []*domain.Connection
	outreach    []*domain.OutreachEntry

	now func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ensure interfaces are met.
var (
	_ domain.UserRepository       = (*DB)(nil)
	_ domain.JobRepository        = (*DB)(nil)
	_ domain.ConnectionRepository = (*DB)(nil)
	_ domain.OutreachRepository   = (*DB)(nil)
	_ domain.Pinger               = (*DB)(nil)
	_ domain.SessionRepository    = (*SessionRepo)(nil)
)

// Ping always succeeds.
func (db *DB) Ping(ctx context.Context) error { return nil }

func newID() string { return uuid.NewString() }

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func paginate[T any](items []T, p domain.Page) []T {
	off := p.Offset()
	if off >= len(items) {
		return []T{}
	}
	end := min(off+p.Limit(), len(items))
	return items[off:end]
}

// --- UserRepository ---

// GetByEmail retrieves a user by exact email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			return nil, domain.ErrEmailTaken
		}
	}

	u := &domain.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    db.now(),
	}
	db.users = append(db.users, u)
	cp := *u
	return &cp, nil
}

// UpdatePasswordHash replaces a user's password hash.
func (db *DB) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- JobRepository ---

// CreateJob stores a new application for ownerID.
func (db *DB) CreateJob(ctx context.Context, ownerID string, in domain.JobInput) (*domain.JobApplication, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.now()
	j := &domain.JobApplication{
		ID:          newID(),
		UserID:      ownerID,
		Company:     in.Company,
		Role:        in.Role,
		Status:      in.Status,
		URL:         in.URL,
		Location:    in.Location,
		SalaryRange: in.SalaryRange,
		Notes:       in.Notes,
		AppliedAt:   copyTime(in.AppliedAt),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	db.jobs = append(db.jobs, j)
	return copyJob(j), nil
}

// FindJob returns the job only if it belongs to ownerID.
func (db *DB) FindJob(ctx context.Context, id, ownerID string) (*domain.JobApplication, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if j := db.findJob(id, ownerID); j != nil {
		return copyJob(j), nil
	}
	return nil, nil
}

func (db *DB) findJob(id, ownerID string) *domain.JobApplication {
	for _, j := range db.jobs {
		if j.ID == id && j.UserID == ownerID {
			return j
		}
	}
	return nil
}

// ListJobs lists ownerID's jobs, newest first.
func (db *DB) ListJobs(ctx context.Context, ownerID string, f domain.JobFilter, p domain.Page) ([]domain.JobApplication, int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var matched []domain.JobApplication
	for i := len(db.jobs) - 1; i >= 0; i-- {
		j := db.jobs[i]
		if j.UserID != ownerID {
			continue
		}
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		if f.Query != "" && !containsFold(j.Company, f.Query) {
			continue
		}
		matched = append(matched, *copyJob(j))
	}
	return paginate(matched, p), len(matched), nil
}

// UpdateJob patches the job if it belongs to ownerID.
func (db *DB) UpdateJob(ctx context.Context, id, ownerID string, p domain.JobPatch) (*domain.JobApplication, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	j := db.findJob(id, ownerID)
	if j == nil {
		return nil, nil
	}
	p.Apply(j)
	j.UpdatedAt = db.now()
	return copyJob(j), nil
}

// DeleteJob removes the job if it belongs to ownerID.
func (db *DB) DeleteJob(ctx context.Context, id, ownerID string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, j := range db.jobs {
		if j.ID == id && j.UserID == ownerID {
			db.jobs = append(db.jobs[:i], db.jobs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// CountJobsByStatus counts ownerID's jobs per status.
func (db *DB) CountJobsByStatus(ctx context.Context, ownerID string) (map[domain.JobStatus]int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	counts := make(map[domain.JobStatus]int)
	for _, j := range db.jobs {
		if j.UserID == ownerID {
			counts[j.Status]++
		}
	}
	return counts, nil
}

func copyJob(j *domain.JobApplication) *domain.JobApplication {
	cp := *j
	cp.AppliedAt = copyTime(j.AppliedAt)
	return &cp
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// --- ConnectionRepository ---

// CreateConnection stores a new connection for ownerID.
func (db *DB) CreateConnection(ctx context.Context, ownerID string, in domain.ConnectionInput) (*domain.Connection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.now()
	c := &domain.Connection{
		ID:          newID(),
		UserID:      ownerID,
		Name:        in.Name,
		Company:     in.Company,
		Title:       in.Title,
		Email:       in.Email,
		LinkedInURL: in.LinkedInURL,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	db.connections = append(db.connections, c)
	cp := *c
	return &cp, nil
}

// FindConnection returns the connection only if it belongs to ownerID.
func (db *DB) FindConnection(ctx context.Context, id, ownerID string) (*domain.Connection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if c := db.findConnection(id, ownerID); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (db *DB) findConnection(id, ownerID string) *domain.Connection {
	for _, c := range db.connections {
		if c.ID == id && c.UserID == ownerID {
			return c
		}
	}
	return nil
}

// ListConnections lists ownerID's connections, newest first.
func (db *DB) ListConnections(ctx context.Context, ownerID string, f domain.ConnectionFilter, p domain.Page) ([]domain.Connection, int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var matched []domain.Connection
	for i := len(db.connections) - 1; i >= 0; i-- {
		c := db.connections[i]
		if c.UserID != ownerID {
			continue
		}
		if f.Query != "" && !containsFold(c.Name, f.Query) && !containsFold(c.Company, f.Query) {
			continue
		}
		matched = append(matched, *c)
	}
	return paginate(matched, p), len(matched), nil
}

// UpdateConnection patches the connection if it belongs to ownerID.
func (db *DB) UpdateConnection(ctx context.Context, id, ownerID string, p domain.ConnectionPatch) (*domain.Connection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	c := db.findConnection(id, ownerID)
	if c == nil {
		return nil, nil
	}
	p.Apply(c)
	c.UpdatedAt = db.now()
	cp := *c
	return &cp, nil
}

// DeleteConnection removes the connection and its outreach entries.
func (db *DB) DeleteConnection(ctx context.Context, id, ownerID string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	idx := -1
	for i, c := range db.connections {
		if c.ID == id && c.UserID == ownerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	db.connections = append(db.connections[:idx], db.connections[idx+1:]...)

	kept := db.outreach[:0]
	for _, o := range db.outreach {
		if o.ConnectionID != id {
			kept = append(kept, o)
		}
	}
	db.outreach = kept
	return true, nil
}

// CountConnections counts ownerID's connections.
func (db *DB) CountConnections(ctx context.Context, ownerID string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	n := 0
	for _, c := range db.connections {
		if c.UserID == ownerID {
			n++
		}
	}
	return n, nil
}

// --- OutreachRepository ---

// CreateOutreach stores an entry if connectionID belongs to ownerID. The
// ownership check and the insert happen under one lock.
func (db *DB) CreateOutreach(ctx context.Context, ownerID, connectionID string, in domain.OutreachInput) (*domain.OutreachEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.findConnection(connectionID, ownerID) == nil {
		return nil, nil
	}
	o := &domain.OutreachEntry{
		ID:           newID(),
		UserID:       ownerID,
		ConnectionID: connectionID,
		Type:         in.Type,
		OccurredAt:   in.OccurredAt.UTC(),
		Notes:        in.Notes,
		CreatedAt:    db.now(),
	}
	db.outreach = append(db.outreach, o)
	cp := *o
	return &cp, nil
}

// ListOutreachForConnection lists entries on connectionID, newest first.
func (db *DB) ListOutreachForConnection(ctx context.Context, connectionID, ownerID string) ([]domain.OutreachEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.OutreachEntry
	for i := len(db.outreach) - 1; i >= 0; i-- {
		o := db.outreach[i]
		if o.ConnectionID == connectionID && o.UserID == ownerID {
			out = append(out, *o)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.OutreachEntry) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})
	return out, nil
}

// ListRecentOutreach lists ownerID's latest entries with their connection.
func (db *DB) ListRecentOutreach(ctx context.Context, ownerID string, limit int) ([]domain.RecentOutreach, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.RecentOutreach
	for i := len(db.outreach) - 1; i >= 0; i-- {
		o := db.outreach[i]
		if o.UserID != ownerID {
			continue
		}
		r := domain.RecentOutreach{OutreachEntry: *o}
		if c := db.findConnection(o.ConnectionID, ownerID); c != nil {
			r.ConnectionName = c.Name
			r.ConnectionCompany = c.Company
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b domain.RecentOutreach) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteOutreach removes an entry if it belongs to ownerID.
func (db *DB) DeleteOutreach(ctx context.Context, id, ownerID string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, o := range db.outreach {
		if o.ID == id && o.UserID == ownerID {
			db.outreach = append(db.outreach[:i], db.outreach[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// CountOutreach counts ownerID's entries.
func (db *DB) CountOutreach(ctx context.Context, ownerID string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	n := 0
	for _, o := range db.outreach {
		if o.UserID == ownerID {
			n++
		}
	}
	return n, nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s.Fresh = false
	r.db.sessions[s.ID] = &s
	return nil
}

// GetByID retrieves a session by id. Expiry is the caller's concern.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// UpdateExpiry moves a session's expiry.
func (r *SessionRepo) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[id]; ok {
		s.ExpiresAt = expiresAt
	}
	return nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, id)
	return nil
}

// DeleteByUser deletes every session of userID.
func (r *SessionRepo) DeleteByUser(ctx context.Context, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for k, v := range r.db.sessions {
		if v.UserID == userID {
			delete(r.db.sessions, k)
		}
	}
	return nil
}

// DeleteExpired deletes all sessions expired at now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for k, v := range r.db.sessions {
		if !now.Before(v.ExpiresAt) {
			delete(r.db.sessions, k)
			n++
		}
	}
	return n, nil
}

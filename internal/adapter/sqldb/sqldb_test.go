package sqldb

import (
	"context"
	"testing"
	"time"

	"jobflow/internal/domain"

	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	db    *DB
	ctx   context.Context
	alice *domain.User
	bob   *domain.User
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := Open(s.ctx, SQLite, ":memory:")
	s.Require().NoError(err)
	s.db = db

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	db.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	s.alice, err = db.Create(s.ctx, "alice@example.com", "hash")
	s.Require().NoError(err)
	s.bob, err = db.Create(s.ctx, "bob@example.com", "hash")
	s.Require().NoError(err)
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func (s *StoreSuite) TestRebind() {
	pg := &DB{dialect: Postgres}
	s.Equal("SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))
	s.Equal("a = ?", s.db.rebind("a = ?"))
}

func (s *StoreSuite) TestLikePatternEscapes() {
	s.Equal(`%50\%\_off%`, likePattern("50%_OFF"))
}

func (s *StoreSuite) TestUsers() {
	_, err := s.db.Create(s.ctx, "alice@example.com", "x")
	s.ErrorIs(err, domain.ErrEmailTaken)

	other, err := s.db.Create(s.ctx, "Alice@example.com", "x")
	s.Require().NoError(err, "emails differing in case are distinct accounts")
	s.NotEqual(s.alice.ID, other.ID)

	missing, err := s.db.GetByEmail(s.ctx, "ALICE@EXAMPLE.COM")
	s.Require().NoError(err)
	s.Nil(missing)

	u, err := s.db.GetByEmail(s.ctx, "Alice@example.com")
	s.Require().NoError(err)
	s.Require().NotNil(u)
	s.Equal(other.ID, u.ID)

	u, err = s.db.GetByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Require().NotNil(u)
	s.Equal(s.alice.ID, u.ID)

	s.Require().NoError(s.db.UpdatePasswordHash(s.ctx, u.ID, "new"))
	u, err = s.db.GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("new", u.PasswordHash)

	missing, err = s.db.GetByID(s.ctx, "nope")
	s.NoError(err)
	s.Nil(missing)

	n, err := s.db.Count(s.ctx)
	s.NoError(err)
	s.Equal(3, n)
}

func (s *StoreSuite) TestSessions() {
	repo := NewSessionRepo(s.db)
	now := time.Now().UTC().Truncate(time.Millisecond)

	s.Require().NoError(repo.Create(s.ctx, domain.Session{ID: "live", UserID: s.alice.ID, ExpiresAt: now.Add(time.Hour)}))
	s.Require().NoError(repo.Create(s.ctx, domain.Session{ID: "dead", UserID: s.alice.ID, ExpiresAt: now.Add(-time.Hour)}))
	s.Require().NoError(repo.Create(s.ctx, domain.Session{ID: "bobs", UserID: s.bob.ID, ExpiresAt: now.Add(time.Hour)}))

	got, err := repo.GetByID(s.ctx, "live")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(s.alice.ID, got.UserID)
	s.True(got.ExpiresAt.Equal(now.Add(time.Hour)))

	n, err := repo.DeleteExpired(s.ctx, now)
	s.NoError(err)
	s.Equal(int64(1), n)

	later := now.Add(48 * time.Hour)
	s.Require().NoError(repo.UpdateExpiry(s.ctx, "live", later))
	got, _ = repo.GetByID(s.ctx, "live")
	s.True(got.ExpiresAt.Equal(later))

	s.Require().NoError(repo.DeleteByUser(s.ctx, s.alice.ID))
	got, err = repo.GetByID(s.ctx, "live")
	s.NoError(err)
	s.Nil(got)
	got, _ = repo.GetByID(s.ctx, "bobs")
	s.NotNil(got)

	s.Require().NoError(repo.Delete(s.ctx, "bobs"))
	s.Require().NoError(repo.Delete(s.ctx, "bobs"))
}

func (s *StoreSuite) TestJobsAreOwnerScoped() {
	applied := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	job, err := s.db.CreateJob(s.ctx, s.alice.ID, domain.JobInput{
		Company: "Acme", Role: "Engineer", Status: domain.StatusApplied, AppliedAt: &applied,
	})
	s.Require().NoError(err)
	s.Require().NotNil(job.AppliedAt)
	s.True(job.AppliedAt.Equal(applied))

	_, err = s.db.CreateJob(s.ctx, s.alice.ID, domain.JobInput{Company: "Globex 100%", Role: "SRE", Status: domain.StatusWishlist})
	s.Require().NoError(err)

	foreign, err := s.db.FindJob(s.ctx, job.ID, s.bob.ID)
	s.NoError(err)
	s.Nil(foreign)

	company := "Hijack"
	upd, err := s.db.UpdateJob(s.ctx, job.ID, s.bob.ID, domain.JobPatch{Company: &company})
	s.NoError(err)
	s.Nil(upd)

	ok, err := s.db.DeleteJob(s.ctx, job.ID, s.bob.ID)
	s.NoError(err)
	s.False(ok)

	jobs, total, err := s.db.ListJobs(s.ctx, s.alice.ID, domain.JobFilter{}, domain.NewPage(1, 20))
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(jobs, 2)
	s.Equal("Globex 100%", jobs[0].Company)

	jobs, total, err = s.db.ListJobs(s.ctx, s.alice.ID, domain.JobFilter{Query: "ACME"}, domain.NewPage(1, 20))
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(job.ID, jobs[0].ID)

	_, total, _ = s.db.ListJobs(s.ctx, s.alice.ID, domain.JobFilter{Query: "100%"}, domain.NewPage(1, 20))
	s.Equal(1, total)
	_, total, _ = s.db.ListJobs(s.ctx, s.alice.ID, domain.JobFilter{Query: "%"}, domain.NewPage(1, 20))
	s.Equal(1, total, "wildcards in the query are literal")

	_, total, _ = s.db.ListJobs(s.ctx, s.alice.ID, domain.JobFilter{Status: domain.StatusApplied}, domain.NewPage(1, 20))
	s.Equal(1, total)

	jobs, total, _ = s.db.ListJobs(s.ctx, s.alice.ID, domain.JobFilter{}, domain.NewPage(2, 1))
	s.Equal(2, total)
	s.Len(jobs, 1)

	_, total, _ = s.db.ListJobs(s.ctx, s.bob.ID, domain.JobFilter{}, domain.NewPage(1, 20))
	s.Equal(0, total)

	role := "Staff Engineer"
	upd, err = s.db.UpdateJob(s.ctx, job.ID, s.alice.ID, domain.JobPatch{Role: &role, ClearAppliedAt: true})
	s.Require().NoError(err)
	s.Require().NotNil(upd)
	s.Equal(role, upd.Role)
	s.Equal("Acme", upd.Company)
	s.Nil(upd.AppliedAt)

	counts, err := s.db.CountJobsByStatus(s.ctx, s.alice.ID)
	s.NoError(err)
	s.Equal(1, counts[domain.StatusApplied])
	s.Equal(1, counts[domain.StatusWishlist])

	ok, err = s.db.DeleteJob(s.ctx, job.ID, s.alice.ID)
	s.NoError(err)
	s.True(ok)
}

func (s *StoreSuite) TestConnectionsAndOutreach() {
	conn, err := s.db.CreateConnection(s.ctx, s.alice.ID, domain.ConnectionInput{Name: "Jane Doe", Company: "Acme"})
	s.Require().NoError(err)

	in := domain.OutreachInput{Type: domain.OutreachEmail, OccurredAt: time.Now().UTC(), Notes: "intro"}

	forged, err := s.db.CreateOutreach(s.ctx, s.bob.ID, conn.ID, in)
	s.NoError(err)
	s.Nil(forged, "outreach on a foreign connection must not be inserted")

	older := in
	older.OccurredAt = in.OccurredAt.Add(-24 * time.Hour)
	older.Notes = "first"
	_, err = s.db.CreateOutreach(s.ctx, s.alice.ID, conn.ID, older)
	s.Require().NoError(err)
	entry, err := s.db.CreateOutreach(s.ctx, s.alice.ID, conn.ID, in)
	s.Require().NoError(err)
	s.Require().NotNil(entry)
	s.Equal(s.alice.ID, entry.UserID)

	entries, err := s.db.ListOutreachForConnection(s.ctx, conn.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("intro", entries[0].Notes)

	recent, err := s.db.ListRecentOutreach(s.ctx, s.alice.ID, 5)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal("Jane Doe", recent[0].ConnectionName)
	s.Equal("Acme", recent[0].ConnectionCompany)

	ok, err := s.db.DeleteOutreach(s.ctx, entry.ID, s.bob.ID)
	s.NoError(err)
	s.False(ok)

	list, total, err := s.db.ListConnections(s.ctx, s.alice.ID, domain.ConnectionFilter{Query: "acme"}, domain.NewPage(1, 20))
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(conn.ID, list[0].ID)

	title := "CTO"
	upd, err := s.db.UpdateConnection(s.ctx, conn.ID, s.bob.ID, domain.ConnectionPatch{Title: &title})
	s.NoError(err)
	s.Nil(upd)
	upd, err = s.db.UpdateConnection(s.ctx, conn.ID, s.alice.ID, domain.ConnectionPatch{Title: &title})
	s.Require().NoError(err)
	s.Equal("CTO", upd.Title)
	s.Equal("Jane Doe", upd.Name)

	ok, err = s.db.DeleteConnection(s.ctx, conn.ID, s.bob.ID)
	s.NoError(err)
	s.False(ok)

	ok, err = s.db.DeleteConnection(s.ctx, conn.ID, s.alice.ID)
	s.NoError(err)
	s.True(ok)

	n, err := s.db.CountOutreach(s.ctx, s.alice.ID)
	s.NoError(err)
	s.Equal(0, n)
	n, err = s.db.CountConnections(s.ctx, s.alice.ID)
	s.NoError(err)
	s.Equal(0, n)
}

func (s *StoreSuite) TestSchemaRejectsMismatchedOutreachOwner() {
	conn, err := s.db.CreateConnection(s.ctx, s.alice.ID, domain.ConnectionInput{Name: "Jane"})
	s.Require().NoError(err)

	_, err = s.db.sql.ExecContext(s.ctx,
		`INSERT INTO outreach_entries (id, user_id, connection_id, type, occurred_at, notes, created_at)
		VALUES ('x', ?, ?, 'EMAIL', ?, 'n', ?)`,
		s.bob.ID, conn.ID, time.Now().UTC(), time.Now().UTC())
	s.Error(err)
}

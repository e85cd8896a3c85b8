package app

import (
	"context"

	"jobflow/internal/domain"

	"golang.org/x/sync/errgroup"
)

const dashboardRecentLimit = 5

// Summary is the per-user aggregate shown on the dashboard.
type Summary struct {
	StatusCounts    map[domain.JobStatus]int `json:"statusCounts"`
	TotalJobs       int                      `json:"totalJobs"`
	ActiveJobs      int                      `json:"activeJobs"`
	ConnectionCount int                      `json:"connectionCount"`
	OutreachCount   int                      `json:"outreachCount"`
	RecentJobs      []domain.JobApplication  `json:"recentJobs"`
	RecentOutreach  []domain.RecentOutreach  `json:"recentOutreach"`
}

// DashboardService builds aggregate views across the user's resources.
type DashboardService struct {
	jobs        domain.JobRepository
	connections domain.ConnectionRepository
	outreach    domain.OutreachRepository
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(jobs domain.JobRepository, connections domain.ConnectionRepository, outreach domain.OutreachRepository) *DashboardService {
	return &DashboardService{jobs: jobs, connections: connections, outreach: outreach}
}

// Summary runs the independent owner-scoped queries concurrently.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*Summary, error) {
	var (
		counts         map[domain.JobStatus]int
		connectionCnt  int
		outreachCnt    int
		recentJobs     []domain.JobApplication
		recentOutreach []domain.RecentOutreach
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = s.jobs.CountJobsByStatus(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		connectionCnt, err = s.connections.CountConnections(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		outreachCnt, err = s.outreach.CountOutreach(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		recentJobs, _, err = s.jobs.ListJobs(gctx, userID, domain.JobFilter{}, domain.NewPage(1, dashboardRecentLimit))
		return err
	})
	g.Go(func() (err error) {
		recentOutreach, err = s.outreach.ListRecentOutreach(gctx, userID, dashboardRecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.Internal("dashboard.summary", err)
	}

	sum := &Summary{
		StatusCounts:    make(map[domain.JobStatus]int, len(domain.JobStatuses)),
		ConnectionCount: connectionCnt,
		OutreachCount:   outreachCnt,
		RecentJobs:      recentJobs,
		RecentOutreach:  recentOutreach,
	}
	for _, st := range domain.JobStatuses {
		n := counts[st]
		sum.StatusCounts[st] = n
		sum.TotalJobs += n
		if st.Active() {
			sum.ActiveJobs += n
		}
	}
	if sum.RecentJobs == nil {
		sum.RecentJobs = []domain.JobApplication{}
	}
	if sum.RecentOutreach == nil {
		sum.RecentOutreach = []domain.RecentOutreach{}
	}
	return sum, nil
}

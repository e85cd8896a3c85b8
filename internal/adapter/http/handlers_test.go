package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	adapthttp "jobflow/internal/adapter/http"
	"jobflow/internal/adapter/memory"
	"jobflow/internal/app"
	"jobflow/internal/domain"
	"jobflow/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// ---------------------------------------------------------------------------
// Mocks (function-fields pattern)
// ---------------------------------------------------------------------------

type mockPinger struct {
	pingFn func(ctx context.Context) error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

type mockJobRepo struct {
	listFn func(ctx context.Context, ownerID string, f domain.JobFilter, p domain.Page) ([]domain.JobApplication, int, error)
}

func (m *mockJobRepo) CreateJob(ctx context.Context, ownerID string, in domain.JobInput) (*domain.JobApplication, error) {
	return &domain.JobApplication{ID: "j1", UserID: ownerID, Company: in.Company, Role: in.Role, Status: in.Status}, nil
}

func (m *mockJobRepo) FindJob(ctx context.Context, id, ownerID string) (*domain.JobApplication, error) {
	return nil, nil
}

func (m *mockJobRepo) ListJobs(ctx context.Context, ownerID string, f domain.JobFilter, p domain.Page) ([]domain.JobApplication, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID, f, p)
	}
	return nil, 0, nil
}

func (m *mockJobRepo) UpdateJob(ctx context.Context, id, ownerID string, patch domain.JobPatch) (*domain.JobApplication, error) {
	return nil, nil
}

func (m *mockJobRepo) DeleteJob(ctx context.Context, id, ownerID string) (bool, error) {
	return false, nil
}

func (m *mockJobRepo) CountJobsByStatus(ctx context.Context, ownerID string) (map[domain.JobStatus]int, error) {
	return map[domain.JobStatus]int{}, nil
}

// ---------------------------------------------------------------------------
// Test-server helpers
// ---------------------------------------------------------------------------

type testEnv struct {
	db       *memory.DB
	deps     adapthttp.Deps
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := memory.New()
	sessions := app.NewSessionManager(db.NewSessionRepo(), db, app.SessionConfig{})
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	webDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html>jobflow</html>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(webDir, "app.js"), []byte("console.log(1)"), 0o600); err != nil {
		t.Fatal(err)
	}

	return &testEnv{
		db:       db,
		registry: reg,
		deps: adapthttp.Deps{
			Auth:           app.NewAuthService(db, sessions).WithHashCost(bcrypt.MinCost),
			Sessions:       sessions,
			Gate:           app.NewGate(sessions, metrics),
			Jobs:           app.NewJobService(db),
			Connections:    app.NewConnectionService(db, db),
			Outreach:       app.NewOutreachService(db, db),
			Dashboard:      app.NewDashboardService(db, db, db),
			Health:         app.NewHealthService(db, db),
			Metrics:        metrics,
			MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			WebDir:         webDir,
		},
	}
}

func (e *testEnv) start(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(adapthttp.New(e.deps).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestEnv(t).start(t)
}

// newClient returns a client with its own cookie jar that does not follow
// redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func do(t *testing.T, c *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, b)
	}
}

func signup(t *testing.T, ts *httptest.Server, email string) *http.Client {
	t.Helper()
	c := newClient(t)
	resp := do(t, c, http.MethodPost, ts.URL+"/api/auth/signup", map[string]string{"email": email, "password": "correct horse"})
	expectStatus(t, resp, http.StatusCreated)
	return c
}

func sessionCookie(t *testing.T, c *http.Client, rawURL string) *http.Cookie {
	t.Helper()
	u, _ := url.Parse(rawURL)
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == "auth_session" {
			return ck
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/health", nil)
	expectStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if body["status"] != "ok" {
		t.Fatalf("expected status=ok, got %v", body["status"])
	}
	if body["users"] != float64(0) {
		t.Fatalf("expected users=0, got %v", body["users"])
	}
}

func TestHealthEndpointFailure(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Health = app.NewHealthService(&mockPinger{
		pingFn: func(context.Context) error { return errors.New("connection refused") },
	}, env.db)
	ts := env.start(t)

	resp := do(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/health", nil)
	expectStatus(t, resp, http.StatusInternalServerError)
	if body := decodeBody(t, resp); body["status"] != "error" {
		t.Fatalf("expected status=error, got %v", body)
	}
}

func TestAPIRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/jobs", "/api/connections", "/api/dashboard", "/api/auth/me"} {
		resp := do(t, newClient(t), http.MethodGet, ts.URL+path, nil)
		expectStatus(t, resp, http.StatusUnauthorized)
		if body := decodeBody(t, resp); body["error"] != "Unauthorized" {
			t.Fatalf("%s: unexpected body %v", path, body)
		}
	}
}

func TestPagesRedirectAnonymousToLogin(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	for _, path := range []string{"/", "/jobs", "/jobs/abc", "/connections", "/connections/abc"} {
		resp := do(t, c, http.MethodGet, ts.URL+path, nil)
		expectStatus(t, resp, http.StatusFound)
		if loc := resp.Header.Get("Location"); loc != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %q", path, loc)
		}
	}

	expectStatus(t, do(t, c, http.MethodGet, ts.URL+"/login", nil), http.StatusOK)
	expectStatus(t, do(t, c, http.MethodGet, ts.URL+"/signup", nil), http.StatusOK)

	resp := do(t, c, http.MethodGet, ts.URL+"/app.js", nil)
	expectStatus(t, resp, http.StatusOK)
	if b, _ := io.ReadAll(resp.Body); string(b) != "console.log(1)" {
		t.Fatalf("expected static asset, got %q", b)
	}

	authed := signup(t, ts, "pages@example.com")
	resp = do(t, authed, http.MethodGet, ts.URL+"/jobs", nil)
	expectStatus(t, resp, http.StatusOK)
	if b, _ := io.ReadAll(resp.Body); !strings.Contains(string(b), "jobflow") {
		t.Fatalf("expected SPA index, got %q", b)
	}
}

func TestLogoutInvalidatesCookieAcrossLogins(t *testing.T) {
	ts := newTestServer(t)
	alice := signup(t, ts, "alice@example.com")

	resp := do(t, alice, http.MethodPost, ts.URL+"/api/connections", map[string]string{"name": "Jane Doe", "company": "Acme"})
	expectStatus(t, resp, http.StatusCreated)
	connID, _ := decodeBody(t, resp)["id"].(string)
	if connID == "" {
		t.Fatal("connection id missing")
	}

	old := sessionCookie(t, alice, ts.URL)
	if old == nil {
		t.Fatal("expected a session cookie after signup")
	}

	resp = do(t, alice, http.MethodPost, ts.URL+"/api/auth/logout", nil)
	expectStatus(t, resp, http.StatusOK)
	if sessionCookie(t, alice, ts.URL) != nil {
		t.Fatal("logout should clear the session cookie")
	}

	// Replaying the old cookie is anonymous.
	stale := newClient(t)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/connections/"+connID, nil)
	req.AddCookie(&http.Cookie{Name: old.Name, Value: old.Value})
	replay, err := stale.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer replay.Body.Close() //nolint:errcheck
	expectStatus(t, replay, http.StatusUnauthorized)

	resp = do(t, alice, http.MethodPost, ts.URL+"/api/auth/login", map[string]string{"email": "alice@example.com", "password": "correct horse"})
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, alice, http.MethodGet, ts.URL+"/api/connections/"+connID, nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if body["name"] != "Jane Doe" {
		t.Fatalf("unexpected connection %v", body)
	}
	if entries, ok := body["outreachEntries"].([]any); !ok || len(entries) != 0 {
		t.Fatalf("expected empty outreachEntries, got %v", body["outreachEntries"])
	}

	// Another user sees the same 404 as for a missing id.
	bob := signup(t, ts, "bob@example.com")
	foreign := do(t, bob, http.MethodGet, ts.URL+"/api/connections/"+connID, nil)
	expectStatus(t, foreign, http.StatusNotFound)
	missing := do(t, bob, http.MethodGet, ts.URL+"/api/connections/missing", nil)
	expectStatus(t, missing, http.StatusNotFound)
	if fb, mb := decodeBody(t, foreign), decodeBody(t, missing); !reflect.DeepEqual(fb, mb) {
		t.Fatalf("foreign and missing ids must answer alike: %v vs %v", fb, mb)
	}
	expectStatus(t, do(t, bob, http.MethodDelete, ts.URL+"/api/connections/"+connID, nil), http.StatusNotFound)
	expectStatus(t, do(t, bob, http.MethodPost, ts.URL+"/api/connections/"+connID+"/outreach",
		map[string]string{"type": "EMAIL", "notes": "hi"}), http.StatusNotFound)
	expectStatus(t, do(t, bob, http.MethodGet, ts.URL+"/api/connections/"+connID+"/outreach", nil), http.StatusNotFound)
}

func TestLoginFailures(t *testing.T) {
	ts := newTestServer(t)
	signup(t, ts, "carol@example.com")

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantError  string
	}{
		{"wrong password", map[string]string{"email": "carol@example.com", "password": "nope nope"}, http.StatusUnauthorized, "invalid email or password"},
		{"unknown email", map[string]string{"email": "dave@example.com", "password": "correct horse"}, http.StatusUnauthorized, "invalid email or password"},
		{"unknown field", map[string]string{"username": "carol"}, http.StatusBadRequest, "invalid request body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, newClient(t), http.MethodPost, ts.URL+"/api/auth/login", tc.body)
			expectStatus(t, resp, tc.wantStatus)
			if body := decodeBody(t, resp); body["error"] != tc.wantError {
				t.Fatalf("expected error %q, got %v", tc.wantError, body["error"])
			}
		})
	}
}

func TestSignupConflictAndValidation(t *testing.T) {
	ts := newTestServer(t)
	signup(t, ts, "erin@example.com")

	resp := do(t, newClient(t), http.MethodPost, ts.URL+"/api/auth/signup", map[string]string{"email": "erin@example.com", "password": "correct horse"})
	expectStatus(t, resp, http.StatusConflict)

	resp = do(t, newClient(t), http.MethodPost, ts.URL+"/api/auth/signup", map[string]string{"email": "frank@example.com", "password": "short"})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestEmailsDifferingInCaseAreDistinctAccounts(t *testing.T) {
	ts := newTestServer(t)
	lower := signup(t, ts, "alice@example.com")
	upper := signup(t, ts, "Alice@example.com")

	me := func(c *http.Client) map[string]any {
		t.Helper()
		resp := do(t, c, http.MethodGet, ts.URL+"/api/auth/me", nil)
		expectStatus(t, resp, http.StatusOK)
		return decodeBody(t, resp)
	}
	a, b := me(lower), me(upper)
	if a["id"] == b["id"] {
		t.Fatalf("expected two accounts, both resolved to %v", a["id"])
	}
	if a["email"] != "alice@example.com" || b["email"] != "Alice@example.com" {
		t.Fatalf("emails not stored as entered: %v %v", a["email"], b["email"])
	}

	resp := do(t, newClient(t), http.MethodPost, ts.URL+"/api/auth/login", map[string]string{"email": "ALICE@EXAMPLE.COM", "password": "correct horse"})
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestMeAndChangePassword(t *testing.T) {
	ts := newTestServer(t)
	c := signup(t, ts, "gina@example.com")

	resp := do(t, c, http.MethodGet, ts.URL+"/api/auth/me", nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["email"] != "gina@example.com" || body["id"] == "" {
		t.Fatalf("unexpected me body %v", body)
	}

	old := sessionCookie(t, c, ts.URL)
	resp = do(t, c, http.MethodPost, ts.URL+"/api/auth/password", map[string]string{"currentPassword": "wrong pass", "newPassword": "another horse"})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, c, http.MethodPost, ts.URL+"/api/auth/password", map[string]string{"currentPassword": "correct horse", "newPassword": "another horse"})
	expectStatus(t, resp, http.StatusOK)

	fresh := sessionCookie(t, c, ts.URL)
	if fresh == nil || fresh.Value == old.Value {
		t.Fatal("password change should issue a new session cookie")
	}
	expectStatus(t, do(t, c, http.MethodGet, ts.URL+"/api/auth/me", nil), http.StatusOK)

	stale := newClient(t)
	u, _ := url.Parse(ts.URL)
	stale.Jar.SetCookies(u, []*http.Cookie{{Name: old.Name, Value: old.Value}})
	expectStatus(t, do(t, stale, http.MethodGet, ts.URL+"/api/auth/me", nil), http.StatusUnauthorized)

	resp = do(t, c, http.MethodPost, ts.URL+"/api/auth/logout-all", nil)
	expectStatus(t, resp, http.StatusOK)
	expectStatus(t, do(t, stale, http.MethodGet, ts.URL+"/api/auth/me", nil), http.StatusUnauthorized)
}

func TestJobsCRUD(t *testing.T) {
	ts := newTestServer(t)
	c := signup(t, ts, "hank@example.com")

	resp := do(t, c, http.MethodPost, ts.URL+"/api/jobs", map[string]any{"company": "Acme", "role": "Engineer", "appliedAt": "2026-03-01T09:00:00Z"})
	expectStatus(t, resp, http.StatusCreated)
	job := decodeBody(t, resp)
	if job["status"] != "WISHLIST" {
		t.Fatalf("expected default status WISHLIST, got %v", job["status"])
	}
	id, _ := job["id"].(string)

	expectStatus(t, do(t, c, http.MethodPost, ts.URL+"/api/jobs", map[string]any{"company": "", "role": "x"}), http.StatusBadRequest)
	expectStatus(t, do(t, c, http.MethodPost, ts.URL+"/api/jobs", map[string]any{"company": "A", "role": "x", "status": "HIRED"}), http.StatusBadRequest)

	for i := 0; i < 21; i++ {
		expectStatus(t, do(t, c, http.MethodPost, ts.URL+"/api/jobs", map[string]any{"company": "Filler", "role": "r", "status": "APPLIED"}), http.StatusCreated)
	}

	resp = do(t, c, http.MethodGet, ts.URL+"/api/jobs?page=2", nil)
	expectStatus(t, resp, http.StatusOK)
	list := decodeBody(t, resp)
	pagination, _ := list["pagination"].(map[string]any)
	if pagination["total"] != float64(22) || pagination["totalPages"] != float64(2) || pagination["page"] != float64(2) {
		t.Fatalf("unexpected pagination %v", pagination)
	}
	if jobs, _ := list["jobs"].([]any); len(jobs) != 2 {
		t.Fatalf("expected 2 jobs on page 2, got %d", len(jobs))
	}

	resp = do(t, c, http.MethodGet, ts.URL+"/api/jobs?status=WISHLIST&q=acm", nil)
	expectStatus(t, resp, http.StatusOK)
	if p := decodeBody(t, resp)["pagination"].(map[string]any); p["total"] != float64(1) {
		t.Fatalf("expected one filtered job, got %v", p)
	}

	resp = do(t, c, http.MethodGet, ts.URL+"/api/jobs?status=ALL", nil)
	expectStatus(t, resp, http.StatusOK)
	if p := decodeBody(t, resp)["pagination"].(map[string]any); p["total"] != float64(22) {
		t.Fatalf("ALL should not filter, got %v", p)
	}

	resp = do(t, c, http.MethodPatch, ts.URL+"/api/jobs/"+id, map[string]any{"status": "INTERVIEW", "appliedAt": nil})
	expectStatus(t, resp, http.StatusOK)
	updated := decodeBody(t, resp)
	if updated["status"] != "INTERVIEW" || updated["company"] != "Acme" {
		t.Fatalf("unexpected update %v", updated)
	}
	if _, ok := updated["appliedAt"]; ok {
		t.Fatalf("explicit null should clear appliedAt, got %v", updated["appliedAt"])
	}

	other := signup(t, ts, "ivy@example.com")
	expectStatus(t, do(t, other, http.MethodPatch, ts.URL+"/api/jobs/"+id, map[string]any{"role": "pwned"}), http.StatusNotFound)
	expectStatus(t, do(t, other, http.MethodDelete, ts.URL+"/api/jobs/"+id, nil), http.StatusNotFound)

	resp = do(t, c, http.MethodDelete, ts.URL+"/api/jobs/"+id, nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["success"] != true {
		t.Fatalf("unexpected delete body %v", body)
	}
	expectStatus(t, do(t, c, http.MethodGet, ts.URL+"/api/jobs/"+id, nil), http.StatusNotFound)
}

func TestOutreachAndDashboard(t *testing.T) {
	ts := newTestServer(t)
	c := signup(t, ts, "jack@example.com")

	resp := do(t, c, http.MethodPost, ts.URL+"/api/connections", map[string]string{"name": "Jane", "company": "Acme"})
	expectStatus(t, resp, http.StatusCreated)
	connID := decodeBody(t, resp)["id"].(string)

	expectStatus(t, do(t, c, http.MethodPost, ts.URL+"/api/connections/"+connID+"/outreach",
		map[string]string{"type": "PIGEON"}), http.StatusBadRequest)

	resp = do(t, c, http.MethodPost, ts.URL+"/api/connections/"+connID+"/outreach",
		map[string]string{"type": "EMAIL", "notes": "intro", "occurredAt": "2026-03-02T10:00:00Z"})
	expectStatus(t, resp, http.StatusCreated)
	entryID := decodeBody(t, resp)["id"].(string)

	resp = do(t, c, http.MethodGet, ts.URL+"/api/connections/"+connID+"/outreach", nil)
	expectStatus(t, resp, http.StatusOK)
	if entries, _ := decodeBody(t, resp)["outreach"].([]any); len(entries) != 1 {
		t.Fatalf("expected one outreach entry, got %v", entries)
	}

	expectStatus(t, do(t, c, http.MethodPost, ts.URL+"/api/jobs", map[string]any{"company": "Acme", "role": "SRE", "status": "SCREEN"}), http.StatusCreated)

	resp = do(t, c, http.MethodGet, ts.URL+"/api/dashboard", nil)
	expectStatus(t, resp, http.StatusOK)
	dash := decodeBody(t, resp)
	counts, _ := dash["statusCounts"].(map[string]any)
	if len(counts) != len(domain.JobStatuses) {
		t.Fatalf("expected every status present, got %v", counts)
	}
	if dash["activeJobs"] != float64(1) || dash["outreachCount"] != float64(1) || dash["connectionCount"] != float64(1) {
		t.Fatalf("unexpected dashboard %v", dash)
	}
	recent, _ := dash["recentOutreach"].([]any)
	if len(recent) != 1 || recent[0].(map[string]any)["connectionName"] != "Jane" {
		t.Fatalf("unexpected recent outreach %v", recent)
	}

	other := signup(t, ts, "kim@example.com")
	expectStatus(t, do(t, other, http.MethodDelete, ts.URL+"/api/outreach/"+entryID, nil), http.StatusNotFound)
	expectStatus(t, do(t, c, http.MethodDelete, ts.URL+"/api/outreach/"+entryID, nil), http.StatusOK)

	expectStatus(t, do(t, c, http.MethodDelete, ts.URL+"/api/connections/"+connID, nil), http.StatusOK)
	expectStatus(t, do(t, c, http.MethodGet, ts.URL+"/api/connections/"+connID+"/outreach", nil), http.StatusNotFound)
}

func TestInternalErrorDetails(t *testing.T) {
	for _, production := range []bool{false, true} {
		env := newTestEnv(t)
		env.deps.Production = production
		env.deps.Jobs = app.NewJobService(&mockJobRepo{
			listFn: func(context.Context, string, domain.JobFilter, domain.Page) ([]domain.JobApplication, int, error) {
				return nil, 0, errors.New("pq: relation does not exist")
			},
		})
		ts := env.start(t)
		c := signup(t, ts, "leo@example.com")

		resp := do(t, c, http.MethodGet, ts.URL+"/api/jobs", nil)
		expectStatus(t, resp, http.StatusInternalServerError)
		body := decodeBody(t, resp)
		if body["error"] != "Internal server error" {
			t.Fatalf("unexpected error body %v", body)
		}
		_, hasDetails := body["details"]
		if hasDetails == production {
			t.Fatalf("production=%v: details present=%v", production, hasDetails)
		}
	}
}

func TestSSO(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/config", nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["ssoEnabled"] != false {
		t.Fatalf("expected sso disabled, got %v", body)
	}
	expectStatus(t, do(t, newClient(t), http.MethodGet, ts.URL+"/api/auth/sso/login", nil), http.StatusNotFound)

	env := newTestEnv(t)
	env.deps.OIDC = &adapthttp.OIDCConfig{OAuth2Config: oauth2.Config{
		ClientID:    "jobflow",
		RedirectURL: "http://localhost/api/auth/sso/callback",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://id.example.com/authorize", TokenURL: "https://id.example.com/token"},
	}}
	ts = env.start(t)
	c := newClient(t)

	resp = do(t, c, http.MethodGet, ts.URL+"/api/auth/sso/login", nil)
	expectStatus(t, resp, http.StatusFound)
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil || loc.Host != "id.example.com" || loc.Query().Get("state") == "" {
		t.Fatalf("unexpected redirect %q", resp.Header.Get("Location"))
	}

	resp = do(t, c, http.MethodGet, ts.URL+"/api/auth/sso/callback?state=forged&code=x", nil)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, do(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/health", nil), http.StatusOK)
	expectStatus(t, do(t, newClient(t), http.MethodGet, ts.URL+"/api/jobs", nil), http.StatusUnauthorized)

	resp := do(t, http.DefaultClient, http.MethodGet, ts.URL+"/metrics", nil)
	expectStatus(t, resp, http.StatusOK)
	b, _ := io.ReadAll(resp.Body)
	out := string(b)
	for _, want := range []string{
		`jobflow_http_requests_total{method="GET",route="/api/health",status="200"} 1`,
		`jobflow_auth_outcomes_total{outcome="anonymous"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

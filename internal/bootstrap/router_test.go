package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/config"
	"github.com/efren319/GovFunds/internal/auth"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
)

const adminPassword = "correct horse"

type testSite struct {
	app    *App
	srv    *httptest.Server
	client *http.Client
}

func newTestSite(t *testing.T, mutate func(*config.Config)) *testSite {
	t.Helper()

	hash, err := auth.HashPassword(adminPassword)
	require.NoError(t, err)

	dir := t.TempDir()
	mr := miniredis.RunT(t)

	cfg := &config.Config{
		Server:   config.ServerConfig{Port: "0", ShutdownTimeout: time.Second, CORSOrigins: []string{"*"}},
		Database: config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(dir, "govfunds.db")},
		Redis:    config.RedisConfig{Addr: mr.Addr()},
		Auth: config.AuthConfig{
			Credentials:   "admin:" + hash,
			SessionSecret: "test-secret",
			SessionTTL:    time.Hour,
		},
		Uploads:   config.UploadsConfig{Dir: filepath.Join(dir, "uploads"), URLPrefix: "/uploads"},
		Data:      config.DataConfig{Dir: filepath.Join(dir, "data"), SeedOnStart: true},
		RateLimit: config.RateLimitConfig{PerMinute: 600, Burst: 50},
		App:       config.AppConfig{Environment: "test", LogLevel: "error", Version: "test"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	app, err := NewApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(app.Close)

	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testSite{
		app: app,
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (s *testSite) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := s.client.Get(s.srv.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (s *testSite) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := s.client.PostForm(s.srv.URL+path, form)
	require.NoError(t, err)
	readBody(t, resp)
	return resp
}

func (s *testSite) login(t *testing.T) {
	t.Helper()
	resp := s.post(t, "/login", url.Values{"username": {"admin"}, "password": {adminPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin", resp.Header.Get("Location"))
}

func (s *testSite) firstProject(t *testing.T) projectsdomain.Project {
	t.Helper()
	var p projectsdomain.Project
	require.NoError(t, s.app.DB.Gorm.Order("project_id").First(&p).Error)
	return p
}

func (s *testSite) projectCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.app.DB.Gorm.Model(&projectsdomain.Project{}).Count(&n).Error)
	return n
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestPublicRoutes(t *testing.T) {
	s := newTestSite(t, nil)

	for _, path := range []string{
		"/", "/about", "/projects", "/projects?status=ongoing&sort=name", "/budget", "/budget?year=2024",
		"/feedback", "/contact", "/login", "/health", "/healthz", "/metrics",
		"/static/css/style.css", "/api/budget_data", "/api/budget_years/2024",
	} {
		t.Run(path, func(t *testing.T) {
			resp, _ := s.get(t, path)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestSeededProjectAndBudgetAPI(t *testing.T) {
	s := newTestSite(t, nil)

	p := s.firstProject(t)
	resp, body := s.get(t, fmt.Sprintf("/project/%d", p.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, p.Name)

	req, err := http.NewRequest(http.MethodGet, s.srv.URL+"/api/budget_data", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dashboard.example.org")
	resp, err = s.client.Do(req)
	require.NoError(t, err)
	body = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &rows))
	assert.NotEmpty(t, rows)
}

func TestHealthReportsRedis(t *testing.T) {
	s := newTestSite(t, nil)

	resp, body := s.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &h))
	assert.Equal(t, "healthy", h["status"])
	assert.Equal(t, "up", h["db"])
	assert.Equal(t, "up", h["redis"])
}

func TestAdminRequiresLogin(t *testing.T) {
	s := newTestSite(t, nil)

	resp, _ := s.get(t, "/admin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body := s.get(t, "/login")
	assert.Contains(t, body, "Please log in to access the admin panel.")

	p := s.firstProject(t)
	resp = s.post(t, fmt.Sprintf("/project/%d/delete", p.ID), url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, body = s.get(t, fmt.Sprintf("/api/project/%d", p.ID))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"ok":false,"error":"unauthorized"}`, body)
}

func TestBadLoginIsRejected(t *testing.T) {
	s := newTestSite(t, nil)

	resp := s.post(t, "/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body := s.get(t, "/login")
	assert.Contains(t, body, "Invalid username or password.")

	resp, _ = s.get(t, "/admin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestAdminProjectLifecycle(t *testing.T) {
	s := newTestSite(t, nil)
	s.login(t)

	resp, body := s.get(t, "/admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome back, admin.")

	resp = s.post(t, "/admin", url.Values{
		"action":           {"add_project"},
		"name":             {"Harbor Seawall"},
		"project_sector":   {projectsdomain.Sectors[0]},
		"region":           {projectsdomain.Regions[0]},
		"status":           {"Ongoing"},
		"allocated_budget": {"1,000,000"},
		"spent":            {"250000"},
		"start_date":       {"2025-01-15"},
		"end_date":         {"2025-12-31"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin", resp.Header.Get("Location"))

	var p projectsdomain.Project
	require.NoError(t, s.app.DB.Gorm.Where("project_name = ?", "Harbor Seawall").First(&p).Error)
	assert.InDelta(t, 1_000_000, p.AllocatedBudget, 0.001)
	assert.InDelta(t, 250_000, p.BudgetSpent, 0.001)

	resp, body = s.get(t, fmt.Sprintf("/api/project/%d", p.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		OK      bool `json:"ok"`
		Project struct {
			ID     int64  `json:"project_id"`
			Name   string `json:"project_name"`
			Status string `json:"project_status"`
		} `json:"project"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &detail))
	assert.True(t, detail.OK)
	assert.Equal(t, p.ID, detail.Project.ID)
	assert.Equal(t, "Harbor Seawall", detail.Project.Name)
	assert.Equal(t, "Ongoing", detail.Project.Status)

	resp = s.post(t, fmt.Sprintf("/project/%d/edit", p.ID), url.Values{"spent": {"2,000,000"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("/project/%d/edit", p.ID), resp.Header.Get("Location"))

	resp = s.post(t, fmt.Sprintf("/project/%d/edit", p.ID), url.Values{"status": {"Completed"}, "spent": {"900000"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("/project/%d", p.ID), resp.Header.Get("Location"))

	resp = s.post(t, fmt.Sprintf("/project/%d/delete", p.ID), url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/projects", resp.Header.Get("Location"))

	resp, _ = s.get(t, fmt.Sprintf("/api/project/%d", p.ID))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.get(t, "/logout")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	resp, _ = s.get(t, "/admin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestAdminRejectsNonFiniteBudget(t *testing.T) {
	s := newTestSite(t, nil)
	s.login(t)

	before := s.projectCount(t)
	tests := []struct {
		name      string
		allocated string
		spent     string
		label     string
	}{
		{"infinite allocation", "Inf", "5", "Allocated budget must be a number."},
		{"NaN allocation", "NaN", "0", "Allocated budget must be a number."},
		{"overflowing spend", "1000", "1e400", "Budget spent must be a number."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.post(t, "/admin", url.Values{
				"action":           {"add_project"},
				"name":             {"Unbounded Dam"},
				"status":           {"Planned"},
				"allocated_budget": {tt.allocated},
				"spent":            {tt.spent},
			})
			require.Equal(t, http.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, "/admin", resp.Header.Get("Location"))

			_, body := s.get(t, "/admin")
			assert.Contains(t, body, tt.label)
		})
	}
	assert.Equal(t, before, s.projectCount(t))

	resp, body := s.get(t, "/api/budget_data")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, json.Valid([]byte(body)))
}

func TestReportShowsOnAdminUntilResolved(t *testing.T) {
	s := newTestSite(t, nil)
	p := s.firstProject(t)

	resp := s.post(t, "/feedback", url.Values{
		"feedback_type":  {"report"},
		"project_id":     {fmt.Sprint(p.ID)},
		"report_subject": {"Potholes again"},
		"report_message": {"The new surface is already cracking."},
		"report_type":    {"Issue"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, fmt.Sprintf("/project/%d", p.ID), resp.Header.Get("Location"))

	_, body := s.get(t, fmt.Sprintf("/project/%d", p.ID))
	assert.Contains(t, body, "Thank you, your project report has been submitted.")
	assert.Contains(t, body, "Potholes again")

	s.login(t)
	_, body = s.get(t, "/admin")
	assert.Contains(t, body, "Potholes again")
	assert.Contains(t, body, `<span class="badge badge-warning">1</span>`)

	var reportID int64
	require.NoError(t, s.app.DB.Gorm.Table("project_reports").Select("report_id").
		Where("report_subject = ?", "Potholes again").Scan(&reportID).Error)
	require.NotZero(t, reportID)

	resp = s.post(t, fmt.Sprintf("/admin/resolve-report/%d", reportID), url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = s.get(t, "/admin")
	assert.Contains(t, body, "Report marked as resolved.")
	assert.NotContains(t, body, `<span class="badge badge-warning">1</span>`)
}

func TestReportForUnknownProject(t *testing.T) {
	s := newTestSite(t, nil)

	resp := s.post(t, "/feedback", url.Values{
		"feedback_type":  {"report"},
		"project_id":     {"999999"},
		"report_subject": {"Ghost project"},
		"report_message": {"Where is it?"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/feedback", resp.Header.Get("Location"))

	var n int64
	require.NoError(t, s.app.DB.Gorm.Table("project_reports").Count(&n).Error)
	assert.Zero(t, n)
}

func TestIntakeRateLimit(t *testing.T) {
	s := newTestSite(t, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{PerMinute: 1, Burst: 1}
	})

	form := url.Values{"name": {"Ana"}, "email": {"ana@example.com"}, "message": {"Hello"}}

	resp := s.post(t, "/contact", form)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body := s.get(t, "/contact")
	assert.Contains(t, body, "Thank you for contacting us.")

	resp = s.post(t, "/contact", form)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/contact", resp.Header.Get("Location"))
	_, body = s.get(t, "/contact")
	assert.Contains(t, body, "Too many submissions.")
	assert.False(t, strings.Contains(body, "Thank you for contacting us."))
}

func TestFirebaseLoginDisabled(t *testing.T) {
	s := newTestSite(t, nil)

	resp, err := s.client.Post(s.srv.URL+"/login/firebase", "application/json", strings.NewReader(`{"id_token":"x"}`))
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNewAppWithoutRedisUsesMemorySessions(t *testing.T) {
	s := newTestSite(t, func(cfg *config.Config) { cfg.Redis.Addr = "" })

	s.login(t)
	resp, _ := s.get(t, "/admin")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := s.get(t, "/health")
	assert.Contains(t, body, `"redis":"disabled"`)
}

func TestNewAppRejectsBadExportSchedule(t *testing.T) {
	hash, err := auth.HashPassword(adminPassword)
	require.NoError(t, err)

	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "govfunds.db")},
		Auth:     config.AuthConfig{Credentials: "admin:" + hash, SessionTTL: time.Hour},
		Uploads:  config.UploadsConfig{Dir: t.TempDir(), URLPrefix: "/uploads"},
		Data:     config.DataConfig{ExportSchedule: "not a schedule"},
		App:      config.AppConfig{Environment: "test"},
	}

	_, err = NewApp(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

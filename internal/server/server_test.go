package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/config"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/db/dbtest"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/notify"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/notify/notifytest"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/accounts"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/jobs"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/ledger"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/pages"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/storage"
)

type testServer struct {
	app      *fiber.App
	db       *gorm.DB
	mail     *notifytest.Recorder
	accounts *accounts.AccountService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gdb := dbtest.Open(t)
	log := zap.NewNop()
	cfg := config.Config{
		AppEnv:          "test",
		JWTSecret:       "test-secret",
		JWTExpiresMin:   60,
		FrontendBaseURL: "http://localhost:5173",
		CORSOrigins:     "http://localhost:5173",
		MaxResumeMB:     5,
		BodyLimitMB:     10,
	}
	rec := &notifytest.Recorder{}
	acc := accounts.NewAccountService(gdb, cfg.JWTSecret, cfg.JWTExpiresMin, log)
	store := storage.NewLocalStore(filepath.Join(t.TempDir(), "resumes"))
	dispatcher := notify.NewDispatcher(rec, nil, cfg.FrontendBaseURL, log)

	app := New(Deps{
		Config:   cfg,
		Logger:   log,
		DB:       gdb,
		Accounts: acc,
		Jobs:     jobs.NewJobService(gdb, log),
		Ledger:   ledger.NewLedgerService(gdb, store, dispatcher, log, 0),
		Pages:    pages.NewPageService(gdb, log),
	})
	return &testServer{app: app, db: gdb, mail: rec, accounts: acc}
}

func (s *testServer) token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := s.accounts.IssueToken(u)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, req *http.Request, token string) (*http.Response, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	body := map[string]any{}
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func jsonRequest(method, target string, v any) *http.Request {
	var r io.Reader
	if v != nil {
		b, _ := json.Marshal(v)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return req
}

func applyRequest(t *testing.T, jobID, cover, filename string, cv []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("jobId", jobID))
	require.NoError(t, w.WriteField("coverLetter", cover))
	if filename != "" {
		fw, err := w.CreateFormFile("cv", filename)
		require.NoError(t, err)
		_, err = fw.Write(cv)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/applications", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestRegisterLoginAndMe(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, jsonRequest(http.MethodPost, "/api/auth/register", map[string]any{
		"name": "Naledi Dlamini", "email": "naledi@example.com", "password": "secret123",
	}), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])

	resp, body = s.do(t, jsonRequest(http.MethodPost, "/api/auth/register", map[string]any{
		"name": "Naledi Again", "email": "naledi@example.com", "password": "secret123",
	}), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User with this email already exists", body["message"])
	assert.Equal(t, false, body["success"])

	resp, body = s.do(t, jsonRequest(http.MethodPost, "/api/auth/login", map[string]any{
		"email": "naledi@example.com", "password": "nope-nope",
	}), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", body["error"])

	resp, body = s.do(t, jsonRequest(http.MethodPost, "/api/auth/login", map[string]any{
		"email": "naledi@example.com", "password": "secret123",
	}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]any)
	assert.Equal(t, "naledi@example.com", user["email"])
	assert.Equal(t, "jobseeker", user["role"])

	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestApplicationLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := dbtest.CreateUser(t, s.db, models.RoleAdmin)
	seeker := dbtest.CreateUser(t, s.db, models.RoleJobSeeker)
	other := dbtest.CreateUser(t, s.db, models.RoleJobSeeker)
	job := dbtest.CreateJob(t, s.db, admin)
	cover := "I have three years of spreadsheet cleanup experience."

	resp, body := s.do(t, applyRequest(t, job.ID.String(), cover, "cv.pdf", []byte("%PDF-1.4")), s.token(t, seeker))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	app := body["application"].(map[string]any)
	appID := app["id"].(string)
	assert.Equal(t, "pending", app["status"])
	assert.Len(t, s.mail.To(seeker.Email), 1)

	resp, body = s.do(t, applyRequest(t, job.ID.String(), cover, "", nil), s.token(t, seeker))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "You have already applied for this job", body["message"])

	resp, body = s.do(t, applyRequest(t, job.ID.String(), cover, "cv.exe", []byte("MZ")), s.token(t, other))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Only PDF, DOC, and DOCX files are allowed", body["message"])

	// Reviewers only.
	resp, _ = s.do(t, jsonRequest(http.MethodPut, "/api/applications/"+appID, map[string]any{"status": "accepted"}), s.token(t, seeker))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(t, jsonRequest(http.MethodPut, "/api/applications/"+appID, map[string]any{"status": "accepted", "notes": "Strong fit"}), s.token(t, admin))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Application status updated to accepted", body["message"])

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/applications", nil), s.token(t, other))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["count"])

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/applications", nil), s.token(t, seeker))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])

	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/applications/"+appID+"/cv", nil), s.token(t, other))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/applications/"+appID+"/cv", nil)
	req.Header.Set("Authorization", "Bearer "+s.token(t, seeker))
	raw, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, raw.StatusCode)
	assert.Contains(t, raw.Header.Get(fiber.HeaderContentDisposition), "attachment")
	data, err := io.ReadAll(raw.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/applications/not-a-uuid/cv", nil), s.token(t, seeker))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/applications/"+appID, nil), s.token(t, seeker))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExportRequiresReviewer(t *testing.T) {
	s := newTestServer(t)
	admin := dbtest.CreateUser(t, s.db, models.RoleAdmin)
	employer := dbtest.CreateUser(t, s.db, models.RoleEmployer)

	resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/applications/export", nil), s.token(t, employer))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "User role employer is not authorized to access this route", body["message"])

	req := httptest.NewRequest(http.MethodGet, "/api/applications/export", nil)
	req.Header.Set("Authorization", "Bearer "+s.token(t, admin))
	raw, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, raw.StatusCode)
	assert.Contains(t, raw.Header.Get(fiber.HeaderContentType), "spreadsheetml")
}

func TestPagesAndFallbacks(t *testing.T) {
	s := newTestServer(t)
	admin := dbtest.CreateUser(t, s.db, models.RoleAdmin)

	resp, body := s.do(t, jsonRequest(http.MethodPost, "/api/pages", map[string]any{"title": "Career Advice", "order": 4}), s.token(t, admin))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "career-advice", body["page"].(map[string]any)["slug"])

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/pages/career-advice", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Career Advice", body["page"].(map[string]any)["title"])

	resp, _ = s.do(t, jsonRequest(http.MethodPost, "/api/pages", map[string]any{"title": "FAQ"}), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", body["message"])
}

func TestJobsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := dbtest.CreateUser(t, s.db, models.RoleAdmin)
	seeker := dbtest.CreateUser(t, s.db, models.RoleJobSeeker)
	job := dbtest.CreateJob(t, s.db, admin)

	resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs?search=data", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["jobs"], 1)

	resp, _ = s.do(t, jsonRequest(http.MethodPost, "/api/jobs", map[string]any{"title": "x"}), s.token(t, seeker))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(t, jsonRequest(http.MethodPut, "/api/jobs/"+job.ID.String(), map[string]any{"location": "Durban"}), s.token(t, admin))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Durban", body["job"].(map[string]any)["location"])

	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID.String(), nil), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	employer := dbtest.CreateUser(t, s.db, models.RoleEmployer)
	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/my/posted", nil), s.token(t, seeker))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/my/posted", nil), s.token(t, employer))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/my/posted", nil), s.token(t, admin))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/categories", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"Technology"}, body["categories"])
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-board/internal/access"
	"github.com/justsurfingit/job-board/internal/chat"
	"github.com/justsurfingit/job-board/internal/database/dbtest"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/justsurfingit/job-board/internal/models"
	"github.com/justsurfingit/job-board/internal/notify"
	"github.com/justsurfingit/job-board/internal/services"
	"github.com/justsurfingit/job-board/internal/session"
	"github.com/justsurfingit/job-board/internal/uploads"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type staticSessions map[string]*session.Session

func (s staticSessions) Resolve(_ context.Context, token string) (*session.Session, error) {
	if sess, ok := s[token]; ok {
		return sess, nil
	}
	return nil, apperrors.Unauthenticated("invalid session", nil)
}

type countingNotifier struct {
	byKey map[string]int
}

func (n *countingNotifier) Notify(_ context.Context, msg notify.Notification) error {
	n.byKey[msg.Key]++
	return nil
}

type testServer struct {
	router   *gin.Engine
	db       *gorm.DB
	company  models.Company
	notifier *countingNotifier

	applicant, rival models.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	logger := zap.NewNop()
	gate := access.NewRoleGate()

	poster := models.User{Email: "p@acme.test", RoqUserID: "roq-p", TenantID: "T1"}
	applicant := models.User{Email: "u2@example.com", RoqUserID: "roq-u2", TenantID: "T-U2"}
	rival := models.User{Email: "x@example.com", RoqUserID: "roq-x", TenantID: "T-X"}
	outsider := models.User{Email: "o@other.test", RoqUserID: "roq-o", TenantID: "T2"}
	for _, u := range []*models.User{&poster, &applicant, &rival, &outsider} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	company := models.Company{Name: "Acme", TenantID: "T1", UserID: poster.ID}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("seed company: %v", err)
	}

	sessions := staticSessions{
		"poster-token":    {AuthID: "roq-p", TenantID: "T1", Roles: []access.Role{access.RoleJobPoster}},
		"applicant-token": {AuthID: "roq-u2", TenantID: "T-U2", Roles: []access.Role{access.RoleJobApplicant}},
		"rival-token":     {AuthID: "roq-x", TenantID: "T-X", Roles: []access.Role{access.RoleJobApplicant}},
		"outsider-token":  {AuthID: "roq-o", TenantID: "T2", Roles: []access.Role{access.RoleJobPoster}},
		"stranger-token":  {AuthID: "roq-nobody", TenantID: "T9", Roles: []access.Role{access.RoleJobApplicant}},
	}

	notifier := &countingNotifier{byKey: map[string]int{}}
	users := services.NewUserService(db, gate, logger)
	llm, err := services.NewLLMService(context.Background(), "", logger)
	if err != nil {
		t.Fatalf("NewLLMService: %v", err)
	}
	store, err := uploads.NewDiskStore(t.TempDir(), "http://files.test")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	router := NewRouter(RouterDeps{
		Logger:   logger,
		Sessions: sessions,
		Users:    users,
		Jobs:     NewJobHandler(llm, services.NewJobService(db, gate, logger)),
		Applications: NewApplicationHandler(
			services.NewApplicationService(db, gate, chat.Disabled{}, notifier, logger),
		),
		Directory: NewDirectoryHandler(users, services.NewCompanyService(db, gate, logger)),
		Uploads:   NewUploadHandler(store),
	})
	return &testServer{
		router:    router,
		db:        db,
		company:   company,
		notifier:  notifier,
		applicant: applicant,
		rival:     rival,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"unknown token", "bogus"},
		{"session without local user", "stranger-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/v1/jobs", tt.token, nil)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("Expected 401, got %d", w.Code)
			}
			var body ErrorResponse
			decode(t, w, &body)
			if body.Type != "UNAUTHENTICATED" {
				t.Errorf("Expected UNAUTHENTICATED, got %+v", body)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPatch, "/api/v1/jobs", "poster-token", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected 405, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["message"] != "Method PATCH not allowed" {
		t.Errorf("Unexpected body %v", body)
	}
}

func TestValidationErrorShape(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/applications", "applicant-token", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var body ErrorResponse
	decode(t, w, &body)
	if body.Type != "INVALID_INPUT" {
		t.Errorf("Expected INVALID_INPUT, got %s", body.Type)
	}
	for _, field := range []string{"job_id", "coverLetter"} {
		if _, ok := body.Fields[field]; !ok {
			t.Errorf("Expected field error for %s, got %v", field, body.Fields)
		}
	}
}

func TestForbiddenShape(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/jobs", "applicant-token", map[string]string{
		"title":       "Sneaky",
		"description": "Applicants cannot post",
		"company_id":  s.company.ID,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", w.Code)
	}
	var body ErrorResponse
	decode(t, w, &body)
	if body.Type != "UNAUTHORIZED" || body.Error == "" {
		t.Errorf("Unexpected body %+v", body)
	}
}

func TestHiringFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/jobs", "poster-token", map[string]string{
		"title":       "Backend Engineer",
		"description": "Go services",
		"company_id":  s.company.ID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Create job: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var job models.Job
	decode(t, w, &job)

	w = s.do(t, http.MethodPost, "/api/v1/applications", "applicant-token", map[string]string{
		"job_id":      job.ID,
		"coverLetter": "Hire me",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Submit: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var app models.Application
	decode(t, w, &app)
	if app.Status != models.StatusSubmitted {
		t.Errorf("Expected Submitted, got %s", app.Status)
	}

	w = s.do(t, http.MethodPut, "/api/v1/applications/"+app.ID, "poster-token", map[string]string{"status": "hired"})
	if w.Code != http.StatusOK {
		t.Fatalf("Hire: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &app)
	if app.Status != models.StatusHired {
		t.Errorf("Expected Hired, got %s", app.Status)
	}
	if s.notifier.byKey[notify.KeyHiring] != 1 {
		t.Errorf("Expected one hiring notification, got %d", s.notifier.byKey[notify.KeyHiring])
	}

	w = s.do(t, http.MethodPut, "/api/v1/applications/"+app.ID, "poster-token", map[string]string{"status": "Submitted"})
	if w.Code != http.StatusConflict {
		t.Errorf("Revert: expected 409, got %d", w.Code)
	}

	w = s.do(t, http.MethodPut, "/api/v1/applications/"+app.ID, "poster-token", map[string]string{"status": "Interviewing"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Unknown status: expected 400, got %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/v1/jobs/"+job.ID+"?relations=application.count", "applicant-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Get job: expected 200, got %d", w.Code)
	}
	var view struct {
		Count   *models.JobCount   `json:"_count"`
		Actions []access.Operation `json:"_actions"`
	}
	decode(t, w, &view)
	if view.Count == nil || view.Count.Application != 1 {
		t.Errorf("Expected _count.application = 1, got %+v", view.Count)
	}
	if len(view.Actions) != 1 || view.Actions[0] != access.OpRead {
		t.Errorf("Applicant should only see READ, got %v", view.Actions)
	}

	w = s.do(t, http.MethodGet, "/api/v1/applications/"+app.ID+"/events", "applicant-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Events: expected 200, got %d", w.Code)
	}
	var events []models.ApplicationEvent
	decode(t, w, &events)
	if len(events) == 0 || events[0].EventType != models.EventSubmitted {
		t.Errorf("Unexpected events %+v", events)
	}
}

func TestQueryValidation(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/jobs?limit=500&colour=red", "poster-token", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	var body ErrorResponse
	decode(t, w, &body)
	if _, ok := body.Fields["limit"]; !ok {
		t.Errorf("Expected limit field error, got %v", body.Fields)
	}
	if _, ok := body.Fields["colour"]; !ok {
		t.Errorf("Expected colour field error, got %v", body.Fields)
	}
}

func TestSearchParamOnlyOnSearch(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/jobs?q=go", "poster-token", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for q on the list endpoint, got %d", w.Code)
	}
	var body ErrorResponse
	decode(t, w, &body)
	if body.Fields["q"] != "unknown filter" {
		t.Errorf("Expected q rejected as unknown filter, got %v", body.Fields)
	}

	w = s.do(t, http.MethodGet, "/api/v1/jobs/search?q=go&limit=5", "poster-token", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Search: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestJobApplicationRelations(t *testing.T) {
	s := newTestServer(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	job := models.Job{CompanyID: s.company.ID, Title: "SRE", Description: "On call", CreatedAt: base}
	if err := s.db.Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	older := models.Application{JobID: job.ID, UserID: s.applicant.ID, CoverLetter: "first", CreatedAt: base.Add(time.Hour)}
	newer := models.Application{JobID: job.ID, UserID: s.rival.ID, CoverLetter: "second", CreatedAt: base.Add(2 * time.Hour)}
	for _, a := range []*models.Application{&newer, &older} {
		if err := s.db.Create(a).Error; err != nil {
			t.Fatalf("seed application: %v", err)
		}
	}

	tests := []struct {
		name  string
		token string
		want  []string
	}{
		{"poster sees newest first", "poster-token", []string{newer.ID, older.ID}},
		{"applicant sees own", "applicant-token", []string{older.ID}},
		{"second applicant sees own", "rival-token", []string{newer.ID}},
		{"other tenant poster sees none", "outsider-token", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/v1/jobs/"+job.ID+"?relations=application.user", tt.token, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Get job: expected 200, got %d: %s", w.Code, w.Body.String())
			}
			var view models.Job
			decode(t, w, &view)
			if len(view.Applications) != len(tt.want) {
				t.Fatalf("Expected %d applications, got %d", len(tt.want), len(view.Applications))
			}
			for i, id := range tt.want {
				got := view.Applications[i]
				if got.ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, got.ID)
				}
				if got.User == nil || got.User.ID != got.UserID {
					t.Errorf("Application %s is missing its user", got.ID)
				}
			}

			w = s.do(t, http.MethodGet, "/api/v1/jobs?relations=application", tt.token, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("List jobs: expected 200, got %d", w.Code)
			}
			var jobs []models.Job
			decode(t, w, &jobs)
			if len(jobs) != 1 || len(jobs[0].Applications) != len(tt.want) {
				t.Errorf("Expected %d embedded applications in listing, got %+v", len(tt.want), jobs)
			}
		})
	}
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "cv.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte("%PDF-1.4"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer applicant-token")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var up uploads.Upload
	decode(t, w, &up)
	if up.Name != "cv.pdf" || up.URL == "" {
		t.Errorf("Unexpected upload %+v", up)
	}
}

func TestDraftingUnavailable(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/jobs/extract", "poster-token", map[string]string{"raw_html": "<h1>Job</h1>"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a model, got %d", w.Code)
	}
}

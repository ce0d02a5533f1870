package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/justsurfingit/job-board/internal/access"
	"github.com/justsurfingit/job-board/internal/chat"
	"github.com/justsurfingit/job-board/internal/database/dbtest"
	"github.com/justsurfingit/job-board/internal/models"
	"github.com/justsurfingit/job-board/internal/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeChat struct {
	mu    sync.Mutex
	convs []chat.Conversation
	err   error
}

func (f *fakeChat) CreateConversation(_ context.Context, conv chat.Conversation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.convs = append(f.convs, conv)
	return "conv-1", nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

func (f *fakeNotifier) byKey(key string) []notify.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notify.Notification
	for _, n := range f.sent {
		if n.Key == key {
			out = append(out, n)
		}
	}
	return out
}

type brokenGate struct{}

func (brokenGate) HasAccess(context.Context, access.Caller, access.Request) (bool, error) {
	return false, errors.New("platform down")
}

// world is a small tenant setup: poster P owns company C in tenant T1,
// applicants U2 and X live in their own tenants, outsider O posts for
// tenant T2.
type world struct {
	db       *gorm.DB
	chat     *fakeChat
	notifier *fakeNotifier

	jobs         *JobService
	applications *ApplicationService
	users        *UserService
	companies    *CompanyService

	poster, colleague, applicant, rival, outsider models.User
	company                                       models.Company

	P, U2, X, O access.Caller
}

func newWorld(t *testing.T) *world {
	t.Helper()
	db := dbtest.New(t)
	gate := access.NewRoleGate()
	logger := zap.NewNop()

	w := &world{
		db:       db,
		chat:     &fakeChat{},
		notifier: &fakeNotifier{},
	}
	w.jobs = NewJobService(db, gate, logger)
	w.applications = NewApplicationService(db, gate, w.chat, w.notifier, logger)
	w.users = NewUserService(db, gate, logger)
	w.companies = NewCompanyService(db, gate, logger)

	w.poster = models.User{Email: "p@acme.test", RoqUserID: "roq-p", TenantID: "T1", FirstName: "Pat"}
	w.colleague = models.User{Email: "c@acme.test", RoqUserID: "roq-c", TenantID: "T1"}
	w.applicant = models.User{Email: "u2@example.com", RoqUserID: "roq-u2", TenantID: "T-U2"}
	w.rival = models.User{Email: "x@example.com", RoqUserID: "roq-x", TenantID: "T-X"}
	w.outsider = models.User{Email: "o@other.test", RoqUserID: "roq-o", TenantID: "T2"}
	for _, u := range []*models.User{&w.poster, &w.colleague, &w.applicant, &w.rival, &w.outsider} {
		mustCreate(t, db, u)
	}

	w.company = models.Company{Name: "Acme", TenantID: "T1", UserID: w.poster.ID}
	mustCreate(t, db, &w.company)

	w.P = callerFor(w.poster, access.RoleJobPoster)
	w.U2 = callerFor(w.applicant, access.RoleJobApplicant)
	w.X = callerFor(w.rival, access.RoleJobApplicant)
	w.O = callerFor(w.outsider, access.RoleJobPoster)
	return w
}

func callerFor(u models.User, roles ...access.Role) access.Caller {
	return access.Caller{UserID: u.ID, AuthID: u.RoqUserID, TenantID: u.TenantID, Roles: roles}
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// seedJob inserts a job created at the given offset from a fixed base time.
func (w *world) seedJob(t *testing.T, title, description string, offset time.Duration) models.Job {
	t.Helper()
	job := models.Job{
		CompanyID:   w.company.ID,
		Title:       title,
		Description: description,
		CreatedAt:   baseTime.Add(offset),
	}
	mustCreate(t, w.db, &job)
	return job
}

// seedApplication inserts a submitted application by user, created at the
// given offset from the same base time as seedJob.
func (w *world) seedApplication(t *testing.T, job models.Job, user models.User, coverLetter string, offset time.Duration) models.Application {
	t.Helper()
	app := models.Application{
		JobID:       job.ID,
		UserID:      user.ID,
		Status:      models.StatusSubmitted,
		CoverLetter: coverLetter,
		CreatedAt:   baseTime.Add(offset),
	}
	mustCreate(t, w.db, &app)
	return app
}

package query

import (
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/justsurfingit/job-board/internal/database/dbtest"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/justsurfingit/job-board/internal/models"
	"gorm.io/gorm"
)

func TestParse_RelationsAndCounts(t *testing.T) {
	values := url.Values{}
	values.Add("relations", "company,application.count")
	values.Add("relations", "application")
	values.Set("company_id", "C1")
	values.Set("limit", "10")

	p, err := Parse(values, JobSchema)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(p.Relations, []string{"application", "company"}) {
		t.Errorf("Unexpected relations: %v", p.Relations)
	}
	if !p.WantsCount("application") {
		t.Error("Expected application count to be requested")
	}
	if p.Filters["company_id"] != "C1" {
		t.Errorf("Expected company_id filter, got %v", p.Filters)
	}
	if p.Limit != 10 {
		t.Errorf("Expected limit 10, got %d", p.Limit)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := []url.Values{
		{"salary": {"100"}},
		{"relations": {"owner"}},
		{"relations": {"company.count"}},
		{"limit": {"0"}},
		{"limit": {"500"}},
		{"offset": {"-1"}},
		{"q": {"go"}},
	}
	for _, values := range cases {
		_, err := Parse(values, JobSchema)
		de, ok := apperrors.As(err)
		if !ok || de.Type != apperrors.ErrTypeInvalidInput {
			t.Errorf("Parse(%v): expected INVALID_INPUT, got %v", values, err)
			continue
		}
		if len(de.Fields) == 0 {
			t.Errorf("Parse(%v): expected field messages", values)
		}
	}
}

func TestParseSearch(t *testing.T) {
	p, q, err := ParseSearch(url.Values{"q": {"Go dev"}, "relations": {"company"}}, JobSchema)
	if err != nil {
		t.Fatalf("ParseSearch failed: %v", err)
	}
	if q != "Go dev" {
		t.Errorf("Expected search text, got %q", q)
	}
	if !reflect.DeepEqual(p.Relations, []string{"company"}) {
		t.Errorf("Unexpected relations %v", p.Relations)
	}
	if _, ok := p.Filters["q"]; ok {
		t.Error("Search text must not become a filter")
	}

	if _, _, err := ParseSearch(url.Values{"q": {"go"}, "colour": {"red"}}, JobSchema); err == nil {
		t.Error("Expected unknown filters to still be rejected")
	}
}

func TestApply_ScopesApplicationPreload(t *testing.T) {
	db := dbtest.New(t)

	company := models.Company{Name: "Acme", TenantID: "T1"}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	job := models.Job{CompanyID: company.ID, Title: "Writer", Description: "Docs"}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var apps []models.Application
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		u := models.User{Email: email, RoqUserID: "roq-" + email, TenantID: "T-" + email}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
		a := models.Application{JobID: job.ID, UserID: u.ID, CoverLetter: email, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("create application: %v", err)
		}
		apps = append(apps, a)
	}

	p, err := Parse(url.Values{"relations": {"application.user"}}, JobSchema)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var all models.Job
	if err := p.Apply(db).First(&all, "jobs.id = ?", job.ID).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if len(all.Applications) != 3 || all.Applications[0].ID != apps[2].ID || all.Applications[2].ID != apps[0].ID {
		t.Fatalf("Expected all applications newest first, got %+v", all.Applications)
	}

	hidden := apps[1].UserID
	scoped := p.ScopeApplications(func(tx *gorm.DB) *gorm.DB {
		return tx.Where("applications.user_id <> ?", hidden)
	})
	var some models.Job
	if err := scoped.Apply(db).First(&some, "jobs.id = ?", job.ID).Error; err != nil {
		t.Fatalf("load scoped job: %v", err)
	}
	if len(some.Applications) != 2 {
		t.Fatalf("Expected 2 scoped applications, got %d", len(some.Applications))
	}
	for _, a := range some.Applications {
		if a.UserID == hidden {
			t.Errorf("Scoped preload leaked application %s", a.ID)
		}
		if a.User == nil {
			t.Errorf("Application %s is missing its user", a.ID)
		}
	}
}

func TestParse_NormalizesStatus(t *testing.T) {
	p, err := Parse(url.Values{"status": {"hired"}}, ApplicationSchema)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Filters["status"] != string(models.StatusHired) {
		t.Errorf("Expected Hired, got %q", p.Filters["status"])
	}
	if _, err := Parse(url.Values{"status": {"pending"}}, ApplicationSchema); err == nil {
		t.Error("Expected error for unknown status")
	}
}

func TestSearchAndOrdering(t *testing.T) {
	db := dbtest.New(t)

	company := models.Company{Name: "Acme", TenantID: "T1"}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := []models.Job{
		{CompanyID: company.ID, Title: "Backend Engineer", Description: "Build APIs", CreatedAt: base},
		{CompanyID: company.ID, Title: "Designer", Description: "Draw things for the backend team", CreatedAt: base.Add(time.Hour)},
		{CompanyID: company.ID, Title: "Accountant", Description: "Spreadsheets at 100%", CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range jobs {
		if err := db.Create(&jobs[i]).Error; err != nil {
			t.Fatalf("create job: %v", err)
		}
	}

	var found []models.Job
	if err := Search(db.Model(&models.Job{}), "BACKEND").Scopes(NewestFirst).Find(&found).Error; err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(found))
	}
	if found[0].Title != "Designer" || found[1].Title != "Backend Engineer" {
		t.Errorf("Expected newest first, got %s, %s", found[0].Title, found[1].Title)
	}

	found = nil
	if err := Search(db.Model(&models.Job{}), "   ").Scopes(NewestFirst).Find(&found).Error; err != nil {
		t.Fatalf("blank search: %v", err)
	}
	if len(found) != 3 {
		t.Errorf("Blank query should return every job, got %d", len(found))
	}
	if found[0].Title != "Accountant" {
		t.Errorf("Expected newest job first, got %s", found[0].Title)
	}

	found = nil
	if err := Search(db.Model(&models.Job{}), "%").Find(&found).Error; err != nil {
		t.Fatalf("wildcard search: %v", err)
	}
	if len(found) != 1 || found[0].Title != "Accountant" {
		t.Errorf("Expected '%%' to match literally, got %d results", len(found))
	}
}

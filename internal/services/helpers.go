package services

import (
	"errors"
	"net/url"
	"strings"

	"github.com/justsurfingit/job-board/internal/access"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/justsurfingit/job-board/internal/models"
	"gorm.io/gorm"
)

// lookupErr maps a failed single-row read onto NOT_FOUND or INTERNAL.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(what+" not found", nil)
	}
	return apperrors.Internal("loading "+what, err)
}

// visibleApplications is the condition limiting applications to the caller's
// own, plus those for jobs of the caller's tenant when the caller posts jobs.
// It guards both application listings and applications embedded in jobs.
func visibleApplications(db *gorm.DB, caller access.Caller) *gorm.DB {
	cond := db.Where("1 = 0")
	if caller.HasRole(access.RoleJobApplicant) {
		cond = cond.Or("applications.user_id = ?", caller.UserID)
	}
	if caller.HasRole(access.RoleJobPoster) {
		tenantJobs := db.Model(&models.Job{}).
			Select("jobs.id").
			Joins("JOIN companies ON companies.id = jobs.company_id").
			Where("companies.tenant_id = ?", caller.TenantID)
		cond = cond.Or("applications.job_id IN (?)", tenantJobs)
	}
	return cond
}

// fieldErrors collects field-level validation messages.
type fieldErrors map[string]string

func (f fieldErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = "is required"
	}
}

func (f fieldErrors) optionalURL(field, value string) {
	if value == "" {
		return
	}
	u, err := url.ParseRequestURI(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		f[field] = "must be a valid URL"
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.InvalidFields("validation failed", f)
}

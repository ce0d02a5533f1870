package services

import (
	"context"
	"strings"

	"github.com/justsurfingit/job-board/internal/access"
	"github.com/justsurfingit/job-board/internal/dtos"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/justsurfingit/job-board/internal/models"
	"github.com/justsurfingit/job-board/internal/query"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type JobService struct {
	DB     *gorm.DB
	Gate   access.Gate
	Logger *zap.Logger
}

func NewJobService(db *gorm.DB, gate access.Gate, logger *zap.Logger) *JobService {
	return &JobService{
		DB:     db,
		Gate:   gate,
		Logger: logger,
	}
}

// JobView is a job plus the operations the caller may perform on it.
type JobView struct {
	*models.Job
	Actions []access.Operation `json:"_actions"`
}

func (s *JobService) List(ctx context.Context, caller access.Caller, params query.Params) ([]models.Job, error) {
	return s.find(ctx, caller, params, "")
}

// Search returns jobs whose title or description contains q. A blank q
// returns every job.
func (s *JobService) Search(ctx context.Context, caller access.Caller, q string, params query.Params) ([]models.Job, error) {
	return s.find(ctx, caller, params, q)
}

func (s *JobService) find(ctx context.Context, caller access.Caller, params query.Params, q string) ([]models.Job, error) {
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityJob,
		Operation: access.OpRead,
	}); err != nil {
		return nil, err
	}

	db := s.withVisibleApplications(ctx, caller, params).Apply(s.DB.WithContext(ctx).Model(&models.Job{}))
	db = query.Search(db, q)

	jobs := []models.Job{}
	if err := db.Scopes(query.NewestFirst).Find(&jobs).Error; err != nil {
		return nil, apperrors.Internal("listing jobs", err)
	}
	if params.WantsCount("application") {
		if err := s.attachApplicationCounts(ctx, jobs); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func (s *JobService) Get(ctx context.Context, caller access.Caller, id string, params query.Params) (*JobView, error) {
	var job models.Job
	err := s.withVisibleApplications(ctx, caller, params).Apply(s.DB.WithContext(ctx)).Where("jobs.id = ?", id).First(&job).Error
	if err != nil {
		return nil, lookupErr(err, "job")
	}

	scope, err := s.companyScope(ctx, job.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityJob,
		Operation: access.OpRead,
		Scope:     scope,
	}); err != nil {
		return nil, err
	}

	if params.WantsCount("application") {
		jobs := []models.Job{job}
		if err := s.attachApplicationCounts(ctx, jobs); err != nil {
			return nil, err
		}
		job = jobs[0]
	}
	return &JobView{Job: &job, Actions: access.VisibleActions(caller, access.EntityJob, scope)}, nil
}

func (s *JobService) Create(ctx context.Context, caller access.Caller, req *dtos.JobCreationRequest) (*models.Job, error) {
	problems := fieldErrors{}
	problems.required("title", req.Title)
	problems.required("description", req.Description)
	problems.required("company_id", req.CompanyID)
	if err := problems.err(); err != nil {
		return nil, err
	}

	scope, err := s.companyScope(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityJob,
		Operation: access.OpCreate,
		Scope:     scope,
	}); err != nil {
		return nil, err
	}

	job := &models.Job{
		CompanyID:   req.CompanyID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.DB.WithContext(ctx).Create(job).Error; err != nil {
		return nil, apperrors.Internal("creating job", err)
	}

	s.Logger.Info("job created",
		zap.String("job_id", job.ID),
		zap.String("company_id", job.CompanyID),
		zap.String("caller", caller.UserID))
	return job, nil
}

func (s *JobService) Update(ctx context.Context, caller access.Caller, id string, req *dtos.JobUpdateRequest) (*models.Job, error) {
	var job models.Job
	if err := s.DB.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "job")
	}

	scope, err := s.companyScope(ctx, job.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityJob,
		Operation: access.OpUpdate,
		Scope:     scope,
	}); err != nil {
		return nil, err
	}

	problems := fieldErrors{}
	changes := map[string]interface{}{}
	if req.Title != nil {
		problems.required("title", *req.Title)
		changes["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		problems.required("description", *req.Description)
		changes["description"] = strings.TrimSpace(*req.Description)
	}
	if req.CompanyID != nil && *req.CompanyID != job.CompanyID {
		problems.required("company_id", *req.CompanyID)
		if err := problems.err(); err != nil {
			return nil, err
		}
		// Moving a job needs the same rights over the destination company.
		target, err := s.companyScope(ctx, *req.CompanyID)
		if err != nil {
			return nil, err
		}
		if err := access.Authorize(ctx, s.Gate, caller, access.Request{
			Entity:    access.EntityJob,
			Operation: access.OpUpdate,
			Scope:     target,
		}); err != nil {
			return nil, err
		}
		changes["company_id"] = *req.CompanyID
	}
	if err := problems.err(); err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		if err := s.DB.WithContext(ctx).Model(&job).Updates(changes).Error; err != nil {
			return nil, apperrors.Internal("updating job", err)
		}
	}
	if err := s.DB.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "job")
	}
	return &job, nil
}

// Delete removes the job and every application submitted to it.
func (s *JobService) Delete(ctx context.Context, caller access.Caller, id string) (*models.Job, error) {
	var job models.Job
	if err := s.DB.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "job")
	}

	scope, err := s.companyScope(ctx, job.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityJob,
		Operation: access.OpDelete,
		Scope:     scope,
	}); err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", job.ID).Delete(&models.Application{}).Error; err != nil {
			return err
		}
		return tx.Delete(&job).Error
	})
	if err != nil {
		return nil, apperrors.Internal("deleting job", err)
	}

	s.Logger.Info("job deleted", zap.String("job_id", job.ID), zap.String("caller", caller.UserID))
	return &job, nil
}

// withVisibleApplications keeps embedded applications to those the caller
// could read through the application endpoints.
func (s *JobService) withVisibleApplications(ctx context.Context, caller access.Caller, params query.Params) query.Params {
	return params.ScopeApplications(func(tx *gorm.DB) *gorm.DB {
		return tx.Where(visibleApplications(s.DB.WithContext(ctx), caller))
	})
}

// companyScope resolves the tenant that owns companyID.
func (s *JobService) companyScope(ctx context.Context, companyID string) (*access.Scope, error) {
	var company models.Company
	if err := s.DB.WithContext(ctx).First(&company, "id = ?", companyID).Error; err != nil {
		return nil, lookupErr(err, "company")
	}
	return &access.Scope{TenantID: company.TenantID, OwnerID: company.UserID}, nil
}

func (s *JobService) attachApplicationCounts(ctx context.Context, jobs []models.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	ids := make([]string, len(jobs))
	for i := range jobs {
		ids[i] = jobs[i].ID
	}

	var rows []struct {
		JobID string
		Total int64
	}
	err := s.DB.WithContext(ctx).Model(&models.Application{}).
		Select("job_id, COUNT(*) AS total").
		Where("job_id IN ?", ids).
		Group("job_id").
		Scan(&rows).Error
	if err != nil {
		return apperrors.Internal("counting applications", err)
	}

	totals := make(map[string]int64, len(rows))
	for _, r := range rows {
		totals[r.JobID] = r.Total
	}
	for i := range jobs {
		jobs[i].Count = &models.JobCount{Application: totals[jobs[i].ID]}
	}
	return nil
}

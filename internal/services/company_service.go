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

type CompanyService struct {
	DB     *gorm.DB
	Gate   access.Gate
	Logger *zap.Logger
}

func NewCompanyService(db *gorm.DB, gate access.Gate, logger *zap.Logger) *CompanyService {
	return &CompanyService{DB: db, Gate: gate, Logger: logger}
}

func (s *CompanyService) List(ctx context.Context, caller access.Caller, params query.Params) ([]models.Company, error) {
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityCompany,
		Operation: access.OpRead,
	}); err != nil {
		return nil, err
	}

	companies := []models.Company{}
	db := params.Apply(s.DB.WithContext(ctx).Model(&models.Company{}))
	if err := db.Scopes(query.NewestFirst).Find(&companies).Error; err != nil {
		return nil, apperrors.Internal("listing companies", err)
	}
	return companies, nil
}

// Create registers a company in the caller's tenant, owned by the caller.
func (s *CompanyService) Create(ctx context.Context, caller access.Caller, req *dtos.CompanyCreationRequest) (*models.Company, error) {
	problems := fieldErrors{}
	problems.required("name", req.Name)
	if err := problems.err(); err != nil {
		return nil, err
	}
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityCompany,
		Operation: access.OpCreate,
		Scope:     &access.Scope{TenantID: caller.TenantID, OwnerID: caller.UserID},
	}); err != nil {
		return nil, err
	}

	company := &models.Company{
		Name:     strings.TrimSpace(req.Name),
		TenantID: caller.TenantID,
		UserID:   caller.UserID,
	}
	if err := s.DB.WithContext(ctx).Create(company).Error; err != nil {
		return nil, apperrors.Internal("creating company", err)
	}
	s.Logger.Info("company created", zap.String("company_id", company.ID), zap.String("tenant_id", company.TenantID))
	return company, nil
}

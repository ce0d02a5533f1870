package services

import (
	"context"
	"errors"

	"github.com/justsurfingit/job-board/internal/access"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/justsurfingit/job-board/internal/models"
	"github.com/justsurfingit/job-board/internal/query"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	DB     *gorm.DB
	Gate   access.Gate
	Logger *zap.Logger
}

func NewUserService(db *gorm.DB, gate access.Gate, logger *zap.Logger) *UserService {
	return &UserService{DB: db, Gate: gate, Logger: logger}
}

// FindByAuthID maps a platform identity onto a local user.
func (s *UserService) FindByAuthID(ctx context.Context, authID string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "roq_user_id = ?", authID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthenticated("no user is registered for this session", nil)
		}
		return nil, apperrors.Internal("loading user", err)
	}
	return &user, nil
}

// List returns users visible to the caller. Posters see their tenant,
// everyone else sees only themselves.
func (s *UserService) List(ctx context.Context, caller access.Caller, params query.Params) ([]models.User, error) {
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityUser,
		Operation: access.OpRead,
	}); err != nil {
		return nil, err
	}

	db := params.Apply(s.DB.WithContext(ctx).Model(&models.User{}))
	if caller.HasRole(access.RoleJobPoster) {
		db = db.Where("users.tenant_id = ? OR users.id = ?", caller.TenantID, caller.UserID)
	} else {
		db = db.Where("users.id = ?", caller.UserID)
	}

	users := []models.User{}
	if err := db.Scopes(query.NewestFirst).Find(&users).Error; err != nil {
		return nil, apperrors.Internal("listing users", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, caller access.Caller, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "user")
	}
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityUser,
		Operation: access.OpRead,
		Scope:     &access.Scope{TenantID: user.TenantID, OwnerID: user.ID},
	}); err != nil {
		return nil, err
	}
	return &user, nil
}

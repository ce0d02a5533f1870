package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/justsurfingit/job-board/internal/access"
	"github.com/justsurfingit/job-board/internal/chat"
	"github.com/justsurfingit/job-board/internal/dtos"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/justsurfingit/job-board/internal/models"
	"github.com/justsurfingit/job-board/internal/notify"
	"github.com/justsurfingit/job-board/internal/query"
	"github.com/justsurfingit/job-board/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApplicationService owns the application lifecycle: submit, review
// (Submitted -> Hired | Rejected), edit and delete.
//
// Submission persists the application first and then opens the chat thread
// and notifies the company. Those side effects are best-effort: a failure is
// logged and recorded as an ApplicationEvent but never undoes the submission.
type ApplicationService struct {
	DB       *gorm.DB
	Gate     access.Gate
	Chat     chat.Client
	Notifier notify.Dispatcher
	Logger   *zap.Logger
	tracer   trace.Tracer
}

func NewApplicationService(db *gorm.DB, gate access.Gate, chatClient chat.Client, notifier notify.Dispatcher, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		DB:       db,
		Gate:     gate,
		Chat:     chatClient,
		Notifier: notifier,
		Logger:   logger,
		tracer:   telemetry.Tracer(telemetry.Applications),
	}
}

// ApplicationView is an application plus the caller's allowed operations.
type ApplicationView struct {
	*models.Application
	Actions []access.Operation `json:"_actions"`
}

func JobURL(jobID string) string {
	return "/jobs/view/" + jobID
}

func (s *ApplicationService) List(ctx context.Context, caller access.Caller, params query.Params) ([]models.Application, error) {
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityApplication,
		Operation: access.OpRead,
	}); err != nil {
		return nil, err
	}

	db := params.Apply(s.DB.WithContext(ctx).Model(&models.Application{}))
	db = db.Where(s.visibleTo(ctx, caller))

	apps := []models.Application{}
	if err := db.Scopes(query.NewestFirst).Find(&apps).Error; err != nil {
		return nil, apperrors.Internal("listing applications", err)
	}
	return apps, nil
}

func (s *ApplicationService) visibleTo(ctx context.Context, caller access.Caller) *gorm.DB {
	return visibleApplications(s.DB.WithContext(ctx), caller)
}

func (s *ApplicationService) Get(ctx context.Context, caller access.Caller, id string, params query.Params) (*ApplicationView, error) {
	var app models.Application
	err := params.Apply(s.DB.WithContext(ctx)).Where("applications.id = ?", id).First(&app).Error
	if err != nil {
		return nil, lookupErr(err, "application")
	}

	scope, err := s.scopeFor(ctx, &app)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityApplication,
		Operation: access.OpRead,
		Scope:     scope,
	}); err != nil {
		return nil, err
	}
	return &ApplicationView{
		Application: &app,
		Actions:     access.VisibleActions(caller, access.EntityApplication, scope),
	}, nil
}

// Submit creates a Submitted application for the caller, then opens a chat
// thread with the hiring company and notifies its members.
func (s *ApplicationService) Submit(ctx context.Context, caller access.Caller, req *dtos.ApplicationCreationRequest) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "SubmitApplication")
	defer span.End()

	problems := fieldErrors{}
	problems.required("job_id", req.JobID)
	problems.required("coverLetter", req.CoverLetter)
	problems.optionalURL("attachement", req.Attachement)
	if err := problems.err(); err != nil {
		return nil, err
	}
	if req.UserID != "" && req.UserID != caller.UserID {
		return nil, apperrors.Unauthorized("applications can only be submitted as yourself", nil)
	}

	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityApplication,
		Operation: access.OpCreate,
		Scope:     &access.Scope{OwnerID: caller.UserID},
	}); err != nil {
		return nil, err
	}

	job, err := s.loadJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.JobID(job.ID))

	var active int64
	err = s.DB.WithContext(ctx).Model(&models.Application{}).
		Where("job_id = ? AND user_id = ? AND status <> ?", job.ID, caller.UserID, models.StatusRejected).
		Count(&active).Error
	if err != nil {
		return nil, apperrors.Internal("checking existing applications", err)
	}
	if active > 0 {
		return nil, apperrors.Conflict("you already applied to this job", nil)
	}

	app := &models.Application{
		JobID:           job.ID,
		UserID:          caller.UserID,
		Status:          models.StatusSubmitted,
		CoverLetter:     strings.TrimSpace(req.CoverLetter),
		Attachement:     req.Attachement,
		AttachementName: req.AttachementName,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(app).Error; err != nil {
			return err
		}
		return tx.Create(&models.ApplicationEvent{
			ApplicationID: app.ID,
			EventType:     models.EventSubmitted,
			Details:       fmt.Sprintf("Applied to %q", job.Title),
		}).Error
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Internal("creating application", err)
	}
	span.SetAttributes(telemetry.ApplicationID(app.ID))

	s.Logger.Info("application submitted",
		zap.String("application_id", app.ID),
		zap.String("job_id", job.ID),
		zap.String("user_id", caller.UserID))

	s.announceSubmission(ctx, caller, job, app)
	return app, nil
}

// announceSubmission runs the best-effort side effects of a submission.
func (s *ApplicationService) announceSubmission(ctx context.Context, caller access.Caller, job *models.Job, app *models.Application) {
	var members []models.User
	err := s.DB.WithContext(ctx).
		Where("tenant_id = ? AND id <> ?", job.Company.TenantID, caller.UserID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		s.Logger.Error("failed to load company members", zap.String("application_id", app.ID), zap.Error(err))
		s.recordEvent(ctx, app.ID, models.EventConversationFailed, "loading company members: "+err.Error())
		return
	}

	memberIDs := []string{caller.AuthID}
	recipients := make([]notify.Recipient, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.RoqUserID)
		recipients = append(recipients, notify.Recipient{AuthID: m.RoqUserID, Email: m.Email})
	}

	convID, err := s.Chat.CreateConversation(ctx, chat.Conversation{
		Title:     job.Title,
		OwnerID:   caller.AuthID,
		MemberIDs: memberIDs,
		IsGroup:   true,
	})
	if err != nil {
		s.Logger.Warn("conversation not opened", zap.String("application_id", app.ID), zap.Error(err))
		s.recordEvent(ctx, app.ID, models.EventConversationFailed, err.Error())
	} else {
		if err := s.DB.WithContext(ctx).Model(app).Update("roq_conversation_id", convID).Error; err != nil {
			s.Logger.Error("failed to store conversation id", zap.String("application_id", app.ID), zap.Error(err))
		}
		app.ConversationID = convID
		s.recordEvent(ctx, app.ID, models.EventConversationOpened, convID)
	}

	if len(recipients) == 0 {
		return
	}
	s.dispatch(ctx, app.ID, notify.Notification{
		Key:        notify.KeyApplication,
		Recipients: recipients,
		Data: []notify.Datum{
			{Key: "jobTitle", Value: job.Title},
			{Key: "company", Value: job.Company.Name},
			{Key: "jobUrl", Value: JobURL(job.ID)},
		},
	})
}

// Update applies a status decision, content edits, or both.
func (s *ApplicationService) Update(ctx context.Context, caller access.Caller, id string, req *dtos.ApplicationUpdateRequest) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "UpdateApplication")
	defer span.End()
	span.SetAttributes(telemetry.ApplicationID(id))

	var app models.Application
	if err := s.DB.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "application")
	}
	job, err := s.loadJob(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	scope := &access.Scope{TenantID: job.Company.TenantID, OwnerID: app.UserID}
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityApplication,
		Operation: access.OpUpdate,
		Scope:     scope,
	}); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.HasContentChanges() {
		if caller.UserID != app.UserID {
			return nil, apperrors.Unauthorized("only the applicant can edit an application", nil)
		}
		if app.Status != models.StatusSubmitted {
			return nil, apperrors.Conflict("application is already "+string(app.Status), nil)
		}
		problems := fieldErrors{}
		if req.CoverLetter != nil {
			problems.required("coverLetter", *req.CoverLetter)
			changes["cover_letter"] = strings.TrimSpace(*req.CoverLetter)
		}
		if req.Attachement != nil {
			problems.optionalURL("attachement", *req.Attachement)
			changes["attachement"] = *req.Attachement
		}
		if req.AttachementName != nil {
			changes["attachement_name"] = *req.AttachementName
		}
		if err := problems.err(); err != nil {
			return nil, err
		}
	}

	var decision models.ApplicationStatus
	var applicant models.User
	if req.Status != nil && *req.Status != app.Status {
		next := *req.Status
		if !caller.HasRole(access.RoleJobPoster) || caller.TenantID != job.Company.TenantID {
			return nil, apperrors.Unauthorized("only the job's poster can change an application's status", nil)
		}
		if !app.Status.CanTransitionTo(next) {
			return nil, apperrors.Conflict(fmt.Sprintf("cannot move application from %s to %s", app.Status, next), nil)
		}
		// Everything the notification needs is resolved before the write.
		if err := s.DB.WithContext(ctx).First(&applicant, "id = ?", app.UserID).Error; err != nil {
			return nil, lookupErr(err, "applicant")
		}
		decision = next
	}

	if len(changes) == 0 && decision == "" {
		return &app, nil
	}

	previous := app.Status
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if decision != "" {
			// Compare-and-set on the prior status so two reviewers cannot both
			// move the same application out of Submitted.
			res := tx.Model(&models.Application{}).
				Where("id = ? AND status = ?", app.ID, previous).
				Update("status", decision)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperrors.Conflict("application was reviewed concurrently", nil)
			}
			if err := tx.Create(&models.ApplicationEvent{
				ApplicationID: app.ID,
				EventType:     models.EventStatusChanged,
				Details:       fmt.Sprintf("%s -> %s by %s", previous, decision, caller.UserID),
			}).Error; err != nil {
				return err
			}
		}
		if len(changes) > 0 {
			if err := tx.Model(&models.Application{}).Where("id = ?", app.ID).Updates(changes).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.Internal("updating application", err)
	}

	if err := s.DB.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "application")
	}

	if decision != "" {
		s.Logger.Info("application reviewed",
			zap.String("application_id", app.ID),
			zap.String("from", string(previous)),
			zap.String("to", string(decision)),
			zap.String("caller", caller.UserID))
		s.announceDecision(ctx, job, &app, &applicant)
	}
	return &app, nil
}

func (s *ApplicationService) announceDecision(ctx context.Context, job *models.Job, app *models.Application, applicant *models.User) {
	key := notify.KeyRejection
	if app.Status == models.StatusHired {
		key = notify.KeyHiring
	}
	s.dispatch(ctx, app.ID, notify.Notification{
		Key:        key,
		Recipients: []notify.Recipient{{AuthID: applicant.RoqUserID, Email: applicant.Email}},
		Data: []notify.Datum{
			{Key: "jobTitle", Value: job.Title},
			{Key: "company", Value: job.Company.Name},
			{Key: "jobUrl", Value: JobURL(job.ID)},
		},
	})
}

func (s *ApplicationService) Delete(ctx context.Context, caller access.Caller, id string) (*models.Application, error) {
	var app models.Application
	if err := s.DB.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "application")
	}
	scope, err := s.scopeFor(ctx, &app)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(ctx, s.Gate, caller, access.Request{
		Entity:    access.EntityApplication,
		Operation: access.OpDelete,
		Scope:     scope,
	}); err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Delete(&app).Error; err != nil {
		return nil, apperrors.Internal("deleting application", err)
	}
	s.Logger.Info("application deleted", zap.String("application_id", app.ID), zap.String("caller", caller.UserID))
	return &app, nil
}

// Events returns the audit trail of an application, oldest first.
func (s *ApplicationService) Events(ctx context.Context, applicationID string) ([]models.ApplicationEvent, error) {
	events := []models.ApplicationEvent{}
	err := s.DB.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, apperrors.Internal("loading application events", err)
	}
	return events, nil
}

func (s *ApplicationService) loadJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := s.DB.WithContext(ctx).Preload("Company").First(&job, "id = ?", jobID).Error; err != nil {
		return nil, lookupErr(err, "job")
	}
	if job.Company == nil {
		return nil, apperrors.NotFound("company not found", nil)
	}
	return &job, nil
}

// scopeFor resolves the tenant and owner of an application. An application
// whose job is gone is scoped to its owner only.
func (s *ApplicationService) scopeFor(ctx context.Context, app *models.Application) (*access.Scope, error) {
	scope := &access.Scope{OwnerID: app.UserID}
	job, err := s.loadJob(ctx, app.JobID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTypeNotFound) {
			return scope, nil
		}
		return nil, err
	}
	scope.TenantID = job.Company.TenantID
	return scope, nil
}

func (s *ApplicationService) dispatch(ctx context.Context, applicationID string, n notify.Notification) {
	if err := s.Notifier.Notify(ctx, n); err != nil {
		s.Logger.Warn("notification not delivered",
			zap.String("application_id", applicationID),
			zap.String("key", n.Key),
			zap.Error(err))
		s.recordEvent(ctx, applicationID, models.EventNotifyFailed, n.Key+": "+err.Error())
		return
	}
	s.recordEvent(ctx, applicationID, models.EventNotified, n.Key)
}

func (s *ApplicationService) recordEvent(ctx context.Context, applicationID, eventType, details string) {
	event := models.ApplicationEvent{
		ApplicationID: applicationID,
		EventType:     eventType,
		Details:       details,
	}
	if err := s.DB.WithContext(ctx).Create(&event).Error; err != nil {
		s.Logger.Error("failed to record application event",
			zap.String("application_id", applicationID),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

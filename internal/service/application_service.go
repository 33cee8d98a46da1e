package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/dto"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/repository"
	appErrors "github.com/Ashu-Jha004/sportsv2-sub003/pkg/errors"
)

type applicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	GetByIDForStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error)
	HasActiveApplication(ctx context.Context, athleteID string) (bool, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	UpdateStatus(ctx context.Context, ext sqlx.ExtContext, params repository.ApplicationStatusUpdate) error
	CreateProfile(ctx context.Context, ext sqlx.ExtContext, profile *models.AssociateProfile) error
}

type roleGranter interface {
	GrantRole(ctx context.Context, ext sqlx.ExtContext, athleteID string, role models.AthleteRole) error
}

// ApplicationService drives the associate application state machine:
// PENDING -> UNDER_REVIEW (claim) -> APPROVED | REJECTED, plus the direct
// PENDING -> REJECTED edge. Every transition is one transaction covering
// the conditional status update, its dependent rows and its notification.
type ApplicationService struct {
	repo                applicationStore
	athletes            roleGranter
	tx                  txRunner
	dispatcher          transitionDispatcher
	metrics             *MetricsService
	validator           *validator.Validate
	logger              *zap.Logger
	defaultCooldownDays int
}

// NewApplicationService constructs the service.
func NewApplicationService(repo applicationStore, athletes roleGranter, tx txRunner, dispatcher transitionDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, defaultCooldownDays int) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if defaultCooldownDays <= 0 {
		defaultCooldownDays = 30
	}
	return &ApplicationService{
		repo:                repo,
		athletes:            athletes,
		tx:                  tx,
		dispatcher:          dispatcher,
		metrics:             metrics,
		validator:           validate,
		logger:              logger,
		defaultCooldownDays: defaultCooldownDays,
	}
}

// Submit creates a new PENDING application for the acting athlete. At most
// one application may be in flight per athlete.
func (s *ApplicationService) Submit(ctx context.Context, req dto.SubmitApplicationRequest, actor *models.JWTClaims) (*models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	active, err := s.repo.HasActiveApplication(ctx, actor.AthleteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending applications")
	}
	if active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an application is already in review")
	}

	app := &models.Application{
		AthleteID:       actor.AthleteID,
		Status:          models.ApplicationStatusPending,
		WorkEmail:       req.WorkEmail,
		Expertise:       req.Expertise,
		ExperienceYears: req.ExperienceYears,
		Location:        req.Location,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}
	return app, nil
}

// Claim moves a PENDING application to UNDER_REVIEW and pins the actor as
// its reviewer. A concurrent claim loses on the conditional update and
// surfaces as CONFLICT.
func (s *ApplicationService) Claim(ctx context.Context, id string, actor *models.JWTClaims) (*models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	app, err := s.repo.GetByIDForStatus(ctx, id, models.ApplicationStatusPending)
	if err != nil {
		return nil, s.preconditionError(ctx, id, err, "claim", models.ApplicationStatusPending)
	}

	now := time.Now().UTC()
	reviewerID := actor.AthleteID
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateStatus(ctx, tx, repository.ApplicationStatusUpdate{
			ID:           app.ID,
			Expected:     models.ApplicationStatusPending,
			Status:       models.ApplicationStatusUnderReview,
			ReviewedByID: &reviewerID,
			ReviewedAt:   now,
		}); err != nil {
			return err
		}
		_, err := s.dispatcher.Dispatch(ctx, tx, app.AthleteID, &reviewerID, models.AssociateUnderReviewData{
			ApplicationID: app.ID,
			ReviewerID:    reviewerID,
		})
		return err
	})
	if err != nil {
		return nil, s.transitionError(err, "application", "claim")
	}
	s.metrics.RecordTransition("application", "claim", outcomeOK)

	app.Status = models.ApplicationStatusUnderReview
	app.ReviewedByID = &reviewerID
	app.ReviewedAt = &now
	return app, nil
}

// Approve moves an UNDER_REVIEW application to APPROVED. Only the claiming
// reviewer may approve. The same transaction snapshots the application
// into an associate profile, grants the ASSOCIATE role (set union) and
// notifies the athlete.
func (s *ApplicationService) Approve(ctx context.Context, id string, req dto.ApproveApplicationRequest, actor *models.JWTClaims) (*models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	app, err := s.repo.GetByIDForStatus(ctx, id, models.ApplicationStatusUnderReview)
	if err != nil {
		return nil, s.preconditionError(ctx, id, err, "approve", models.ApplicationStatusUnderReview)
	}
	if app.ReviewedByID == nil || *app.ReviewedByID != actor.AthleteID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application is claimed by another reviewer")
	}

	now := time.Now().UTC()
	reviewerID := actor.AthleteID
	profile := &models.AssociateProfile{
		AthleteID:       app.AthleteID,
		ApplicationID:   app.ID,
		WorkEmail:       app.WorkEmail,
		Expertise:       app.Expertise,
		ExperienceYears: app.ExperienceYears,
		Location:        app.Location,
		VerifiedAt:      now,
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateStatus(ctx, tx, repository.ApplicationStatusUpdate{
			ID:          app.ID,
			Expected:    models.ApplicationStatusUnderReview,
			Status:      models.ApplicationStatusApproved,
			ReviewedAt:  now,
			ReviewNotes: optionalString(req.Notes),
		}); err != nil {
			return err
		}
		if err := s.repo.CreateProfile(ctx, tx, profile); err != nil {
			return err
		}
		if err := s.athletes.GrantRole(ctx, tx, app.AthleteID, models.RoleAssociate); err != nil {
			return err
		}
		_, err := s.dispatcher.Dispatch(ctx, tx, app.AthleteID, &reviewerID, models.AssociateApprovedData{
			ApplicationID: app.ID,
			ProfileID:     profile.ID,
		})
		return err
	})
	if err != nil {
		return nil, s.transitionError(err, "application", "approve")
	}
	s.metrics.RecordTransition("application", "approve", outcomeOK)

	app.Status = models.ApplicationStatusApproved
	app.ReviewedAt = &now
	app.ReviewNotes = optionalString(req.Notes)
	return app, nil
}

// Reject moves a PENDING or UNDER_REVIEW application to REJECTED and
// stamps the reapply cooldown. The cooldown bound is enforced at the DTO
// layer; the engine uses the value it is given.
func (s *ApplicationService) Reject(ctx context.Context, id string, req dto.RejectApplicationRequest, actor *models.JWTClaims) (*models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}

	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.Status != models.ApplicationStatusPending && app.Status != models.ApplicationStatusUnderReview {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("application is %s, no transition from a terminal state", app.Status))
	}
	// An unclaimed application may be rejected by any moderator; a claimed
	// one only by its reviewer.
	if app.Status == models.ApplicationStatusUnderReview &&
		(app.ReviewedByID == nil || *app.ReviewedByID != actor.AthleteID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application is claimed by another reviewer")
	}

	cooldownDays := s.defaultCooldownDays
	if req.CooldownDays != nil {
		cooldownDays = *req.CooldownDays
	}
	now := time.Now().UTC()
	canReapplyAfter := now.AddDate(0, 0, cooldownDays)
	reviewerID := actor.AthleteID

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateStatus(ctx, tx, repository.ApplicationStatusUpdate{
			ID:              app.ID,
			Expected:        app.Status,
			Status:          models.ApplicationStatusRejected,
			ReviewedByID:    &reviewerID,
			ReviewedAt:      now,
			RejectionReason: &req.Reason,
			CanReapplyAfter: &canReapplyAfter,
		}); err != nil {
			return err
		}
		_, err := s.dispatcher.Dispatch(ctx, tx, app.AthleteID, &reviewerID, models.AssociateRejectedData{
			ApplicationID:   app.ID,
			Reason:          req.Reason,
			CanReapplyAfter: canReapplyAfter,
		})
		return err
	})
	if err != nil {
		return nil, s.transitionError(err, "application", "reject")
	}
	s.metrics.RecordTransition("application", "reject", outcomeOK)

	app.Status = models.ApplicationStatusRejected
	app.ReviewedByID = &reviewerID
	app.ReviewedAt = &now
	app.RejectionReason = &req.Reason
	app.CanReapplyAfter = &canReapplyAfter
	return app, nil
}

// Get returns an application, visible to its owner and to moderators.
func (s *ApplicationService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.AthleteID != actor.AthleteID && !actor.HasRole(models.RoleModerator) {
		return nil, appErrors.ErrForbidden
	}
	return app, nil
}

// List returns applications for the review dashboard.
func (s *ApplicationService) List(ctx context.Context, query dto.ApplicationQuery, actor *models.JWTClaims) ([]models.Application, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.ApplicationFilter{
		Status: models.ApplicationStatus(query.Status),
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if !actor.HasRole(models.RoleModerator) {
		filter.AthleteID = actor.AthleteID
	}
	apps, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, nil
}

// preconditionError resolves the ambiguity of a failed status-conditioned
// fetch: missing row, terminal state, undefined edge or stale read.
func (s *ApplicationService) preconditionError(ctx context.Context, id string, fetchErr error, transition string, expected models.ApplicationStatus) error {
	if !errors.Is(fetchErr, sql.ErrNoRows) {
		return appErrors.Wrap(fetchErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if transition == "approve" && app.Status == models.ApplicationStatusPending {
		// No PENDING -> APPROVED edge exists; the application must be
		// claimed first.
		return appErrors.Clone(appErrors.ErrInvalidTransition, "application has not been claimed for review")
	}
	return appErrors.Clone(appErrors.ErrConflict,
		fmt.Sprintf("application is %s, expected %s", app.Status, expected))
}

// transitionError maps transaction failures onto the error taxonomy:
// a lost conditional update or duplicate dependent row is CONFLICT, not an
// internal fault.
func (s *ApplicationService) transitionError(err error, subject, transition string) error {
	if errors.Is(err, sql.ErrNoRows) {
		s.metrics.RecordTransition(subject, transition, outcomeConflict)
		return appErrors.Clone(appErrors.ErrConflict, "application state changed concurrently")
	}
	if isUniqueViolation(err) {
		s.metrics.RecordTransition(subject, transition, outcomeConflict)
		return appErrors.Clone(appErrors.ErrConflict, "a conflicting record already exists")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	s.metrics.RecordTransition(subject, transition, outcomeError)
	s.logger.Error("application transition failed", zap.String("transition", transition), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transition")
}

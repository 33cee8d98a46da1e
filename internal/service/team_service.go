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

type teamFormationStore interface {
	Create(ctx context.Context, app *models.TeamFormationApplication) error
	GetByID(ctx context.Context, id string) (*models.TeamFormationApplication, error)
	GetByIDForStatus(ctx context.Context, id string, status models.TeamFormationStatus) (*models.TeamFormationApplication, error)
	List(ctx context.Context, filter models.TeamFormationFilter) ([]models.TeamFormationApplication, error)
	UpdateStatus(ctx context.Context, ext sqlx.ExtContext, params repository.TeamFormationStatusUpdate) error
	HasMembership(ctx context.Context, ext sqlx.ExtContext, athleteID string) (bool, error)
	CreateTeam(ctx context.Context, ext sqlx.ExtContext, team *models.Team) error
	CreateMembership(ctx context.Context, ext sqlx.ExtContext, membership *models.TeamMembership) error
	CreateCounters(ctx context.Context, ext sqlx.ExtContext, counters *models.TeamCounters) error
	LinkTeam(ctx context.Context, ext sqlx.ExtContext, applicationID, teamID string) error
}

// TeamService drives the team formation state machine: PENDING ->
// APPROVED | REJECTED. Approval creates the team, its owner membership and
// its counters, back-links the team, and notifies the applicant, all in
// one transaction.
type TeamService struct {
	repo       teamFormationStore
	tx         txRunner
	dispatcher transitionDispatcher
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewTeamService constructs the service.
func NewTeamService(repo teamFormationStore, tx txRunner, dispatcher transitionDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TeamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TeamService{repo: repo, tx: tx, dispatcher: dispatcher, metrics: metrics, validator: validate, logger: logger}
}

// Submit creates a new PENDING team formation application.
func (s *TeamService) Submit(ctx context.Context, req dto.SubmitTeamApplicationRequest, actor *models.JWTClaims) (*models.TeamFormationApplication, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid team application payload")
	}

	app := &models.TeamFormationApplication{
		ApplicantID: actor.AthleteID,
		Status:      models.TeamFormationStatusPending,
		Name:        req.Name,
		Sport:       req.Sport,
		Rank:        req.Rank,
		Class:       req.Class,
		Location:    req.Location,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create team application")
	}
	return app, nil
}

// Approve moves a PENDING application to APPROVED and creates the team.
// The "applicant holds no membership" invariant is re-verified inside the
// same transaction window as the status update, so two interleaved
// approvals for the same applicant cannot both create a team; the loser
// rolls back completely and the application stays PENDING.
func (s *TeamService) Approve(ctx context.Context, id string, req dto.ReviewTeamApplicationRequest, actor *models.JWTClaims) (*dto.TeamApprovalResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	app, err := s.repo.GetByIDForStatus(ctx, id, models.TeamFormationStatusPending)
	if err != nil {
		return nil, s.preconditionError(ctx, id, err)
	}

	now := time.Now().UTC()
	reviewerID := actor.AthleteID
	team := &models.Team{
		Name:      app.Name,
		Sport:     app.Sport,
		Rank:      app.Rank,
		Class:     app.Class,
		Location:  app.Location,
		Status:    models.TeamStatusPendingMembers,
		CreatedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		hasTeam, err := s.repo.HasMembership(ctx, tx, app.ApplicantID)
		if err != nil {
			return err
		}
		if hasTeam {
			return appErrors.Clone(appErrors.ErrConflict, "applicant already belongs to a team")
		}
		if err := s.repo.UpdateStatus(ctx, tx, repository.TeamFormationStatusUpdate{
			ID:         app.ID,
			Expected:   models.TeamFormationStatusPending,
			Status:     models.TeamFormationStatusApproved,
			ReviewNote: optionalString(req.Note),
			ReviewedAt: now,
		}); err != nil {
			return err
		}
		if err := s.repo.CreateTeam(ctx, tx, team); err != nil {
			return err
		}
		if err := s.repo.CreateMembership(ctx, tx, &models.TeamMembership{
			TeamID:    team.ID,
			AthleteID: app.ApplicantID,
			Role:      models.TeamRoleOwner,
			IsCaptain: true,
			JoinedAt:  now,
		}); err != nil {
			return err
		}
		if err := s.repo.CreateCounters(ctx, tx, &models.TeamCounters{
			TeamID:       team.ID,
			MembersCount: 1,
		}); err != nil {
			return err
		}
		if err := s.repo.LinkTeam(ctx, tx, app.ID, team.ID); err != nil {
			return err
		}
		_, err = s.dispatcher.Dispatch(ctx, tx, app.ApplicantID, &reviewerID, models.TeamApprovedData{
			ApplicationID: app.ID,
			TeamID:        team.ID,
			TeamName:      team.Name,
		})
		return err
	})
	if err != nil {
		return nil, s.transitionError(err, "approve")
	}
	s.metrics.RecordTransition("team_formation", "approve", outcomeOK)

	app.Status = models.TeamFormationStatusApproved
	app.ReviewNote = optionalString(req.Note)
	app.ReviewedAt = &now
	app.TeamID = &team.ID
	return &dto.TeamApprovalResult{Application: app, TeamID: team.ID}, nil
}

// Reject moves a PENDING application to REJECTED and notifies the
// applicant.
func (s *TeamService) Reject(ctx context.Context, id string, req dto.ReviewTeamApplicationRequest, actor *models.JWTClaims) (*models.TeamFormationApplication, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	app, err := s.repo.GetByIDForStatus(ctx, id, models.TeamFormationStatusPending)
	if err != nil {
		return nil, s.preconditionError(ctx, id, err)
	}

	now := time.Now().UTC()
	reviewerID := actor.AthleteID
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateStatus(ctx, tx, repository.TeamFormationStatusUpdate{
			ID:         app.ID,
			Expected:   models.TeamFormationStatusPending,
			Status:     models.TeamFormationStatusRejected,
			ReviewNote: optionalString(req.Note),
			ReviewedAt: now,
		}); err != nil {
			return err
		}
		_, err := s.dispatcher.Dispatch(ctx, tx, app.ApplicantID, &reviewerID, models.TeamRejectedData{
			ApplicationID: app.ID,
			Note:          req.Note,
		})
		return err
	})
	if err != nil {
		return nil, s.transitionError(err, "reject")
	}
	s.metrics.RecordTransition("team_formation", "reject", outcomeOK)

	app.Status = models.TeamFormationStatusRejected
	app.ReviewNote = optionalString(req.Note)
	app.ReviewedAt = &now
	return app, nil
}

// Get returns an application, visible to its applicant and to moderators.
func (s *TeamService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.TeamFormationApplication, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team application")
	}
	if app.ApplicantID != actor.AthleteID && !actor.HasRole(models.RoleModerator) {
		return nil, appErrors.ErrForbidden
	}
	return app, nil
}

// List returns applications for the review dashboard.
func (s *TeamService) List(ctx context.Context, query dto.TeamApplicationQuery, actor *models.JWTClaims) ([]models.TeamFormationApplication, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.TeamFormationFilter{
		Status: models.TeamFormationStatus(query.Status),
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if !actor.HasRole(models.RoleModerator) {
		filter.ApplicantID = actor.AthleteID
	}
	apps, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list team applications")
	}
	return apps, nil
}

func (s *TeamService) preconditionError(ctx context.Context, id string, fetchErr error) error {
	if !errors.Is(fetchErr, sql.ErrNoRows) {
		return appErrors.Wrap(fetchErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team application")
	}
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team application")
	}
	return appErrors.Clone(appErrors.ErrConflict,
		fmt.Sprintf("team application is %s, expected %s", app.Status, models.TeamFormationStatusPending))
}

func (s *TeamService) transitionError(err error, transition string) error {
	if errors.Is(err, sql.ErrNoRows) {
		s.metrics.RecordTransition("team_formation", transition, outcomeConflict)
		return appErrors.Clone(appErrors.ErrConflict, "team application state changed concurrently")
	}
	if isUniqueViolation(err) {
		s.metrics.RecordTransition("team_formation", transition, outcomeConflict)
		return appErrors.Clone(appErrors.ErrConflict, "applicant already belongs to a team")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		if appErr.Code == appErrors.ErrConflict.Code {
			s.metrics.RecordTransition("team_formation", transition, outcomeConflict)
		}
		return appErr
	}
	s.metrics.RecordTransition("team_formation", transition, outcomeError)
	s.logger.Error("team formation transition failed", zap.String("transition", transition), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transition")
}

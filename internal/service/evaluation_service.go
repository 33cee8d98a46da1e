package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/dto"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/repository"
	appErrors "github.com/Ashu-Jha004/sportsv2-sub003/pkg/errors"
)

type evaluationStore interface {
	Create(ctx context.Context, ext sqlx.ExtContext, req *models.PhysicalEvaluationRequest) error
	GetByID(ctx context.Context, id string) (*models.PhysicalEvaluationRequest, error)
	GetByIDForStatus(ctx context.Context, id string, status models.EvaluationStatus) (*models.PhysicalEvaluationRequest, error)
	HasActiveRequest(ctx context.Context, athleteID, guideID string) (bool, error)
	List(ctx context.Context, filter models.EvaluationFilter) ([]models.PhysicalEvaluationRequest, error)
	Respond(ctx context.Context, ext sqlx.ExtContext, params repository.EvaluationResponseUpdate) error
}

type roleChecker interface {
	HasRole(ctx context.Context, athleteID string, role models.AthleteRole) (bool, error)
}

// EvaluationService drives the physical evaluation request machine:
// PENDING -> ACCEPTED | REJECTED, decided by the addressed guide.
// Acceptance stores the schedule and a one-time passcode consumed by the
// downstream stats submission flow.
type EvaluationService struct {
	repo       evaluationStore
	athletes   roleChecker
	tx         txRunner
	dispatcher transitionDispatcher
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewEvaluationService constructs the service.
func NewEvaluationService(repo evaluationStore, athletes roleChecker, tx txRunner, dispatcher transitionDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EvaluationService{repo: repo, athletes: athletes, tx: tx, dispatcher: dispatcher, metrics: metrics, validator: validate, logger: logger}
}

// Create submits a new evaluation request to a guide. The (athlete, guide)
// pair is throttled: any prior request still in the active status set,
// REJECTED included, blocks a new one.
func (s *EvaluationService) Create(ctx context.Context, req dto.CreateEvaluationRequest, actor *models.JWTClaims) (*models.PhysicalEvaluationRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation request payload")
	}
	if req.GuideID == actor.AthleteID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot request an evaluation from yourself")
	}

	isGuide, err := s.athletes.HasRole(ctx, req.GuideID, models.RoleGuide)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify guide")
	}
	if !isGuide {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "guide not found")
	}

	active, err := s.repo.HasActiveRequest(ctx, actor.AthleteID, req.GuideID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing requests")
	}
	if active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an active request already exists for this guide")
	}

	evaluation := &models.PhysicalEvaluationRequest{
		AthleteID:     actor.AthleteID,
		GuideID:       req.GuideID,
		Status:        models.EvaluationStatusPending,
		Message:       req.Message,
		ScheduledDate: optionalString(req.ScheduledDate),
		ScheduledTime: optionalString(req.ScheduledTime),
		Location:      optionalString(req.Location),
		Equipment:     optionalString(req.Equipment),
	}
	athleteID := actor.AthleteID

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.Create(ctx, tx, evaluation); err != nil {
			return err
		}
		_, err := s.dispatcher.Dispatch(ctx, tx, req.GuideID, &athleteID, models.EvaluationRequestedData{
			RequestID: evaluation.ID,
			AthleteID: athleteID,
		})
		return err
	})
	if err != nil {
		return nil, s.transitionError(err, "create")
	}
	s.metrics.RecordTransition("evaluation_request", "create", outcomeOK)

	return evaluation, nil
}

// Accept moves a PENDING request to ACCEPTED. Only the addressed guide may
// accept. The schedule may be confirmed or overridden, and a one-time
// passcode is generated for the downstream stats submission.
func (s *EvaluationService) Accept(ctx context.Context, id string, req dto.AcceptEvaluationRequest, actor *models.JWTClaims) (*models.PhysicalEvaluationRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	evaluation, err := s.repo.GetByIDForStatus(ctx, id, models.EvaluationStatusPending)
	if err != nil {
		return nil, s.preconditionError(ctx, id, err)
	}
	if evaluation.GuideID != actor.AthleteID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "request is addressed to another guide")
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate passcode")
	}

	now := time.Now().UTC()
	guideID := actor.AthleteID
	update := repository.EvaluationResponseUpdate{
		ID:          evaluation.ID,
		Status:      models.EvaluationStatusAccepted,
		OTP:         &otp,
		RespondedAt: now,
	}
	if v := optionalString(req.ScheduledDate); v != nil {
		update.ScheduledDate = v
		evaluation.ScheduledDate = v
	}
	if v := optionalString(req.ScheduledTime); v != nil {
		update.ScheduledTime = v
		evaluation.ScheduledTime = v
	}
	if v := optionalString(req.Location); v != nil {
		update.Location = v
		evaluation.Location = v
	}
	if v := optionalString(req.Equipment); v != nil {
		update.Equipment = v
		evaluation.Equipment = v
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.Respond(ctx, tx, update); err != nil {
			return err
		}
		_, err := s.dispatcher.Dispatch(ctx, tx, evaluation.AthleteID, &guideID, models.EvaluationAcceptedData{
			RequestID:     evaluation.ID,
			GuideID:       guideID,
			OTP:           otp,
			ScheduledDate: stringValue(evaluation.ScheduledDate),
			ScheduledTime: stringValue(evaluation.ScheduledTime),
			Location:      stringValue(evaluation.Location),
			Equipment:     stringValue(evaluation.Equipment),
		})
		return err
	})
	if err != nil {
		return nil, s.transitionError(err, "accept")
	}
	s.metrics.RecordTransition("evaluation_request", "accept", outcomeOK)

	evaluation.Status = models.EvaluationStatusAccepted
	evaluation.OTP = &otp
	evaluation.RespondedAt = &now
	return evaluation, nil
}

// Reject moves a PENDING request to REJECTED. Only the addressed guide may
// reject. The rejected request keeps counting against the pair throttle.
func (s *EvaluationService) Reject(ctx context.Context, id string, actor *models.JWTClaims) (*models.PhysicalEvaluationRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	evaluation, err := s.repo.GetByIDForStatus(ctx, id, models.EvaluationStatusPending)
	if err != nil {
		return nil, s.preconditionError(ctx, id, err)
	}
	if evaluation.GuideID != actor.AthleteID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "request is addressed to another guide")
	}

	now := time.Now().UTC()
	guideID := actor.AthleteID
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.Respond(ctx, tx, repository.EvaluationResponseUpdate{
			ID:          evaluation.ID,
			Status:      models.EvaluationStatusRejected,
			RespondedAt: now,
		}); err != nil {
			return err
		}
		_, err := s.dispatcher.Dispatch(ctx, tx, evaluation.AthleteID, &guideID, models.EvaluationRejectedData{
			RequestID: evaluation.ID,
			GuideID:   guideID,
		})
		return err
	})
	if err != nil {
		return nil, s.transitionError(err, "reject")
	}
	s.metrics.RecordTransition("evaluation_request", "reject", outcomeOK)

	evaluation.Status = models.EvaluationStatusRejected
	evaluation.RespondedAt = &now
	return evaluation, nil
}

// Get returns a request, visible to its athlete and its guide.
func (s *EvaluationService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.PhysicalEvaluationRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	evaluation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation request")
	}
	if evaluation.AthleteID != actor.AthleteID && evaluation.GuideID != actor.AthleteID {
		return nil, appErrors.ErrForbidden
	}
	return evaluation, nil
}

// ListForGuide returns requests addressed to the acting guide.
func (s *EvaluationService) ListForGuide(ctx context.Context, query dto.EvaluationQuery, actor *models.JWTClaims) ([]models.PhysicalEvaluationRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.list(ctx, models.EvaluationFilter{
		GuideID: actor.AthleteID,
		Status:  models.EvaluationStatus(query.Status),
		Limit:   query.Limit,
		Offset:  query.Offset,
	})
}

// ListForAthlete returns requests submitted by the acting athlete.
func (s *EvaluationService) ListForAthlete(ctx context.Context, query dto.EvaluationQuery, actor *models.JWTClaims) ([]models.PhysicalEvaluationRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.list(ctx, models.EvaluationFilter{
		AthleteID: actor.AthleteID,
		Status:    models.EvaluationStatus(query.Status),
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
}

func (s *EvaluationService) list(ctx context.Context, filter models.EvaluationFilter) ([]models.PhysicalEvaluationRequest, error) {
	reqs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluation requests")
	}
	return reqs, nil
}

func (s *EvaluationService) preconditionError(ctx context.Context, id string, fetchErr error) error {
	if !errors.Is(fetchErr, sql.ErrNoRows) {
		return appErrors.Wrap(fetchErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation request")
	}
	evaluation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation request")
	}
	return appErrors.Clone(appErrors.ErrConflict,
		fmt.Sprintf("evaluation request is %s, expected %s", evaluation.Status, models.EvaluationStatusPending))
}

func (s *EvaluationService) transitionError(err error, transition string) error {
	if errors.Is(err, sql.ErrNoRows) {
		s.metrics.RecordTransition("evaluation_request", transition, outcomeConflict)
		return appErrors.Clone(appErrors.ErrConflict, "evaluation request state changed concurrently")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	s.metrics.RecordTransition("evaluation_request", transition, outcomeError)
	s.logger.Error("evaluation transition failed", zap.String("transition", transition), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transition")
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

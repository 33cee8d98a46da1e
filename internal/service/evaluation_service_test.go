package service

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/dto"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/repository"
	appErrors "github.com/Ashu-Jha004/sportsv2-sub003/pkg/errors"
)

type evaluationRepoStub struct {
	requests map[string]*models.PhysicalEvaluationRequest
	active   bool
	filter   models.EvaluationFilter
}

func newEvaluationRepoStub() *evaluationRepoStub {
	return &evaluationRepoStub{requests: make(map[string]*models.PhysicalEvaluationRequest)}
}

func (m *evaluationRepoStub) Create(ctx context.Context, ext sqlx.ExtContext, req *models.PhysicalEvaluationRequest) error {
	if req.ID == "" {
		req.ID = "eval-new"
	}
	req.CreatedAt = time.Now().UTC()
	m.requests[req.ID] = req
	return nil
}

func (m *evaluationRepoStub) GetByID(ctx context.Context, id string) (*models.PhysicalEvaluationRequest, error) {
	if req, ok := m.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *evaluationRepoStub) GetByIDForStatus(ctx context.Context, id string, status models.EvaluationStatus) (*models.PhysicalEvaluationRequest, error) {
	req, ok := m.requests[id]
	if !ok || req.Status != status {
		return nil, sql.ErrNoRows
	}
	copy := *req
	return &copy, nil
}

func (m *evaluationRepoStub) HasActiveRequest(ctx context.Context, athleteID, guideID string) (bool, error) {
	return m.active, nil
}

func (m *evaluationRepoStub) List(ctx context.Context, filter models.EvaluationFilter) ([]models.PhysicalEvaluationRequest, error) {
	m.filter = filter
	result := make([]models.PhysicalEvaluationRequest, 0, len(m.requests))
	for _, req := range m.requests {
		result = append(result, *req)
	}
	return result, nil
}

func (m *evaluationRepoStub) Respond(ctx context.Context, ext sqlx.ExtContext, params repository.EvaluationResponseUpdate) error {
	req, ok := m.requests[params.ID]
	if !ok || req.Status != models.EvaluationStatusPending {
		return sql.ErrNoRows
	}
	req.Status = params.Status
	if params.ScheduledDate != nil {
		req.ScheduledDate = params.ScheduledDate
	}
	if params.ScheduledTime != nil {
		req.ScheduledTime = params.ScheduledTime
	}
	if params.Location != nil {
		req.Location = params.Location
	}
	if params.Equipment != nil {
		req.Equipment = params.Equipment
	}
	req.OTP = params.OTP
	req.RespondedAt = &params.RespondedAt
	return nil
}

type roleCheckerStub struct {
	guides map[string]bool
}

func (m *roleCheckerStub) HasRole(ctx context.Context, athleteID string, role models.AthleteRole) (bool, error) {
	return m.guides[athleteID], nil
}

func guideClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{AthleteID: id, Roles: []models.AthleteRole{models.RoleAthlete, models.RoleGuide}}
}

func newEvaluationService(repo *evaluationRepoStub, guides *roleCheckerStub, dispatcher *dispatcherStub) *EvaluationService {
	return NewEvaluationService(repo, guides, txRunnerStub{}, dispatcher, nil, nil, nil)
}

func pendingEvaluation(id, athleteID, guideID string) *models.PhysicalEvaluationRequest {
	return &models.PhysicalEvaluationRequest{
		ID:        id,
		AthleteID: athleteID,
		GuideID:   guideID,
		Status:    models.EvaluationStatusPending,
		Message:   "please evaluate my sprint times",
		CreatedAt: time.Now().UTC(),
	}
}

func TestEvaluationServiceCreate(t *testing.T) {
	repo := newEvaluationRepoStub()
	dispatcher := &dispatcherStub{}
	svc := newEvaluationService(repo, &roleCheckerStub{guides: map[string]bool{"guide-1": true}}, dispatcher)

	req, err := svc.Create(context.Background(), dto.CreateEvaluationRequest{
		GuideID: "guide-1",
		Message: "please evaluate my sprint times",
	}, athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Equal(t, models.EvaluationStatusPending, req.Status)
	require.Equal(t, "ath-1", req.AthleteID)

	require.Len(t, dispatcher.dispatched, 1)
	require.Equal(t, models.NotifEvaluationRequested, dispatcher.dispatched[0].NotificationType())
	require.Equal(t, "guide-1", dispatcher.recipients[0])
}

func TestEvaluationServiceCreateSelfRequest(t *testing.T) {
	svc := newEvaluationService(newEvaluationRepoStub(), &roleCheckerStub{guides: map[string]bool{"ath-1": true}}, &dispatcherStub{})

	_, err := svc.Create(context.Background(), dto.CreateEvaluationRequest{
		GuideID: "ath-1",
		Message: "self check",
	}, athleteClaims("ath-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEvaluationServiceCreateUnknownGuide(t *testing.T) {
	svc := newEvaluationService(newEvaluationRepoStub(), &roleCheckerStub{guides: map[string]bool{}}, &dispatcherStub{})

	_, err := svc.Create(context.Background(), dto.CreateEvaluationRequest{
		GuideID: "ath-2",
		Message: "hello",
	}, athleteClaims("ath-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestEvaluationServiceCreateThrottled(t *testing.T) {
	repo := newEvaluationRepoStub()
	// A REJECTED request still counts against the pair.
	repo.active = true
	svc := newEvaluationService(repo, &roleCheckerStub{guides: map[string]bool{"guide-1": true}}, &dispatcherStub{})

	_, err := svc.Create(context.Background(), dto.CreateEvaluationRequest{
		GuideID: "guide-1",
		Message: "second attempt",
	}, athleteClaims("ath-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestEvaluationServiceAccept(t *testing.T) {
	repo := newEvaluationRepoStub()
	dispatcher := &dispatcherStub{}
	proposed := "2026-09-10"
	eval := pendingEvaluation("eval-1", "ath-1", "guide-1")
	eval.ScheduledDate = &proposed
	repo.requests["eval-1"] = eval
	svc := newEvaluationService(repo, &roleCheckerStub{}, dispatcher)

	accepted, err := svc.Accept(context.Background(), "eval-1", dto.AcceptEvaluationRequest{
		ScheduledTime: "10:00",
		Location:      "city stadium",
	}, guideClaims("guide-1"))
	require.NoError(t, err)
	require.Equal(t, models.EvaluationStatusAccepted, accepted.Status)

	require.NotNil(t, accepted.OTP)
	require.Regexp(t, regexp.MustCompile(`^\d{6}$`), *accepted.OTP)

	// Overrides applied, proposed date kept.
	require.Equal(t, "2026-09-10", *accepted.ScheduledDate)
	require.Equal(t, "10:00", *accepted.ScheduledTime)
	require.Equal(t, "city stadium", *accepted.Location)

	require.Len(t, dispatcher.dispatched, 1)
	payload, ok := dispatcher.dispatched[0].(models.EvaluationAcceptedData)
	require.True(t, ok)
	require.Equal(t, *accepted.OTP, payload.OTP)
	require.Equal(t, "ath-1", dispatcher.recipients[0])
}

func TestEvaluationServiceAcceptWrongGuide(t *testing.T) {
	repo := newEvaluationRepoStub()
	repo.requests["eval-1"] = pendingEvaluation("eval-1", "ath-1", "guide-1")
	svc := newEvaluationService(repo, &roleCheckerStub{}, &dispatcherStub{})

	_, err := svc.Accept(context.Background(), "eval-1", dto.AcceptEvaluationRequest{}, guideClaims("guide-2"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestEvaluationServiceAcceptTwice(t *testing.T) {
	repo := newEvaluationRepoStub()
	repo.requests["eval-1"] = pendingEvaluation("eval-1", "ath-1", "guide-1")
	svc := newEvaluationService(repo, &roleCheckerStub{}, &dispatcherStub{})

	_, err := svc.Accept(context.Background(), "eval-1", dto.AcceptEvaluationRequest{}, guideClaims("guide-1"))
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), "eval-1", dto.AcceptEvaluationRequest{}, guideClaims("guide-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestEvaluationServiceReject(t *testing.T) {
	repo := newEvaluationRepoStub()
	dispatcher := &dispatcherStub{}
	repo.requests["eval-1"] = pendingEvaluation("eval-1", "ath-1", "guide-1")
	svc := newEvaluationService(repo, &roleCheckerStub{}, dispatcher)

	rejected, err := svc.Reject(context.Background(), "eval-1", guideClaims("guide-1"))
	require.NoError(t, err)
	require.Equal(t, models.EvaluationStatusRejected, rejected.Status)
	require.Nil(t, rejected.OTP)

	require.Len(t, dispatcher.dispatched, 1)
	require.Equal(t, models.NotifEvaluationRejected, dispatcher.dispatched[0].NotificationType())
}

func TestEvaluationServiceGetVisibility(t *testing.T) {
	repo := newEvaluationRepoStub()
	repo.requests["eval-1"] = pendingEvaluation("eval-1", "ath-1", "guide-1")
	svc := newEvaluationService(repo, &roleCheckerStub{}, &dispatcherStub{})

	_, err := svc.Get(context.Background(), "eval-1", athleteClaims("ath-1"))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "eval-1", guideClaims("guide-1"))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "eval-1", athleteClaims("ath-2"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestEvaluationServiceListScopes(t *testing.T) {
	repo := newEvaluationRepoStub()
	svc := newEvaluationService(repo, &roleCheckerStub{}, &dispatcherStub{})

	_, err := svc.ListForGuide(context.Background(), dto.EvaluationQuery{Status: "PENDING"}, guideClaims("guide-1"))
	require.NoError(t, err)
	require.Equal(t, "guide-1", repo.filter.GuideID)
	require.Empty(t, repo.filter.AthleteID)

	_, err = svc.ListForAthlete(context.Background(), dto.EvaluationQuery{}, athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Equal(t, "ath-1", repo.filter.AthleteID)
	require.Empty(t, repo.filter.GuideID)
}

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		otp, err := generateOTP()
		require.NoError(t, err)
		require.Regexp(t, regexp.MustCompile(`^\d{6}$`), otp)
		seen[otp] = struct{}{}
	}
	// 20 draws from a million values should essentially never all collide.
	require.Greater(t, len(seen), 1)
}

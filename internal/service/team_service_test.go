package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/dto"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/repository"
	appErrors "github.com/Ashu-Jha004/sportsv2-sub003/pkg/errors"
)

type teamRepoStub struct {
	applications map[string]*models.TeamFormationApplication
	hasTeam      bool
	teams        []*models.Team
	memberships  []*models.TeamMembership
	counters     []*models.TeamCounters
	links        map[string]string
}

func newTeamRepoStub() *teamRepoStub {
	return &teamRepoStub{
		applications: make(map[string]*models.TeamFormationApplication),
		links:        make(map[string]string),
	}
}

func (m *teamRepoStub) Create(ctx context.Context, app *models.TeamFormationApplication) error {
	if app.ID == "" {
		app.ID = "tfa-new"
	}
	app.SubmittedAt = time.Now().UTC()
	m.applications[app.ID] = app
	return nil
}

func (m *teamRepoStub) GetByID(ctx context.Context, id string) (*models.TeamFormationApplication, error) {
	if app, ok := m.applications[id]; ok {
		copy := *app
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *teamRepoStub) GetByIDForStatus(ctx context.Context, id string, status models.TeamFormationStatus) (*models.TeamFormationApplication, error) {
	app, ok := m.applications[id]
	if !ok || app.Status != status {
		return nil, sql.ErrNoRows
	}
	copy := *app
	return &copy, nil
}

func (m *teamRepoStub) List(ctx context.Context, filter models.TeamFormationFilter) ([]models.TeamFormationApplication, error) {
	result := make([]models.TeamFormationApplication, 0, len(m.applications))
	for _, app := range m.applications {
		result = append(result, *app)
	}
	return result, nil
}

func (m *teamRepoStub) UpdateStatus(ctx context.Context, ext sqlx.ExtContext, params repository.TeamFormationStatusUpdate) error {
	app, ok := m.applications[params.ID]
	if !ok || app.Status != params.Expected {
		return sql.ErrNoRows
	}
	app.Status = params.Status
	app.ReviewNote = params.ReviewNote
	app.ReviewedAt = &params.ReviewedAt
	return nil
}

func (m *teamRepoStub) HasMembership(ctx context.Context, ext sqlx.ExtContext, athleteID string) (bool, error) {
	return m.hasTeam, nil
}

func (m *teamRepoStub) CreateTeam(ctx context.Context, ext sqlx.ExtContext, team *models.Team) error {
	if team.ID == "" {
		team.ID = "team-1"
	}
	m.teams = append(m.teams, team)
	return nil
}

func (m *teamRepoStub) CreateMembership(ctx context.Context, ext sqlx.ExtContext, membership *models.TeamMembership) error {
	m.memberships = append(m.memberships, membership)
	return nil
}

func (m *teamRepoStub) CreateCounters(ctx context.Context, ext sqlx.ExtContext, counters *models.TeamCounters) error {
	m.counters = append(m.counters, counters)
	return nil
}

func (m *teamRepoStub) LinkTeam(ctx context.Context, ext sqlx.ExtContext, applicationID, teamID string) error {
	m.links[applicationID] = teamID
	return nil
}

func newTeamService(repo *teamRepoStub, dispatcher *dispatcherStub) *TeamService {
	return NewTeamService(repo, txRunnerStub{}, dispatcher, nil, nil, nil)
}

func pendingTeamApplication(id, applicantID string) *models.TeamFormationApplication {
	return &models.TeamFormationApplication{
		ID:          id,
		ApplicantID: applicantID,
		Status:      models.TeamFormationStatusPending,
		Name:        "Night Owls",
		Sport:       "basketball",
		Location:    "Mumbai",
		SubmittedAt: time.Now().UTC(),
	}
}

func TestTeamServiceApproveCreatesTeam(t *testing.T) {
	repo := newTeamRepoStub()
	dispatcher := &dispatcherStub{}
	repo.applications["tfa-1"] = pendingTeamApplication("tfa-1", "ath-1")
	svc := newTeamService(repo, dispatcher)

	result, err := svc.Approve(context.Background(), "tfa-1", dto.ReviewTeamApplicationRequest{Note: "welcome"}, moderatorClaims("mod-1"))
	require.NoError(t, err)
	require.Equal(t, models.TeamFormationStatusApproved, result.Application.Status)
	require.NotEmpty(t, result.TeamID)

	require.Len(t, repo.teams, 1)
	require.Equal(t, models.TeamStatusPendingMembers, repo.teams[0].Status)
	require.Equal(t, "Night Owls", repo.teams[0].Name)

	require.Len(t, repo.memberships, 1)
	require.Equal(t, "ath-1", repo.memberships[0].AthleteID)
	require.Equal(t, models.TeamRoleOwner, repo.memberships[0].Role)
	require.True(t, repo.memberships[0].IsCaptain)

	require.Len(t, repo.counters, 1)
	require.Equal(t, 1, repo.counters[0].MembersCount)

	require.Equal(t, result.TeamID, repo.links["tfa-1"])
	require.NotNil(t, result.Application.TeamID)
	require.Equal(t, result.TeamID, *result.Application.TeamID)

	require.Len(t, dispatcher.dispatched, 1)
	require.Equal(t, models.NotifApplicationApproved, dispatcher.dispatched[0].NotificationType())
	require.Equal(t, "ath-1", dispatcher.recipients[0])
}

func TestTeamServiceApproveExistingMembership(t *testing.T) {
	repo := newTeamRepoStub()
	repo.hasTeam = true
	repo.applications["tfa-1"] = pendingTeamApplication("tfa-1", "ath-1")
	svc := newTeamService(repo, &dispatcherStub{})

	_, err := svc.Approve(context.Background(), "tfa-1", dto.ReviewTeamApplicationRequest{}, moderatorClaims("mod-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	// The transition never happened: no team rows, application still PENDING.
	require.Empty(t, repo.teams)
	require.Empty(t, repo.memberships)
	require.Equal(t, models.TeamFormationStatusPending, repo.applications["tfa-1"].Status)
}

func TestTeamServiceApproveTwice(t *testing.T) {
	repo := newTeamRepoStub()
	repo.applications["tfa-1"] = pendingTeamApplication("tfa-1", "ath-1")
	svc := newTeamService(repo, &dispatcherStub{})

	_, err := svc.Approve(context.Background(), "tfa-1", dto.ReviewTeamApplicationRequest{}, moderatorClaims("mod-1"))
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), "tfa-1", dto.ReviewTeamApplicationRequest{}, moderatorClaims("mod-2"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.Len(t, repo.teams, 1)
}

func TestTeamServiceReject(t *testing.T) {
	repo := newTeamRepoStub()
	dispatcher := &dispatcherStub{}
	repo.applications["tfa-1"] = pendingTeamApplication("tfa-1", "ath-1")
	svc := newTeamService(repo, dispatcher)

	app, err := svc.Reject(context.Background(), "tfa-1", dto.ReviewTeamApplicationRequest{Note: "duplicate of an existing team"}, moderatorClaims("mod-1"))
	require.NoError(t, err)
	require.Equal(t, models.TeamFormationStatusRejected, app.Status)
	require.Empty(t, repo.teams)

	require.Len(t, dispatcher.dispatched, 1)
	require.Equal(t, models.NotifApplicationRejected, dispatcher.dispatched[0].NotificationType())
}

func TestTeamServiceSubmit(t *testing.T) {
	repo := newTeamRepoStub()
	svc := newTeamService(repo, &dispatcherStub{})

	app, err := svc.Submit(context.Background(), dto.SubmitTeamApplicationRequest{
		Name:     "Night Owls",
		Sport:    "basketball",
		Location: "Mumbai",
	}, athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Equal(t, models.TeamFormationStatusPending, app.Status)
	require.Equal(t, "ath-1", app.ApplicantID)
}

func TestTeamServiceSubmitInvalid(t *testing.T) {
	svc := newTeamService(newTeamRepoStub(), &dispatcherStub{})

	_, err := svc.Submit(context.Background(), dto.SubmitTeamApplicationRequest{Name: "x"}, athleteClaims("ath-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

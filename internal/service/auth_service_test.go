package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
	appErrors "github.com/Ashu-Jha004/sportsv2-sub003/pkg/errors"
)

type authRepoStub struct {
	athletes map[string]*models.Athlete
	roles    map[string][]models.AthleteRole
}

func (m *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.Athlete, error) {
	if a, ok := m.athletes[email]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *authRepoStub) ListRoles(ctx context.Context, athleteID string) ([]models.AthleteRole, error) {
	return m.roles[athleteID], nil
}

func newAuthTestService(repo *authRepoStub) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "sportsv2",
	})
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceLogin(t *testing.T) {
	repo := &authRepoStub{
		athletes: map[string]*models.Athlete{
			"mod@example.com": {
				ID:           "ath-1",
				Email:        "mod@example.com",
				PasswordHash: hashPassword(t, "password123"),
				FullName:     "Morgan Reyes",
				Active:       true,
			},
		},
		roles: map[string][]models.AthleteRole{
			"ath-1": {models.RoleAthlete, models.RoleModerator},
		},
	}
	svc := newAuthTestService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "mod@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, int64(3600), resp.ExpiresIn)
	require.Equal(t, "ath-1", resp.Athlete.ID)
	require.Equal(t, []models.AthleteRole{models.RoleAthlete, models.RoleModerator}, resp.Athlete.Roles)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "ath-1", claims.AthleteID)
	require.True(t, claims.HasRole(models.RoleModerator))
	require.False(t, claims.HasRole(models.RoleGuide))
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &authRepoStub{
		athletes: map[string]*models.Athlete{
			"a@example.com": {
				ID:           "ath-1",
				Email:        "a@example.com",
				PasswordHash: hashPassword(t, "correct"),
				Active:       true,
			},
		},
	}
	svc := newAuthTestService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := newAuthTestService(&authRepoStub{athletes: map[string]*models.Athlete{}})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	// Unknown email and wrong password are indistinguishable to the caller.
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	require.Equal(t, "invalid email or password", appErr.Message)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := &authRepoStub{
		athletes: map[string]*models.Athlete{
			"a@example.com": {
				ID:           "ath-1",
				Email:        "a@example.com",
				PasswordHash: hashPassword(t, "password123"),
				Active:       false,
			},
		},
	}
	svc := newAuthTestService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "password123"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestAuthServiceLoginInvalidPayload(t *testing.T) {
	svc := newAuthTestService(&authRepoStub{athletes: map[string]*models.Athlete{}})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAuthServiceLoginDefaultsRole(t *testing.T) {
	repo := &authRepoStub{
		athletes: map[string]*models.Athlete{
			"a@example.com": {
				ID:           "ath-1",
				Email:        "a@example.com",
				PasswordHash: hashPassword(t, "password123"),
				Active:       true,
			},
		},
		roles: map[string][]models.AthleteRole{},
	}
	svc := newAuthTestService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, []models.AthleteRole{models.RoleAthlete}, resp.Athlete.Roles)
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	repo := &authRepoStub{
		athletes: map[string]*models.Athlete{
			"a@example.com": {
				ID:           "ath-1",
				Email:        "a@example.com",
				PasswordHash: hashPassword(t, "password123"),
				Active:       true,
			},
		},
	}
	svc := newAuthTestService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)

	// A token signed with a different secret is rejected too.
	other := NewAuthService(repo, nil, nil, AuthConfig{Secret: "other-secret", Expiration: time.Hour, Issuer: "sportsv2"})
	foreign, err := other.Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(foreign.AccessToken)
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

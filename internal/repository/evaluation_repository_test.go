package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
)

func evaluationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "athlete_id", "guide_id", "status", "message", "scheduled_date", "scheduled_time",
		"location", "equipment", "otp", "created_at", "responded_at",
	})
}

func TestEvaluationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	date := "2026-09-15"
	mock.ExpectExec("INSERT INTO evaluation_requests").
		WithArgs(sqlmock.AnyArg(), "ath-1", "guide-1", string(models.EvaluationStatusPending),
			"please assess my sprint form", date, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.PhysicalEvaluationRequest{
		AthleteID:     "ath-1",
		GuideID:       "guide-1",
		Message:       "please assess my sprint form",
		ScheduledDate: &date,
	}
	require.NoError(t, repo.Create(context.Background(), db, req))
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, models.EvaluationStatusPending, req.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationRepositoryHasActiveRequest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	// The throttle counts PENDING, ACCEPTED and REJECTED alike.
	mock.ExpectQuery("AND status IN \\(\\$3,\\$4,\\$5\\)").
		WithArgs("ath-1", "guide-1",
			string(models.EvaluationStatusPending),
			string(models.EvaluationStatusAccepted),
			string(models.EvaluationStatusRejected)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	active, err := repo.HasActiveRequest(context.Background(), "ath-1", "guide-1")
	require.NoError(t, err)
	assert.True(t, active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationRepositoryRespondAccept(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	location := "city stadium"
	otp := "481923"
	respondedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE evaluation_requests SET status = \\$1, responded_at = \\$2, location = \\$3, otp = \\$4 WHERE id = \\$5 AND status = \\$6").
		WithArgs(string(models.EvaluationStatusAccepted), respondedAt, location, otp,
			"eval-1", string(models.EvaluationStatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Respond(context.Background(), db, EvaluationResponseUpdate{
		ID:          "eval-1",
		Status:      models.EvaluationStatusAccepted,
		Location:    &location,
		OTP:         &otp,
		RespondedAt: respondedAt,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationRepositoryRespondAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	mock.ExpectExec("UPDATE evaluation_requests SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Respond(context.Background(), db, EvaluationResponseUpdate{
		ID:          "eval-1",
		Status:      models.EvaluationStatusRejected,
		RespondedAt: time.Now(),
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM evaluation_requests WHERE guide_id = \\$1 AND status = \\$2 ORDER BY created_at DESC LIMIT 50 OFFSET 0").
		WithArgs("guide-1", string(models.EvaluationStatusPending)).
		WillReturnRows(evaluationRows().
			AddRow("eval-1", "ath-1", "guide-1", "PENDING", "msg", nil, nil, nil, nil, nil, now, nil))

	items, err := repo.List(context.Background(), models.EvaluationFilter{
		GuideID: "guide-1",
		Status:  models.EvaluationStatusPending,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "eval-1", items[0].ID)
	assert.Nil(t, items[0].OTP)
	assert.NoError(t, mock.ExpectationsWereMet())
}

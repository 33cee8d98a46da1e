package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
)

const evaluationColumns = `id, athlete_id, guide_id, status, message, scheduled_date, scheduled_time,
       location, equipment, otp, created_at, responded_at`

// EvaluationRepository persists physical evaluation requests.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Create inserts a new evaluation request on the caller's transaction
// handle, so the row and its EVALUATION_REQUESTED notification commit
// together.
func (r *EvaluationRepository) Create(ctx context.Context, ext sqlx.ExtContext, req *models.PhysicalEvaluationRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.EvaluationStatusPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO evaluation_requests
	(id, athlete_id, guide_id, status, message, scheduled_date, scheduled_time, location, equipment, created_at)
	VALUES (:id, :athlete_id, :guide_id, :status, :message, :scheduled_date, :scheduled_time, :location, :equipment, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, req); err != nil {
		return fmt.Errorf("create evaluation request: %w", err)
	}
	return nil
}

// GetByID fetches an evaluation request by identifier.
func (r *EvaluationRepository) GetByID(ctx context.Context, id string) (*models.PhysicalEvaluationRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM evaluation_requests WHERE id = $1`, evaluationColumns)
	var req models.PhysicalEvaluationRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// GetByIDForStatus fetches the request only when it currently holds the
// expected status.
func (r *EvaluationRepository) GetByIDForStatus(ctx context.Context, id string, status models.EvaluationStatus) (*models.PhysicalEvaluationRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM evaluation_requests WHERE id = $1 AND status = $2`, evaluationColumns)
	var req models.PhysicalEvaluationRequest
	if err := r.db.GetContext(ctx, &req, query, id, status); err != nil {
		return nil, err
	}
	return &req, nil
}

// HasActiveRequest reports whether the (athlete, guide) pair already has a
// request in the active status set. REJECTED is part of the set; see
// models.ActiveEvaluationStatuses.
func (r *EvaluationRepository) HasActiveRequest(ctx context.Context, athleteID, guideID string) (bool, error) {
	placeholders := make([]string, len(models.ActiveEvaluationStatuses))
	args := []interface{}{athleteID, guideID}
	for i, status := range models.ActiveEvaluationStatuses {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM evaluation_requests
	WHERE athlete_id = $1 AND guide_id = $2 AND status IN (%s))`, strings.Join(placeholders, ","))

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check active evaluation request: %w", err)
	}
	return exists, nil
}

// List returns requests matching the filter (latest first).
func (r *EvaluationRepository) List(ctx context.Context, filter models.EvaluationFilter) ([]models.PhysicalEvaluationRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 3)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM evaluation_requests`, evaluationColumns))

	conditions := make([]string, 0, 3)
	if filter.AthleteID != "" {
		args = append(args, filter.AthleteID)
		conditions = append(conditions, fmt.Sprintf("athlete_id = $%d", len(args)))
	}
	if filter.GuideID != "" {
		args = append(args, filter.GuideID)
		conditions = append(conditions, fmt.Sprintf("guide_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var reqs []models.PhysicalEvaluationRequest
	if err := r.db.SelectContext(ctx, &reqs, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list evaluation requests: %w", err)
	}
	return reqs, nil
}

// EvaluationResponseUpdate groups the columns the guide's response sets.
type EvaluationResponseUpdate struct {
	ID            string
	Status        models.EvaluationStatus
	ScheduledDate *string
	ScheduledTime *string
	Location      *string
	Equipment     *string
	OTP           *string
	RespondedAt   time.Time
}

// Respond performs the precondition-conditioned update out of PENDING.
// Zero affected rows surface as sql.ErrNoRows.
func (r *EvaluationRepository) Respond(ctx context.Context, ext sqlx.ExtContext, params EvaluationResponseUpdate) error {
	setParts := []string{
		"status = $1",
		"responded_at = $2",
	}
	args := []interface{}{params.Status, params.RespondedAt}
	if params.ScheduledDate != nil {
		args = append(args, *params.ScheduledDate)
		setParts = append(setParts, fmt.Sprintf("scheduled_date = $%d", len(args)))
	}
	if params.ScheduledTime != nil {
		args = append(args, *params.ScheduledTime)
		setParts = append(setParts, fmt.Sprintf("scheduled_time = $%d", len(args)))
	}
	if params.Location != nil {
		args = append(args, *params.Location)
		setParts = append(setParts, fmt.Sprintf("location = $%d", len(args)))
	}
	if params.Equipment != nil {
		args = append(args, *params.Equipment)
		setParts = append(setParts, fmt.Sprintf("equipment = $%d", len(args)))
	}
	if params.OTP != nil {
		args = append(args, *params.OTP)
		setParts = append(setParts, fmt.Sprintf("otp = $%d", len(args)))
	}
	args = append(args, params.ID)
	idArg := len(args)
	args = append(args, models.EvaluationStatusPending)

	query := fmt.Sprintf("UPDATE evaluation_requests SET %s WHERE id = $%d AND status = $%d",
		strings.Join(setParts, ", "), idArg, idArg+1)

	result, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update evaluation request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check evaluation update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

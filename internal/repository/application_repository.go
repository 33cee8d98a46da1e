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

const applicationColumns = `id, athlete_id, status, work_email, expertise, experience_years, location,
       submitted_at, reviewed_at, reviewed_by_id, review_notes, rejection_reason, can_reapply_after`

// ApplicationRepository persists associate applications and their approval
// artifacts.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application row.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.Status == "" {
		app.Status = models.ApplicationStatusPending
	}
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO applications
	(id, athlete_id, status, work_email, expertise, experience_years, location, submitted_at)
	VALUES (:id, :athlete_id, :status, :work_email, :expertise, :experience_years, :location, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// GetByID fetches an application by identifier.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByIDForStatus fetches the application only when it currently holds the
// expected status. sql.ErrNoRows therefore means either "does not exist" or
// "stale state"; callers resolve the ambiguity with a plain GetByID.
func (r *ApplicationRepository) GetByIDForStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1 AND status = $2`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id, status); err != nil {
		return nil, err
	}
	return &app, nil
}

// HasActiveApplication reports whether the athlete has an application still
// in flight (PENDING or UNDER_REVIEW).
func (r *ApplicationRepository) HasActiveApplication(ctx context.Context, athleteID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM applications WHERE athlete_id = $1 AND status IN ($2, $3))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, athleteID,
		models.ApplicationStatusPending, models.ApplicationStatusUnderReview); err != nil {
		return false, fmt.Errorf("check active application: %w", err)
	}
	return exists, nil
}

// List returns applications matching the filter (latest first).
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM applications`, applicationColumns))

	conditions := make([]string, 0, 3)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.AthleteID != "" {
		args = append(args, filter.AthleteID)
		conditions = append(conditions, fmt.Sprintf("athlete_id = $%d", len(args)))
	}
	if filter.ReviewerID != "" {
		args = append(args, filter.ReviewerID)
		conditions = append(conditions, fmt.Sprintf("reviewed_by_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY submitted_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// ApplicationStatusUpdate groups the columns a transition may set. Expected
// is the status the row must still hold for the update to apply.
type ApplicationStatusUpdate struct {
	ID              string
	Expected        models.ApplicationStatus
	Status          models.ApplicationStatus
	ReviewedByID    *string
	ReviewedAt      time.Time
	ReviewNotes     *string
	RejectionReason *string
	CanReapplyAfter *time.Time
}

// UpdateStatus performs the precondition-conditioned update that is the
// sole concurrency guard for application transitions. Zero affected rows
// surface as sql.ErrNoRows.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, ext sqlx.ExtContext, params ApplicationStatusUpdate) error {
	setParts := []string{
		"status = $1",
		"reviewed_at = $2",
	}
	args := []interface{}{params.Status, params.ReviewedAt}
	if params.ReviewedByID != nil {
		args = append(args, *params.ReviewedByID)
		setParts = append(setParts, fmt.Sprintf("reviewed_by_id = $%d", len(args)))
	}
	if params.ReviewNotes != nil {
		args = append(args, *params.ReviewNotes)
		setParts = append(setParts, fmt.Sprintf("review_notes = $%d", len(args)))
	}
	if params.RejectionReason != nil {
		args = append(args, *params.RejectionReason)
		setParts = append(setParts, fmt.Sprintf("rejection_reason = $%d", len(args)))
	}
	if params.CanReapplyAfter != nil {
		args = append(args, *params.CanReapplyAfter)
		setParts = append(setParts, fmt.Sprintf("can_reapply_after = $%d", len(args)))
	}
	args = append(args, params.ID)
	idArg := len(args)
	args = append(args, params.Expected)

	query := fmt.Sprintf("UPDATE applications SET %s WHERE id = $%d AND status = $%d",
		strings.Join(setParts, ", "), idArg, idArg+1)

	result, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check application update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateProfile inserts the associate profile snapshot spawned by approval.
func (r *ApplicationRepository) CreateProfile(ctx context.Context, ext sqlx.ExtContext, profile *models.AssociateProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	const query = `INSERT INTO associate_profiles
	(id, athlete_id, application_id, work_email, expertise, experience_years, location, verified_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := ext.ExecContext(ctx, query,
		profile.ID, profile.AthleteID, profile.ApplicationID, profile.WorkEmail,
		profile.Expertise, profile.ExperienceYears, profile.Location, profile.VerifiedAt); err != nil {
		return fmt.Errorf("create associate profile: %w", err)
	}
	return nil
}

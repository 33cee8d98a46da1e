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

const teamFormationColumns = `id, applicant_id, status, name, sport, rank, class, location,
       review_note, reviewed_at, submitted_at, team_id`

// TeamFormationRepository persists team formation applications and the
// dependent rows an approval creates.
type TeamFormationRepository struct {
	db *sqlx.DB
}

// NewTeamFormationRepository constructs the repository.
func NewTeamFormationRepository(db *sqlx.DB) *TeamFormationRepository {
	return &TeamFormationRepository{db: db}
}

// Create inserts a new team formation application.
func (r *TeamFormationRepository) Create(ctx context.Context, app *models.TeamFormationApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.Status == "" {
		app.Status = models.TeamFormationStatusPending
	}
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO team_formation_applications
	(id, applicant_id, status, name, sport, rank, class, location, submitted_at)
	VALUES (:id, :applicant_id, :status, :name, :sport, :rank, :class, :location, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create team formation application: %w", err)
	}
	return nil
}

// GetByID fetches an application by identifier.
func (r *TeamFormationRepository) GetByID(ctx context.Context, id string) (*models.TeamFormationApplication, error) {
	query := fmt.Sprintf(`SELECT %s FROM team_formation_applications WHERE id = $1`, teamFormationColumns)
	var app models.TeamFormationApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByIDForStatus fetches the application only when it currently holds the
// expected status.
func (r *TeamFormationRepository) GetByIDForStatus(ctx context.Context, id string, status models.TeamFormationStatus) (*models.TeamFormationApplication, error) {
	query := fmt.Sprintf(`SELECT %s FROM team_formation_applications WHERE id = $1 AND status = $2`, teamFormationColumns)
	var app models.TeamFormationApplication
	if err := r.db.GetContext(ctx, &app, query, id, status); err != nil {
		return nil, err
	}
	return &app, nil
}

// List returns applications matching the filter (latest first).
func (r *TeamFormationRepository) List(ctx context.Context, filter models.TeamFormationFilter) ([]models.TeamFormationApplication, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 3)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM team_formation_applications`, teamFormationColumns))

	conditions := make([]string, 0, 2)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ApplicantID != "" {
		args = append(args, filter.ApplicantID)
		conditions = append(conditions, fmt.Sprintf("applicant_id = $%d", len(args)))
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

	var apps []models.TeamFormationApplication
	if err := r.db.SelectContext(ctx, &apps, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list team formation applications: %w", err)
	}
	return apps, nil
}

// TeamFormationStatusUpdate groups the columns a review transition sets.
type TeamFormationStatusUpdate struct {
	ID         string
	Expected   models.TeamFormationStatus
	Status     models.TeamFormationStatus
	ReviewNote *string
	ReviewedAt time.Time
}

// UpdateStatus performs the precondition-conditioned update. Zero affected
// rows surface as sql.ErrNoRows.
func (r *TeamFormationRepository) UpdateStatus(ctx context.Context, ext sqlx.ExtContext, params TeamFormationStatusUpdate) error {
	setParts := []string{
		"status = $1",
		"reviewed_at = $2",
	}
	args := []interface{}{params.Status, params.ReviewedAt}
	if params.ReviewNote != nil {
		args = append(args, *params.ReviewNote)
		setParts = append(setParts, fmt.Sprintf("review_note = $%d", len(args)))
	}
	args = append(args, params.ID)
	idArg := len(args)
	args = append(args, params.Expected)

	query := fmt.Sprintf("UPDATE team_formation_applications SET %s WHERE id = $%d AND status = $%d",
		strings.Join(setParts, ", "), idArg, idArg+1)

	result, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update team formation status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check team formation update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HasMembership reports whether the athlete already belongs to a team. The
// check runs on the caller's transaction handle so approval can re-verify
// the invariant inside the same window as its status update.
func (r *TeamFormationRepository) HasMembership(ctx context.Context, ext sqlx.ExtContext, athleteID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM team_memberships WHERE athlete_id = $1)`
	row := ext.QueryRowxContext(ctx, query, athleteID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check team membership: %w", err)
	}
	return exists, nil
}

// CreateTeam inserts the team spawned by an approval.
func (r *TeamFormationRepository) CreateTeam(ctx context.Context, ext sqlx.ExtContext, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	const query = `INSERT INTO teams (id, name, sport, rank, class, location, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := ext.ExecContext(ctx, query,
		team.ID, team.Name, team.Sport, team.Rank, team.Class, team.Location, team.Status, team.CreatedAt); err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

// CreateMembership inserts the owner membership. The unique constraint on
// athlete_id backs up the in-transaction invariant check.
func (r *TeamFormationRepository) CreateMembership(ctx context.Context, ext sqlx.ExtContext, membership *models.TeamMembership) error {
	if membership.ID == "" {
		membership.ID = uuid.NewString()
	}
	const query = `INSERT INTO team_memberships (id, team_id, athlete_id, role, is_captain, joined_at)
	VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := ext.ExecContext(ctx, query,
		membership.ID, membership.TeamID, membership.AthleteID, membership.Role,
		membership.IsCaptain, membership.JoinedAt); err != nil {
		return fmt.Errorf("create team membership: %w", err)
	}
	return nil
}

// CreateCounters seeds the denormalised per-team counter row.
func (r *TeamFormationRepository) CreateCounters(ctx context.Context, ext sqlx.ExtContext, counters *models.TeamCounters) error {
	const query = `INSERT INTO team_counters (team_id, members_count) VALUES ($1, $2)`
	if _, err := ext.ExecContext(ctx, query, counters.TeamID, counters.MembersCount); err != nil {
		return fmt.Errorf("create team counters: %w", err)
	}
	return nil
}

// LinkTeam back-links the created team onto the application row.
func (r *TeamFormationRepository) LinkTeam(ctx context.Context, ext sqlx.ExtContext, applicationID, teamID string) error {
	const query = `UPDATE team_formation_applications SET team_id = $1 WHERE id = $2`
	if _, err := ext.ExecContext(ctx, query, teamID, applicationID); err != nil {
		return fmt.Errorf("link team to application: %w", err)
	}
	return nil
}

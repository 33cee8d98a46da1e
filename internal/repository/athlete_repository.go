package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
)

// AthleteRepository handles persistence of athletes and their role set.
type AthleteRepository struct {
	db *sqlx.DB
}

// NewAthleteRepository constructs the repository.
func NewAthleteRepository(db *sqlx.DB) *AthleteRepository {
	return &AthleteRepository{db: db}
}

// FindByEmail returns an athlete by email.
func (r *AthleteRepository) FindByEmail(ctx context.Context, email string) (*models.Athlete, error) {
	const query = `SELECT id, email, password_hash, full_name, active, created_at, updated_at
	FROM athletes WHERE email = $1`
	var athlete models.Athlete
	if err := r.db.GetContext(ctx, &athlete, query, email); err != nil {
		return nil, err
	}
	return &athlete, nil
}

// FindByID returns an athlete by identifier.
func (r *AthleteRepository) FindByID(ctx context.Context, id string) (*models.Athlete, error) {
	const query = `SELECT id, email, password_hash, full_name, active, created_at, updated_at
	FROM athletes WHERE id = $1`
	var athlete models.Athlete
	if err := r.db.GetContext(ctx, &athlete, query, id); err != nil {
		return nil, err
	}
	return &athlete, nil
}

// ListRoles returns the athlete's role set.
func (r *AthleteRepository) ListRoles(ctx context.Context, athleteID string) ([]models.AthleteRole, error) {
	const query = `SELECT role FROM athlete_roles WHERE athlete_id = $1 ORDER BY role`
	var roles []models.AthleteRole
	if err := r.db.SelectContext(ctx, &roles, query, athleteID); err != nil {
		return nil, fmt.Errorf("list athlete roles: %w", err)
	}
	return roles, nil
}

// HasRole reports whether the athlete holds the given role.
func (r *AthleteRepository) HasRole(ctx context.Context, athleteID string, role models.AthleteRole) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM athlete_roles WHERE athlete_id = $1 AND role = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, athleteID, role); err != nil {
		return false, fmt.Errorf("check athlete role: %w", err)
	}
	return exists, nil
}

// GrantRole adds a role to the athlete's role set. The grant is a set
// union: granting an already-held role is a no-op.
func (r *AthleteRepository) GrantRole(ctx context.Context, ext sqlx.ExtContext, athleteID string, role models.AthleteRole) error {
	const query = `INSERT INTO athlete_roles (athlete_id, role) VALUES ($1, $2)
	ON CONFLICT (athlete_id, role) DO NOTHING`
	if _, err := ext.ExecContext(ctx, query, athleteID, role); err != nil {
		return fmt.Errorf("grant role %s: %w", role, err)
	}
	return nil
}

package models

import "time"

// AthleteRole represents the roles an athlete can hold. Roles are a set:
// every athlete starts as ATHLETE and gains further roles over time.
type AthleteRole string

const (
	RoleAthlete   AthleteRole = "ATHLETE"
	RoleModerator AthleteRole = "MODERATOR"
	RoleGuide     AthleteRole = "GUIDE"
	RoleAssociate AthleteRole = "ASSOCIATE"
)

// Athlete represents a platform user stored in the athletes table.
type Athlete struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Roles is loaded from athlete_roles, not a column.
	Roles []AthleteRole `db:"-" json:"roles,omitempty"`
}

// HasRole reports whether the role set contains the given role.
func (a *Athlete) HasRole(role AthleteRole) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

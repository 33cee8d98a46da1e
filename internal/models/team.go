package models

import "time"

// TeamFormationStatus enumerates the team formation application lifecycle.
type TeamFormationStatus string

const (
	TeamFormationStatusPending  TeamFormationStatus = "PENDING"
	TeamFormationStatusApproved TeamFormationStatus = "APPROVED"
	TeamFormationStatusRejected TeamFormationStatus = "REJECTED"
)

// TeamStatus enumerates team lifecycle states.
type TeamStatus string

const (
	TeamStatusPendingMembers TeamStatus = "PENDING_MEMBERS"
	TeamStatusActive         TeamStatus = "ACTIVE"
)

// TeamMemberRole enumerates membership roles within a team.
type TeamMemberRole string

const (
	TeamRoleOwner  TeamMemberRole = "OWNER"
	TeamRoleMember TeamMemberRole = "MEMBER"
)

// TeamFormationApplication is an athlete's request to found a team.
// Approval creates the team, its owner membership and its counters in one
// transaction and back-links the team to this row.
type TeamFormationApplication struct {
	ID          string              `db:"id" json:"id"`
	ApplicantID string              `db:"applicant_id" json:"applicant_id"`
	Status      TeamFormationStatus `db:"status" json:"status"`
	Name        string              `db:"name" json:"name"`
	Sport       string              `db:"sport" json:"sport"`
	Rank        string              `db:"rank" json:"rank"`
	Class       string              `db:"class" json:"class"`
	Location    string              `db:"location" json:"location"`
	ReviewNote  *string             `db:"review_note" json:"review_note,omitempty"`
	ReviewedAt  *time.Time          `db:"reviewed_at" json:"reviewed_at,omitempty"`
	SubmittedAt time.Time           `db:"submitted_at" json:"submitted_at"`
	TeamID      *string             `db:"team_id" json:"team_id,omitempty"`
}

// Team is created exclusively by an approved formation application.
type Team struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Sport     string     `db:"sport" json:"sport"`
	Rank      string     `db:"rank" json:"rank"`
	Class     string     `db:"class" json:"class"`
	Location  string     `db:"location" json:"location"`
	Status    TeamStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// TeamMembership links an athlete to a team. An athlete holds at most one.
type TeamMembership struct {
	ID        string         `db:"id" json:"id"`
	TeamID    string         `db:"team_id" json:"team_id"`
	AthleteID string         `db:"athlete_id" json:"athlete_id"`
	Role      TeamMemberRole `db:"role" json:"role"`
	IsCaptain bool           `db:"is_captain" json:"is_captain"`
	JoinedAt  time.Time      `db:"joined_at" json:"joined_at"`
}

// TeamCounters holds denormalised per-team counts.
type TeamCounters struct {
	TeamID       string `db:"team_id" json:"team_id"`
	MembersCount int    `db:"members_count" json:"members_count"`
}

// TeamFormationFilter captures listing criteria for review dashboards.
type TeamFormationFilter struct {
	Status      TeamFormationStatus
	ApplicantID string
	Limit       int
	Offset      int
}

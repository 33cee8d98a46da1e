package models

import "time"

// ApplicationStatus enumerates the associate application lifecycle.
type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "PENDING"
	ApplicationStatusUnderReview ApplicationStatus = "UNDER_REVIEW"
	ApplicationStatusApproved    ApplicationStatus = "APPROVED"
	ApplicationStatusRejected    ApplicationStatus = "REJECTED"
)

// IsTerminal reports whether no further transition is defined from the status.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// Application is an athlete's application to become an associate.
// A single reviewer claims a PENDING application before deciding on it.
type Application struct {
	ID              string            `db:"id" json:"id"`
	AthleteID       string            `db:"athlete_id" json:"athlete_id"`
	Status          ApplicationStatus `db:"status" json:"status"`
	WorkEmail       string            `db:"work_email" json:"work_email"`
	Expertise       string            `db:"expertise" json:"expertise"`
	ExperienceYears int               `db:"experience_years" json:"experience_years"`
	Location        string            `db:"location" json:"location"`
	SubmittedAt     time.Time         `db:"submitted_at" json:"submitted_at"`
	ReviewedAt      *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedByID    *string           `db:"reviewed_by_id" json:"reviewed_by_id,omitempty"`
	ReviewNotes     *string           `db:"review_notes" json:"review_notes,omitempty"`
	RejectionReason *string           `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CanReapplyAfter *time.Time        `db:"can_reapply_after" json:"can_reapply_after,omitempty"`
}

// AssociateProfile is the immutable snapshot created when an application
// is approved. 1:1 with the athlete.
type AssociateProfile struct {
	ID              string    `db:"id" json:"id"`
	AthleteID       string    `db:"athlete_id" json:"athlete_id"`
	ApplicationID   string    `db:"application_id" json:"application_id"`
	WorkEmail       string    `db:"work_email" json:"work_email"`
	Expertise       string    `db:"expertise" json:"expertise"`
	ExperienceYears int       `db:"experience_years" json:"experience_years"`
	Location        string    `db:"location" json:"location"`
	VerifiedAt      time.Time `db:"verified_at" json:"verified_at"`
}

// ApplicationFilter captures listing criteria for review dashboards.
type ApplicationFilter struct {
	Status     ApplicationStatus
	AthleteID  string
	ReviewerID string
	Limit      int
	Offset     int
}

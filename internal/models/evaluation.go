package models

import "time"

// EvaluationStatus enumerates the physical evaluation request lifecycle.
type EvaluationStatus string

const (
	EvaluationStatusPending  EvaluationStatus = "PENDING"
	EvaluationStatusAccepted EvaluationStatus = "ACCEPTED"
	EvaluationStatusRejected EvaluationStatus = "REJECTED"
)

// ActiveEvaluationStatuses is the status set that blocks a new request for
// the same (athlete, guide) pair. REJECTED is part of the set on purpose;
// a rejected request keeps counting against the throttle.
var ActiveEvaluationStatuses = []EvaluationStatus{
	EvaluationStatusPending,
	EvaluationStatusAccepted,
	EvaluationStatusRejected,
}

// PhysicalEvaluationRequest is an athlete's request to be evaluated by a
// guide. Acceptance stores the schedule and a one-time passcode consumed by
// the downstream stats submission flow.
type PhysicalEvaluationRequest struct {
	ID            string           `db:"id" json:"id"`
	AthleteID     string           `db:"athlete_id" json:"athlete_id"`
	GuideID       string           `db:"guide_id" json:"guide_id"`
	Status        EvaluationStatus `db:"status" json:"status"`
	Message       string           `db:"message" json:"message"`
	ScheduledDate *string          `db:"scheduled_date" json:"scheduled_date,omitempty"`
	ScheduledTime *string          `db:"scheduled_time" json:"scheduled_time,omitempty"`
	Location      *string          `db:"location" json:"location,omitempty"`
	Equipment     *string          `db:"equipment" json:"equipment,omitempty"`
	OTP           *string          `db:"otp" json:"-"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	RespondedAt   *time.Time       `db:"responded_at" json:"responded_at,omitempty"`
}

// EvaluationFilter captures listing criteria for guides and athletes.
type EvaluationFilter struct {
	AthleteID string
	GuideID   string
	Status    EvaluationStatus
	Limit     int
	Offset    int
}

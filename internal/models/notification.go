package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// NotificationType is the closed set of notification kinds. Each type has
// exactly one payload shape; see the *Data structs below.
type NotificationType string

const (
	NotifAssociateUnderReview NotificationType = "ASSOCIATE_UNDER_REVIEW"
	NotifAssociateApproved    NotificationType = "ASSOCIATE_APPROVED"
	NotifAssociateRejected    NotificationType = "ASSOCIATE_REJECTED"
	NotifApplicationApproved  NotificationType = "APPLICATION_APPROVED"
	NotifApplicationRejected  NotificationType = "APPLICATION_REJECTED"
	NotifEvaluationRequested  NotificationType = "EVALUATION_REQUESTED"
	NotifEvaluationAccepted   NotificationType = "EVALUATION_ACCEPTED"
	NotifEvaluationRejected   NotificationType = "EVALUATION_REJECTED"
)

// Notification is the durable record served to a polling client. It is
// owned by its recipient: only the athlete identified by AthleteID may read
// or mutate it, and only the IsRead flag is ever updated after creation.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	AthleteID string           `db:"athlete_id" json:"athlete_id"`
	ActorID   *string          `db:"actor_id" json:"actor_id,omitempty"`
	Type      NotificationType `db:"type" json:"type"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Data      json.RawMessage  `db:"data" json:"data,omitempty"`
	IsRead    bool             `db:"is_read" json:"is_read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// NotificationPayload is implemented by every per-type data struct.
type NotificationPayload interface {
	NotificationType() NotificationType
}

// AssociateUnderReviewData accompanies ASSOCIATE_UNDER_REVIEW.
type AssociateUnderReviewData struct {
	ApplicationID string `json:"applicationId"`
	ReviewerID    string `json:"reviewerId"`
}

func (AssociateUnderReviewData) NotificationType() NotificationType { return NotifAssociateUnderReview }

// AssociateApprovedData accompanies ASSOCIATE_APPROVED.
type AssociateApprovedData struct {
	ApplicationID string `json:"applicationId"`
	ProfileID     string `json:"profileId"`
}

func (AssociateApprovedData) NotificationType() NotificationType { return NotifAssociateApproved }

// AssociateRejectedData accompanies ASSOCIATE_REJECTED.
type AssociateRejectedData struct {
	ApplicationID   string    `json:"applicationId"`
	Reason          string    `json:"reason"`
	CanReapplyAfter time.Time `json:"canReapplyAfter"`
}

func (AssociateRejectedData) NotificationType() NotificationType { return NotifAssociateRejected }

// TeamApprovedData accompanies APPLICATION_APPROVED (team formation).
type TeamApprovedData struct {
	ApplicationID string `json:"applicationId"`
	TeamID        string `json:"teamId"`
	TeamName      string `json:"teamName"`
}

func (TeamApprovedData) NotificationType() NotificationType { return NotifApplicationApproved }

// TeamRejectedData accompanies APPLICATION_REJECTED (team formation).
type TeamRejectedData struct {
	ApplicationID string `json:"applicationId"`
	Note          string `json:"note"`
}

func (TeamRejectedData) NotificationType() NotificationType { return NotifApplicationRejected }

// EvaluationRequestedData accompanies EVALUATION_REQUESTED.
type EvaluationRequestedData struct {
	RequestID string `json:"requestId"`
	AthleteID string `json:"athleteId"`
}

func (EvaluationRequestedData) NotificationType() NotificationType { return NotifEvaluationRequested }

// EvaluationAcceptedData accompanies EVALUATION_ACCEPTED.
type EvaluationAcceptedData struct {
	RequestID     string `json:"requestId"`
	GuideID       string `json:"guideId"`
	OTP           string `json:"otp"`
	ScheduledDate string `json:"scheduledDate"`
	ScheduledTime string `json:"scheduledTime"`
	Location      string `json:"location"`
	Equipment     string `json:"equipment"`
}

func (EvaluationAcceptedData) NotificationType() NotificationType { return NotifEvaluationAccepted }

// EvaluationRejectedData accompanies EVALUATION_REJECTED.
type EvaluationRejectedData struct {
	RequestID string `json:"requestId"`
	GuideID   string `json:"guideId"`
}

func (EvaluationRejectedData) NotificationType() NotificationType { return NotifEvaluationRejected }

// DecodePayload unmarshals a notification's data into its typed payload.
// The switch is exhaustive over the closed type set.
func DecodePayload(n *Notification) (NotificationPayload, error) {
	decode := func(dest NotificationPayload) (NotificationPayload, error) {
		if len(n.Data) == 0 {
			return dest, nil
		}
		if err := json.Unmarshal(n.Data, dest); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", n.Type, err)
		}
		return dest, nil
	}

	switch n.Type {
	case NotifAssociateUnderReview:
		return decode(&AssociateUnderReviewData{})
	case NotifAssociateApproved:
		return decode(&AssociateApprovedData{})
	case NotifAssociateRejected:
		return decode(&AssociateRejectedData{})
	case NotifApplicationApproved:
		return decode(&TeamApprovedData{})
	case NotifApplicationRejected:
		return decode(&TeamRejectedData{})
	case NotifEvaluationRequested:
		return decode(&EvaluationRequestedData{})
	case NotifEvaluationAccepted:
		return decode(&EvaluationAcceptedData{})
	case NotifEvaluationRejected:
		return decode(&EvaluationRejectedData{})
	default:
		return nil, fmt.Errorf("unknown notification type %q", n.Type)
	}
}

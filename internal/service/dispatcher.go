package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
)

type notificationCreator interface {
	Create(ctx context.Context, ext sqlx.ExtContext, n *models.Notification) error
}

// NotificationDispatcher translates a transition outcome into exactly one
// notification row. It always runs on the caller's transaction handle, so
// the notification and the state change it announces are all-or-nothing.
// It performs no delivery; clients poll the read path.
type NotificationDispatcher struct {
	repo notificationCreator
}

// NewNotificationDispatcher constructs the dispatcher.
func NewNotificationDispatcher(repo notificationCreator) *NotificationDispatcher {
	return &NotificationDispatcher{repo: repo}
}

// Dispatch builds the notification for the payload's type and inserts it.
// The payload-to-title mapping is fixed per type; no branching on
// environment or recipient.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, ext sqlx.ExtContext, recipientID string, actorID *string, payload models.NotificationPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal notification payload: %w", err)
	}

	title, message := notificationText(payload.NotificationType())

	n := &models.Notification{
		AthleteID: recipientID,
		ActorID:   actorID,
		Type:      payload.NotificationType(),
		Title:     title,
		Message:   message,
		Data:      data,
	}
	if err := d.repo.Create(ctx, ext, n); err != nil {
		return "", err
	}
	return n.ID, nil
}

func notificationText(t models.NotificationType) (title, message string) {
	switch t {
	case models.NotifAssociateUnderReview:
		return "Application under review", "A moderator has started reviewing your associate application."
	case models.NotifAssociateApproved:
		return "Application approved", "Congratulations, your associate application has been approved."
	case models.NotifAssociateRejected:
		return "Application rejected", "Your associate application was rejected. You may reapply after the cooldown period."
	case models.NotifApplicationApproved:
		return "Team application approved", "Your team formation application has been approved and your team is ready for members."
	case models.NotifApplicationRejected:
		return "Team application rejected", "Your team formation application was rejected."
	case models.NotifEvaluationRequested:
		return "New evaluation request", "An athlete has requested a physical evaluation with you."
	case models.NotifEvaluationAccepted:
		return "Evaluation accepted", "Your evaluation request has been accepted. Check the schedule details."
	case models.NotifEvaluationRejected:
		return "Evaluation rejected", "Your evaluation request was rejected by the guide."
	default:
		return string(t), ""
	}
}

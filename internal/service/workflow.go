package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
)

// txRunner is the unit-of-work boundary every workflow transition runs in.
type txRunner interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// transitionDispatcher inserts the transition's notification on the
// caller's transaction handle.
type transitionDispatcher interface {
	Dispatch(ctx context.Context, ext sqlx.ExtContext, recipientID string, actorID *string, payload models.NotificationPayload) (string, error)
}

// Transition outcome labels for metrics.
const (
	outcomeOK       = "ok"
	outcomeConflict = "conflict"
	outcomeError    = "error"
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}

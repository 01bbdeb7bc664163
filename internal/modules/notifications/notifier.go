package notifications

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/padrededios/stepzy-sub002/internal/modules/core"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Event string

const (
	EventSessionConfirmed Event = "session_confirmed"
	EventWaitlisted       Event = "waitlisted"
	EventPromoted         Event = "promoted"
	EventSessionCancelled Event = "session_cancelled"
)

// Notifier delivers best-effort notifications on participation state
// transitions. Implementations never return an error to the caller -
// a failed notification must not roll back the transition it reports.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event Event, message string)
}

var subjects = map[Event]string{
	EventSessionConfirmed: "Your spot is confirmed",
	EventWaitlisted:       "You are on the waiting list",
	EventPromoted:         "A spot opened up - you are in",
	EventSessionCancelled: "Session cancelled",
}

// EmailNotifier sends notifications over SMTP, looking the recipient's
// address up by user id.
type EmailNotifier struct {
	db     *sql.DB
	client *core.EmailClient
	sender string
	logger *zap.Logger
}

func NewEmailNotifier(db *sql.DB, client *core.EmailClient, sender string, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{db: db, client: client, sender: sender, logger: logger}
}

func (n *EmailNotifier) Notify(ctx context.Context, userID uuid.UUID, event Event, message string) {
	const q = `
		SELECT
			email
		FROM
			users
		WHERE
			id = $1;`

	email, err := tql.QuerySingle[string](ctx, n.db, q, userID)
	if err != nil {
		n.logger.Error("failed to resolve notification recipient",
			zap.String("user_id", userID.String()),
			zap.String("event", string(event)),
			zap.Error(err))
		return
	}

	subject, ok := subjects[event]
	if !ok {
		subject = fmt.Sprintf("Stepzy - %s", event)
	}

	mail := core.MailMessage{
		Subject:    subject,
		From:       n.sender,
		To:         []string{email},
		BodyString: message,
	}

	if err := n.client.Send(mail); err != nil {
		n.logger.Error("failed to send notification email",
			zap.String("user_id", userID.String()),
			zap.String("event", string(event)),
			zap.Error(err))
	}
}

// NopNotifier drops every notification. Used in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, uuid.UUID, Event, string) {}

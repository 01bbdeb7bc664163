package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	"github.com/padrededios/stepzy-sub002/internal/modules/notifications"
	participationdomain "github.com/padrededios/stepzy-sub002/internal/modules/participation/domain"
	"github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type CancelSessionCommand struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
}

func (c CancelSessionCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	return nil
}

func HandleCancelSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	command := CancelSessionCommand{
		SessionID: sessionID,
		UserID:    core.Session(ctx).UserID,
	}

	if _, err := mediator.Send[CancelSessionCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type CancelSessionCommandHandler struct {
	db       *sql.DB
	notifier notifications.Notifier
}

func NewCancelSessionCommandHandler(db *sql.DB, notifier notifications.Notifier) *CancelSessionCommandHandler {
	return &CancelSessionCommandHandler{db, notifier}
}

func (h *CancelSessionCommandHandler) Handle(
	ctx context.Context,
	request CancelSessionCommand,
) (core.Unit, error) {
	const sessionQuery = `
		SELECT
			s.*
		FROM
			activity_sessions s
		INNER JOIN
			activities a ON a.id = s.activity_id
		WHERE
			s.id = $1 AND a.created_by = $2;`

	session, err := tql.QueryFirst[domain.Session](ctx, h.db, sessionQuery, request.SessionID, request.UserID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return core.Unit{}, core.NewCommandError(404, err, core.WithReason("session not found"))
	case err != nil:
		return core.Unit{}, core.NewCommandError(500, err)
	}

	if session.IsCancelled {
		return core.Unit{}, core.NewCommandError(400, fmt.Errorf("session is already cancelled"))
	}

	const cancelStmt = `
		UPDATE
			activity_sessions
		SET
			status = $1, is_cancelled = true, updated_at = $2
		WHERE
			id = $3;`

	if _, err := tql.Exec(ctx, h.db, cancelStmt, domain.StatusCancelled, time.Now().UTC(), session.ID); err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	const participantsQuery = `
		SELECT
			*
		FROM
			activity_participants
		WHERE
			session_id = $1;`

	participants, err := tql.Query[participationdomain.Participant](ctx, h.db, participantsQuery, session.ID)
	if err != nil {
		// The cancellation itself committed; skip notifications.
		return core.Unit{}, nil
	}

	for _, participant := range participants {
		h.notifier.Notify(ctx, participant.UserID, notifications.EventSessionCancelled,
			fmt.Sprintf("The session on %s was cancelled by its organizer.", session.Date.Format("Monday 02 Jan 2006")))
	}

	return core.Unit{}, nil
}

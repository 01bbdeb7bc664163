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
	"github.com/padrededios/stepzy-sub002/internal/modules/participation/domain"
	scheduledomain "github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type JoinSessionCommand struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
}

func (c JoinSessionCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	return nil
}

type JoinSessionResponse struct {
	Participation domain.Participant `json:"participation"`
	SessionStats  domain.Stats       `json:"sessionStats"`
}

func HandleJoinSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	command := JoinSessionCommand{
		SessionID: sessionID,
		UserID:    core.Session(ctx).UserID,
	}

	response, err := mediator.Send[JoinSessionCommand, JoinSessionResponse](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type JoinSessionCommandHandler struct {
	db       *sql.DB
	notifier notifications.Notifier
}

func NewJoinSessionCommandHandler(db *sql.DB, notifier notifications.Notifier) *JoinSessionCommandHandler {
	return &JoinSessionCommandHandler{db, notifier}
}

// Handle attaches the user to the session, confirmed while capacity
// remains and waitlisted once it is full. The capacity decision and the
// insert run in one serializable transaction so concurrent joins cannot
// both observe a free slot; the unique (session_id, user_id) constraint
// backs the single-record invariant.
func (h *JoinSessionCommandHandler) Handle(
	ctx context.Context,
	request JoinSessionCommand,
) (JoinSessionResponse, error) {
	var participant domain.Participant
	var stats domain.Stats

	txErr := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		const sessionQuery = `
			SELECT
				*
			FROM
				activity_sessions
			WHERE
				id = $1;`

		session, err := tql.QueryFirst[scheduledomain.Session](ctx, tx, sessionQuery, request.SessionID)
		switch {
		case err != nil && errors.Is(err, sql.ErrNoRows):
			return core.NewCommandError(404, err, core.WithReason("session not found"))
		case err != nil:
			return core.NewCommandError(500, err)
		}

		if session.IsCancelled {
			return core.NewCommandError(400, fmt.Errorf("session is cancelled"))
		}

		if !session.Date.After(time.Now().UTC()) {
			return core.NewCommandError(400, fmt.Errorf("session is in the past"))
		}

		const participantsQuery = `
			SELECT
				*
			FROM
				activity_participants
			WHERE
				session_id = $1;`

		participants, err := tql.Query[domain.Participant](ctx, tx, participantsQuery, session.ID)
		if err != nil {
			return core.NewCommandError(500, err)
		}

		for _, p := range participants {
			if p.UserID == request.UserID {
				return core.NewCommandError(400, fmt.Errorf("already joined this session"))
			}
		}

		current := domain.ComputeStats(participants, session.MaxPlayers)
		status := domain.DecideStatus(current.ConfirmedCount, session.MaxPlayers)

		participant = domain.NewParticipant(session.ID, request.UserID, status)

		const insertStmt = `
			INSERT INTO
				activity_participants (id, session_id, user_id, status, joined_at)
			VALUES
				(:id, :session_id, :user_id, :status, :joined_at);`

		if _, err := tql.Exec(ctx, tx, insertStmt, participant); err != nil {
			return core.NewCommandError(400, err, core.WithReason("already joined this session"))
		}

		stats = domain.ComputeStats(append(participants, participant), session.MaxPlayers)
		return nil
	}, core.WithIsolationLevel(sql.LevelSerializable))

	if txErr != nil {
		var commandErr core.CommandError
		if errors.As(txErr, &commandErr) {
			return JoinSessionResponse{}, commandErr
		}
		return JoinSessionResponse{}, core.NewCommandError(500, txErr)
	}

	event := notifications.EventSessionConfirmed
	message := "Your spot for the session is confirmed."
	if participant.Status == domain.StatusWaiting {
		event = notifications.EventWaitlisted
		message = "The session is full - you were added to the waiting list."
	}
	h.notifier.Notify(ctx, request.UserID, event, message)

	return JoinSessionResponse{Participation: participant, SessionStats: stats}, nil
}

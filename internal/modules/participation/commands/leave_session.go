package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	"github.com/padrededios/stepzy-sub002/internal/modules/notifications"
	"github.com/padrededios/stepzy-sub002/internal/modules/participation/domain"
	scheduledomain "github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type LeaveSessionCommand struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
}

func (c LeaveSessionCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	return nil
}

type LeaveSessionResponse struct {
	SessionStats domain.Stats `json:"sessionStats"`
}

func HandleLeaveSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	command := LeaveSessionCommand{
		SessionID: sessionID,
		UserID:    core.Session(ctx).UserID,
	}

	response, err := mediator.Send[LeaveSessionCommand, LeaveSessionResponse](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type LeaveSessionCommandHandler struct {
	db       *sql.DB
	notifier notifications.Notifier
}

func NewLeaveSessionCommandHandler(db *sql.DB, notifier notifications.Notifier) *LeaveSessionCommandHandler {
	return &LeaveSessionCommandHandler{db, notifier}
}

// Handle removes the user's participation record. Leaving a confirmed
// slot promotes exactly one participant, the earliest joined waiter;
// leaving the waitlist promotes no one since no confirmed slot freed up.
func (h *LeaveSessionCommandHandler) Handle(
	ctx context.Context,
	request LeaveSessionCommand,
) (LeaveSessionResponse, error) {
	var stats domain.Stats
	var promoted *domain.Participant

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

		var leaver *domain.Participant
		remaining := make([]domain.Participant, 0, len(participants))
		for _, p := range participants {
			if p.UserID == request.UserID {
				p := p
				leaver = &p
				continue
			}
			remaining = append(remaining, p)
		}

		if leaver == nil {
			return core.NewCommandError(400, fmt.Errorf("not joined to this session"))
		}

		const deleteStmt = `
			DELETE FROM
				activity_participants
			WHERE
				id = $1;`

		if _, err := tql.Exec(ctx, tx, deleteStmt, leaver.ID); err != nil {
			return core.NewCommandError(500, err)
		}

		// A departing waiter frees no confirmed slot, so at most one
		// promotion happens here.
		if leaver.Status == domain.StatusConfirmed {
			if next, found := domain.NextInLine(remaining); found {
				const promoteStmt = `
					UPDATE
						activity_participants
					SET
						status = $1
					WHERE
						id = $2;`

				if _, err := tql.Exec(ctx, tx, promoteStmt, domain.StatusConfirmed, next.ID); err != nil {
					return core.NewCommandError(500, err)
				}

				next.Status = domain.StatusConfirmed
				promoted = &next

				for i := range remaining {
					if remaining[i].ID == next.ID {
						remaining[i].Status = domain.StatusConfirmed
					}
				}
			}
		}

		stats = domain.ComputeStats(remaining, session.MaxPlayers)
		return nil
	}, core.WithIsolationLevel(sql.LevelSerializable))

	if txErr != nil {
		var commandErr core.CommandError
		if errors.As(txErr, &commandErr) {
			return LeaveSessionResponse{}, commandErr
		}
		return LeaveSessionResponse{}, core.NewCommandError(500, txErr)
	}

	if promoted != nil {
		h.notifier.Notify(ctx, promoted.UserID, notifications.EventPromoted,
			"A spot opened up and you were moved off the waiting list.")
	}

	return LeaveSessionResponse{SessionStats: stats}, nil
}

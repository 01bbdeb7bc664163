package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	"github.com/padrededios/stepzy-sub002/internal/modules/notifications"
	"github.com/padrededios/stepzy-sub002/internal/modules/participation/domain"
	scheduledomain "github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

// PromoteWaitingParticipantsCommand is the batch counterpart of the
// single promotion in leave: after a session's capacity grows, every
// newly free confirmed slot is filled from the waitlist in joined_at
// order.
type PromoteWaitingParticipantsCommand struct {
	SessionID uuid.UUID
}

func (c PromoteWaitingParticipantsCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	return nil
}

type PromoteWaitingParticipantsResponse struct {
	PromotedUserIDs []uuid.UUID `json:"promotedUserIds"`
}

type PromoteWaitingParticipantsCommandHandler struct {
	db       *sql.DB
	notifier notifications.Notifier
}

func NewPromoteWaitingParticipantsCommandHandler(
	db *sql.DB,
	notifier notifications.Notifier,
) *PromoteWaitingParticipantsCommandHandler {
	return &PromoteWaitingParticipantsCommandHandler{db, notifier}
}

func (h *PromoteWaitingParticipantsCommandHandler) Handle(
	ctx context.Context,
	request PromoteWaitingParticipantsCommand,
) (PromoteWaitingParticipantsResponse, error) {
	var promoted []domain.Participant

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

		const confirmedCountQuery = `
			SELECT
				count(id)
			FROM
				activity_participants
			WHERE
				session_id = $1 AND status = $2;`

		confirmedCount, err := tql.QuerySingle[int](ctx, tx, confirmedCountQuery, session.ID, domain.StatusConfirmed)
		if err != nil {
			return core.NewCommandError(500, err)
		}

		freeSlots := session.MaxPlayers - confirmedCount
		if freeSlots <= 0 {
			return nil
		}

		const waitingQuery = `
			SELECT
				*
			FROM
				activity_participants
			WHERE
				session_id = $1 AND status = $2
			ORDER BY
				joined_at ASC
			LIMIT $3;`

		waiting, err := tql.Query[domain.Participant](ctx, tx, waitingQuery, session.ID, domain.StatusWaiting, freeSlots)
		if err != nil {
			return core.NewCommandError(500, err)
		}

		const promoteStmt = `
			UPDATE
				activity_participants
			SET
				status = $1
			WHERE
				id = $2;`

		for _, participant := range waiting {
			if _, err := tql.Exec(ctx, tx, promoteStmt, domain.StatusConfirmed, participant.ID); err != nil {
				return core.NewCommandError(500, err)
			}

			participant.Status = domain.StatusConfirmed
			promoted = append(promoted, participant)
		}

		return nil
	}, core.WithIsolationLevel(sql.LevelSerializable))

	if txErr != nil {
		var commandErr core.CommandError
		if errors.As(txErr, &commandErr) {
			return PromoteWaitingParticipantsResponse{}, commandErr
		}
		return PromoteWaitingParticipantsResponse{}, core.NewCommandError(500, txErr)
	}

	response := PromoteWaitingParticipantsResponse{
		PromotedUserIDs: core.Map(promoted, func(p domain.Participant) uuid.UUID {
			return p.UserID
		}),
	}

	for _, participant := range promoted {
		h.notifier.Notify(ctx, participant.UserID, notifications.EventPromoted,
			"A spot opened up and you were moved off the waiting list.")
	}

	return response, nil
}

package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	participationcommands "github.com/padrededios/stepzy-sub002/internal/modules/participation/commands"
	"github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type UpdateSessionCapacityCommand struct {
	SessionID  uuid.UUID `json:"-"`
	UserID     uuid.UUID `json:"-"`
	MaxPlayers int       `json:"maxPlayers"`
}

func (c UpdateSessionCapacityCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.MaxPlayers < 1 {
		return fmt.Errorf("invalid MaxPlayers - %d", c.MaxPlayers)
	}

	return nil
}

func HandleUpdateSessionCapacity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command, err := core.RequestBody[UpdateSessionCapacityCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	command.SessionID = sessionID
	command.UserID = core.Session(ctx).UserID

	if _, err := mediator.Send[UpdateSessionCapacityCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type UpdateSessionCapacityCommandHandler struct {
	db *sql.DB
}

func NewUpdateSessionCapacityCommandHandler(db *sql.DB) *UpdateSessionCapacityCommandHandler {
	return &UpdateSessionCapacityCommandHandler{db}
}

// Handle changes a single session's capacity snapshot. Raising the
// capacity frees confirmed slots, so the waitlist promotion sweep runs
// afterwards; lowering it never demotes anyone already confirmed.
func (h *UpdateSessionCapacityCommandHandler) Handle(
	ctx context.Context,
	request UpdateSessionCapacityCommand,
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

	const updateStmt = `
		UPDATE
			activity_sessions
		SET
			max_players = $1, updated_at = $2
		WHERE
			id = $3;`

	if _, err := tql.Exec(ctx, h.db, updateStmt, request.MaxPlayers, time.Now().UTC(), session.ID); err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	if request.MaxPlayers > session.MaxPlayers {
		command := participationcommands.PromoteWaitingParticipantsCommand{SessionID: session.ID}
		if _, err := mediator.Send[participationcommands.PromoteWaitingParticipantsCommand, participationcommands.PromoteWaitingParticipantsResponse](ctx, command); err != nil {
			return core.Unit{}, err
		}
	}

	return core.Unit{}, nil
}

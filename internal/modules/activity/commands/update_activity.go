package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/padrededios/stepzy-sub002/internal/modules/activity/domain"
	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	participationcommands "github.com/padrededios/stepzy-sub002/internal/modules/participation/commands"
	scheduledomain "github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type UpdateActivityCommand struct {
	ActivityID uuid.UUID `json:"-"`
	UserID     uuid.UUID `json:"-"`

	Name        string `json:"name"`
	Description string `json:"description"`
	MinPlayers  int    `json:"minPlayers"`
	MaxPlayers  int    `json:"maxPlayers"`
}

func (c UpdateActivityCommand) Validate() error {
	if c.ActivityID == uuid.Nil {
		return fmt.Errorf("invalid ActivityID - '%s'", c.ActivityID)
	}

	if c.Name == "" {
		return fmt.Errorf("invalid Name - '%s'", c.Name)
	}

	if c.MinPlayers < 1 {
		return fmt.Errorf("invalid MinPlayers - %d", c.MinPlayers)
	}

	if c.MinPlayers > c.MaxPlayers {
		return fmt.Errorf("MinPlayers must not exceed MaxPlayers")
	}

	return nil
}

func HandleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command, err := core.RequestBody[UpdateActivityCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	activityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid activity id"))
		return
	}

	command.ActivityID = activityID
	command.UserID = core.Session(ctx).UserID

	activity, err := mediator.Send[UpdateActivityCommand, domain.Activity](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, activity)
}

type UpdateActivityCommandHandler struct {
	db *sql.DB
}

func NewUpdateActivityCommandHandler(db *sql.DB) *UpdateActivityCommandHandler {
	return &UpdateActivityCommandHandler{db}
}

// Handle applies owner edits to the template. A capacity increase also
// propagates to future sessions still carrying the old snapshot and
// sweeps each one's waitlist, since the bigger room may admit waiters.
func (h *UpdateActivityCommandHandler) Handle(
	ctx context.Context,
	request UpdateActivityCommand,
) (domain.Activity, error) {
	const activityQuery = `
		SELECT
			*
		FROM
			activities
		WHERE
			id = $1;`

	activity, err := tql.QueryFirst[domain.Activity](ctx, h.db, activityQuery, request.ActivityID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.Activity{}, core.NewCommandError(404, err, core.WithReason("activity not found"))
	case err != nil:
		return domain.Activity{}, core.NewCommandError(500, err)
	}

	if activity.CreatedBy != request.UserID {
		return domain.Activity{}, core.NewCommandError(400, fmt.Errorf("only the owner can edit an activity"))
	}

	previousMaxPlayers := activity.MaxPlayers

	activity.Name = request.Name
	activity.Description = request.Description
	activity.MinPlayers = request.MinPlayers
	activity.MaxPlayers = request.MaxPlayers
	activity.UpdatedAt = time.Now().UTC()

	const updateStmt = `
		UPDATE
			activities
		SET
			name = :name,
			description = :description,
			min_players = :min_players,
			max_players = :max_players,
			updated_at = :updated_at
		WHERE
			id = :id;`

	if _, err := tql.Exec(ctx, h.db, updateStmt, activity); err != nil {
		return domain.Activity{}, core.NewCommandError(500, err)
	}

	if request.MaxPlayers <= previousMaxPlayers {
		return activity, nil
	}

	const futureSessionsStmt = `
		UPDATE
			activity_sessions
		SET
			max_players = $1, updated_at = $2
		WHERE
			activity_id = $3 AND date > $2 AND status = $4 AND max_players = $5
		RETURNING id;`

	sessionIDs, err := tql.Query[uuid.UUID](
		ctx,
		h.db,
		futureSessionsStmt,
		request.MaxPlayers,
		time.Now().UTC(),
		activity.ID,
		scheduledomain.StatusActive,
		previousMaxPlayers,
	)
	if err != nil {
		return domain.Activity{}, core.NewCommandError(500, err)
	}

	for _, sessionID := range sessionIDs {
		command := participationcommands.PromoteWaitingParticipantsCommand{SessionID: sessionID}
		if _, err := mediator.Send[participationcommands.PromoteWaitingParticipantsCommand, participationcommands.PromoteWaitingParticipantsResponse](ctx, command); err != nil {
			return domain.Activity{}, err
		}
	}

	return activity, nil
}

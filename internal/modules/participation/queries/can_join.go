package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	"github.com/padrededios/stepzy-sub002/internal/modules/participation/domain"
	scheduledomain "github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

// CanUserJoinSessionQuery previews the outcome of a join without
// mutating anything, so clients can tell a user up front whether
// joining lands them on the waiting list.
type CanUserJoinSessionQuery struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
}

func (q CanUserJoinSessionQuery) Validate() error {
	if q.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", q.SessionID)
	}

	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", q.UserID)
	}

	return nil
}

type CanJoinResponse struct {
	CanJoin   bool   `json:"canJoin"`
	Reason    string `json:"reason,omitempty"`
	WouldWait bool   `json:"wouldWait"`
}

func HandleCanUserJoinSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	query := CanUserJoinSessionQuery{
		SessionID: sessionID,
		UserID:    core.Session(ctx).UserID,
	}

	response, err := mediator.Send[CanUserJoinSessionQuery, CanJoinResponse](ctx, query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type CanUserJoinSessionQueryHandler struct {
	db *sql.DB
}

func NewCanUserJoinSessionQueryHandler(db *sql.DB) *CanUserJoinSessionQueryHandler {
	return &CanUserJoinSessionQueryHandler{db}
}

func (h *CanUserJoinSessionQueryHandler) Handle(
	ctx context.Context,
	request CanUserJoinSessionQuery,
) (CanJoinResponse, error) {
	const sessionQuery = `
		SELECT
			*
		FROM
			activity_sessions
		WHERE
			id = $1;`

	session, err := tql.QueryFirst[scheduledomain.Session](ctx, h.db, sessionQuery, request.SessionID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return CanJoinResponse{}, core.NewCommandError(404, err, core.WithReason("session not found"))
	case err != nil:
		return CanJoinResponse{}, core.NewCommandError(500, err)
	}

	if session.IsCancelled {
		return CanJoinResponse{Reason: "session is cancelled"}, nil
	}

	if !session.Date.After(time.Now().UTC()) {
		return CanJoinResponse{Reason: "session is in the past"}, nil
	}

	const participantsQuery = `
		SELECT
			*
		FROM
			activity_participants
		WHERE
			session_id = $1;`

	participants, err := tql.Query[domain.Participant](ctx, h.db, participantsQuery, session.ID)
	if err != nil {
		return CanJoinResponse{}, core.NewCommandError(500, err)
	}

	for _, p := range participants {
		if p.UserID == request.UserID {
			return CanJoinResponse{Reason: "already joined this session"}, nil
		}
	}

	stats := domain.ComputeStats(participants, session.MaxPlayers)

	return CanJoinResponse{
		CanJoin:   true,
		WouldWait: stats.AvailableSpots == 0,
	}, nil
}

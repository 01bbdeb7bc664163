package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	"github.com/padrededios/stepzy-sub002/internal/modules/participation/domain"
	scheduledomain "github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type GetSessionStatsQuery struct {
	SessionID uuid.UUID
}

func (q GetSessionStatsQuery) Validate() error {
	if q.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", q.SessionID)
	}

	return nil
}

func HandleGetSessionStats(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	stats, err := mediator.Send[GetSessionStatsQuery, domain.Stats](
		r.Context(),
		GetSessionStatsQuery{SessionID: sessionID},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, stats)
}

type GetSessionStatsQueryHandler struct {
	db *sql.DB
}

func NewGetSessionStatsQueryHandler(db *sql.DB) *GetSessionStatsQueryHandler {
	return &GetSessionStatsQueryHandler{db}
}

// Handle reads the session and its participant set in one transaction so
// the returned counts reflect a single consistent snapshot.
func (h *GetSessionStatsQueryHandler) Handle(
	ctx context.Context,
	request GetSessionStatsQuery,
) (domain.Stats, error) {
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

		stats = domain.ComputeStats(participants, session.MaxPlayers)
		return nil
	})

	if txErr != nil {
		var commandErr core.CommandError
		if errors.As(txErr, &commandErr) {
			return domain.Stats{}, commandErr
		}
		return domain.Stats{}, core.NewCommandError(500, txErr)
	}

	return stats, nil
}

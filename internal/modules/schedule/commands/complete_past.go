package commands

import (
	"context"
	"database/sql"
	"time"

	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	"github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/tql"
)

// CompletePastSessionsCommand flips active sessions whose date has
// passed to completed. Driven by the daily scheduler.
type CompletePastSessionsCommand struct{}

type CompletePastSessionsResponse struct {
	SessionsCompleted int64 `json:"sessionsCompleted"`
}

type CompletePastSessionsCommandHandler struct {
	db *sql.DB
}

func NewCompletePastSessionsCommandHandler(db *sql.DB) *CompletePastSessionsCommandHandler {
	return &CompletePastSessionsCommandHandler{db}
}

func (h *CompletePastSessionsCommandHandler) Handle(
	ctx context.Context,
	_ CompletePastSessionsCommand,
) (CompletePastSessionsResponse, error) {
	const stmt = `
		UPDATE
			activity_sessions
		SET
			status = $1, updated_at = $2
		WHERE
			status = $3 AND date < $2;`

	result, err := tql.Exec(ctx, h.db, stmt, domain.StatusCompleted, time.Now().UTC(), domain.StatusActive)
	if err != nil {
		return CompletePastSessionsResponse{}, core.NewCommandError(500, err)
	}

	completed, err := result.RowsAffected()
	if err != nil {
		completed = 0
	}

	return CompletePastSessionsResponse{SessionsCompleted: completed}, nil
}

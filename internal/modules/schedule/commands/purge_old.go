package commands

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	"github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/tql"
)

// PurgeOldSessionsCommand deletes completed and cancelled sessions older
// than the retention window, participants first to satisfy the foreign
// key. Driven by the nightly scheduler.
type PurgeOldSessionsCommand struct {
	RetentionDays int
}

func (c PurgeOldSessionsCommand) Validate() error {
	if c.RetentionDays < 1 {
		return fmt.Errorf("invalid RetentionDays - %d", c.RetentionDays)
	}

	return nil
}

type PurgeOldSessionsResponse struct {
	SessionsPurged int64 `json:"sessionsPurged"`
}

type PurgeOldSessionsCommandHandler struct {
	db *sql.DB
}

func NewPurgeOldSessionsCommandHandler(db *sql.DB) *PurgeOldSessionsCommandHandler {
	return &PurgeOldSessionsCommandHandler{db}
}

func (h *PurgeOldSessionsCommandHandler) Handle(
	ctx context.Context,
	request PurgeOldSessionsCommand,
) (PurgeOldSessionsResponse, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -request.RetentionDays)

	var purged int64

	err := core.Tx(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		const deleteParticipantsStmt = `
			DELETE FROM
				activity_participants
			WHERE
				session_id IN (
					SELECT id FROM activity_sessions
					WHERE status IN ($1, $2) AND date < $3
				);`

		if _, err := tql.Exec(ctx, tx, deleteParticipantsStmt, domain.StatusCompleted, domain.StatusCancelled, cutoff); err != nil {
			return err
		}

		const deleteSessionsStmt = `
			DELETE FROM
				activity_sessions
			WHERE
				status IN ($1, $2) AND date < $3;`

		result, err := tql.Exec(ctx, tx, deleteSessionsStmt, domain.StatusCompleted, domain.StatusCancelled, cutoff)
		if err != nil {
			return err
		}

		purged, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return PurgeOldSessionsResponse{}, core.NewCommandError(500, err)
	}

	return PurgeOldSessionsResponse{SessionsPurged: purged}, nil
}

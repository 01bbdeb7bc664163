package commands

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	"github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GenerateAllUpcomingSessionsCommand struct {
	WeeksAhead int `json:"weeksAhead"`
}

type GenerateAllUpcomingSessionsResponse struct {
	ActivitiesProcessed int `json:"activitiesProcessed"`
	SessionsCreated     int `json:"sessionsCreated"`
	ActivitiesFailed    int `json:"activitiesFailed"`
}

func HandleGenerateAllUpcomingSessions(w http.ResponseWriter, r *http.Request) {
	response, err := mediator.Send[GenerateAllUpcomingSessionsCommand, GenerateAllUpcomingSessionsResponse](
		r.Context(),
		GenerateAllUpcomingSessionsCommand{},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GenerateAllUpcomingSessionsCommandHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewGenerateAllUpcomingSessionsCommandHandler(db *sql.DB, logger *zap.Logger) *GenerateAllUpcomingSessionsCommandHandler {
	return &GenerateAllUpcomingSessionsCommandHandler{db, logger}
}

// Handle runs generation for every public activity. A failing activity is
// logged and skipped so one broken template cannot starve the rest of the
// batch. Intended to be driven by the daily scheduler.
func (h *GenerateAllUpcomingSessionsCommandHandler) Handle(
	ctx context.Context,
	request GenerateAllUpcomingSessionsCommand,
) (GenerateAllUpcomingSessionsResponse, error) {
	const q = `
		SELECT
			id
		FROM
			activities
		WHERE
			is_public = true;`

	activityIDs, err := tql.Query[uuid.UUID](ctx, h.db, q)
	if err != nil {
		return GenerateAllUpcomingSessionsResponse{}, core.NewCommandError(500, err)
	}

	response := GenerateAllUpcomingSessionsResponse{}
	now := time.Now().UTC()

	for _, activityID := range activityIDs {
		command := GenerateSessionsCommand{
			ActivityID: activityID,
			From:       now,
			WeeksAhead: request.WeeksAhead,
		}

		created, err := mediator.Send[GenerateSessionsCommand, []domain.Session](ctx, command)
		if err != nil {
			response.ActivitiesFailed++
			h.logger.Error("session generation failed for activity",
				zap.String("activity_id", activityID.String()),
				zap.Error(err))
			continue
		}

		response.ActivitiesProcessed++
		response.SessionsCreated += len(created)
	}

	return response, nil
}

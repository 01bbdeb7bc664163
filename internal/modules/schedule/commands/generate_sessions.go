package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	activitydomain "github.com/padrededios/stepzy-sub002/internal/modules/activity/domain"
	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	"github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

// DefaultWeeksAhead bounds the generation horizon when a request does
// not specify one.
const DefaultWeeksAhead = 2

type GenerateSessionsCommand struct {
	ActivityID uuid.UUID `json:"activityId"`
	From       time.Time `json:"from"`
	WeeksAhead int       `json:"weeksAhead"`
}

func (c GenerateSessionsCommand) Validate() error {
	if c.ActivityID == uuid.Nil {
		return fmt.Errorf("invalid ActivityID - '%s'", c.ActivityID)
	}

	if c.WeeksAhead < 0 {
		return fmt.Errorf("invalid WeeksAhead - %d", c.WeeksAhead)
	}

	return nil
}

func HandleGenerateSessions(w http.ResponseWriter, r *http.Request) {
	activityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid activity id"))
		return
	}

	command := GenerateSessionsCommand{ActivityID: activityID, From: time.Now().UTC()}

	created, err := mediator.Send[GenerateSessionsCommand, []domain.Session](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, created)
}

type GenerateSessionsCommandHandler struct {
	db *sql.DB
}

func NewGenerateSessionsCommandHandler(db *sql.DB) *GenerateSessionsCommandHandler {
	return &GenerateSessionsCommandHandler{db}
}

// Handle materializes the activity's recurrence into dated sessions for
// the requested window. Days that already carry a session are skipped, so
// repeated invocations are idempotent; the unique index on
// (activity_id, day) is the backstop against concurrent generation.
func (h *GenerateSessionsCommandHandler) Handle(
	ctx context.Context,
	request GenerateSessionsCommand,
) ([]domain.Session, error) {
	const activityQuery = `
		SELECT
			*
		FROM
			activities
		WHERE
			id = $1;`

	activity, err := tql.QueryFirst[activitydomain.Activity](ctx, h.db, activityQuery, request.ActivityID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return nil, core.NewCommandError(404, err, core.WithReason("activity not found"))
	case err != nil:
		return nil, core.NewCommandError(500, err)
	}

	weekdays, err := activitydomain.ParseWeekdays(activity.RecurringDays)
	if err != nil {
		return nil, core.NewCommandError(400, err)
	}

	weeksAhead := request.WeeksAhead
	if weeksAhead == 0 {
		weeksAhead = DefaultWeeksAhead
	}

	from := request.From
	if from.IsZero() {
		from = time.Now().UTC()
	}

	occurrences, err := domain.Expand(activity.RecurringType, weekdays, from, weeksAhead)
	if err != nil {
		return nil, core.NewCommandError(400, err)
	}

	const existsQuery = `
		SELECT
			count(id)
		FROM
			activity_sessions
		WHERE
			activity_id = $1 AND date >= $2 AND date < $3;`

	const insertStmt = `
		INSERT INTO
			activity_sessions (id, activity_id, date, max_players, status, is_cancelled, created_at, updated_at)
		VALUES
			(:id, :activity_id, :date, :max_players, :status, :is_cancelled, :created_at, :updated_at)
		ON CONFLICT DO NOTHING;`

	created := make([]domain.Session, 0, len(occurrences))
	for _, occurrence := range occurrences {
		dayStart := time.Date(occurrence.Year(), occurrence.Month(), occurrence.Day(), 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.AddDate(0, 0, 1)

		count, err := tql.QuerySingle[int](ctx, h.db, existsQuery, activity.ID, dayStart, dayEnd)
		if err != nil {
			return nil, core.NewCommandError(500, err)
		}

		if count > 0 {
			continue
		}

		session := domain.NewSession(activity.ID, occurrence, activity.MaxPlayers)

		result, err := tql.Exec(ctx, h.db, insertStmt, session)
		if err != nil {
			return nil, core.NewCommandError(500, err)
		}

		// A concurrent generator may have won the day; only report
		// rows this call actually created.
		if rows, err := result.RowsAffected(); err == nil && rows == 0 {
			continue
		}

		created = append(created, session)
	}

	return created, nil
}

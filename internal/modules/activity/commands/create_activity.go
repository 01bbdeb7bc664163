package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/padrededios/stepzy-sub002/internal/modules/activity/domain"
	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	schedulecommands "github.com/padrededios/stepzy-sub002/internal/modules/schedule/commands"
	scheduledomain "github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type CreateActivityCommand struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Sport         string   `json:"sport"`
	MinPlayers    int      `json:"minPlayers"`
	MaxPlayers    int      `json:"maxPlayers"`
	IsPublic      bool     `json:"isPublic"`
	RecurringDays []string `json:"recurringDays"`
	RecurringType string   `json:"recurringType"`
	StartTime     string   `json:"startTime"`
	EndTime       string   `json:"endTime"`

	CreatedBy uuid.UUID `json:"-"`
}

func (c CreateActivityCommand) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("invalid Name - '%s'", c.Name)
	}

	if c.CreatedBy == uuid.Nil {
		return fmt.Errorf("invalid CreatedBy - '%s'", c.CreatedBy)
	}

	if len(c.RecurringDays) == 0 {
		return fmt.Errorf("invalid RecurringDays - must not be empty")
	}

	return nil
}

type CreateActivityResponse struct {
	Activity domain.Activity          `json:"activity"`
	Sessions []scheduledomain.Session `json:"sessions"`
}

func HandleCreateActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command, err := core.RequestBody[CreateActivityCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.CreatedBy = core.Session(ctx).UserID

	response, err := mediator.Send[CreateActivityCommand, CreateActivityResponse](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	location := path.Join(r.Host, "activities", response.Activity.ID.String())
	core.WriteCreated(w, r, location, response)
}

type CreateActivityCommandHandler struct {
	db         *sql.DB
	weeksAhead int
}

func NewCreateActivityCommandHandler(db *sql.DB, weeksAhead int) *CreateActivityCommandHandler {
	return &CreateActivityCommandHandler{db, weeksAhead}
}

// Handle persists the activity template and immediately materializes its
// first window of sessions so a freshly created activity is joinable
// without waiting for the nightly generation run.
func (h *CreateActivityCommandHandler) Handle(
	ctx context.Context,
	request CreateActivityCommand,
) (CreateActivityResponse, error) {
	activity, err := domain.NewActivity(
		request.Name,
		request.Description,
		request.Sport,
		request.MinPlayers,
		request.MaxPlayers,
		request.IsPublic,
		request.RecurringDays,
		request.RecurringType,
		request.StartTime,
		request.EndTime,
		request.CreatedBy,
	)
	if err != nil {
		return CreateActivityResponse{}, core.NewCommandError(400, err)
	}

	const stmt = `
		INSERT INTO
			activities (id, name, description, sport, min_players, max_players, created_by,
				is_public, recurring_days, recurring_type, start_time, end_time, code,
				created_at, updated_at)
		VALUES
			(:id, :name, :description, :sport, :min_players, :max_players, :created_by,
				:is_public, :recurring_days, :recurring_type, :start_time, :end_time, :code,
				:created_at, :updated_at);`

	if _, err := tql.Exec(ctx, h.db, stmt, activity); err != nil {
		return CreateActivityResponse{}, core.NewCommandError(500, err)
	}

	generateCommand := schedulecommands.GenerateSessionsCommand{
		ActivityID: activity.ID,
		From:       time.Now().UTC(),
		WeeksAhead: h.weeksAhead,
	}

	sessions, err := mediator.Send[schedulecommands.GenerateSessionsCommand, []scheduledomain.Session](ctx, generateCommand)
	if err != nil {
		return CreateActivityResponse{}, err
	}

	return CreateActivityResponse{Activity: activity, Sessions: sessions}, nil
}

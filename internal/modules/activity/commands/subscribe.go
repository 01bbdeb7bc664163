package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/padrededios/stepzy-sub002/internal/modules/activity/domain"
	"github.com/padrededios/stepzy-sub002/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type SubscribeCommand struct {
	ActivityID uuid.UUID
	UserID     uuid.UUID
}

func (c SubscribeCommand) Validate() error {
	if c.ActivityID == uuid.Nil {
		return fmt.Errorf("invalid ActivityID - '%s'", c.ActivityID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	return nil
}

func HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid activity id"))
		return
	}

	command := SubscribeCommand{
		ActivityID: activityID,
		UserID:     core.Session(ctx).UserID,
	}

	subscription, err := mediator.Send[SubscribeCommand, domain.Subscription](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, subscription)
}

type SubscribeCommandHandler struct {
	db *sql.DB
}

func NewSubscribeCommandHandler(db *sql.DB) *SubscribeCommandHandler {
	return &SubscribeCommandHandler{db}
}

func (h *SubscribeCommandHandler) Handle(
	ctx context.Context,
	request SubscribeCommand,
) (domain.Subscription, error) {
	const activityQuery = `
		SELECT
			count(id)
		FROM
			activities
		WHERE
			id = $1;`

	count, err := tql.QuerySingle[int](ctx, h.db, activityQuery, request.ActivityID)
	if err != nil {
		return domain.Subscription{}, core.NewCommandError(500, err)
	}

	if count == 0 {
		return domain.Subscription{}, core.NewCommandError(404, fmt.Errorf("activity not found"))
	}

	subscription := domain.Subscription{
		ID:         uuid.New(),
		ActivityID: request.ActivityID,
		UserID:     request.UserID,
		CreatedAt:  time.Now().UTC(),
	}

	const stmt = `
		INSERT INTO
			activity_subscriptions (id, activity_id, user_id, created_at)
		VALUES
			(:id, :activity_id, :user_id, :created_at);`

	if _, err := tql.Exec(ctx, h.db, stmt, subscription); err != nil {
		return domain.Subscription{}, core.NewCommandError(400, err, core.WithReason("already subscribed to this activity"))
	}

	return subscription, nil
}

type UnsubscribeCommand struct {
	ActivityID uuid.UUID
	UserID     uuid.UUID
}

func (c UnsubscribeCommand) Validate() error {
	if c.ActivityID == uuid.Nil {
		return fmt.Errorf("invalid ActivityID - '%s'", c.ActivityID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	return nil
}

func HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid activity id"))
		return
	}

	command := UnsubscribeCommand{
		ActivityID: activityID,
		UserID:     core.Session(ctx).UserID,
	}

	if _, err := mediator.Send[UnsubscribeCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type UnsubscribeCommandHandler struct {
	db *sql.DB
}

func NewUnsubscribeCommandHandler(db *sql.DB) *UnsubscribeCommandHandler {
	return &UnsubscribeCommandHandler{db}
}

func (h *UnsubscribeCommandHandler) Handle(
	ctx context.Context,
	request UnsubscribeCommand,
) (core.Unit, error) {
	const stmt = `
		DELETE FROM
			activity_subscriptions
		WHERE
			activity_id = $1 AND user_id = $2;`

	result, err := tql.Exec(ctx, h.db, stmt, request.ActivityID, request.UserID)
	if err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	if rows == 0 {
		return core.Unit{}, core.NewCommandError(400, fmt.Errorf("not subscribed to this activity"))
	}

	return core.Unit{}, nil
}

package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/padrededios/stepzy-sub002/internal/modules/activity/domain"
	"github.com/padrededios/stepzy-sub002/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type GetActivityQuery struct {
	ActivityID uuid.UUID
	UserID     uuid.UUID
}

func (q GetActivityQuery) Validate() error {
	if q.ActivityID == uuid.Nil {
		return fmt.Errorf("invalid ActivityID - '%s'", q.ActivityID)
	}

	return nil
}

func HandleGetActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid activity id"))
		return
	}

	query := GetActivityQuery{
		ActivityID: activityID,
		UserID:     core.Session(ctx).UserID,
	}

	response, err := mediator.Send[GetActivityQuery, ActivityView](ctx, query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetActivityQueryHandler struct {
	db *sql.DB
}

func NewGetActivityQueryHandler(db *sql.DB) *GetActivityQueryHandler {
	return &GetActivityQueryHandler{db}
}

func (h *GetActivityQueryHandler) Handle(
	ctx context.Context,
	request GetActivityQuery,
) (ActivityView, error) {
	const query = `
		SELECT
			*
		FROM
			activities
		WHERE
			id = $1;`

	activity, err := tql.QueryFirst[domain.Activity](ctx, h.db, query, request.ActivityID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return ActivityView{}, core.NewCommandError(404, err, core.WithReason("activity not found"))
	case err != nil:
		return ActivityView{}, core.NewCommandError(500, err)
	}

	views, err := enrichActivities(ctx, h.db, []domain.Activity{activity}, request.UserID)
	if err != nil {
		return ActivityView{}, core.NewCommandError(500, err)
	}

	return views[0], nil
}

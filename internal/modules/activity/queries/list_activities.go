package queries

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/padrededios/stepzy-sub002/internal/modules/activity/domain"
	"github.com/padrededios/stepzy-sub002/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ListActivitiesQuery struct {
	Sport  string
	Page   int
	Size   int
	UserID uuid.UUID
}

func (q ListActivitiesQuery) Validate() error {
	if q.Sport != "" && !domain.ValidSport(q.Sport) {
		return fmt.Errorf("invalid sport - '%s'", q.Sport)
	}

	if q.Page < 0 {
		return fmt.Errorf("invalid page - %d", q.Page)
	}

	return nil
}

func HandleListActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	query := ListActivitiesQuery{
		Sport:  r.URL.Query().Get("sport"),
		Page:   page,
		Size:   size,
		UserID: core.Session(ctx).UserID,
	}

	response, err := mediator.Send[ListActivitiesQuery, []ActivityView](ctx, query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type ListActivitiesQueryHandler struct {
	db *sql.DB
}

func NewListActivitiesQueryHandler(db *sql.DB) *ListActivitiesQueryHandler {
	return &ListActivitiesQueryHandler{db}
}

func (h *ListActivitiesQueryHandler) Handle(
	ctx context.Context,
	request ListActivitiesQuery,
) ([]ActivityView, error) {
	size := request.Size
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	offset := request.Page * size

	var activities []domain.Activity
	var err error

	if request.Sport != "" {
		const filteredQuery = `
			SELECT
				*
			FROM
				activities
			WHERE
				is_public = true AND sport = $1
			ORDER BY
				created_at DESC
			LIMIT $2 OFFSET $3;`

		activities, err = tql.Query[domain.Activity](ctx, h.db, filteredQuery, request.Sport, size, offset)
	} else {
		const query = `
			SELECT
				*
			FROM
				activities
			WHERE
				is_public = true
			ORDER BY
				created_at DESC
			LIMIT $1 OFFSET $2;`

		activities, err = tql.Query[domain.Activity](ctx, h.db, query, size, offset)
	}

	if err != nil {
		return nil, core.NewCommandError(500, err)
	}

	views, err := enrichActivities(ctx, h.db, activities, request.UserID)
	if err != nil {
		return nil, core.NewCommandError(500, err)
	}

	return views, nil
}

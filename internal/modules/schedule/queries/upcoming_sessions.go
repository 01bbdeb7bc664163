package queries

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
	"github.com/lib/pq"
)

type GetUpcomingSessionsQuery struct {
	UserID uuid.UUID
}

// SessionView is an upcoming session enriched with its activity header,
// live participant counts, and the requesting user's own status.
type SessionView struct {
	Session               domain.Session `json:"session"`
	ActivityName          string         `json:"activityName"`
	Sport                 string         `json:"sport"`
	ConfirmedParticipants int            `json:"confirmedParticipants"`
	TotalParticipants     int            `json:"totalParticipants"`
	UserStatus            string         `json:"userStatus,omitempty"`
}

func HandleGetUpcomingSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := GetUpcomingSessionsQuery{UserID: core.Session(ctx).UserID}

	response, err := mediator.Send[GetUpcomingSessionsQuery, []SessionView](ctx, query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetUpcomingSessionsQueryHandler struct {
	db *sql.DB
}

func NewGetUpcomingSessionsQueryHandler(db *sql.DB) *GetUpcomingSessionsQueryHandler {
	return &GetUpcomingSessionsQueryHandler{db}
}

type activityHeader struct {
	ID    uuid.UUID `db:"id"`
	Name  string    `db:"name"`
	Sport string    `db:"sport"`
}

type participantCounts struct {
	SessionID uuid.UUID `db:"session_id"`
	Total     int       `db:"total"`
	Confirmed int       `db:"confirmed"`
}

type userStatusRow struct {
	SessionID uuid.UUID `db:"session_id"`
	Status    string    `db:"status"`
}

// Handle lists the future sessions of every activity the user
// subscribes to, soonest first.
func (h *GetUpcomingSessionsQueryHandler) Handle(
	ctx context.Context,
	request GetUpcomingSessionsQuery,
) ([]SessionView, error) {
	const sessionsQuery = `
		SELECT
			s.*
		FROM
			activity_sessions s
		INNER JOIN
			activity_subscriptions sub ON sub.activity_id = s.activity_id
		WHERE
			sub.user_id = $1 AND s.date > $2 AND NOT s.is_cancelled
		ORDER BY
			s.date ASC;`

	sessions, err := tql.Query[domain.Session](ctx, h.db, sessionsQuery, request.UserID, time.Now().UTC())
	if err != nil {
		return nil, core.NewCommandError(500, err)
	}

	if len(sessions) == 0 {
		return []SessionView{}, nil
	}

	sessionIDs := core.Map(sessions, func(s domain.Session) uuid.UUID { return s.ID })
	activityIDs := core.Map(sessions, func(s domain.Session) uuid.UUID { return s.ActivityID })

	const activitiesQuery = `
		SELECT
			id, name, sport
		FROM
			activities
		WHERE
			id = ANY($1);`

	headers, err := tql.Query[activityHeader](ctx, h.db, activitiesQuery, pq.Array(activityIDs))
	if err != nil {
		return nil, core.NewCommandError(500, err)
	}

	headersByID := make(map[uuid.UUID]activityHeader, len(headers))
	for _, header := range headers {
		headersByID[header.ID] = header
	}

	const countsQuery = `
		SELECT
			session_id,
			count(id) AS total,
			count(id) FILTER (WHERE status = 'confirmed') AS confirmed
		FROM
			activity_participants
		WHERE
			session_id = ANY($1)
		GROUP BY
			session_id;`

	counts, err := tql.Query[participantCounts](ctx, h.db, countsQuery, pq.Array(sessionIDs))
	if err != nil {
		return nil, core.NewCommandError(500, err)
	}

	countsBySession := make(map[uuid.UUID]participantCounts, len(counts))
	for _, count := range counts {
		countsBySession[count.SessionID] = count
	}

	const userStatusQuery = `
		SELECT
			session_id, status
		FROM
			activity_participants
		WHERE
			user_id = $1 AND session_id = ANY($2);`

	statuses, err := tql.Query[userStatusRow](ctx, h.db, userStatusQuery, request.UserID, pq.Array(sessionIDs))
	if err != nil {
		return nil, core.NewCommandError(500, err)
	}

	statusBySession := make(map[uuid.UUID]string, len(statuses))
	for _, status := range statuses {
		statusBySession[status.SessionID] = status.Status
	}

	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		header := headersByID[session.ActivityID]
		count := countsBySession[session.ID]

		views = append(views, SessionView{
			Session:               session,
			ActivityName:          header.Name,
			Sport:                 header.Sport,
			ConfirmedParticipants: count.Confirmed,
			TotalParticipants:     count.Total,
			UserStatus:            statusBySession[session.ID],
		})
	}

	return views, nil
}

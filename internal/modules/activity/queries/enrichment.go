package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/padrededios/stepzy-sub002/internal/modules/activity/domain"
	"github.com/padrededios/stepzy-sub002/internal/modules/core"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ActivityStats are the derived counters list and detail views show next
// to the raw template. They are recomputed on every request.
type ActivityStats struct {
	UpcomingSessionsCount int        `json:"upcomingSessionsCount"`
	TotalSessionsCount    int        `json:"totalSessionsCount"`
	NextSessionDate       *time.Time `json:"nextSessionDate,omitempty"`
}

// UserStatus cross-references the requesting user against the activity's
// subscription and participant sets.
type UserStatus struct {
	IsSubscribed        bool   `json:"isSubscribed"`
	IsParticipant       bool   `json:"isParticipant"`
	ParticipationStatus string `json:"participationStatus,omitempty"`
}

type ActivityView struct {
	domain.Activity
	Stats      ActivityStats `json:"stats"`
	UserStatus UserStatus    `json:"userStatus"`
}

type sessionAggregate struct {
	ActivityID       uuid.UUID  `db:"activity_id"`
	TotalSessions    int        `db:"total_sessions"`
	UpcomingSessions int        `db:"upcoming_sessions"`
	NextSessionDate  *time.Time `db:"next_session_date"`
}

type userParticipation struct {
	ActivityID uuid.UUID `db:"activity_id"`
	Status     string    `db:"status"`
}

// enrichActivities projects derived stats and the requesting user's
// status over a page of activities. A nil user id (unauthenticated
// request) yields empty user statuses.
func enrichActivities(
	ctx context.Context,
	db *sql.DB,
	activities []domain.Activity,
	userID uuid.UUID,
) ([]ActivityView, error) {
	if len(activities) == 0 {
		return []ActivityView{}, nil
	}

	activityIDs := core.Map(activities, func(a domain.Activity) uuid.UUID {
		return a.ID
	})

	now := time.Now().UTC()

	const aggregatesQuery = `
		SELECT
			activity_id,
			count(id) AS total_sessions,
			count(id) FILTER (WHERE date > $1 AND NOT is_cancelled) AS upcoming_sessions,
			min(date) FILTER (WHERE date > $1 AND NOT is_cancelled) AS next_session_date
		FROM
			activity_sessions
		WHERE
			activity_id = ANY($2)
		GROUP BY
			activity_id;`

	aggregates, err := tql.Query[sessionAggregate](ctx, db, aggregatesQuery, now, pq.Array(activityIDs))
	if err != nil {
		return nil, err
	}

	statsByActivity := make(map[uuid.UUID]ActivityStats, len(aggregates))
	for _, aggregate := range aggregates {
		statsByActivity[aggregate.ActivityID] = ActivityStats{
			UpcomingSessionsCount: aggregate.UpcomingSessions,
			TotalSessionsCount:    aggregate.TotalSessions,
			NextSessionDate:       aggregate.NextSessionDate,
		}
	}

	subscribed := make(map[uuid.UUID]bool)
	participationByActivity := make(map[uuid.UUID]string)

	if userID != uuid.Nil {
		const subscriptionsQuery = `
			SELECT
				activity_id
			FROM
				activity_subscriptions
			WHERE
				user_id = $1 AND activity_id = ANY($2);`

		subscribedIDs, err := tql.Query[uuid.UUID](ctx, db, subscriptionsQuery, userID, pq.Array(activityIDs))
		if err != nil {
			return nil, err
		}

		for _, id := range subscribedIDs {
			subscribed[id] = true
		}

		const participationsQuery = `
			SELECT
				s.activity_id AS activity_id,
				p.status AS status
			FROM
				activity_participants p
			INNER JOIN
				activity_sessions s ON s.id = p.session_id
			WHERE
				p.user_id = $1 AND s.activity_id = ANY($2) AND s.date > $3 AND NOT s.is_cancelled;`

		participations, err := tql.Query[userParticipation](ctx, db, participationsQuery, userID, pq.Array(activityIDs), now)
		if err != nil {
			return nil, err
		}

		for _, participation := range participations {
			participationByActivity[participation.ActivityID] = participation.Status
		}
	}

	views := make([]ActivityView, 0, len(activities))
	for _, activity := range activities {
		status, isParticipant := participationByActivity[activity.ID]

		views = append(views, ActivityView{
			Activity: activity,
			Stats:    statsByActivity[activity.ID],
			UserStatus: UserStatus{
				IsSubscribed:        subscribed[activity.ID],
				IsParticipant:       isParticipant,
				ParticipationStatus: status,
			},
		})
	}

	return views, nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Session is one concrete dated occurrence of an activity. MaxPlayers is
// a snapshot taken at generation time and may diverge from the activity's
// current capacity when the owner edits a single session.
type Session struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ActivityID  uuid.UUID `db:"activity_id" json:"activityId"`
	Date        time.Time `db:"date" json:"date"`
	MaxPlayers  int       `db:"max_players" json:"maxPlayers"`
	Status      string    `db:"status" json:"status"`
	IsCancelled bool      `db:"is_cancelled" json:"isCancelled"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

func NewSession(activityID uuid.UUID, date time.Time, maxPlayers int) Session {
	now := time.Now().UTC()

	return Session{
		ID:         uuid.New(),
		ActivityID: activityID,
		Date:       date,
		MaxPlayers: maxPlayers,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s Session) Joinable(now time.Time) bool {
	return !s.IsCancelled && s.Status == StatusActive && s.Date.After(now)
}

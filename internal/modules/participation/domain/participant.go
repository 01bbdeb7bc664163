package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusInterested = "interested"
	StatusConfirmed  = "confirmed"
	StatusWaiting    = "waiting"
)

// Participant is a user's attachment to one session. A user has at most
// one participation record per session; joined_at ordering defines the
// waitlist priority.
type Participant struct {
	ID        uuid.UUID `db:"id" json:"id"`
	SessionID uuid.UUID `db:"session_id" json:"sessionId"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Status    string    `db:"status" json:"status"`
	JoinedAt  time.Time `db:"joined_at" json:"joinedAt"`
}

func NewParticipant(sessionID, userID uuid.UUID, status string) Participant {
	return Participant{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		Status:    status,
		JoinedAt:  time.Now().UTC(),
	}
}

// DecideStatus returns the status a new joiner receives: confirmed while
// capacity remains, waiting once the confirmed set is full.
func DecideStatus(confirmedCount, maxPlayers int) string {
	if confirmedCount < maxPlayers {
		return StatusConfirmed
	}
	return StatusWaiting
}

// NextInLine returns the earliest joined waiting participant, the one a
// freed confirmed slot promotes.
func NextInLine(participants []Participant) (Participant, bool) {
	var next Participant
	found := false

	for _, p := range participants {
		if p.Status != StatusWaiting {
			continue
		}

		if !found || p.JoinedAt.Before(next.JoinedAt) {
			next = p
			found = true
		}
	}

	return next, found
}

type Stats struct {
	ConfirmedCount int `json:"confirmedCount"`
	WaitingCount   int `json:"waitingCount"`
	TotalCount     int `json:"totalCount"`
	AvailableSpots int `json:"availableSpots"`
	MaxPlayers     int `json:"maxPlayers"`
}

func ComputeStats(participants []Participant, maxPlayers int) Stats {
	stats := Stats{MaxPlayers: maxPlayers, TotalCount: len(participants)}

	for _, p := range participants {
		switch p.Status {
		case StatusConfirmed:
			stats.ConfirmedCount++
		case StatusWaiting:
			stats.WaitingCount++
		}
	}

	stats.AvailableSpots = maxPlayers - stats.ConfirmedCount
	if stats.AvailableSpots < 0 {
		stats.AvailableSpots = 0
	}

	return stats
}

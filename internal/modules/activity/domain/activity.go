package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	SportFootball  = "football"
	SportBadminton = "badminton"
	SportVolley    = "volley"
	SportPingPong  = "ping_pong"
	SportRugby     = "rugby"
)

const (
	RecurringWeekly  = "weekly"
	RecurringMonthly = "monthly"
)

// JoinCodeLength is the length of the unique code users share to find
// a private activity.
const JoinCodeLength = 8

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Activity is a recurring template describing a sport, schedule pattern,
// and capacity. Concrete dated sessions are materialized from it by the
// schedule module.
type Activity struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Description   string         `db:"description" json:"description"`
	Sport         string         `db:"sport" json:"sport"`
	MinPlayers    int            `db:"min_players" json:"minPlayers"`
	MaxPlayers    int            `db:"max_players" json:"maxPlayers"`
	CreatedBy     uuid.UUID      `db:"created_by" json:"createdBy"`
	IsPublic      bool           `db:"is_public" json:"isPublic"`
	RecurringDays pq.StringArray `db:"recurring_days" json:"recurringDays"`
	RecurringType string         `db:"recurring_type" json:"recurringType"`
	StartTime     string         `db:"start_time" json:"startTime"`
	EndTime       string         `db:"end_time" json:"endTime"`
	Code          string         `db:"code" json:"code"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// Subscription is a user's standing follow-relationship to an activity,
// distinct from per-session participation.
type Subscription struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ActivityID uuid.UUID `db:"activity_id" json:"activityId"`
	UserID     uuid.UUID `db:"user_id" json:"userId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

func ValidSport(sport string) bool {
	switch sport {
	case SportFootball, SportBadminton, SportVolley, SportPingPong, SportRugby:
		return true
	}
	return false
}

func ValidRecurringType(recurringType string) bool {
	return recurringType == RecurringWeekly || recurringType == RecurringMonthly
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(day string) (time.Weekday, error) {
	if weekday, ok := weekdays[day]; ok {
		return weekday, nil
	}

	return time.Sunday, fmt.Errorf("invalid weekday - '%s'", day)
}

// ParseWeekdays maps the stored recurring day names onto time.Weekday
// values, rejecting unknown names and an empty set.
func ParseWeekdays(days []string) ([]time.Weekday, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("recurring days must not be empty")
	}

	seen := make(map[time.Weekday]struct{}, len(days))
	result := make([]time.Weekday, 0, len(days))
	for _, day := range days {
		weekday, err := ParseWeekday(day)
		if err != nil {
			return nil, err
		}

		if _, duplicate := seen[weekday]; duplicate {
			continue
		}

		seen[weekday] = struct{}{}
		result = append(result, weekday)
	}

	return result, nil
}

func ValidTimeOfDay(value string) bool {
	return timeOfDayPattern.MatchString(value)
}

const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewJoinCode returns a random 8 character code users can share to join
// an activity. The alphabet omits easily confused characters.
func NewJoinCode() (string, error) {
	code := make([]byte, JoinCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(joinCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}

	return string(code), nil
}

// NewActivity validates the template invariants and builds a persistable
// activity owned by the given user.
func NewActivity(
	name string,
	description string,
	sport string,
	minPlayers int,
	maxPlayers int,
	isPublic bool,
	recurringDays []string,
	recurringType string,
	startTime string,
	endTime string,
	createdBy uuid.UUID,
) (Activity, error) {
	if name == "" {
		return Activity{}, fmt.Errorf("activity name must not be empty")
	}

	if !ValidSport(sport) {
		return Activity{}, fmt.Errorf("invalid sport - '%s'", sport)
	}

	if minPlayers < 1 {
		return Activity{}, fmt.Errorf("min players must be at least 1")
	}

	if minPlayers > maxPlayers {
		return Activity{}, fmt.Errorf("min players must not exceed max players")
	}

	if !ValidRecurringType(recurringType) {
		return Activity{}, fmt.Errorf("invalid recurring type - '%s'", recurringType)
	}

	if _, err := ParseWeekdays(recurringDays); err != nil {
		return Activity{}, err
	}

	if !ValidTimeOfDay(startTime) {
		return Activity{}, fmt.Errorf("invalid start time - '%s'", startTime)
	}

	if !ValidTimeOfDay(endTime) {
		return Activity{}, fmt.Errorf("invalid end time - '%s'", endTime)
	}

	code, err := NewJoinCode()
	if err != nil {
		return Activity{}, err
	}

	now := time.Now().UTC()

	return Activity{
		ID:            uuid.New(),
		Name:          name,
		Description:   description,
		Sport:         sport,
		MinPlayers:    minPlayers,
		MaxPlayers:    maxPlayers,
		CreatedBy:     createdBy,
		IsPublic:      isPublic,
		RecurringDays: recurringDays,
		RecurringType: recurringType,
		StartTime:     startTime,
		EndTime:       endTime,
		Code:          code,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

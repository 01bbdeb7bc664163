package domain

import (
	"fmt"
	"sort"
	"time"
)

// Sessions carry a date, not a time of day. Generated occurrences are
// pinned to noon UTC so they sort predictably and never shift across a
// day boundary in common timezones. The activity's displayed start time
// is presentation metadata and does not move the materialized instant.
const occurrenceHour = 12

// Expand materializes the occurrence dates of a recurrence pattern
// inside the window [from, from + weeksAhead weeks).
func Expand(recurringType string, weekdays []time.Weekday, from time.Time, weeksAhead int) ([]time.Time, error) {
	if weeksAhead < 1 {
		return nil, fmt.Errorf("weeks ahead must be positive - got %d", weeksAhead)
	}

	if len(weekdays) == 0 {
		return nil, fmt.Errorf("recurrence requires at least one weekday")
	}

	switch recurringType {
	case "weekly":
		return expandWeekly(weekdays, from, weeksAhead), nil
	case "monthly":
		return expandMonthly(weekdays, from, weeksAhead), nil
	default:
		return nil, fmt.Errorf("invalid recurring type - '%s'", recurringType)
	}
}

// expandWeekly advances each configured weekday to its first match on or
// after the window start, then steps in 7 day increments until the
// horizon is reached.
func expandWeekly(weekdays []time.Weekday, from time.Time, weeksAhead int) []time.Time {
	start := dayStart(from)
	horizon := start.AddDate(0, 0, 7*weeksAhead)

	var occurrences []time.Time
	for _, weekday := range weekdays {
		for day := firstWeekdayOnOrAfter(start, weekday); day.Before(horizon); day = day.AddDate(0, 0, 7) {
			occurrences = append(occurrences, atOccurrenceHour(day))
		}
	}

	sortOccurrences(occurrences)
	return occurrences
}

// expandMonthly yields the first occurrence of each configured weekday
// per calendar month touched by the window. "Second Tuesday" style rules
// are deliberately not expressible.
func expandMonthly(weekdays []time.Weekday, from time.Time, weeksAhead int) []time.Time {
	start := dayStart(from)
	horizon := start.AddDate(0, 0, 7*weeksAhead)

	var occurrences []time.Time
	for _, weekday := range weekdays {
		month := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !month.After(horizon) {
			day := firstWeekdayOnOrAfter(month, weekday)
			if !day.Before(start) && day.Before(horizon) {
				occurrences = append(occurrences, atOccurrenceHour(day))
			}
			month = month.AddDate(0, 1, 0)
		}
	}

	sortOccurrences(occurrences)
	return occurrences
}

func firstWeekdayOnOrAfter(day time.Time, weekday time.Weekday) time.Time {
	offset := (int(weekday) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, offset)
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func atOccurrenceHour(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), occurrenceHour, 0, 0, 0, time.UTC)
}

func sortOccurrences(occurrences []time.Time) {
	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].Before(occurrences[j])
	})
}

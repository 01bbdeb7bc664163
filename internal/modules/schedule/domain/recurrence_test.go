package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func noon(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func Test_Expand_Weekly_Two_Weeks_Monday_Wednesday(t *testing.T) {
	// Arrange
	from := date(2024, time.January, 1) // a Monday

	// Act
	occurrences, err := Expand("weekly", []time.Weekday{time.Monday, time.Wednesday}, from, 2)

	// Assert
	require.NoError(t, err)
	require.Equal(t, []time.Time{
		noon(2024, time.January, 1),
		noon(2024, time.January, 3),
		noon(2024, time.January, 8),
		noon(2024, time.January, 10),
	}, occurrences)
}

func Test_Expand_Weekly_Starts_At_First_Matching_Weekday(t *testing.T) {
	// Arrange
	from := date(2024, time.January, 2) // a Tuesday

	// Act
	occurrences, err := Expand("weekly", []time.Weekday{time.Monday}, from, 1)

	// Assert
	require.NoError(t, err)
	require.Equal(t, []time.Time{noon(2024, time.January, 8)}, occurrences)
}

func Test_Expand_Weekly_Is_Stable_Across_Calls(t *testing.T) {
	// Arrange
	from := date(2024, time.March, 15)

	// Act
	first, err := Expand("weekly", []time.Weekday{time.Friday, time.Sunday}, from, 3)
	require.NoError(t, err)

	second, err := Expand("weekly", []time.Weekday{time.Friday, time.Sunday}, from, 3)
	require.NoError(t, err)

	// Assert
	require.Equal(t, first, second)
}

func Test_Expand_Monthly_Yields_First_Weekday_Occurrence_Per_Month(t *testing.T) {
	// Arrange
	from := date(2024, time.January, 1)

	// Act
	occurrences, err := Expand("monthly", []time.Weekday{time.Tuesday}, from, 6)

	// Assert
	require.NoError(t, err)
	// First Tuesday of January and February 2024. The six week horizon
	// ends 2024-02-12, so March's occurrence is out of range.
	require.Equal(t, []time.Time{
		noon(2024, time.January, 2),
		noon(2024, time.February, 6),
	}, occurrences)
}

func Test_Expand_Monthly_Skips_Occurrence_Before_Window_Start(t *testing.T) {
	// Arrange
	// 2024-01-10 is after the first Tuesday of January (Jan 2).
	from := date(2024, time.January, 10)

	// Act
	occurrences, err := Expand("monthly", []time.Weekday{time.Tuesday}, from, 4)

	// Assert
	require.NoError(t, err)
	require.Equal(t, []time.Time{noon(2024, time.February, 6)}, occurrences)
}

func Test_Expand_Rejects_Unknown_Recurring_Type(t *testing.T) {
	// Act
	_, err := Expand("daily", []time.Weekday{time.Monday}, date(2024, time.January, 1), 2)

	// Assert
	require.Error(t, err)
}

func Test_Expand_Rejects_Empty_Weekday_Set(t *testing.T) {
	// Act
	_, err := Expand("weekly", nil, date(2024, time.January, 1), 2)

	// Assert
	require.Error(t, err)
}

func Test_Expand_Rejects_Non_Positive_Horizon(t *testing.T) {
	// Act
	_, err := Expand("weekly", []time.Weekday{time.Monday}, date(2024, time.January, 1), 0)

	// Assert
	require.Error(t, err)
}

func Test_Session_Joinable(t *testing.T) {
	now := time.Now().UTC()

	// Arrange
	session := NewSession(uuid.New(), now.Add(24*time.Hour), 10)

	// Assert
	require.True(t, session.Joinable(now))

	session.IsCancelled = true
	require.False(t, session.Joinable(now))

	session.IsCancelled = false
	session.Date = now.Add(-time.Hour)
	require.False(t, session.Joinable(now))
}

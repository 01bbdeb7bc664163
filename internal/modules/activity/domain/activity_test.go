package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_NewActivity_Builds_Valid_Activity(t *testing.T) {
	// Act
	activity, err := NewActivity(
		"Football du mardi",
		"Weekly football",
		SportFootball,
		2,
		10,
		true,
		[]string{"tuesday"},
		RecurringWeekly,
		"18:00",
		"19:30",
		uuid.New(),
	)

	// Assert
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, activity.ID)
	require.Len(t, activity.Code, JoinCodeLength)
	require.Equal(t, SportFootball, activity.Sport)
}

func Test_NewActivity_Rejects_Empty_Recurring_Days(t *testing.T) {
	// Act
	_, err := NewActivity(
		"Football",
		"",
		SportFootball,
		2,
		10,
		true,
		nil,
		RecurringWeekly,
		"18:00",
		"19:30",
		uuid.New(),
	)

	// Assert
	require.Error(t, err)
}

func Test_NewActivity_Rejects_Min_Players_Above_Max(t *testing.T) {
	// Act
	_, err := NewActivity(
		"Football",
		"",
		SportFootball,
		11,
		10,
		true,
		[]string{"monday"},
		RecurringWeekly,
		"18:00",
		"19:30",
		uuid.New(),
	)

	// Assert
	require.Error(t, err)
}

func Test_NewActivity_Rejects_Unknown_Sport(t *testing.T) {
	// Act
	_, err := NewActivity(
		"Chess",
		"",
		"chess",
		2,
		2,
		true,
		[]string{"monday"},
		RecurringWeekly,
		"18:00",
		"19:30",
		uuid.New(),
	)

	// Assert
	require.Error(t, err)
}

func Test_NewActivity_Rejects_Malformed_Time_Of_Day(t *testing.T) {
	// Act
	_, err := NewActivity(
		"Football",
		"",
		SportFootball,
		2,
		10,
		true,
		[]string{"monday"},
		RecurringWeekly,
		"25:00",
		"19:30",
		uuid.New(),
	)

	// Assert
	require.Error(t, err)
}

func Test_ParseWeekdays_Maps_Names_And_Drops_Duplicates(t *testing.T) {
	// Act
	days, err := ParseWeekdays([]string{"monday", "wednesday", "monday"})

	// Assert
	require.NoError(t, err)
	require.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, days)
}

func Test_ParseWeekdays_Rejects_Unknown_Name(t *testing.T) {
	// Act
	_, err := ParseWeekdays([]string{"funday"})

	// Assert
	require.Error(t, err)
}

func Test_NewJoinCode_Generates_Distinct_Codes(t *testing.T) {
	// Act
	first, err := NewJoinCode()
	require.NoError(t, err)

	second, err := NewJoinCode()
	require.NoError(t, err)

	// Assert
	require.Len(t, first, JoinCodeLength)
	require.NotEqual(t, first, second)
}

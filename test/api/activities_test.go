package main

import (
	"fmt"
	"net/http"
	"testing"

	activitycommands "github.com/padrededios/stepzy-sub002/internal/modules/activity/commands"
	activitydomain "github.com/padrededios/stepzy-sub002/internal/modules/activity/domain"
	activityqueries "github.com/padrededios/stepzy-sub002/internal/modules/activity/queries"

	"github.com/stretchr/testify/require"
)

var allWeekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func createActivity(t *testing.T, user testUser, maxPlayers int) activitycommands.CreateActivityResponse {
	createCommand := activitycommands.CreateActivityCommand{
		Name:          fmt.Sprintf("five-a-side %s", user.id),
		Description:   "weekly kickabout",
		Sport:         activitydomain.SportFootball,
		MinPlayers:    1,
		MaxPlayers:    maxPlayers,
		IsPublic:      true,
		RecurringDays: allWeekdays,
		RecurringType: activitydomain.RecurringWeekly,
		StartTime:     "18:00",
		EndTime:       "20:00",
	}

	response, err := sendAuthenticatedRequest[activitycommands.CreateActivityCommand, activitycommands.CreateActivityResponse](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/activities"),
		http.MethodPost,
		user.cookie,
		createCommand,
		func(resp *http.Response) { require.Equal(t, http.StatusCreated, resp.StatusCode) },
	)
	require.NoError(t, err)

	return response
}

func Test_CreateActivity_Creates_Activity_And_Generates_Sessions(t *testing.T) {
	// Arrange
	user := registerAndLogin(t)

	// Act
	response := createActivity(t, user, 10)

	// Assert
	require.NotEmpty(t, response.Activity.ID)
	require.Equal(t, user.id, response.Activity.CreatedBy)
	require.Len(t, response.Activity.Code, activitydomain.JoinCodeLength)

	// Daily recurrence over a two week horizon materializes a session
	// for every remaining day in the window.
	require.NotEmpty(t, response.Sessions)
	for _, session := range response.Sessions {
		require.Equal(t, response.Activity.ID, session.ActivityID)
		require.Equal(t, 10, session.MaxPlayers)
	}
}

func Test_CreateActivity_Returns_400_When_Times_Invalid(t *testing.T) {
	// Arrange
	user := registerAndLogin(t)

	createCommand := activitycommands.CreateActivityCommand{
		Name:          "late night game",
		Sport:         activitydomain.SportBadminton,
		MinPlayers:    2,
		MaxPlayers:    4,
		IsPublic:      true,
		RecurringDays: []string{"monday"},
		RecurringType: activitydomain.RecurringWeekly,
		StartTime:     "25:00",
		EndTime:       "26:00",
	}

	// Act
	_, err := sendAuthenticatedRequest[activitycommands.CreateActivityCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/activities"),
		http.MethodPost,
		user.cookie,
		createCommand,
		func(resp *http.Response) {
			// Assert
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		},
	)
	require.NoError(t, err)
}

func Test_ListActivities_Returns_Enriched_Views(t *testing.T) {
	// Arrange
	user := registerAndLogin(t)
	created := createActivity(t, user, 8)

	// Act
	views, err := sendAuthenticatedRequest[any, []activityqueries.ActivityView](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/activities"),
		http.MethodGet,
		user.cookie,
		nil,
		func(resp *http.Response) { require.Equal(t, http.StatusOK, resp.StatusCode) },
	)

	// Assert
	require.NoError(t, err)
	require.NotEmpty(t, views)

	var found *activityqueries.ActivityView
	for i := range views {
		if views[i].Activity.ID == created.Activity.ID {
			found = &views[i]
			break
		}
	}

	require.NotNil(t, found)
	require.Greater(t, found.Stats.TotalSessionsCount, 0)
	require.NotNil(t, found.Stats.NextSessionDate)
	require.False(t, found.UserStatus.IsSubscribed)
}

func Test_UpdateActivity_Returns_400_When_Not_Owner(t *testing.T) {
	// Arrange
	owner := registerAndLogin(t)
	other := registerAndLogin(t)
	created := createActivity(t, owner, 8)

	updateCommand := activitycommands.UpdateActivityCommand{
		Name:        "hijacked",
		Description: "",
		MinPlayers:  1,
		MaxPlayers:  8,
	}

	// Act
	_, err := sendAuthenticatedRequest[activitycommands.UpdateActivityCommand, any](
		fixture.client,
		fmt.Sprintf("%s/activities/%s", fixture.baseURL, created.Activity.ID),
		http.MethodPut,
		other.cookie,
		updateCommand,
		func(resp *http.Response) {
			// Assert
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		},
	)
	require.NoError(t, err)
}

func Test_Subscribe_Then_Unsubscribe(t *testing.T) {
	// Arrange
	owner := registerAndLogin(t)
	subscriber := registerAndLogin(t)
	created := createActivity(t, owner, 8)

	subscriptionsURL := fmt.Sprintf("%s/activities/%s/subscriptions", fixture.baseURL, created.Activity.ID)

	// Act
	subscription, err := sendAuthenticatedRequest[any, activitydomain.Subscription](
		fixture.client,
		subscriptionsURL,
		http.MethodPost,
		subscriber.cookie,
		nil,
		func(resp *http.Response) { require.Equal(t, http.StatusOK, resp.StatusCode) },
	)
	require.NoError(t, err)

	// Assert
	require.Equal(t, created.Activity.ID, subscription.ActivityID)
	require.Equal(t, subscriber.id, subscription.UserID)

	// Subscribing twice is rejected.
	_, err = sendAuthenticatedRequest[any, any](
		fixture.client,
		subscriptionsURL,
		http.MethodPost,
		subscriber.cookie,
		nil,
		func(resp *http.Response) { require.Equal(t, http.StatusBadRequest, resp.StatusCode) },
	)
	require.NoError(t, err)

	_, err = sendAuthenticatedRequest[any, any](
		fixture.client,
		subscriptionsURL,
		http.MethodDelete,
		subscriber.cookie,
		nil,
		func(resp *http.Response) { require.Equal(t, http.StatusOK, resp.StatusCode) },
	)
	require.NoError(t, err)

	// Unsubscribing again is rejected as well.
	_, err = sendAuthenticatedRequest[any, any](
		fixture.client,
		subscriptionsURL,
		http.MethodDelete,
		subscriber.cookie,
		nil,
		func(resp *http.Response) { require.Equal(t, http.StatusBadRequest, resp.StatusCode) },
	)
	require.NoError(t, err)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	activitycommands "github.com/padrededios/stepzy-sub002/internal/modules/activity/commands"
	participationcommands "github.com/padrededios/stepzy-sub002/internal/modules/participation/commands"
	participationdomain "github.com/padrededios/stepzy-sub002/internal/modules/participation/domain"
	participationqueries "github.com/padrededios/stepzy-sub002/internal/modules/participation/queries"
	scheduledomain "github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// futureSession picks the furthest-out generated session so join
// preconditions on the session date always hold during the test run.
func futureSession(t *testing.T, response activitycommands.CreateActivityResponse) scheduledomain.Session {
	require.NotEmpty(t, response.Sessions)
	return response.Sessions[len(response.Sessions)-1]
}

func joinSession(t *testing.T, user testUser, sessionID uuid.UUID, wantStatus int) participationcommands.JoinSessionResponse {
	response, err := sendAuthenticatedRequest[any, participationcommands.JoinSessionResponse](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/participants", fixture.baseURL, sessionID),
		http.MethodPost,
		user.cookie,
		nil,
		func(resp *http.Response) { require.Equal(t, wantStatus, resp.StatusCode) },
	)
	require.NoError(t, err)

	return response
}

func Test_JoinSession_Confirms_While_Capacity_Remains(t *testing.T) {
	// Arrange
	owner := registerAndLogin(t)
	created := createActivity(t, owner, 2)
	session := futureSession(t, created)

	// Act
	response := joinSession(t, owner, session.ID, http.StatusOK)

	// Assert
	require.Equal(t, participationdomain.StatusConfirmed, response.Participation.Status)
	require.Equal(t, owner.id, response.Participation.UserID)
	require.Equal(t, 1, response.SessionStats.ConfirmedCount)
	require.Equal(t, 1, response.SessionStats.AvailableSpots)
}

func Test_JoinSession_Waitlists_When_Session_Full(t *testing.T) {
	// Arrange
	owner := registerAndLogin(t)
	second := registerAndLogin(t)
	created := createActivity(t, owner, 1)
	session := futureSession(t, created)

	joinSession(t, owner, session.ID, http.StatusOK)

	// Act
	response := joinSession(t, second, session.ID, http.StatusOK)

	// Assert
	require.Equal(t, participationdomain.StatusWaiting, response.Participation.Status)
	require.Equal(t, 1, response.SessionStats.ConfirmedCount)
	require.Equal(t, 1, response.SessionStats.WaitingCount)
	require.Equal(t, 0, response.SessionStats.AvailableSpots)
}

func Test_JoinSession_Returns_400_When_Already_Joined(t *testing.T) {
	// Arrange
	owner := registerAndLogin(t)
	created := createActivity(t, owner, 5)
	session := futureSession(t, created)

	joinSession(t, owner, session.ID, http.StatusOK)

	// Act, Assert
	joinSession(t, owner, session.ID, http.StatusBadRequest)
}

func Test_LeaveSession_Promotes_First_Waiting_Participant(t *testing.T) {
	// Arrange
	owner := registerAndLogin(t)
	waiting := registerAndLogin(t)
	created := createActivity(t, owner, 1)
	session := futureSession(t, created)

	joinSession(t, owner, session.ID, http.StatusOK)
	joinSession(t, waiting, session.ID, http.StatusOK)

	// Act
	response, err := sendAuthenticatedRequest[any, participationcommands.LeaveSessionResponse](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/participants", fixture.baseURL, session.ID),
		http.MethodDelete,
		owner.cookie,
		nil,
		func(resp *http.Response) { require.Equal(t, http.StatusOK, resp.StatusCode) },
	)
	require.NoError(t, err)

	// Assert
	require.Equal(t, 1, response.SessionStats.ConfirmedCount)
	require.Equal(t, 0, response.SessionStats.WaitingCount)

	status, err := tql.QuerySingle[string](
		context.Background(),
		fixture.db,
		`SELECT status FROM activity_participants WHERE session_id = $1 AND user_id = $2;`,
		session.ID,
		waiting.id,
	)
	require.NoError(t, err)
	require.Equal(t, participationdomain.StatusConfirmed, status)
}

func Test_LeaveSession_Does_Not_Promote_When_Waiting_Participant_Leaves(t *testing.T) {
	// Arrange
	owner := registerAndLogin(t)
	firstWaiter := registerAndLogin(t)
	secondWaiter := registerAndLogin(t)
	created := createActivity(t, owner, 1)
	session := futureSession(t, created)

	joinSession(t, owner, session.ID, http.StatusOK)
	joinSession(t, firstWaiter, session.ID, http.StatusOK)
	joinSession(t, secondWaiter, session.ID, http.StatusOK)

	// Act
	response, err := sendAuthenticatedRequest[any, participationcommands.LeaveSessionResponse](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/participants", fixture.baseURL, session.ID),
		http.MethodDelete,
		firstWaiter.cookie,
		nil,
		func(resp *http.Response) { require.Equal(t, http.StatusOK, resp.StatusCode) },
	)
	require.NoError(t, err)

	// Assert
	// No confirmed slot freed up, so nobody moves off the waitlist.
	require.Equal(t, 1, response.SessionStats.ConfirmedCount)
	require.Equal(t, 1, response.SessionStats.WaitingCount)

	ownerStatus, err := tql.QuerySingle[string](
		context.Background(),
		fixture.db,
		`SELECT status FROM activity_participants WHERE session_id = $1 AND user_id = $2;`,
		session.ID,
		owner.id,
	)
	require.NoError(t, err)
	require.Equal(t, participationdomain.StatusConfirmed, ownerStatus)

	remainingStatus, err := tql.QuerySingle[string](
		context.Background(),
		fixture.db,
		`SELECT status FROM activity_participants WHERE session_id = $1 AND user_id = $2;`,
		session.ID,
		secondWaiter.id,
	)
	require.NoError(t, err)
	require.Equal(t, participationdomain.StatusWaiting, remainingStatus)
}

func Test_LeaveSession_Returns_400_When_Not_Joined(t *testing.T) {
	// Arrange
	owner := registerAndLogin(t)
	outsider := registerAndLogin(t)
	created := createActivity(t, owner, 5)
	session := futureSession(t, created)

	// Act
	_, err := sendAuthenticatedRequest[any, any](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/participants", fixture.baseURL, session.ID),
		http.MethodDelete,
		outsider.cookie,
		nil,
		func(resp *http.Response) {
			// Assert
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		},
	)
	require.NoError(t, err)
}

func Test_CanJoin_Reports_Waitlist_For_Full_Session(t *testing.T) {
	// Arrange
	owner := registerAndLogin(t)
	candidate := registerAndLogin(t)
	created := createActivity(t, owner, 1)
	session := futureSession(t, created)

	joinSession(t, owner, session.ID, http.StatusOK)

	// Act
	response, err := sendAuthenticatedRequest[any, participationqueries.CanJoinResponse](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/can-join", fixture.baseURL, session.ID),
		http.MethodGet,
		candidate.cookie,
		nil,
		func(resp *http.Response) { require.Equal(t, http.StatusOK, resp.StatusCode) },
	)
	require.NoError(t, err)

	// Assert
	require.True(t, response.CanJoin)
	require.True(t, response.WouldWait)
}

func Test_SessionStats_Counts_Every_Status(t *testing.T) {
	// Arrange
	owner := registerAndLogin(t)
	second := registerAndLogin(t)
	created := createActivity(t, owner, 1)
	session := futureSession(t, created)

	joinSession(t, owner, session.ID, http.StatusOK)
	joinSession(t, second, session.ID, http.StatusOK)

	// Act
	stats, err := sendAuthenticatedRequest[any, participationdomain.Stats](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/stats", fixture.baseURL, session.ID),
		http.MethodGet,
		owner.cookie,
		nil,
		func(resp *http.Response) { require.Equal(t, http.StatusOK, resp.StatusCode) },
	)
	require.NoError(t, err)

	// Assert
	require.Equal(t, 1, stats.ConfirmedCount)
	require.Equal(t, 1, stats.WaitingCount)
	require.Equal(t, 2, stats.TotalCount)
	require.Equal(t, 0, stats.AvailableSpots)
	require.Equal(t, 1, stats.MaxPlayers)
}

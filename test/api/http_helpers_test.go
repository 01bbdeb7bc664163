package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	authcommands "github.com/padrededios/stepzy-sub002/internal/modules/auth/commands"
	authdomain "github.com/padrededios/stepzy-sub002/internal/modules/auth/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type responseAssertion func(*http.Response)

func sendRequest[TReq any, TResp any](
	c *http.Client,
	url string,
	method string,
	req TReq,
	opts ...responseAssertion,
) (TResp, error) {
	return sendAuthenticatedRequest[TReq, TResp](c, url, method, "", req, opts...)
}

func sendAuthenticatedRequest[TReq any, TResp any](
	c *http.Client,
	url string,
	method string,
	sessionCookie string,
	req TReq,
	opts ...responseAssertion,
) (TResp, error) {
	var resp TResp

	payload, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}

	httpReq, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return resp, err
	}

	if sessionCookie != "" {
		httpReq.AddCookie(&http.Cookie{
			Name:  authcommands.SessionCookieName,
			Value: sessionCookie,
		})
	}

	httpResp, err := c.Do(httpReq)
	if err != nil {
		return resp, err
	}

	for _, opt := range opts {
		opt(httpResp)
	}

	if httpResp.ContentLength > 0 {
		defer func() {
			_ = httpResp.Body.Close()
		}()

		responsePayload, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return resp, err
		}

		if err := json.Unmarshal(responsePayload, &resp); err != nil {
			return resp, err
		}
	}

	return resp, err
}

type testUser struct {
	id       uuid.UUID
	cookie   string
	email    string
	password string
}

func login(t *testing.T, email, password string) string {
	loginCommand := authcommands.LoginCommand{
		Email:    email,
		Password: password,
	}

	var cookie string

	_, err := sendRequest[authcommands.LoginCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/auth/login"),
		http.MethodPost,
		loginCommand,
		func(resp *http.Response) {
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Greater(t, len(resp.Cookies()), 0)

			for _, c := range resp.Cookies() {
				if c.Name != authcommands.SessionCookieName {
					continue
				}

				cookie = c.Value
				break
			}
		},
	)
	require.NoError(t, err)

	if cookie == "" {
		t.Errorf("found no cookie '%s'", authcommands.SessionCookieName)
		t.Fail()
	}

	return cookie
}

func registerAndLogin(t *testing.T) testUser {
	// Arrange
	registerCommand := authcommands.RegisterCommand{
		Pseudo:   uuid.NewString(),
		Email:    fmt.Sprintf("%s@tests.com", uuid.NewString()),
		Password: uuid.NewString(),
	}

	_, err := sendRequest[authcommands.RegisterCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/auth/registrations"),
		http.MethodPost,
		registerCommand,
		func(resp *http.Response) { require.Equal(t, http.StatusOK, resp.StatusCode) },
	)
	require.NoError(t, err)

	userID, err := tql.QueryFirst[uuid.UUID](
		context.Background(),
		fixture.db,
		`SELECT id FROM users WHERE email = $1;`,
		registerCommand.Email,
	)
	require.NoError(t, err)

	// Act, Assert
	cookie := login(t, registerCommand.Email, registerCommand.Password)

	return testUser{
		id:       userID,
		cookie:   cookie,
		email:    registerCommand.Email,
		password: registerCommand.Password,
	}
}

// registerAndLoginRoot promotes a fresh user to the root role and logs
// in again so the new session carries it.
func registerAndLoginRoot(t *testing.T) testUser {
	user := registerAndLogin(t)

	_, err := fixture.db.Exec(`UPDATE users SET role = $1 WHERE id = $2;`, authdomain.RoleRoot, user.id)
	require.NoError(t, err)

	user.cookie = login(t, user.email, user.password)
	return user
}

package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/padrededios/stepzy-sub002/internal/modules/auth/domain"
	"github.com/padrededios/stepzy-sub002/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

const SessionCookieName = "stepzy-session"

const sessionDuration = 30 * 24 * time.Hour

type LoginCommand struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c LoginCommand) Validate() error {
	if c.Email == "" {
		return fmt.Errorf("invalid Email - '%s'", c.Email)
	}

	if c.Password == "" {
		return fmt.Errorf("invalid Password")
	}

	return nil
}

func HandleLogin(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[LoginCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	session, err := mediator.Send[LoginCommand, domain.UserSession](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID.String(),
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
	})

	core.WriteOK(w, r, session)
}

func HandleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		core.WriteOK(w, r, nil)
		return
	}

	command := LogoutCommand{SessionID: cookie.Value}
	if _, err := mediator.Send[LogoutCommand, core.Unit](r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:    SessionCookieName,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
	})

	core.WriteOK(w, r, nil)
}

type LoginCommandHandler struct {
	db             *sql.DB
	passwordHasher domain.PasswordHasher
}

func NewLoginCommandHandler(db *sql.DB, passwordHasher domain.PasswordHasher) *LoginCommandHandler {
	return &LoginCommandHandler{db, passwordHasher}
}

func (h *LoginCommandHandler) Handle(ctx context.Context, request LoginCommand) (domain.UserSession, error) {
	const q = `
		SELECT
			*
		FROM
			users
		WHERE
			email = $1;`

	user, err := tql.QueryFirst[domain.User](ctx, h.db, q, request.Email)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.UserSession{}, core.NewCommandError(401, err, core.WithReason("invalid credentials"))
	case err != nil:
		return domain.UserSession{}, core.NewCommandError(500, err)
	}

	if err := user.Authenticate(request.Password, h.passwordHasher); err != nil {
		return domain.UserSession{}, core.NewCommandError(401, err, core.WithReason("invalid credentials"))
	}

	session := domain.UserSession{
		ID:        uuid.New(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(sessionDuration),
	}

	const stmt = `
		INSERT INTO
			user_sessions (id, user_id, role, created_at, expires_at)
		VALUES
			(:id, :user_id, :role, :created_at, :expires_at);`

	if _, err := tql.Exec(ctx, h.db, stmt, session); err != nil {
		return domain.UserSession{}, core.NewCommandError(500, err)
	}

	return session, nil
}

type LogoutCommand struct {
	SessionID string
}

type LogoutCommandHandler struct {
	db *sql.DB
}

func NewLogoutCommandHandler(db *sql.DB) *LogoutCommandHandler {
	return &LogoutCommandHandler{db}
}

func (h *LogoutCommandHandler) Handle(ctx context.Context, request LogoutCommand) (core.Unit, error) {
	const stmt = `
		DELETE FROM
			user_sessions
		WHERE
			id = $1;`

	if _, err := tql.Exec(ctx, h.db, stmt, request.SessionID); err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	return core.Unit{}, nil
}

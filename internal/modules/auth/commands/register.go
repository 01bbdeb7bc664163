package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/padrededios/stepzy-sub002/internal/modules/auth/domain"
	"github.com/padrededios/stepzy-sub002/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
)

type RegisterCommand struct {
	Pseudo   string `json:"pseudo"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c RegisterCommand) Validate() error {
	if c.Pseudo == "" {
		return fmt.Errorf("invalid Pseudo - '%s'", c.Pseudo)
	}

	if c.Email == "" {
		return fmt.Errorf("invalid Email - '%s'", c.Email)
	}

	if c.Password == "" {
		return fmt.Errorf("invalid Password")
	}

	return nil
}

func HandleRegistration(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[RegisterCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	if _, err = mediator.Send[RegisterCommand, core.Unit](r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type RegisterCommandHandler struct {
	db             *sql.DB
	passwordHasher domain.PasswordHasher
}

func NewRegisterCommandHandler(db *sql.DB, passwordHasher domain.PasswordHasher) *RegisterCommandHandler {
	return &RegisterCommandHandler{db, passwordHasher}
}

func (h *RegisterCommandHandler) Handle(ctx context.Context, request RegisterCommand) (core.Unit, error) {
	const existingUserQuery = `
		SELECT
			count(id)
		FROM
			users
		WHERE
			pseudo = $1 OR email = $2;`

	count, err := tql.QuerySingle[int](ctx, h.db, existingUserQuery, request.Pseudo, request.Email)
	if err != nil {
		return core.Unit{}, core.NewCommandError(500, err, core.WithReason("failed to reach database"))
	}

	if count > 0 {
		return core.Unit{}, core.NewCommandError(400, fmt.Errorf("pseudo or email already taken"))
	}

	user, err := domain.RegisterUser(request.Pseudo, request.Email, request.Password, h.passwordHasher)
	if err != nil {
		return core.Unit{}, core.NewCommandError(400, err, core.WithReason("user registration failed"))
	}

	const stmt = `
		INSERT INTO
			users (id, pseudo, email, password_hash, role, created_at)
		VALUES
			(:id, :pseudo, :email, :password_hash, :role, :created_at);`

	if _, err := tql.Exec(ctx, h.db, stmt, user); err != nil {
		return core.Unit{}, core.NewCommandError(500, err, core.WithReason("failed to create new user entry"))
	}

	return core.Unit{}, nil
}

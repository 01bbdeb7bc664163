package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/padrededios/stepzy-sub002/internal/modules/auth/commands"
	"github.com/padrededios/stepzy-sub002/internal/modules/auth/domain"
	"github.com/padrededios/stepzy-sub002/internal/modules/core"

	"github.com/eskrenkovic/tql"
)

// AuthenticationMiddleware resolves the stepzy-session cookie to a
// persisted login session and places the user's identity in the request
// context. Requests without a valid session are rejected with 401.
func AuthenticationMiddleware(db *sql.DB) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(commands.SessionCookieName)
			if err != nil {
				core.WriteUnauthorized(w, r, nil)
				return
			}

			const q = `
				SELECT
					*
				FROM
					user_sessions
				WHERE
					id = $1;`

			session, err := tql.QueryFirst[domain.UserSession](r.Context(), db, q, cookie.Value)
			switch {
			case err != nil && errors.Is(err, sql.ErrNoRows):
				core.WriteUnauthorized(w, r, nil)
				return
			case err != nil:
				core.WriteInternalServerError(w, r, nil)
				return
			}

			if err := session.Validate(); err != nil {
				core.WriteUnauthorized(w, r, nil)
				return
			}

			contextSession := core.ContextSession{UserID: session.UserID, Role: session.Role}
			authContext := context.WithValue(r.Context(), core.SessionContextKey, contextSession)
			next.ServeHTTP(w, r.WithContext(authContext))
		}
	}
}

// RequireRoleMiddleware rejects authenticated requests whose session does
// not carry the given role. Chain it after AuthenticationMiddleware.
func RequireRoleMiddleware(role string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if core.Session(r.Context()).Role != role {
				core.WriteForbidden(w, r, nil)
				return
			}

			next.ServeHTTP(w, r)
		}
	}
}

package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser = "user"
	RoleRoot = "root"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Pseudo       string    `db:"pseudo" json:"pseudo"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// UserSession is a persisted login session, referenced by the
// stepzy-session cookie.
type UserSession struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
}

func (s UserSession) Validate() error {
	if time.Now().UTC().After(s.ExpiresAt) {
		return fmt.Errorf("session expired at %s", s.ExpiresAt)
	}

	return nil
}

func RegisterUser(pseudo, email, password string, passwordHasher PasswordHasher) (User, error) {
	passwordHash, err := passwordHasher.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	return User{
		ID:           uuid.New(),
		Pseudo:       pseudo,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (u *User) Authenticate(password string, passwordHasher PasswordHasher) error {
	if err := passwordHasher.Verify(u.PasswordHash, password); err != nil {
		return fmt.Errorf("authentication failed: %s", err.Error())
	}

	return nil
}

package config

import (
	"net/url"
	"path"

	"github.com/padrededios/stepzy-sub002/internal/env"

	"go.uber.org/zap"
)

const (
	PortEnv        = "PORT"
	DatabaseUrlEnv = "DATABASE_URL"
	RootPathEnv    = "ROOT_PATH"

	GenerationWeeksAheadEnv = "GENERATION_WEEKS_AHEAD"
	SessionRetentionDaysEnv = "SESSION_RETENTION_DAYS"

	EmailServerHostEnv     = "EMAIL_SERVER_HOST"
	EmailServerUsernameEnv = "EMAIL_SERVER_USERNAME"
	EmailServerPasswordEnv = "EMAIL_SERVER_PASSWORD"
	EmailServerSenderEnv   = "EMAIL_SERVER_SENDER"
)

type EmailConfiguration struct {
	Host     *url.URL
	Username string
	Password string
	Sender   string
}

type Config struct {
	Logger *zap.Logger

	Port           int
	DatabaseURL    string
	MigrationsPath string

	// GenerationWeeksAhead bounds the rolling horizon the session
	// generator materializes. SessionRetentionDays bounds how long
	// completed sessions are kept before the purge job removes them.
	GenerationWeeksAhead int
	SessionRetentionDays int

	Email EmailConfiguration
}

func Load() (Config, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return Config{}, err
	}

	port := env.MustGetInt(PortEnv)
	dbURL := env.MustGetString(DatabaseUrlEnv)

	rootPath := env.MustGetString(RootPathEnv)

	weeksAhead := env.GetIntOrDefault(GenerationWeeksAheadEnv, 2)
	retentionDays := env.GetIntOrDefault(SessionRetentionDaysEnv, 30)

	emailServerURL := env.MustGetURL(EmailServerHostEnv)
	emailServerUsername := env.MustGetString(EmailServerUsernameEnv)
	emailServerPassword := env.MustGetString(EmailServerPasswordEnv)
	emailServerSender := env.MustGetString(EmailServerSenderEnv)

	migrationsPath := path.Join(rootPath, "db", "migrations")

	return Config{
		Logger:               logger,
		Port:                 port,
		DatabaseURL:          dbURL,
		MigrationsPath:       migrationsPath,
		GenerationWeeksAhead: weeksAhead,
		SessionRetentionDays: retentionDays,
		Email: EmailConfiguration{
			Host:     emailServerURL,
			Username: emailServerUsername,
			Password: emailServerPassword,
			Sender:   emailServerSender,
		},
	}, nil
}

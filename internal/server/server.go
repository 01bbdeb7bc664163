package server

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"net"
	"net/http"

	"github.com/padrededios/stepzy-sub002/internal/config"
	activitycommands "github.com/padrededios/stepzy-sub002/internal/modules/activity/commands"
	activitydomain "github.com/padrededios/stepzy-sub002/internal/modules/activity/domain"
	activityqueries "github.com/padrededios/stepzy-sub002/internal/modules/activity/queries"
	"github.com/padrededios/stepzy-sub002/internal/modules/auth"
	authcommands "github.com/padrededios/stepzy-sub002/internal/modules/auth/commands"
	authdomain "github.com/padrededios/stepzy-sub002/internal/modules/auth/domain"
	"github.com/padrededios/stepzy-sub002/internal/modules/core"
	"github.com/padrededios/stepzy-sub002/internal/modules/notifications"
	participationcommands "github.com/padrededios/stepzy-sub002/internal/modules/participation/commands"
	participationdomain "github.com/padrededios/stepzy-sub002/internal/modules/participation/domain"
	participationqueries "github.com/padrededios/stepzy-sub002/internal/modules/participation/queries"
	schedulecommands "github.com/padrededios/stepzy-sub002/internal/modules/schedule/commands"
	scheduledomain "github.com/padrededios/stepzy-sub002/internal/modules/schedule/domain"
	schedulequeries "github.com/padrededios/stepzy-sub002/internal/modules/schedule/queries"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/migrate-go"
	"github.com/go-chi/chi"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Server interface {
	Start() error
	Stop() error
}

var _ Server = &HTTPServer{}

// HTTPServer acts as the composition root for the application.
// It owns the HTTP listener and the background job scheduler.
type HTTPServer struct {
	server *http.Server
	cron   *cron.Cron
	logger *zap.Logger
}

func NewHTTPServer(config config.Config) (Server, error) {
	baseCtx := context.Background()

	db, err := sql.Open("postgres", config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := migrate.Run(baseCtx, db, config.MigrationsPath); err != nil {
		return nil, err
	}

	core.SetLogger(config.Logger)

	requestLoggingBehavior := core.RequestLoggingBehavior{Logger: config.Logger}
	handlerErrorLoggingBehavior := core.HandlerErrorLoggingBehavior{Logger: config.Logger}
	requestValidationBehavior := core.RequestValidationBehavior{}

	mediator.RegisterPipelineBehavior(&requestLoggingBehavior)
	mediator.RegisterPipelineBehavior(&handlerErrorLoggingBehavior)
	mediator.RegisterPipelineBehavior(&requestValidationBehavior)

	emailClient := core.NewEmailClient(config.Email.Host, config.Email.Username, config.Email.Password)
	notifier := notifications.NewEmailNotifier(db, emailClient, config.Email.Sender, config.Logger)
	passwordHasher := authdomain.NewPasswordHasher(sha256.New)

	// handler registration

	// auth

	registerHandler := authcommands.NewRegisterCommandHandler(db, *passwordHasher)
	err = mediator.RegisterRequestHandler[authcommands.RegisterCommand, core.Unit](
		registerHandler,
	)
	if err != nil {
		return nil, err
	}

	loginHandler := authcommands.NewLoginCommandHandler(db, *passwordHasher)
	err = mediator.RegisterRequestHandler[authcommands.LoginCommand, authdomain.UserSession](
		loginHandler,
	)
	if err != nil {
		return nil, err
	}

	logoutHandler := authcommands.NewLogoutCommandHandler(db)
	err = mediator.RegisterRequestHandler[authcommands.LogoutCommand, core.Unit](
		logoutHandler,
	)
	if err != nil {
		return nil, err
	}

	// activity

	createActivityHandler := activitycommands.NewCreateActivityCommandHandler(db, config.GenerationWeeksAhead)
	err = mediator.RegisterRequestHandler[activitycommands.CreateActivityCommand, activitycommands.CreateActivityResponse](
		createActivityHandler,
	)
	if err != nil {
		return nil, err
	}

	updateActivityHandler := activitycommands.NewUpdateActivityCommandHandler(db)
	err = mediator.RegisterRequestHandler[activitycommands.UpdateActivityCommand, activitydomain.Activity](
		updateActivityHandler,
	)
	if err != nil {
		return nil, err
	}

	subscribeHandler := activitycommands.NewSubscribeCommandHandler(db)
	err = mediator.RegisterRequestHandler[activitycommands.SubscribeCommand, activitydomain.Subscription](
		subscribeHandler,
	)
	if err != nil {
		return nil, err
	}

	unsubscribeHandler := activitycommands.NewUnsubscribeCommandHandler(db)
	err = mediator.RegisterRequestHandler[activitycommands.UnsubscribeCommand, core.Unit](
		unsubscribeHandler,
	)
	if err != nil {
		return nil, err
	}

	listActivitiesHandler := activityqueries.NewListActivitiesQueryHandler(db)
	err = mediator.RegisterRequestHandler[activityqueries.ListActivitiesQuery, []activityqueries.ActivityView](
		listActivitiesHandler,
	)
	if err != nil {
		return nil, err
	}

	getActivityHandler := activityqueries.NewGetActivityQueryHandler(db)
	err = mediator.RegisterRequestHandler[activityqueries.GetActivityQuery, activityqueries.ActivityView](
		getActivityHandler,
	)
	if err != nil {
		return nil, err
	}

	// schedule

	generateSessionsHandler := schedulecommands.NewGenerateSessionsCommandHandler(db)
	err = mediator.RegisterRequestHandler[schedulecommands.GenerateSessionsCommand, []scheduledomain.Session](
		generateSessionsHandler,
	)
	if err != nil {
		return nil, err
	}

	generateAllHandler := schedulecommands.NewGenerateAllUpcomingSessionsCommandHandler(db, config.Logger)
	err = mediator.RegisterRequestHandler[schedulecommands.GenerateAllUpcomingSessionsCommand, schedulecommands.GenerateAllUpcomingSessionsResponse](
		generateAllHandler,
	)
	if err != nil {
		return nil, err
	}

	cancelSessionHandler := schedulecommands.NewCancelSessionCommandHandler(db, notifier)
	err = mediator.RegisterRequestHandler[schedulecommands.CancelSessionCommand, core.Unit](
		cancelSessionHandler,
	)
	if err != nil {
		return nil, err
	}

	updateCapacityHandler := schedulecommands.NewUpdateSessionCapacityCommandHandler(db)
	err = mediator.RegisterRequestHandler[schedulecommands.UpdateSessionCapacityCommand, core.Unit](
		updateCapacityHandler,
	)
	if err != nil {
		return nil, err
	}

	completePastHandler := schedulecommands.NewCompletePastSessionsCommandHandler(db)
	err = mediator.RegisterRequestHandler[schedulecommands.CompletePastSessionsCommand, schedulecommands.CompletePastSessionsResponse](
		completePastHandler,
	)
	if err != nil {
		return nil, err
	}

	purgeOldHandler := schedulecommands.NewPurgeOldSessionsCommandHandler(db)
	err = mediator.RegisterRequestHandler[schedulecommands.PurgeOldSessionsCommand, schedulecommands.PurgeOldSessionsResponse](
		purgeOldHandler,
	)
	if err != nil {
		return nil, err
	}

	upcomingSessionsHandler := schedulequeries.NewGetUpcomingSessionsQueryHandler(db)
	err = mediator.RegisterRequestHandler[schedulequeries.GetUpcomingSessionsQuery, []schedulequeries.SessionView](
		upcomingSessionsHandler,
	)
	if err != nil {
		return nil, err
	}

	// participation

	joinSessionHandler := participationcommands.NewJoinSessionCommandHandler(db, notifier)
	err = mediator.RegisterRequestHandler[participationcommands.JoinSessionCommand, participationcommands.JoinSessionResponse](
		joinSessionHandler,
	)
	if err != nil {
		return nil, err
	}

	leaveSessionHandler := participationcommands.NewLeaveSessionCommandHandler(db, notifier)
	err = mediator.RegisterRequestHandler[participationcommands.LeaveSessionCommand, participationcommands.LeaveSessionResponse](
		leaveSessionHandler,
	)
	if err != nil {
		return nil, err
	}

	promoteWaitingHandler := participationcommands.NewPromoteWaitingParticipantsCommandHandler(db, notifier)
	err = mediator.RegisterRequestHandler[participationcommands.PromoteWaitingParticipantsCommand, participationcommands.PromoteWaitingParticipantsResponse](
		promoteWaitingHandler,
	)
	if err != nil {
		return nil, err
	}

	canJoinHandler := participationqueries.NewCanUserJoinSessionQueryHandler(db)
	err = mediator.RegisterRequestHandler[participationqueries.CanUserJoinSessionQuery, participationqueries.CanJoinResponse](
		canJoinHandler,
	)
	if err != nil {
		return nil, err
	}

	sessionStatsHandler := participationqueries.NewGetSessionStatsQueryHandler(db)
	err = mediator.RegisterRequestHandler[participationqueries.GetSessionStatsQuery, participationdomain.Stats](
		sessionStatsHandler,
	)
	if err != nil {
		return nil, err
	}

	// http

	r := router{
		mux: chi.NewRouter(),
		middleware: []httpMiddleware{
			baseContextMiddleware(baseCtx),
			core.CorrelationIDHTTPMiddleware,
		},
	}

	authenticated := auth.AuthenticationMiddleware(db)

	r.register(http.MethodPost, "/auth/registrations", authcommands.HandleRegistration)
	r.register(http.MethodPost, "/auth/login", authcommands.HandleLogin)
	r.register(http.MethodPost, "/auth/logout", authcommands.HandleLogout)

	r.register(http.MethodPost, "/activities", activitycommands.HandleCreateActivity, authenticated)
	r.register(http.MethodGet, "/activities", activityqueries.HandleListActivities, authenticated)
	r.register(http.MethodGet, "/activities/{id}", activityqueries.HandleGetActivity, authenticated)
	r.register(http.MethodPut, "/activities/{id}", activitycommands.HandleUpdateActivity, authenticated)

	r.register(http.MethodPost, "/activities/{id}/subscriptions", activitycommands.HandleSubscribe, authenticated)
	r.register(http.MethodDelete, "/activities/{id}/subscriptions", activitycommands.HandleUnsubscribe, authenticated)

	r.register(http.MethodGet, "/sessions/upcoming", schedulequeries.HandleGetUpcomingSessions, authenticated)
	r.register(http.MethodPost, "/sessions/actions/generate", schedulecommands.HandleGenerateAllUpcomingSessions,
		authenticated, auth.RequireRoleMiddleware(authdomain.RoleRoot))

	r.register(http.MethodPost, "/sessions/{id}/participants", participationcommands.HandleJoinSession, authenticated)
	r.register(http.MethodDelete, "/sessions/{id}/participants", participationcommands.HandleLeaveSession, authenticated)

	r.register(http.MethodGet, "/sessions/{id}/can-join", participationqueries.HandleCanUserJoinSession, authenticated)
	r.register(http.MethodGet, "/sessions/{id}/stats", participationqueries.HandleGetSessionStats, authenticated)

	r.register(http.MethodPut, "/sessions/{id}/actions/cancel", schedulecommands.HandleCancelSession, authenticated)
	r.register(http.MethodPut, "/sessions/{id}/actions/capacity", schedulecommands.HandleUpdateSessionCapacity, authenticated)

	server := http.Server{
		Addr:    net.JoinHostPort("", fmt.Sprintf("%d", config.Port)),
		Handler: r.mux,
	}

	scheduler, err := newScheduler(baseCtx, config)
	if err != nil {
		return nil, err
	}

	return &HTTPServer{
		server: &server,
		cron:   scheduler,
		logger: config.Logger,
	}, nil
}

func (s *HTTPServer) Start() error {
	s.cron.Start()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop() error {
	s.cron.Stop()
	return s.server.Close()
}

// newScheduler sets up the recurring maintenance jobs. The generation
// job keeps every activity's rolling session horizon filled, the
// completion job transitions past sessions, and the purge job removes
// completed and cancelled sessions past the retention window.
func newScheduler(ctx context.Context, config config.Config) (*cron.Cron, error) {
	scheduler := cron.New()

	_, err := scheduler.AddFunc("@daily", func() {
		command := schedulecommands.GenerateAllUpcomingSessionsCommand{
			WeeksAhead: config.GenerationWeeksAhead,
		}
		if _, err := mediator.Send[schedulecommands.GenerateAllUpcomingSessionsCommand, schedulecommands.GenerateAllUpcomingSessionsResponse](ctx, command); err != nil {
			core.LogError(ctx, "session generation job failed", zap.Error(err))
		}

		if _, err := mediator.Send[schedulecommands.CompletePastSessionsCommand, schedulecommands.CompletePastSessionsResponse](ctx, schedulecommands.CompletePastSessionsCommand{}); err != nil {
			core.LogError(ctx, "session completion job failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}

	_, err = scheduler.AddFunc("0 3 * * *", func() {
		command := schedulecommands.PurgeOldSessionsCommand{
			RetentionDays: config.SessionRetentionDays,
		}
		if _, err := mediator.Send[schedulecommands.PurgeOldSessionsCommand, schedulecommands.PurgeOldSessionsResponse](ctx, command); err != nil {
			core.LogError(ctx, "session purge job failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}

	return scheduler, nil
}

type httpMiddleware func(http.HandlerFunc) http.HandlerFunc

type router struct {
	mux        chi.Router
	middleware []httpMiddleware
}

func (r *router) register(method, pattern string, handler http.HandlerFunc, middleware ...httpMiddleware) {
	h := handler

	allMiddleware := append(r.middleware, middleware...)

	for i := len(allMiddleware) - 1; i >= 0; i-- {
		h = allMiddleware[i](h)
	}

	r.mux.Method(method, pattern, h)
}

func baseContextMiddleware(baseCtx context.Context) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestCtx := baseCtx

			if v, ok := ctx.Value(http.ServerContextKey).(*http.Server); ok {
				requestCtx = context.WithValue(requestCtx, http.ServerContextKey, v)
			}

			if v, ok := ctx.Value(http.LocalAddrContextKey).(net.Addr); ok {
				requestCtx = context.WithValue(requestCtx, http.LocalAddrContextKey, v)
			}

			// chi stores route parameters on the request context.
			if v := ctx.Value(chi.RouteCtxKey); v != nil {
				requestCtx = context.WithValue(requestCtx, chi.RouteCtxKey, v)
			}

			next.ServeHTTP(w, r.WithContext(requestCtx))
		}
	}
}

package main

import (
	"context"
	"log/slog"
	"syscall"

	"github.com/go-playground/validator/v10"
	evbus "github.com/vardius/message-bus"

	"github.com/opsboard/admin-portal/internal"
	"github.com/opsboard/admin-portal/internal/adapters"
	"github.com/opsboard/admin-portal/internal/app/api/core"
	handlersV0 "github.com/opsboard/admin-portal/internal/app/api/v0/handlers"
	"github.com/opsboard/admin-portal/internal/app/audit"
	"github.com/opsboard/admin-portal/internal/app/auth"
	"github.com/opsboard/admin-portal/internal/app/settings"
	"github.com/opsboard/admin-portal/internal/app/users"
	"github.com/opsboard/admin-portal/internal/config"
)

func main() {
	ctx := internal.SignalAwareContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.GetConfig()
	internal.AssertNoError(err)

	internal.SetupLogging(cfg.Advanced.LogLevel, cfg.Advanced.LogJson)

	slog.Info("starting admin portal", "version", internal.Version)

	rawDb, err := adapters.NewDatabase(cfg.Database)
	internal.AssertNoError(err)

	database, err := adapters.NewSqlRepository(rawDb)
	internal.AssertNoError(err)

	queueSize := 100
	eventBus := evbus.New(queueSize)

	metricsSrv := adapters.NewMetricsServer(cfg)
	mailer := adapters.NewSmtpMailRepo(cfg.Mail)

	auditRecorder, err := audit.NewAuditRecorder(cfg, eventBus, database, metricsSrv)
	internal.AssertNoError(err)

	auditManager, err := audit.NewAuditManager(cfg, database, metricsSrv)
	internal.AssertNoError(err)

	_, err = audit.NewAuditNotifier(cfg, eventBus, mailer)
	internal.AssertNoError(err)

	userManager, err := users.NewUserManager(cfg, eventBus, database, auditRecorder)
	internal.AssertNoError(err)

	settingsManager, err := settings.NewSettingsManager(cfg, database, auditRecorder)
	internal.AssertNoError(err)

	authenticator, err := auth.NewAuthenticator(cfg, eventBus, userManager)
	internal.AssertNoError(err)

	internal.AssertNoError(userManager.EnsureBootstrapAdmin(ctx))

	auditManager.StartBackgroundJobs(ctx)

	session := handlersV0.NewSessionWrapper(cfg)
	authMiddleware := handlersV0.NewAuthenticationMiddleware(session)
	validate := validator.New(validator.WithRequiredStructEnabled())

	apiV0 := handlersV0.NewRestApi(session,
		handlersV0.NewAuthEndpoint(authenticator, authMiddleware, session, validate),
		handlersV0.NewAuditEndpoint(auditManager, authMiddleware, validate),
		handlersV0.NewUserEndpoint(userManager, authMiddleware, validate),
		handlersV0.NewSettingsEndpoint(settingsManager, authMiddleware, validate),
	)

	webSrv, err := core.NewServer(cfg, apiV0)
	internal.AssertNoError(err)

	if cfg.Statistics.Enabled {
		go metricsSrv.Run(ctx)
	}
	go webSrv.Run(ctx, cfg.Web.ListeningAddress)

	// wait until the context gets cancelled
	<-ctx.Done()

	slog.Info("stopped admin portal")
}

package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"casetrack/internal/api"
	"casetrack/internal/bootstrap/config"
	"casetrack/internal/bootstrap/database"
	"casetrack/internal/bootstrap/logging"
	cacheinfra "casetrack/internal/infrastructure/cache"
	"casetrack/internal/infrastructure/notify"
	sqliterepo "casetrack/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "casetrack/internal/infrastructure/persistence/sqlite/uow"
	"casetrack/internal/ports"
	"casetrack/internal/usecase/calendar"
	"casetrack/internal/usecase/caseadmin"
	"casetrack/internal/usecase/engine"
	"casetrack/internal/usecase/metrics"
	"casetrack/internal/usecase/qc"
	"casetrack/internal/usecase/settings"
	"casetrack/internal/usecase/worklog"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(sqliterepo.NewCaseRepository, fx.As(new(ports.CaseRepository))),
		fx.Annotate(sqliterepo.NewProjectRepository, fx.As(new(ports.ProjectRepository))),
		fx.Annotate(sqliterepo.NewTagRepository, fx.As(new(ports.TagRepository))),
		fx.Annotate(sqliterepo.NewWorkLogRepository, fx.As(new(ports.WorkLogRepository))),
		fx.Annotate(sqliterepo.NewQcRepository, fx.As(new(ports.QcRepository))),
		fx.Annotate(sqliterepo.NewUserRepository, fx.As(new(ports.UserRepository))),
		fx.Annotate(sqliterepo.NewCalendarRepository, fx.As(new(ports.CalendarRepository))),
		fx.Annotate(sqliterepo.NewNotificationLogRepository, fx.As(new(ports.NotificationLogRepository))),
	),
	fx.Provide(
		fx.Annotate(sqliteuow.NewUnitOfWork, fx.As(new(ports.UnitOfWork))),
	),
	fx.Provide(
		fx.Annotate(cacheinfra.NewSQLiteCache, fx.As(new(ports.Cache))),
	),
	fx.Provide(provideSettings),
	fx.Provide(provideNotifiers),
	fx.Provide(provideEngine),
	fx.Provide(worklog.NewService),
	fx.Provide(qc.NewService),
	fx.Provide(caseadmin.NewService),
	fx.Provide(calendar.NewService),
	fx.Provide(metrics.NewService),
	fx.Provide(api.NewServer),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideSettings(cfg config.Config, cache ports.Cache) *settings.Store {
	return settings.NewStore(cache, settings.Defaults{
		WorkdayHours:       cfg.Workflow.WorkdayHours,
		WIPLimit:           cfg.Workflow.WIPLimit,
		AutoTimeoutMinutes: cfg.Workflow.AutoTimeoutMinutes,
	})
}

func provideNotifiers(ctx context.Context, lc fx.Lifecycle, cfg config.Config) []ports.Notifier {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	var notifiers []ports.Notifier
	if cfg.Notify.NATS.URL != "" {
		n, err := notify.NewNATSNotifier(cfg.Notify.NATS.URL, cfg.Notify.NATS.Subject)
		if err != nil {
			logging.Warn(logCtx, "nats notifier disabled", slog.String("reason", err.Error()))
		} else {
			notifiers = append(notifiers, n)
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					n.Close()
					return nil
				},
			})
		}
	}
	if cfg.Notify.SMTP.Host != "" {
		notifiers = append(notifiers, notify.NewSMTPNotifier(cfg.Notify.SMTP))
	}
	return notifiers
}

func provideEngine(
	uow ports.UnitOfWork,
	cases ports.CaseRepository,
	users ports.UserRepository,
	store *settings.Store,
	notifyLogs ports.NotificationLogRepository,
	notifiers []ports.Notifier,
	cfg config.Config,
) *engine.Service {
	timeout := time.Duration(cfg.Notify.TimeoutSeconds) * time.Second
	return engine.NewService(uow, cases, users, store, notifyLogs, notifiers, timeout)
}

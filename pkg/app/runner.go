package app

import (
	"context"
	"fmt"
	"time"

	"github.com/small-frappuccino/embedbuilder/pkg/config"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/commands"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/session"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/views"
	"github.com/small-frappuccino/embedbuilder/pkg/discord/wizard"
	"github.com/small-frappuccino/embedbuilder/pkg/errors"
	"github.com/small-frappuccino/embedbuilder/pkg/errutil"
	"github.com/small-frappuccino/embedbuilder/pkg/log"
	"github.com/small-frappuccino/embedbuilder/pkg/service"
	"github.com/small-frappuccino/embedbuilder/pkg/storage"
	"github.com/small-frappuccino/embedbuilder/pkg/theme"
	"github.com/small-frappuccino/embedbuilder/pkg/util"
)

const shutdownTimeout = 30 * time.Second

// Run bootstraps the bot and blocks until SIGINT or SIGTERM.
// appName affects the default log and database paths.
func Run(appName string) error {
	started := time.Now()

	var cfg *config.Config
	if err := errutil.HandleConfigError("load", "environment", func() error {
		var err error
		cfg, err = config.Load(appName)
		return err
	}); err != nil {
		return err
	}

	// Logger first so subsequent steps can log meaningfully
	if err := log.SetupLogger(log.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Stdout: true}); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	defer func() { _ = log.Shutdown() }()

	if cfg.Theme != "" {
		if err := theme.SetCurrent(cfg.Theme); err != nil {
			log.ApplicationLogger().Warn("Failed to apply theme, using default", "theme", cfg.Theme, "error", err)
		}
	}

	log.ApplicationLogger().Info(fmt.Sprintf("🚀 Starting %s %s...", appName, Version), "store", cfg.StoreDriver)

	if cfg.Token == "" {
		return fmt.Errorf("%s not set in environment or .env file", config.TokenEnv)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errorHandler := errors.NewErrorHandler()
	store, err := openStore(runCtx, cfg, errorHandler)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	log.DiscordLogger().Info("🔑 Attempting to authenticate with Discord API...")
	discordSession, err := session.NewDiscordSession(cfg.Token)
	if err != nil {
		_ = store.Close(context.Background())
		return fmt.Errorf("create discord session: %w", err)
	}
	defer func() { _ = discordSession.Close() }()
	log.DiscordLogger().Info(fmt.Sprintf("✅ Authenticated as %s", discordSession.State.User.Username))

	sessions := wizard.NewRegistry(cfg.WizardMaxSessions, cfg.WizardTTL)
	serviceManager := service.NewServiceManager(errorHandler)
	if err := registerServices(runCtx, serviceManager, cfg, components{
		store:    store,
		sessions: sessions,
		commands: commands.NewCommandHandler(discordSession, store, sessions, commands.Options{
			GuildID:     cfg.GuildID,
			WebhookName: cfg.WebhookName,
		}),
	}); err != nil {
		_ = store.Close(context.Background())
		return err
	}

	log.ApplicationLogger().Info("🚀 Starting all services...")
	if err := serviceManager.StartAll(runCtx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	log.ApplicationLogger().Info(fmt.Sprintf("🎯 %s initialized successfully in %s", appName, time.Since(started).Round(time.Millisecond)))
	log.ApplicationLogger().Info(fmt.Sprintf("🤖 %s running. Press Ctrl+C to stop...", appName))

	util.WaitForInterrupt()
	log.ApplicationLogger().Info(fmt.Sprintf("🛑 Stopping %s...", appName))

	shutdownCtx, shutdownCancel := context.WithTimeoutCause(context.Background(), shutdownTimeout, fmt.Errorf("application shutdown"))
	defer shutdownCancel()
	if err := serviceManager.StopAll(shutdownCtx); err != nil {
		log.ErrorLoggerRaw().Error("Some services failed to stop cleanly", "error", err)
	}
	return nil
}

// openStore connects the configured backend. Mongo connections are retried
// with the storage backoff.
func openStore(ctx context.Context, cfg *config.Config, eh *errors.ErrorHandler) (storage.EmbedStore, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		store := storage.NewSQLiteStore(cfg.SQLitePath)
		if err := errutil.HandleStoreError("init_sqlite", store.Init); err != nil {
			return nil, err
		}
		log.DatabaseLogger().Info("SQLite store ready", "path", cfg.SQLitePath)
		return store, nil
	case config.DriverMongo:
		var store *storage.MongoStore
		err := eh.WithRetry(ctx, errors.CategoryStorage, "storage", "connect_mongo", func(ctx context.Context) error {
			var err error
			store, err = storage.ConnectMongo(ctx, storage.MongoOptions{URI: cfg.MongoURI, Database: cfg.DBName})
			return err
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// commandService is the part of the command handler the lifecycle needs.
type commandService interface {
	SetupCommands(ctx context.Context) error
	Shutdown() error
}

type components struct {
	store    storage.EmbedStore
	sessions *wizard.Registry
	commands commandService
}

// registerServices adds the store, the wizard sessions, the view restore and
// the commands to sm. runCtx outlives the start hooks and is handed to the
// command router.
func registerServices(runCtx context.Context, sm *service.ServiceManager, cfg *config.Config, c components) error {
	wrappers := []*service.ServiceWrapper{
		service.NewServiceWrapper("store", service.TypeStorage, service.PriorityHigh, nil,
			nil,
			func(ctx context.Context) error { return c.store.Close(ctx) },
			nil,
		),
		service.NewServiceWrapper("wizard_sessions", service.TypeSessions, service.PriorityNormal, []string{"store"},
			nil,
			func(context.Context) error { c.sessions.Purge(); return nil },
			func(context.Context) service.HealthStatus {
				return service.HealthStatus{
					Healthy:   true,
					Message:   "running",
					LastCheck: time.Now(),
					Details:   map[string]any{"open_sessions": c.sessions.Len()},
				}
			},
		),
		service.NewServiceWrapper("views", service.TypeViews, service.PriorityNormal, []string{"store"},
			func(ctx context.Context) error {
				if !cfg.RestoreViews {
					log.ApplicationLogger().Info("Persistent view restore disabled")
					return nil
				}
				if _, err := views.Restore(ctx, c.store); err != nil {
					log.ApplicationLogger().Warn("Persistent view restore failed (continuing)", "error", err)
				}
				return nil
			},
			nil, nil,
		),
	}
	if c.commands != nil {
		wrappers = append(wrappers, service.NewServiceWrapper("commands", service.TypeCommands, service.PriorityLow, []string{"store", "wizard_sessions"},
			func(context.Context) error { return c.commands.SetupCommands(runCtx) },
			func(context.Context) error { return c.commands.Shutdown() },
			nil,
		))
	}

	for _, w := range wrappers {
		if err := sm.Register(w); err != nil {
			return fmt.Errorf("register %s service: %w", w.Name(), err)
		}
	}
	return nil
}

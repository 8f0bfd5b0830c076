// Package app composes the operator console from its parts.
package app

import (
	"context"
	"os"
	"time"

	"github.com/opchat/opchat/internal/backend"
	"github.com/opchat/opchat/internal/bus"
	"github.com/opchat/opchat/internal/config"
	"github.com/opchat/opchat/internal/genai"
	"github.com/opchat/opchat/internal/lock"
	"github.com/opchat/opchat/internal/logging"
	"github.com/opchat/opchat/internal/media"
	"github.com/opchat/opchat/internal/outbox"
	"github.com/opchat/opchat/internal/profile"
	"github.com/opchat/opchat/internal/status"
	"github.com/opchat/opchat/internal/store"
	intsync "github.com/opchat/opchat/internal/sync"
	"github.com/opchat/opchat/internal/tui"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile string
}

// Module returns the fx module for the console, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("opchat",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideLock,
			provideStore,
			provideStateMachine,
			provideBackend,
			provideGenAI,
			provideChatSynchronizer,
			provideMessageSynchronizer,
			provideSender,
			provideLimiter,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.Profile), p.Profile)
}

func provideConfig(logger *zap.Logger) *config.Config {
	cfg, err := config.Load(profile.ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to load config, using defaults", zap.Error(err))
		}
		cfg = &config.Config{
			ChatPollSeconds:      config.DefaultChatPollSeconds,
			MessagePollSeconds:   config.DefaultMessagePollSeconds,
			DashboardPollSeconds: config.DefaultDashboardPollSeconds,
		}
	}
	return cfg
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.Profile)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideStateMachine(b *bus.Bus, db *store.DB, logger *zap.Logger) *status.Machine {
	return status.NewMachine(b, db, logger)
}

func provideBackend(cfg *config.Config) *backend.Client {
	return backend.New(cfg.APIBaseURL)
}

func provideGenAI(cfg *config.Config, db *store.DB, logger *zap.Logger) *genai.Client {
	key := cfg.GenAIKey
	if key == "" {
		stored, err := db.GetKV(store.KeyGenAIKey)
		if err != nil {
			logger.Warn("failed to read stored genai key", zap.Error(err))
		}
		key = stored
	}
	return genai.New(cfg.GenAIBaseURL, key, cfg.GenAIModel)
}

func provideChatSynchronizer(api *backend.Client, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *intsync.ChatSynchronizer {
	return intsync.NewChatSynchronizer(api, b, logger, time.Duration(cfg.ChatPollSeconds)*time.Second)
}

func provideMessageSynchronizer(api *backend.Client, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *intsync.MessageSynchronizer {
	return intsync.NewMessageSynchronizer(api, b, logger, time.Duration(cfg.MessagePollSeconds)*time.Second)
}

func provideSender(db *store.DB, api *backend.Client, msgs *intsync.MessageSynchronizer, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(db, api, msgs, b, logger)
}

func provideLimiter(db *store.DB, logger *zap.Logger) *media.Limiter {
	return media.NewLimiter(db, logger)
}

func provideApp(p Params, cfg *config.Config, db *store.DB, b *bus.Bus, api *backend.Client, ai *genai.Client, chats *intsync.ChatSynchronizer, msgs *intsync.MessageSynchronizer, sender *outbox.Sender, limiter *media.Limiter, machine *status.Machine, logger *zap.Logger) *tui.App {
	return tui.NewApp(tui.Deps{
		Profile:  p.Profile,
		Config:   cfg,
		DB:       db,
		Bus:      b,
		Backend:  api,
		GenAI:    ai,
		Chats:    chats,
		Messages: msgs,
		Sender:   sender,
		Limiter:  limiter,
		Machine:  machine,
		Logger:   logger,
	})
}

func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, app *tui.App, lk *lock.Lock, db *store.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := app.Run(); err != nil {
					logger.Error("console exited with error", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			app.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("console stopped")
			return nil
		},
	})
}

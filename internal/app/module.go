// Package app composes the client: storage, store, router, send pipeline
// and the TUI, wired through fx with lifecycle hooks for startup order and
// clean shutdown.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"vedchat/internal/bus"
	"vedchat/internal/codec"
	"vedchat/internal/config"
	"vedchat/internal/draft"
	"vedchat/internal/evict"
	"vedchat/internal/kv"
	"vedchat/internal/lock"
	"vedchat/internal/logging"
	"vedchat/internal/metrics"
	"vedchat/internal/remote"
	"vedchat/internal/reveal"
	"vedchat/internal/route"
	"vedchat/internal/session"
	"vedchat/internal/store"
	"vedchat/internal/tui"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	OpenTopicID string // optional topic to activate on startup
}

// Module returns the fx module for the client, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("app",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			provideKV,
			provideCodec,
			provideStore,
			provideDrafts,
			provideBinder,
			provideScheduler,
			provideClient,
			providePipeline,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() (*config.Config, error) {
	return config.Load(session.ConfigPath())
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideKV(p Params, cfg *config.Config, logger *zap.Logger) (kv.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite", "":
		path := session.DBPath(p.SessionName)
		logger.Info("opening storage", zap.String("backend", "sqlite"), zap.String("path", path))
		return kv.OpenSQLite(path, cfg.Storage.Capacity)
	case "bolt":
		path := filepath.Join(session.Dir(p.SessionName), "vedchat.bolt")
		logger.Info("opening storage", zap.String("backend", "bolt"), zap.String("path", path))
		return kv.OpenBolt(path, cfg.Storage.Capacity)
	case "memory":
		return kv.NewMemory(cfg.Storage.Capacity), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func provideCodec(logger *zap.Logger) *codec.Codec {
	return codec.New(logger)
}

func provideStore(kvs kv.Store, c *codec.Codec, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *store.Store {
	lim := evict.Limits{
		TopicLimit:       cfg.Storage.TopicLimit,
		MessagesPerTopic: cfg.Storage.MessagesPerTopic,
		ByteBudget:       cfg.Storage.ByteBudget,
	}
	return store.New(kvs, c, b, logger, lim)
}

func provideDrafts(kvs kv.Store, logger *zap.Logger) *draft.Cache {
	return draft.New(kvs, logger)
}

func provideBinder(p Params, st *store.Store, b *bus.Bus, logger *zap.Logger) *route.Binder {
	loc := route.NewFileLocation(session.LocationPath(p.SessionName))
	return route.NewBinder(loc, st, b, logger)
}

func provideScheduler(st *store.Store, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *reveal.Scheduler {
	return reveal.NewScheduler(st, b, logger, cfg.Reveal.Interval())
}

func provideClient(cfg *config.Config, logger *zap.Logger) remote.Client {
	if cfg.API.Provider == "anthropic" {
		return remote.NewAnthropicClient(cfg.API.Model)
	}
	return remote.NewHTTPClient(cfg.API.BaseURL, os.Getenv("VEDCHAT_API_TOKEN"), &http.Client{}, logger)
}

func providePipeline(st *store.Store, client remote.Client, rev *reveal.Scheduler, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *remote.Pipeline {
	policy := remote.RetryPolicy{
		MaxAttempts: cfg.API.RetryMaxAttempts,
		BaseDelay:   cfg.API.RetryBaseDelay(),
	}
	return remote.NewPipeline(st, client, rev, b, logger, policy, cfg.API.Timeout())
}

func provideApp(p Params, st *store.Store, drafts *draft.Cache, pipe *remote.Pipeline, b *bus.Bus, logger *zap.Logger) *tui.App {
	return tui.NewApp(st, drafts, pipe, b, logger, p.SessionName)
}

func registerLifecycle(lc fx.Lifecycle, sh fx.Shutdowner, p Params, ui *tui.App, st *store.Store, binder *route.Binder, sched *reveal.Scheduler, pipe *remote.Pipeline, kvs kv.Store, lk *lock.Lock, cfg *config.Config, logger *zap.Logger) {
	var stopMetrics func(context.Context) error

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			binder.Restore()
			if p.OpenTopicID != "" {
				if err := st.SetActive(p.OpenTopicID); err != nil {
					logger.Warn("requested topic not found", zap.String("topic_id", p.OpenTopicID))
				}
			}
			binder.Start()

			stopMetrics = metrics.Serve(cfg.Metrics.Listen, logger)

			go func() {
				if err := ui.Run(); err != nil {
					logger.Error("tui error", zap.Error(err))
				}
				_ = sh.Shutdown()
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ui.Stop()
			binder.Close()
			sched.CancelAll()
			pipe.Wait()
			if stopMetrics != nil {
				_ = stopMetrics(ctx)
			}
			if err := kvs.Close(); err != nil {
				logger.Warn("error closing storage", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/gatekeeper/core/bootstrap"
	"github.com/m3rciful/gatekeeper/core/buildinfo"
	coreconfig "github.com/m3rciful/gatekeeper/core/config"
	"github.com/m3rciful/gatekeeper/core/health"
	"github.com/m3rciful/gatekeeper/core/logger"
	coretelegram "github.com/m3rciful/gatekeeper/core/telegram"
	"github.com/m3rciful/gatekeeper/core/telegram/router"
	delivery "github.com/m3rciful/gatekeeper/internal/delivery/telegram"
	"github.com/m3rciful/gatekeeper/internal/dispatch"
	"github.com/m3rciful/gatekeeper/internal/gate"
	"github.com/m3rciful/gatekeeper/internal/membership"
	"github.com/m3rciful/gatekeeper/internal/metrics"

	tele "gopkg.in/telebot.v4"
)

// App holds the wired components between bootstrap and run.
type App struct {
	cfg     *Config
	infra   *bootstrap.Result
	counter metrics.Counter
	health  *health.Server

	newBot func(*coreconfig.Config) (*tele.Bot, error)
}

// Bootstrap initialises logging and storage for cfg.
func Bootstrap(cfg *Config) (*App, error) {
	return bootstrapWith(cfg, bootstrap.Options{})
}

func bootstrapWith(cfg *Config, opts bootstrap.Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	opts.Config = &cfg.Config
	opts.Database = cfg.Database

	infra, err := bootstrap.Run(opts)
	if err != nil {
		return nil, err
	}

	var counter metrics.Counter = metrics.NewMemory()
	if infra.DB != nil {
		counter = metrics.NewPostgres(infra.DB)
	}

	a := &App{
		cfg:     cfg,
		infra:   infra,
		counter: counter,
		newBot:  coretelegram.NewBot,
	}
	if !cfg.Health.Disabled {
		a.health = health.NewServer(cfg.Health.Addr())
	}
	return a, nil
}

// Dispatcher builds the gate-aware dispatcher around oracle.
func (a *App) Dispatcher(oracle membership.Oracle) *dispatch.Dispatcher {
	ch := a.cfg.Channel
	return dispatch.New(dispatch.Options{
		Checker: membership.NewChecker(oracle, ch.ID, ch.CheckTimeout()),
		Gate: gate.New(gate.Channel{
			ID:       ch.ID,
			URL:      ch.URL,
			ImageURL: ch.WarningImageURL,
		}),
		Counter:   a.counter,
		ChannelID: ch.ID,
		Build:     buildinfo.Summary(),
	})
}

// TelegramRunOptions creates the bot and wires every route through the dispatcher.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := &a.cfg.Config
	bot, err := a.newBot(core)
	if err != nil {
		return coretelegram.RunOptions{}, err
	}

	transport := delivery.New(a.Dispatcher(membership.NewTelebot(bot)), delivery.Options{
		AdminID: core.Telegram.AdminID,
	})
	reg := coretelegram.NewRegistry()
	if err := transport.Register(reg); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: register handlers: %w", err)
	}

	routes := router.Routes(reg, core.Telegram.AdminID, transport)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Bot:         bot,
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ coretelegram.Runtime) error {
	if a.health == nil {
		logger.Info(ctx, "health", "listen",
			slog.String("status", "skip"),
			slog.String("cause", "disabled"),
		)
		return nil
	}
	return a.health.Start(ctx)
}

func (a *App) onStop(ctx context.Context, _ coretelegram.Runtime) error {
	var firstErr error
	if a.health != nil {
		if err := a.health.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if err := a.infra.Close(); err != nil {
		logger.DB.Warn("db close failed",
			slog.String("event", "db.close"),
			slog.String("err", err.Error()),
		)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

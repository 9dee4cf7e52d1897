// Package app wires the Info Finder bot onto the core runtime.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/infobot/app/compose"
	"github.com/m3rciful/infobot/app/handlers"
	"github.com/m3rciful/infobot/app/journal"
	"github.com/m3rciful/infobot/app/relay"
	"github.com/m3rciful/infobot/core/bootstrap"
	corecmd "github.com/m3rciful/infobot/core/cmd"
	coreconfig "github.com/m3rciful/infobot/core/config"
	"github.com/m3rciful/infobot/core/logger"
	coretelegram "github.com/m3rciful/infobot/core/telegram"
	"github.com/m3rciful/infobot/core/telegram/cooldown"
	"github.com/m3rciful/infobot/core/telegram/router"
	tgsender "github.com/m3rciful/infobot/core/telegram/sender"
	"github.com/m3rciful/infobot/core/telegram/state"
)

// Config carries the core configuration.
type Config struct {
	Core *coreconfig.Config
}

// CoreConfig implements corecmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config { return c.Core }

// LoadConfig reads configuration from path (optional) and the environment.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return &Config{Core: cfg}, nil
}

// App owns the per-process state of the bot.
type App struct {
	cfg       *coreconfig.Config
	infra     *bootstrap.Result
	handlers  *handlers.Handlers
	notifier  *relay.Notifier
	onHandled router.HandledFunc
}

// Bootstrap initializes infrastructure and builds the App.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg := carrier.CoreConfig()
	infra, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	return New(cfg, infra), nil
}

// New builds the App over already initialized infrastructure.
func New(cfg *coreconfig.Config, infra *bootstrap.Result) *App {
	a := &App{cfg: cfg, infra: infra}

	if infra != nil && infra.DB != nil {
		a.onHandled = journal.Hook(journal.NewStore(infra.DB), nil)
	}

	// The relay destination is bound once the bot exists, see OnStart.
	a.notifier = relay.New(nil, cfg.Relay.ChannelID, nil)
	a.handlers = handlers.New(handlers.Deps{
		Cooldown:  cooldown.New(cfg.GetInfoCooldown()),
		State:     state.NewMemoryManager(),
		Relay:     forwarderFunc(a.forward),
		Picker:    compose.NewPicker(time.Now().UnixNano()),
		Delay:     cfg.FetchDelay(),
		OnHandled: a.onHandled,
	})
	return a
}

type forwarderFunc func(ctx context.Context, from compose.Identity, c compose.Contact) error

func (f forwarderFunc) Forward(ctx context.Context, from compose.Identity, c compose.Contact) error {
	return f(ctx, from, c)
}

func (a *App) forward(ctx context.Context, from compose.Identity, c compose.Contact) error {
	return a.notifier.Forward(ctx, from, c)
}

// TelegramRunOptions implements corecmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a.cfg == nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: nil config")
	}

	reg := coretelegram.NewRegistry()
	a.handlers.Register(reg)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{OnHandled: a.onHandled})
	routes = append(routes, a.handlers.Routes()...)

	return coretelegram.RunOptions{
		Config:   a.cfg,
		Registry: reg,
		DispatcherOptions: tgsender.Options{
			QueueSize:     a.cfg.Relay.QueueSize,
			Workers:       1,
			RatePerSecond: a.cfg.Relay.RatePerSecond,
			Burst:         a.cfg.Relay.Burst,
		},
		Middlewares: coretelegram.DefaultMiddlewares(a.handlers.State(), reg),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.notifier = relay.New(rt.Bot, a.cfg.Relay.ChannelID, rt.Dispatcher)
			logger.Relay.LogAttrs(ctx, slog.LevelInfo, "",
				slog.String("event", "relay.ready"),
				slog.String("dest", a.cfg.Relay.ChannelID),
				slog.Float64("rate_per_second", a.cfg.Relay.RatePerSecond),
			)
			return nil
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			return a.infra.Close()
		},
	}, nil
}

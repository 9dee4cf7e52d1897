package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	coreconfig "github.com/m3rciful/infobot/core/config"
	"github.com/m3rciful/infobot/core/logger"
	"github.com/m3rciful/infobot/core/metrics"
	tgsender "github.com/m3rciful/infobot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram composes and runs a Telegram bot and its HTTP surface until the provided context is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}

	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			PublicURL:   cfg.WebhookPublicURL(),
			SecretToken: cfg.Webhook.Secret,
		},
	})

	longPoll := time.Duration(0)
	if lp, ok := poller.(*tele.LongPoller); ok {
		longPoll = lp.Timeout
	}

	settings := tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(longPoll),
		OnError: logBotError,
	}

	buildStart := time.Now()
	bot, err := tele.NewBot(settings)
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %s", logger.RedactToken(err.Error()))
	}
	buildTook := logger.Took(buildStart)

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}

	rt := Runtime{
		Bot:        bot,
		Dispatcher: dispatcher,
		Registry:   reg,
	}

	// Log adapter configuration (INFO aggregates only)
	switch p := poller.(type) {
	case *tele.Webhook:
		logger.TG.LogAttrs(ctx, slog.LevelInfo, "webhook mode",
			slog.String("event", "mode"),
			slog.String("mode", "webhook"),
			slog.String("listen", cfg.ListenAddr()),
			slog.String("public_url", logger.RedactToken(p.Endpoint.PublicURL)),
			slog.Bool("secret", p.SecretToken != ""),
			slog.Duration("duration", buildTook),
		)
	case *tele.LongPoller:
		logger.TG.Info("polling mode",
			slog.String("event", "mode"),
			slog.String("mode", "polling"),
			slog.Int("timeout_seconds", int(p.Timeout/time.Second)),
			slog.Duration("duration", buildTook),
		)

		if !opts.DisableWebhookCleanup {
			if err := bot.RemoveWebhook(); err != nil {
				logger.TG.Warn("failed to delete webhook",
					slog.String("event", "delete_webhook"),
					slog.String("mode", "polling"),
					slog.String("err", logger.RedactToken(err.Error())),
				)
			} else {
				logger.TG.Info("webhook deleted",
					slog.String("event", "delete_webhook"),
					slog.String("mode", "polling"),
				)
			}
		}
	}

	handlers := &inflight{}
	Wire(bot, append([]Middleware{{Name: "inflight", Use: handlers.track}}, opts.Middlewares...), opts.Routes)

	InitBotCommands(bot, reg)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			dispatcher.Close()
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The bot loop must be consuming before the HTTP surface accepts updates.
	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	// srvDone stays nil without an HTTP surface so the select below never fires on it.
	var srvDone chan error
	if addr := cfg.ListenAddr(); addr != "" {
		srvDone = make(chan error, 1)
		srvOpts := ServerOptions{Addr: addr}
		if _, ok := poller.(*tele.Webhook); ok {
			srvOpts.WebhookPath = cfg.WebhookPath()
			srvOpts.Updates = bot.Updates
			srvOpts.SecretToken = cfg.Webhook.Secret
		}
		if cfg.Metrics.Enabled {
			srvOpts.MetricsPath = cfg.Metrics.Path
			srvOpts.Metrics = metrics.Handler()
		}
		srv := NewServer(srvOpts)
		go func() {
			srvDone <- Serve(runCtx, srv)
			close(srvDone)
		}()
	}

	var (
		runErr     error
		botStopped bool
	)
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case <-runDone:
		botStopped = true
	case err, ok := <-srvDone:
		if ok && err != nil {
			runErr = fmt.Errorf("telegram: http server: %w", err)
		}
	}

	cancel()
	if !botStopped {
		bot.Stop()
		<-runDone
	}
	if srvDone != nil {
		if err, ok := <-srvDone; ok && err != nil && runErr == nil {
			runErr = fmt.Errorf("telegram: http server: %w", err)
		}
	}

	// Handlers still inside their delay may enqueue relays or write the
	// journal, so they finish before the queue and OnStop resources close.
	if !handlers.wait(drainTimeout) {
		logger.TG.Warn("shutdown.drain",
			slog.String("status", "fail"),
			slog.Duration("timeout", drainTimeout),
		)
	}
	dispatcher.Close()

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}

	if stopErr != nil {
		return stopErr
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return nil
		}
		return runErr
	}

	return nil
}

// Wire registers the global middlewares and then the routes on bot.
// telebot binds global middleware when a route is added, so the order matters.
func Wire(bot *tele.Bot, middlewares []Middleware, routes []Route) {
	for _, mw := range middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}
}

const drainTimeout = 10 * time.Second

// inflight counts handlers that are running. bot.Stop does not wait for them.
type inflight struct {
	wg sync.WaitGroup
}

func (f *inflight) track(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		f.wg.Add(1)
		defer f.wg.Done()
		return next(c)
	}
}

// wait reports whether all tracked handlers returned within timeout.
func (f *inflight) wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func logBotError(err error, c tele.Context) {
	if err == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("event", "tg.error"),
		slog.String("err", logger.SanitizeLimit(logger.RedactToken(err.Error()), 256)),
	}
	if c != nil {
		attrs = append(attrs, slog.Int("update_id", c.Update().ID))
	}
	logger.TG.LogAttrs(context.Background(), slog.LevelError, "", attrs...)
}

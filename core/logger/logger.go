// Package logger is the bot's structured logging layer over log/slog.
//
// Every line carries a component and an event name. Update metadata stored
// with WithMeta (rid, update_id, user_id, chat_id, handler) is appended to
// lines logged with that context.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/infobot/core/buildinfo"
	coreconfig "github.com/m3rciful/infobot/core/config"
)

var (
	mu     sync.Mutex
	sink   io.Closer
	levels slog.LevelVar

	// L is the base logger. It is slog.Default until Init runs.
	L = slog.Default()

	// App logs process lifecycle events.
	App *slog.Logger
	// TG logs update handling and Bot API wiring.
	TG *slog.Logger
	// HTTP logs the webhook and liveness surface.
	HTTP *slog.Logger
	// Relay logs contact relay deliveries.
	Relay *slog.Logger
	// DB logs journal database events.
	DB *slog.Logger
	// MIG logs schema migrations.
	MIG *slog.Logger
)

func init() { bind(L) }

func bind(base *slog.Logger) {
	L = base
	App = Component("app")
	TG = Component("tg")
	HTTP = Component("http")
	Relay = Component("relay")
	DB = Component("db")
	MIG = Component("db.migrate")
}

// Init installs the configured handler as the slog default and rebinds the
// component loggers. Calling it again replaces the previous output.
func Init(cfg *coreconfig.Config) error {
	var lc coreconfig.LoggingConfig
	if cfg != nil {
		lc = cfg.Logging
	}
	lvl, err := parseLevel(lc.Level)
	if err != nil {
		return err
	}
	out, closer, err := openOutput(lc)
	if err != nil {
		return err
	}

	mu.Lock()
	if sink != nil {
		_ = sink.Close()
	}
	sink = closer
	levels.Set(lvl)
	base := slog.New(newHandler(out, &levels, useText(lc)))
	slog.SetDefault(base)
	bind(base)
	mu.Unlock()

	App.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("log_level", strings.ToLower(lvl.String())),
	)
	return nil
}

// Shutdown closes the log file opened by Init, if any.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil
	return err
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", raw)
}

// useText picks key=value output for an explicit text format or a debug/dev profile.
func useText(lc coreconfig.LoggingConfig) bool {
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "text", "kv", "pretty":
		return true
	case "json":
		return false
	}
	profile := strings.ToLower(strings.TrimSpace(lc.Profile))
	return profile == "debug" || profile == "dev"
}

func openOutput(lc coreconfig.LoggingConfig) (io.Writer, io.Closer, error) {
	dir, name := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.File)
	if dir == "" || name == "" {
		return os.Stdout, nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return io.MultiWriter(os.Stdout, f), f, nil
}

// Component returns L scoped to the named component.
func Component(name string) *slog.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return L
	}
	return L.With("component", name)
}

// Debug logs event at debug level for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelDebug, event, attrs)
}

// Info logs event at info level for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelInfo, event, attrs)
}

// Warn logs event at warn level for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelWarn, event, attrs)
}

// Error logs event at error level for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelError, event, attrs)
}

func emit(ctx context.Context, component string, level slog.Level, event string, attrs []slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	l := Component(component)
	if !l.Enabled(ctx, level) {
		return
	}
	l.LogAttrs(ctx, level, event, attrs...)
}

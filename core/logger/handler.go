package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

const timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"

// eventHandler turns the record message into the "event" attribute and
// appends context metadata the record does not set itself.
type eventHandler struct {
	inner slog.Handler
}

func newHandler(w io.Writer, level slog.Leveler, text bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceAttr}
	if text {
		return &eventHandler{inner: slog.NewTextHandler(w, opts)}
	}
	return &eventHandler{inner: slog.NewJSONHandler(w, opts)}
}

func (h *eventHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *eventHandler) Handle(ctx context.Context, r slog.Record) error {
	present := make(map[string]bool, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		present[a.Key] = true
		return true
	})

	out := slog.NewRecord(r.Time, r.Level, "", r.PC)
	if !present["event"] {
		event := strings.TrimSpace(r.Message)
		if event == "" {
			event = "unknown"
		}
		out.AddAttrs(slog.String("event", event))
	}
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(a)
		return true
	})
	for _, a := range MetaFrom(ctx).Attrs() {
		if !present[a.Key] {
			out.AddAttrs(a)
		}
	}
	return h.inner.Handle(ctx, out)
}

func (h *eventHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &eventHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *eventHandler) WithGroup(name string) slog.Handler {
	return &eventHandler{inner: h.inner.WithGroup(name)}
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.MessageKey:
			return slog.Attr{}
		case slog.TimeKey:
			return slog.String("ts", a.Value.Time().UTC().Format(timeFormatMillis))
		}
	}
	switch a.Value.Kind() {
	case slog.KindString:
		s := strings.TrimSpace(a.Value.String())
		if s == "" {
			return slog.Attr{}
		}
		return slog.String(a.Key, s)
	case slog.KindDuration:
		return slog.Int64(durationKey(a.Key), RoundMS(a.Value.Duration()).Milliseconds())
	}
	return a
}

// durationKey maps duration attrs onto *_ms keys so every sink sees milliseconds.
func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

// Took returns the rounded duration since start.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to the nearest millisecond.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

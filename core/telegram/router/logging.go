package router

import (
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/infobot/core/logger"
	"github.com/m3rciful/infobot/core/metrics"
	tghelpers "github.com/m3rciful/infobot/core/telegram/helpers"
	"github.com/m3rciful/infobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// HandledFunc observes every finished handler with its normalized name and outcome.
type HandledFunc func(c tele.Context, handler, outcome string)

func handleWithSummary(c tele.Context, handlerName string, start time.Time, onHandled HandledFunc, fn func() error, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, handlerName)
	err := fn()
	status, outcome := logHandlerSummary(c, handlerName, start, "", tghelpers.OutcomeFrom(c), err, extras...)
	metrics.RecordHandled(handlerName, status, time.Since(start))
	if onHandled != nil {
		onHandled(c, handlerName, outcome)
	}
	return err
}

func logHandlerSummary(c tele.Context, handlerName string, start time.Time, statusOverride, outcomeOverride string, err error, extras ...slog.Attr) (string, string) {
	ctx := tghelpers.WithHandler(c, handlerName)
	msgs, kb := middleware.GetCounters(c)

	status := statusOverride
	if status == "" {
		switch {
		case err != nil:
			status = "fail"
		case outcomeOverride == "denied":
			status = "denied"
		default:
			status = "ok"
		}
	}
	outcome := outcomeOverride
	if outcome == "" || err != nil {
		outcome = logger.Status(err)
	}

	duration := logger.RoundMS(time.Since(start)).Milliseconds()
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", duration),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(logger.RedactToken(err.Error()), 256)),
			slog.String("err_code", deriveErrorCode(err)),
			slog.String("cause", handlerName),
		)
	}
	if len(extras) > 0 {
		attrs = append(attrs, extras...)
	}
	logger.Info(ctx, "tg", "handler.handled", attrs...)
	return status, outcome
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	type coder interface{ Code() string }
	if c, ok := err.(coder); ok {
		code := strings.TrimSpace(c.Code())
		if code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(strings.ReplaceAll(t.Name(), " ", "_"))
	}
	return "UNKNOWN_ERROR"
}

// Summarized wraps h with the handler summary log, metrics and onHandled,
// for handlers reached outside the routes built here, such as follow-up steps.
func Summarized(name string, onHandled HandledFunc, h tele.HandlerFunc) tele.HandlerFunc {
	name = normalizeHandlerName(name)
	return func(c tele.Context) error {
		return handleWithSummary(c, name, time.Now(), onHandled, func() error {
			return h(c)
		})
	}
}

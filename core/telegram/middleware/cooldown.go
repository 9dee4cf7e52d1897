package middleware

import (
	"log/slog"
	"time"

	"github.com/m3rciful/infobot/core/logger"
	"github.com/m3rciful/infobot/core/metrics"
	"github.com/m3rciful/infobot/core/telegram/cooldown"
	tghelpers "github.com/m3rciful/infobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// CooldownOptions configures the cooldown middleware.
type CooldownOptions struct {
	// Action names the guarded action in logs.
	Action   string
	OnDenied func(c tele.Context, d cooldown.Decision) error
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// Cooldown guards a single handler with a per-user cooldown. Denied calls
// invoke OnDenied and never reach next.
func Cooldown(l *cooldown.Limiter, opts CooldownOptions) tele.MiddlewareFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || l == nil {
				return next(c)
			}

			d := l.Check(user.ID, now())
			if d.Allowed {
				return next(c)
			}

			metrics.RecordCooldownDenied()
			tghelpers.SetOutcome(c, "denied")
			ctx := tghelpers.BuildContext(c)
			logger.Warn(ctx, "tg", "tg.cooldown",
				slog.String("status", "denied"),
				slog.String("handler", opts.Action),
				slog.Int64("user_id", user.ID),
				slog.Int("wait_seconds", d.Wait),
			)
			if opts.OnDenied != nil {
				return opts.OnDenied(c, d)
			}
			return nil
		}
	}
}

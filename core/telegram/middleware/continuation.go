package middleware

import (
	"log/slog"

	"github.com/m3rciful/infobot/core/logger"
	tghelpers "github.com/m3rciful/infobot/core/telegram/helpers"
	"github.com/m3rciful/infobot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// Dispatcher is the part of the conversation state manager needed to route follow-ups.
type Dispatcher interface {
	Dispatch(c tele.Context) (bool, error)
	Take(userID int64) (state.State, bool)
}

// Continuation routes a message to the sender's pending follow-up handler
// before any regular handler sees it. Messages for which isCommand reports
// true consume the pending step without running it and go on to their command.
func Continuation(d Dispatcher, isCommand func(text string) bool) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if d == nil || user == nil {
				return next(c)
			}
			if isCommand != nil && isCommand(c.Text()) {
				if st, ok := d.Take(user.ID); ok {
					logger.Debug(tghelpers.BuildContext(c), "tg", "fsm.superseded",
						slog.Int64("user_id", user.ID),
						slog.String("state", string(st)),
					)
				}
				return next(c)
			}
			handled, err := d.Dispatch(c)
			if handled {
				return err
			}
			return next(c)
		}
	}
}

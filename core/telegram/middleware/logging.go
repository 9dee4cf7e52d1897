package middleware

import (
	"log/slog"

	"github.com/m3rciful/infobot/core/logger"
	tghelpers "github.com/m3rciful/infobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware sets the update rid, stores the logging context and logs
// one update.received line at debug level.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}
		upd := c.Update()
		c.Set("rid", logger.BuildRID(upd.ID, chatID, userID))
		ctx := tghelpers.BuildContext(c)

		logger.Debug(ctx, "tg", "update.received",
			slog.String("kind", messageKind(c.Message())),
			slog.String("payload", payloadPreview(c)),
		)
		return next(c)
	}
}

// messageKind names the content of m for logs.
func messageKind(m *tele.Message) string {
	switch {
	case m == nil:
		return "none"
	case m.Contact != nil:
		return "contact"
	case m.Text != "":
		return "text"
	case m.Photo != nil, m.Voice != nil, m.Audio != nil, m.Animation != nil,
		m.Document != nil, m.Sticker != nil, m.Video != nil, m.VideoNote != nil:
		return "media"
	case m.Location != nil, m.Venue != nil:
		return "location"
	}
	return "other"
}

// payloadPreview returns the message text with contact cards never logged.
func payloadPreview(c tele.Context) string {
	if m := c.Message(); m != nil && m.Contact != nil {
		return "<contact>"
	}
	return logger.SanitizeLimit(c.Text(), 256)
}

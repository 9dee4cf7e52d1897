package helpers

import (
	"fmt"
	"log/slog"

	"github.com/m3rciful/infobot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// ReplyMD replies to the current message with Markdown parse mode and optional reply markup.
func ReplyMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: rm}
	if err := c.Reply(text, opts); err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}

// Typing shows the typing indicator in the current chat.
// Failures only affect cosmetics and are logged, not returned.
func Typing(c tele.Context) {
	if err := c.Notify(tele.Typing); err != nil {
		logger.Debug(BuildContext(c), "tg", "chat_action.fail",
			slog.String("action", string(tele.Typing)),
			slog.String("err", err.Error()),
		)
	}
}

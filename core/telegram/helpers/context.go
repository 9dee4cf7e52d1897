package helpers

import (
	"context"

	"github.com/m3rciful/infobot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const contextKey = "logger_ctx"

// StoreContext attaches reusable context to tele.Context for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom telegram context if previously stored by middleware.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	if v := c.Get(contextKey); v != nil {
		if ctx, ok := v.(context.Context); ok {
			return ctx, true
		}
	}
	return nil, false
}

// BuildContext constructs a context.Context from tele.Context,
// enriching it with RID and update/user/chat metadata for consistent service logging.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}

	upd := c.Update()
	user := c.Sender()
	chat := c.Chat()

	var (
		chatID int64
		userID int64
	)
	if chat != nil {
		chatID = chat.ID
	}
	if user != nil {
		userID = user.ID
	}

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(upd.ID, chatID, userID)
	}

	ctx := logger.WithMeta(context.Background(), logger.Meta{
		RID:      rid,
		UpdateID: upd.ID,
		UserID:   userID,
		ChatID:   chatID,
	})
	StoreContext(c, ctx)
	return ctx
}

// WithHandler enriches stored context with handler metadata for downstream logs.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}

const outcomeKey = "handler_outcome"

// SetOutcome overrides the outcome reported in the handler summary, e.g. "denied".
func SetOutcome(c tele.Context, outcome string) {
	if c == nil || outcome == "" {
		return
	}
	c.Set(outcomeKey, outcome)
}

// OutcomeFrom returns an outcome previously set with SetOutcome.
func OutcomeFrom(c tele.Context) string {
	if c == nil {
		return ""
	}
	s, _ := c.Get(outcomeKey).(string)
	return s
}

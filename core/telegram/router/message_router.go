package router

import (
	"time"

	tg "github.com/m3rciful/infobot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// ContactRoute binds h to shared contact cards.
func ContactRoute(h tele.HandlerFunc, onHandled HandledFunc) tg.Route {
	return tg.Route{
		Endpoint: tele.OnContact,
		Handler: func(c tele.Context) error {
			return handleWithSummary(c, "contact", time.Now(), onHandled, func() error {
				return h(c)
			})
		},
	}
}

// TextOptions controls fallback behaviour for unmatched messages.
// Nil handlers leave the message unanswered.
type TextOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownMedia tele.HandlerFunc
}

// otherMessageEndpoints are the non-text, non-media message kinds a user
// can send in a private chat. OnForward and OnReply are left out: telebot
// fires them in addition to OnText, which would run global middleware twice
// for one message.
var otherMessageEndpoints = []string{
	tele.OnLocation,
	tele.OnVenue,
	tele.OnDice,
	tele.OnGame,
	tele.OnUserShared,
	tele.OnChatShared,
	tele.OnWebApp,
}

// TextRoutes builds fall-through handlers so that every inbound message
// reaches a route, and with it the global middleware chain. OnMedia covers
// photos, voice, audio, animations, documents, stickers, video and video notes.
func TextRoutes(opts TextOptions) []tg.Route {
	textHandler := fallthroughHandler("unknown_text", opts.UnknownText)
	mediaHandler := fallthroughHandler("unexpected_media", opts.UnknownMedia)
	otherHandler := fallthroughHandler("unexpected_message", nil)

	routes := []tg.Route{
		{Endpoint: tele.OnText, Handler: textHandler},
		{Endpoint: tele.OnMedia, Handler: mediaHandler},
	}
	for _, end := range otherMessageEndpoints {
		routes = append(routes, tg.Route{Endpoint: end, Handler: otherHandler})
	}
	return routes
}

func fallthroughHandler(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		if h != nil {
			return handleWithSummary(c, name, start, nil, func() error {
				return h(c)
			})
		}
		logHandlerSummary(c, name, start, "skip", "skip", nil)
		return nil
	}
}

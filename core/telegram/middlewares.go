package telegram

import (
	"github.com/m3rciful/infobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared middleware chain for bots.
// A non-nil continuation dispatcher runs last, so a pending follow-up step
// sees every update before any routed handler does. Commands known to reg
// supersede the pending step instead of feeding it.
func DefaultMiddlewares(continuation middleware.Dispatcher, reg *Registry) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
	if continuation != nil {
		var isCommand func(string) bool
		if reg != nil {
			isCommand = reg.IsCommand
		}
		mws = append(mws, Middleware{Name: "continuation", Use: middleware.Continuation(continuation, isCommand)})
	}
	return mws
}

// Chain applies mws to h so that the first middleware runs outermost.
func Chain(h tele.HandlerFunc, mws ...tele.MiddlewareFunc) tele.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

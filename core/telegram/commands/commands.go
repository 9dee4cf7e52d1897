package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Middleware wraps Handler only; the first entry runs outermost.
	Middleware []tele.MiddlewareFunc
	Hidden     bool
	Aliases    []string
}

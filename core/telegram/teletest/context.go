// Package teletest provides in-memory doubles of telebot types for handler tests.
package teletest

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Sent records one outbound call.
type Sent struct {
	What any
	Opts []any
}

// Text returns the payload as a string when it is one.
func (s Sent) Text() string {
	str, _ := s.What.(string)
	return str
}

// SendOptions returns the first *tele.SendOptions passed with the call.
func (s Sent) SendOptions() *tele.SendOptions {
	for _, o := range s.Opts {
		if so, ok := o.(*tele.SendOptions); ok {
			return so
		}
	}
	return nil
}

// Context is a tele.Context double. Methods not overridden here panic
// through the nil embedded interface, which flags unexpected calls.
type Context struct {
	tele.Context

	User *tele.User
	Room *tele.Chat
	Msg  *tele.Message
	Upd  tele.Update

	// ReplyErr is returned by Reply and Send when set.
	ReplyErr error

	mu      sync.Mutex
	store   map[string]any
	replies []Sent
	actions []tele.ChatAction
}

// NewText builds a private-chat text message context from user.
func NewText(updateID int, user *tele.User, text string) *Context {
	chat := &tele.Chat{ID: user.ID, Type: tele.ChatPrivate}
	msg := &tele.Message{ID: updateID, Sender: user, Chat: chat, Text: text}
	return &Context{
		User: user,
		Room: chat,
		Msg:  msg,
		Upd:  tele.Update{ID: updateID, Message: msg},
	}
}

// NewContact builds a context carrying a shared contact card.
func NewContact(updateID int, user *tele.User, contact *tele.Contact) *Context {
	c := NewText(updateID, user, "")
	c.Msg.Contact = contact
	return c
}

// Sender returns the configured user.
func (c *Context) Sender() *tele.User { return c.User }

// Chat returns the configured chat.
func (c *Context) Chat() *tele.Chat { return c.Room }

// Message returns the configured message.
func (c *Context) Message() *tele.Message { return c.Msg }

// Update returns the configured update.
func (c *Context) Update() tele.Update { return c.Upd }

// Text returns the message text.
func (c *Context) Text() string {
	if c.Msg == nil {
		return ""
	}
	return c.Msg.Text
}

// Get reads a value stored with Set.
func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

// Set stores a value for the lifetime of the context.
func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = val
}

// Send records an outbound message.
func (c *Context) Send(what any, opts ...any) error {
	return c.record(what, opts)
}

// Reply records an outbound reply.
func (c *Context) Reply(what any, opts ...any) error {
	return c.record(what, opts)
}

// Notify records a chat action.
func (c *Context) Notify(action tele.ChatAction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, action)
	return nil
}

func (c *Context) record(what any, opts []any) error {
	if c.ReplyErr != nil {
		return c.ReplyErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, Sent{What: what, Opts: opts})
	return nil
}

// Replies returns a copy of recorded outbound messages.
func (c *Context) Replies() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.replies...)
}

// Actions returns a copy of recorded chat actions.
func (c *Context) Actions() []tele.ChatAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]tele.ChatAction(nil), c.actions...)
}

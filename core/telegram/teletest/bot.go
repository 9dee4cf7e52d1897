package teletest

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Delivery is one message sent through Bot.
type Delivery struct {
	To   string
	What any
	Opts []any
}

// Bot records Send calls addressed to arbitrary recipients.
type Bot struct {
	// Err is returned by Send when set.
	Err error

	mu        sync.Mutex
	delivered []Delivery
}

// Send records the delivery.
func (b *Bot) Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error) {
	if b.Err != nil {
		return nil, b.Err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delivered = append(b.delivered, Delivery{To: to.Recipient(), What: what, Opts: opts})
	return &tele.Message{ID: len(b.delivered)}, nil
}

// Delivered returns a copy of recorded deliveries.
func (b *Bot) Delivered() []Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Delivery(nil), b.delivered...)
}

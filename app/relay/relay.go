// Package relay forwards shared contact cards to the administrative destination.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/infobot/app/compose"
	"github.com/m3rciful/infobot/core/logger"
	"github.com/m3rciful/infobot/core/metrics"
	"github.com/m3rciful/infobot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// ErrNoDestination is returned when no admin destination is configured.
var ErrNoDestination = errors.New("relay: no destination configured")

// Sender delivers a message to an arbitrary recipient. *tele.Bot satisfies it.
type Sender interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
}

// Destination is a chat identifier: a numeric id such as "-1001234" or a public "@channel".
type Destination string

// Recipient implements tele.Recipient.
func (d Destination) Recipient() string { return string(d) }

// Queue runs jobs asynchronously. *sender.Dispatcher satisfies it.
type Queue interface {
	Enqueue(ctx context.Context, action, endpoint string, run func(ctx context.Context) error) error
}

// Notifier sends one plain-text summary per shared contact. Sends are attempted once.
type Notifier struct {
	bot   Sender
	dest  Destination
	queue Queue
}

// New builds a Notifier. A nil queue makes Forward synchronous.
func New(bot Sender, dest string, queue Queue) *Notifier {
	if d, ok := queue.(*sender.Dispatcher); ok && d == nil {
		queue = nil
	}
	return &Notifier{bot: bot, dest: Destination(strings.TrimSpace(dest)), queue: queue}
}

// Forward relays the unredacted contact card shared by from.
// With a queue, only enqueue failures are returned and send failures are logged by the worker.
func (n *Notifier) Forward(ctx context.Context, from compose.Identity, c compose.Contact) error {
	if n == nil || n.bot == nil || n.dest == "" {
		return ErrNoDestination
	}
	text := compose.Relay(from, c)

	send := func(context.Context) error {
		_, err := n.bot.Send(n.dest, text)
		if err != nil {
			metrics.RecordRelay(metrics.RelayFailed)
			return fmt.Errorf("relay to %s: %w", n.dest, err)
		}
		metrics.RecordRelay(metrics.RelaySent)
		logger.Relay.LogAttrs(ctx, slog.LevelInfo, "",
			slog.String("event", "relay.sent"),
			slog.String("status", "ok"),
			slog.String("dest", string(n.dest)),
			slog.Int64("user_id", from.ID),
		)
		return nil
	}

	if n.queue == nil {
		if err := send(ctx); err != nil {
			logger.Relay.LogAttrs(ctx, slog.LevelError, "",
				slog.String("event", "relay.fail"),
				slog.String("status", "fail"),
				slog.String("err", logger.RedactToken(err.Error())),
			)
			return err
		}
		return nil
	}

	if err := n.queue.Enqueue(ctx, "relay", "sendMessage", send); err != nil {
		metrics.RecordRelay(metrics.RelayFailed)
		return fmt.Errorf("relay enqueue: %w", err)
	}
	metrics.RecordRelay(metrics.RelayQueued)
	return nil
}

var _ Queue = (*sender.Dispatcher)(nil)

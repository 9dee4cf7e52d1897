package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/infobot/app/compose"
	"github.com/m3rciful/infobot/core/telegram/sender"
	"github.com/m3rciful/infobot/core/telegram/teletest"
)

var (
	ana  = compose.Identity{ID: 42, FirstName: "Ana"}
	card = compose.Contact{Phone: "+100", FirstName: "Ana"}
)

func TestForwardSync(t *testing.T) {
	bot := &teletest.Bot{}
	n := New(bot, "@admins", nil)

	require.NoError(t, n.Forward(context.Background(), ana, card))

	got := bot.Delivered()
	require.Len(t, got, 1)
	assert.Equal(t, "@admins", got[0].To)
	text, _ := got[0].What.(string)
	assert.Contains(t, text, "+100")
	assert.Contains(t, text, "Not linked")
	assert.Empty(t, got[0].Opts)
}

func TestForwardSyncFailure(t *testing.T) {
	bot := &teletest.Bot{Err: errors.New("chat not found")}
	n := New(bot, "-1001", nil)

	err := n.Forward(context.Background(), ana, card)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestForwardNilDispatcherSendsInline(t *testing.T) {
	bot := &teletest.Bot{}
	var d *sender.Dispatcher
	n := New(bot, "@admins", d)

	require.NotPanics(t, func() {
		require.NoError(t, n.Forward(context.Background(), ana, card))
	})
	assert.Len(t, bot.Delivered(), 1)
}

func TestForwardQueued(t *testing.T) {
	bot := &teletest.Bot{}
	d := sender.NewDispatcher(sender.Options{Workers: 1})
	n := New(bot, "-1001", d)

	require.NoError(t, n.Forward(context.Background(), ana, card))
	d.Close()

	got := bot.Delivered()
	require.Len(t, got, 1)
	assert.Equal(t, "-1001", got[0].To)
}

func TestForwardQueuedSendFailureIsNotReturned(t *testing.T) {
	bot := &teletest.Bot{Err: errors.New("forbidden")}
	d := sender.NewDispatcher(sender.Options{Workers: 1})
	n := New(bot, "-1001", d)

	require.NoError(t, n.Forward(context.Background(), ana, card))
	d.Close()
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestForwardQueueClosed(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1})
	d.Close()
	n := New(&teletest.Bot{}, "-1001", d)

	err := n.Forward(context.Background(), ana, card)
	assert.ErrorIs(t, err, sender.ErrQueueClosed)
}

func TestForwardWithoutDestination(t *testing.T) {
	assert.ErrorIs(t, New(&teletest.Bot{}, "  ", nil).Forward(context.Background(), ana, card), ErrNoDestination)
	var n *Notifier
	assert.ErrorIs(t, n.Forward(context.Background(), ana, card), ErrNoDestination)
}

package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func TestInflightWaitsForRunningHandler(t *testing.T) {
	var f inflight
	entered := make(chan struct{})
	release := make(chan struct{})
	h := f.track(func(tele.Context) error {
		close(entered)
		<-release
		return nil
	})
	go func() { _ = h(nil) }()
	<-entered

	assert.False(t, f.wait(20*time.Millisecond))

	close(release)
	assert.True(t, f.wait(time.Second))
}

func TestWireAppliesMiddlewareToEveryRoute(t *testing.T) {
	bot, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	require.NoError(t, err)

	var order []string
	mw := Middleware{Name: "mark", Use: func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			order = append(order, "mw")
			return next(c)
		}
	}}
	Wire(bot, []Middleware{mw, {Name: "empty"}}, []Route{
		{Endpoint: tele.OnText, Handler: func(tele.Context) error {
			order = append(order, "text")
			return nil
		}},
		{Endpoint: tele.OnContact},
	})

	bot.ProcessUpdate(tele.Update{ID: 1, Message: &tele.Message{
		Text:   "hi",
		Sender: &tele.User{ID: 1},
		Chat:   &tele.Chat{ID: 1},
	}})
	assert.Equal(t, []string{"mw", "text"}, order)
}

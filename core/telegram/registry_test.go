package telegram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/infobot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegisterCommandValidation(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"})
	reg.RegisterCommand("help", commands.Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/empty", commands.Command{Handler: noop})
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "duplicate"})

	require.Len(t, reg.Commands(), 1)
	assert.Equal(t, "Start", reg.Commands()["/start"].Description)
}

func TestListCommandsSortedAndVisible(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/login", commands.Command{Handler: noop, Description: "Login"})
	reg.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "Cancel"})
	reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "Debug", Hidden: true})

	assert.Equal(t, []tele.Command{
		{Text: "cancel", Description: "Cancel"},
		{Text: "login", Description: "Login"},
	}, reg.ListCommands(true))
	assert.Len(t, reg.ListCommands(false), 3)
}

func TestLookupCommand(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/getinfo", commands.Command{Handler: noop, Description: "Info", Aliases: []string{"info"}})

	tests := []struct {
		text string
		key  string
		ok   bool
	}{
		{"/getinfo", "/getinfo", true},
		{"/getinfo@info_finder_bot", "/getinfo", true},
		{"/getinfo 12345", "/getinfo", true},
		{"/info", "/getinfo", true},
		{"getinfo", "", false},
		{"/unknown", "", false},
		{"", "", false},
		{"/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			key, _, ok := reg.LookupCommand(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.ok, reg.IsCommand(tt.text))
		})
	}
}

type fakeSetter struct {
	got []any
	err error
}

func (f *fakeSetter) SetCommands(opts ...any) error {
	f.got = opts
	return f.err
}

func TestInitBotCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"})

	s := &fakeSetter{}
	InitBotCommands(s, reg)
	require.Len(t, s.got, 1)
	assert.Equal(t, []tele.Command{{Text: "start", Description: "Start"}}, s.got[0])

	assert.NotPanics(t, func() { InitBotCommands(&fakeSetter{err: errors.New("401")}, reg) })
}

func TestChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) tele.MiddlewareFunc {
		return func(next tele.HandlerFunc) tele.HandlerFunc {
			return func(c tele.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}
	h := Chain(func(tele.Context) error { order = append(order, "h"); return nil }, mk("a"), nil, mk("b"))
	require.NoError(t, h(nil))
	assert.Equal(t, []string{"a", "b", "h"}, order)
}

func TestBuildPoller(t *testing.T) {
	wh, ok := BuildPoller(PollerOptions{
		RunMode: "webhook",
		Webhook: WebhookOptions{PublicURL: "https://example.org/123:abc", SecretToken: "s"},
	}).(*tele.Webhook)
	require.True(t, ok)
	assert.Empty(t, wh.Listen)
	assert.Equal(t, "https://example.org/123:abc", wh.Endpoint.PublicURL)
	assert.Equal(t, "s", wh.SecretToken)

	lp, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, defaultLongPollTimeout, lp.Timeout)
}

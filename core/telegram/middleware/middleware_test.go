package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/infobot/core/telegram/cooldown"
	tghelpers "github.com/m3rciful/infobot/core/telegram/helpers"
	"github.com/m3rciful/infobot/core/telegram/state"
	"github.com/m3rciful/infobot/core/telegram/teletest"

	tele "gopkg.in/telebot.v4"
)

func TestCooldownAllowsThenDenies(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	now := base
	var denied []cooldown.Decision
	calls := 0

	mw := Cooldown(cooldown.New(5*time.Second), CooldownOptions{
		Action: "getinfo",
		Now:    func() time.Time { return now },
		OnDenied: func(_ tele.Context, d cooldown.Decision) error {
			denied = append(denied, d)
			return nil
		},
	})
	h := mw(func(tele.Context) error { calls++; return nil })
	user := &tele.User{ID: 7}

	require.NoError(t, h(teletest.NewText(1, user, "/getinfo")))
	now = base.Add(2 * time.Second)
	c := teletest.NewText(2, user, "/getinfo")
	require.NoError(t, h(c))

	assert.Equal(t, 1, calls)
	require.Len(t, denied, 1)
	assert.False(t, denied[0].Allowed)
	assert.Equal(t, 3, denied[0].Wait)
	assert.Equal(t, "denied", tghelpers.OutcomeFrom(c))

	now = base.Add(5 * time.Second)
	require.NoError(t, h(teletest.NewText(3, user, "/getinfo")))
	assert.Equal(t, 2, calls)
}

func TestCooldownIsPerUser(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	calls := 0
	h := Cooldown(cooldown.New(5*time.Second), CooldownOptions{Now: func() time.Time { return now }})(
		func(tele.Context) error { calls++; return nil },
	)

	require.NoError(t, h(teletest.NewText(1, &tele.User{ID: 1}, "/getinfo")))
	require.NoError(t, h(teletest.NewText(2, &tele.User{ID: 2}, "/getinfo")))
	require.NoError(t, h(teletest.NewText(3, &tele.User{ID: 1}, "/getinfo")))
	assert.Equal(t, 2, calls)
}

func isSlash(text string) bool { return len(text) > 0 && text[0] == '/' }

func TestContinuationRunsPendingStep(t *testing.T) {
	mgr := state.NewMemoryManager()
	var got []string
	mgr.Handle("await", func(c tele.Context) error {
		got = append(got, "step:"+c.Text())
		return nil
	})
	next := func(c tele.Context) error {
		got = append(got, "next:"+c.Text())
		return nil
	}
	h := Continuation(mgr, isSlash)(next)
	user := &tele.User{ID: 9}

	mgr.Await(9, "await")
	require.NoError(t, h(teletest.NewText(1, user, "12345")))
	require.NoError(t, h(teletest.NewText(2, user, "again")))

	assert.Equal(t, []string{"step:12345", "next:again"}, got)
	assert.False(t, mgr.InProgress(9))
}

func TestContinuationCommandSupersedesPendingStep(t *testing.T) {
	mgr := state.NewMemoryManager()
	stepCalls := 0
	mgr.Handle("await", func(tele.Context) error { stepCalls++; return nil })
	nextCalls := 0
	h := Continuation(mgr, isSlash)(func(tele.Context) error { nextCalls++; return nil })

	mgr.Await(9, "await")
	require.NoError(t, h(teletest.NewText(1, &tele.User{ID: 9}, "/help")))

	assert.Zero(t, stepCalls)
	assert.Equal(t, 1, nextCalls)
	assert.False(t, mgr.InProgress(9))
}

func TestContinuationOrphanFallsThrough(t *testing.T) {
	mgr := state.NewMemoryManager()
	nextCalls := 0
	h := Continuation(mgr, nil)(func(tele.Context) error { nextCalls++; return nil })

	mgr.Await(9, "unbound")
	require.NoError(t, h(teletest.NewText(1, &tele.User{ID: 9}, "hi")))
	assert.Equal(t, 1, nextCalls)
	assert.False(t, mgr.InProgress(9))
}

func TestMetricsCountersTrackReplies(t *testing.T) {
	c := teletest.NewText(1, &tele.User{ID: 1}, "/login")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Reply("one")
		return c.Reply("two", &tele.ReplyMarkup{RemoveKeyboard: true})
	})

	require.NoError(t, h(c))
	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
	assert.Len(t, c.Replies(), 2)
}

func TestRecoverSwallowsPanic(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	assert.NotPanics(t, func() { _ = h(teletest.NewText(1, &tele.User{ID: 1}, "x")) })
}

func TestLoggerMiddlewareSetsRID(t *testing.T) {
	c := teletest.NewText(5, &tele.User{ID: 3}, "/start")
	var rid string
	h := LoggerMiddleware(func(c tele.Context) error {
		rid, _ = c.Get("rid").(string)
		return nil
	})
	require.NoError(t, h(c))
	assert.Equal(t, "5:3:3", rid)
	_, ok := tghelpers.ContextFrom(c)
	assert.True(t, ok)
}

func TestMessageKind(t *testing.T) {
	tests := []struct {
		msg  *tele.Message
		want string
	}{
		{nil, "none"},
		{&tele.Message{Text: "hi"}, "text"},
		{&tele.Message{Contact: &tele.Contact{PhoneNumber: "1"}}, "contact"},
		{&tele.Message{Voice: &tele.Voice{}}, "media"},
		{&tele.Message{Location: &tele.Location{}}, "location"},
		{&tele.Message{Dice: &tele.Dice{}}, "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, messageKind(tt.msg))
	}
}

func TestPayloadPreviewHidesContact(t *testing.T) {
	c := teletest.NewContact(1, &tele.User{ID: 3}, &tele.Contact{PhoneNumber: "+100", UserID: 3})
	assert.Equal(t, "<contact>", payloadPreview(c))
	assert.Equal(t, "/start", payloadPreview(teletest.NewText(2, &tele.User{ID: 3}, "/start")))
}

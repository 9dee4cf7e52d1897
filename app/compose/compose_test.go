package compose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type fixedPicker int

func (f fixedPicker) Intn(int) int { return int(f) }

func TestStartWithoutHandle(t *testing.T) {
	got := Start(Identity{ID: 42, FirstName: "Ana"})

	assert.Contains(t, got, "42")
	assert.Contains(t, got, "Not available yet")
	assert.Contains(t, got, "Hey Ana!")
	assert.NotContains(t, got, "@None")
	assert.NotContains(t, got, "None")
}

func TestStartEscapesDynamicFields(t *testing.T) {
	got := Start(Identity{ID: 1, FirstName: "a*b", Username: "john_doe"})
	assert.Contains(t, got, `*Username*: john\_doe`)
	assert.Contains(t, got, `Hey a*\**b!`)

	got = Start(Identity{ID: 1, FirstName: "john_doe", Username: "john_doe"})
	assert.Contains(t, got, "*Hey john_doe! Welcome")
	assert.NotContains(t, got, `Hey john\_doe`)
}

func TestStartIsDeterministic(t *testing.T) {
	u := Identity{ID: 7, FirstName: "Bo", Username: "bo"}
	assert.Equal(t, Start(u), Start(u))
}

func TestWait(t *testing.T) {
	assert.Equal(t, "⏳ *Please wait 3 seconds before using /getinfo again!*", Wait(3))
}

func TestPreamblesUsePicker(t *testing.T) {
	for i, want := range fetchPreambles {
		assert.Equal(t, want, FetchPreamble(fixedPicker(i)))
	}
	for i, want := range contactPreambles {
		assert.Equal(t, want, ContactPreamble(fixedPicker(i)))
	}
	assert.Equal(t, fetchPreambles[0], FetchPreamble(nil))
	assert.Equal(t, fetchPreambles[0], FetchPreamble(fixedPicker(9)))
}

func TestSeededPickerIsRepeatable(t *testing.T) {
	a, b := NewPicker(99), NewPicker(99)
	for i := 0; i < 10; i++ {
		assert.Equal(t, FetchPreamble(a), FetchPreamble(b))
	}
}

func TestLoginMarkup(t *testing.T) {
	r := Login()
	require.NotNil(t, r.Markup)
	assert.True(t, r.Markup.OneTimeKeyboard)
	assert.True(t, r.Markup.ResizeKeyboard)
	require.Len(t, r.Markup.ReplyKeyboard, 1)
	require.Len(t, r.Markup.ReplyKeyboard[0], 1)
	btn := r.Markup.ReplyKeyboard[0][0]
	assert.Equal(t, LoginButton, btn.Text)
	assert.True(t, btn.Contact)
}

func TestCancelRemovesKeyboard(t *testing.T) {
	r := Cancel()
	assert.Equal(t, "❌ *Action canceled.* Keyboard removed.", r.Text)
	require.NotNil(t, r.Markup)
	assert.True(t, r.Markup.RemoveKeyboard)
}

func TestRelayPlaceholders(t *testing.T) {
	got := Relay(Identity{ID: 5, FirstName: "Ana"}, Contact{Phone: "+100", FirstName: "Ana"})

	assert.Equal(t, "📋 Contact Shared by Ana (@No username provided):\n"+
		"📞 Phone Number: +100\n"+
		"🆔 User ID: Not linked\n"+
		"👤 First Name: Ana\n"+
		"👤 Last Name: Not set", got)
}

func TestRelayFullCard(t *testing.T) {
	got := Relay(
		Identity{ID: 5, FirstName: "Ana", Username: "ana_k"},
		Contact{Phone: "+3725550000", UserID: 5, FirstName: "Ana", LastName: "K"},
	)
	assert.Contains(t, got, "(@ana_k)")
	assert.Contains(t, got, "🆔 User ID: 5\n")
	assert.True(t, strings.HasSuffix(got, "👤 Last Name: K"))
}

func TestSuccessHasNoContactData(t *testing.T) {
	assert.NotContains(t, Success(), "+")
	assert.Contains(t, Success(), "[Redacted for Privacy]")
}

func TestExtractors(t *testing.T) {
	assert.Equal(t, Identity{}, IdentityOf(nil))
	assert.Equal(t, Contact{}, ContactOf(nil))
	assert.Equal(t,
		Identity{ID: 3, FirstName: "C", Username: "c"},
		IdentityOf(&tele.User{ID: 3, FirstName: "C", Username: "c", LastName: "ignored"}),
	)
	assert.Equal(t,
		Contact{Phone: "+1", UserID: 3, FirstName: "C", LastName: "D"},
		ContactOf(&tele.Contact{PhoneNumber: "+1", UserID: 3, FirstName: "C", LastName: "D"}),
	)
}

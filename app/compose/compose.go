// Package compose builds the literal reply texts and markups of the bot.
// All functions are pure apart from the injected Picker.
package compose

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"

	"github.com/m3rciful/infobot/core/telegram/format"
	"github.com/m3rciful/infobot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Identity is the platform identity of a message sender.
type Identity struct {
	ID        int64
	FirstName string
	Username  string
}

// IdentityOf extracts the identity of u. A nil user yields the zero Identity.
func IdentityOf(u *tele.User) Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{ID: u.ID, FirstName: u.FirstName, Username: u.Username}
}

// Contact is a shared contact card.
type Contact struct {
	Phone     string
	UserID    int64
	FirstName string
	LastName  string
}

// ContactOf extracts the contact card of c. A nil card yields the zero Contact.
func ContactOf(c *tele.Contact) Contact {
	if c == nil {
		return Contact{}
	}
	return Contact{Phone: c.PhoneNumber, UserID: c.UserID, FirstName: c.FirstName, LastName: c.LastName}
}

// Reply is a text with optional reply markup.
type Reply struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// Picker chooses an index in [0, n).
type Picker interface {
	Intn(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// NewPicker returns a goroutine-safe Picker seeded with seed.
func NewPicker(seed int64) Picker {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// Start greets the user. Restart uses the same text.
func Start(u Identity) string {
	handle := NoHandleStart
	if u.Username != "" {
		handle = format.MD(u.Username)
	}
	return fmt.Sprintf(startTemplate, format.MDBold(u.FirstName), u.ID, handle)
}

// Help lists the commands.
func Help() string { return helpText }

// Wait tells the user how many seconds remain before /getinfo is allowed again.
func Wait(seconds int) string {
	return fmt.Sprintf(waitTemplate, seconds)
}

// Prompt asks for the user id to look up.
func Prompt() string { return promptText }

// FetchPreamble returns one of the "searching" lines.
func FetchPreamble(p Picker) string { return pick(p, fetchPreambles) }

// Info is the placeholder lookup result, independent of the requested id.
func Info() string { return infoText }

// Login asks the user to share their contact card.
func Login() Reply {
	return Reply{Text: loginText, Markup: keyboard.ContactRequest(LoginButton)}
}

// Cancel confirms cancellation and removes the keyboard.
func Cancel() Reply {
	return Reply{Text: cancelText, Markup: keyboard.RemoveKeyboard()}
}

// ContactPreamble returns one of the "retrieving" lines.
func ContactPreamble(p Picker) string { return pick(p, contactPreambles) }

// Success acknowledges a shared contact with every field redacted.
func Success() string { return successText }

// Relay renders the unredacted plain-text summary sent to the admin destination.
func Relay(from Identity, c Contact) string {
	handle := from.Username
	if handle == "" {
		handle = NoHandleRelay
	}
	linked := NotLinked
	if c.UserID != 0 {
		linked = strconv.FormatInt(c.UserID, 10)
	}
	last := c.LastName
	if last == "" {
		last = NoLastName
	}
	return fmt.Sprintf(relayTemplate, from.FirstName, handle, c.Phone, linked, c.FirstName, last)
}

func pick(p Picker, options []string) string {
	if p == nil {
		return options[0]
	}
	i := p.Intn(len(options))
	if i < 0 || i >= len(options) {
		i = 0
	}
	return options[i]
}

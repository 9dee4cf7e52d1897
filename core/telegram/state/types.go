package state

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// State identifies a conversation step. The zero-value-like StateIdle means
// nothing is pending; any other value is a handler tag awaiting a follow-up.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores the pending step of a user.
type Session struct {
	State State
	Since time.Time
}

// Manager binds "the next message from this user" to a tagged handler.
type Manager interface {
	// Handle registers the handler invoked for a pending st.
	Handle(st State, h tele.HandlerFunc)
	// Await arms st for userID, replacing any pending step.
	Await(userID int64, st State)
	// Take atomically returns and clears the pending step for userID.
	Take(userID int64) (State, bool)
	// Dispatch consumes the pending step of the sender and runs its handler.
	// It reports false when nothing was pending or no handler is bound to the step.
	Dispatch(c tele.Context) (bool, error)

	GetState(userID int64) State
	InProgress(userID int64) bool
	Clear(userID int64)
}

package state

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/infobot/core/logger"
	tghelpers "github.com/m3rciful/infobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	handlersMu sync.RWMutex
	handlers   map[State]tele.HandlerFunc

	now func() time.Time
}

// NewMemoryManager constructs an in-memory Manager.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		handlers: make(map[State]tele.HandlerFunc),
		now:      time.Now,
	}
}

// Handle associates a state with its handler.
func (m *memoryManager) Handle(st State, h tele.HandlerFunc) {
	if h == nil || st == StateIdle || st == "" {
		return
	}
	m.handlersMu.Lock()
	defer m.handlersMu.Unlock()
	m.handlers[st] = h
}

func (m *memoryManager) handler(st State) (tele.HandlerFunc, bool) {
	m.handlersMu.RLock()
	defer m.handlersMu.RUnlock()
	h, ok := m.handlers[st]
	return h, ok
}

// Await sets the pending step for a user, dropping any previous one.
func (m *memoryManager) Await(userID int64, st State) {
	if st == "" || st == StateIdle {
		m.Clear(userID)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = &Session{State: st, Since: m.now()}
}

// Take removes and returns the pending step.
func (m *memoryManager) Take(userID int64) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return StateIdle, false
	}
	delete(m.sessions, userID)
	return sess.State, true
}

// Dispatch runs the handler bound to the sender's pending step, if any.
func (m *memoryManager) Dispatch(c tele.Context) (bool, error) {
	user := c.Sender()
	if user == nil {
		return false, nil
	}
	st, ok := m.Take(user.ID)
	if !ok {
		return false, nil
	}

	ctx := tghelpers.BuildContext(c)
	h, ok := m.handler(st)
	if !ok {
		logger.Warn(ctx, "tg", "fsm.orphan",
			slog.Int64("user_id", user.ID),
			slog.String("state", string(st)),
		)
		return false, nil
	}
	logger.Debug(ctx, "tg", "fsm.dispatch",
		slog.String("status", "ok"),
		slog.Int64("user_id", user.ID),
		slog.String("state", string(st)),
	)
	return true, h(c)
}

// GetState returns the pending step of a user, or StateIdle.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.State
	}
	return StateIdle
}

// InProgress reports whether the user has a pending step.
func (m *memoryManager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// Clear drops the pending step of a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Package journal records which handlers ran for whom. Entries carry no
// message text and no contact data.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/infobot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Entry is one journal row.
type Entry struct {
	Handler string    `db:"handler"`
	UserID  int64     `db:"user_id"`
	ChatID  int64     `db:"chat_id"`
	Outcome string    `db:"outcome"`
	At      time.Time `db:"at"`
}

// Recorder persists entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Store is a Postgres-backed Recorder.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const insertEntry = `INSERT INTO command_journal (handler, user_id, chat_id, outcome, at)
VALUES (:handler, :user_id, :chat_id, :outcome, :at)`

// Record inserts e.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if _, err := s.db.NamedExecContext(ctx, insertEntry, e); err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

const writeTimeout = 2 * time.Second

// Hook returns a handler observer that journals every finished handler.
// Write failures are logged and never reach the update.
func Hook(r Recorder, now func() time.Time) func(c tele.Context, handler, outcome string) {
	if now == nil {
		now = time.Now
	}
	return func(c tele.Context, handler, outcome string) {
		if r == nil {
			return
		}
		e := Entry{Handler: handler, Outcome: outcome, At: now().UTC()}
		if u := c.Sender(); u != nil {
			e.UserID = u.ID
		}
		if ch := c.Chat(); ch != nil {
			e.ChatID = ch.ID
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := r.Record(ctx, e); err != nil {
			logger.DB.LogAttrs(ctx, slog.LevelWarn, "",
				slog.String("event", "journal.write"),
				slog.String("status", "fail"),
				slog.String("handler", handler),
				slog.String("err", err.Error()),
			)
		}
	}
}

// Package database opens the optional journal database and applies its schema.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	coreconfig "github.com/m3rciful/infobot/core/config"
	"github.com/m3rciful/infobot/core/logger"
)

const (
	connectTimeout = 30 * time.Second
	retryEvery     = 2 * time.Second
)

// Connect opens the journal database and pings it until it answers or
// connectTimeout passes, so the bot can start alongside the database.
func Connect(cfg coreconfig.DatabaseConfig) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return connect(ctx, cfg, retryEvery)
}

func connect(ctx context.Context, cfg coreconfig.DatabaseConfig, every time.Duration) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	target := []slog.Attr{
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}

	start := time.Now()
	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		logger.DB.LogAttrs(ctx, slog.LevelWarn, "db.connect.retry", append(target,
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)...)
		select {
		case <-ctx.Done():
			_ = db.Close()
			logger.DB.LogAttrs(context.Background(), slog.LevelError, "db.connect", append(target,
				slog.String("status", "fail"),
				slog.Duration("duration", time.Since(start)),
			)...)
			return nil, fmt.Errorf("db connect: %w", err)
		case <-time.After(every):
		}
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	logger.DB.LogAttrs(ctx, slog.LevelInfo, "db.connect", append(target,
		slog.String("status", "ok"),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", time.Since(start)),
	)...)
	return db, nil
}

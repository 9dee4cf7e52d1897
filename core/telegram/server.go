package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/m3rciful/infobot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	livenessBody    = "Bot is alive!"
	webhookAckBody  = "OK"
	secretHeader    = "X-Telegram-Bot-Api-Secret-Token"
	shutdownTimeout = 5 * time.Second
)

// ServerOptions describes the HTTP surface of the bot.
type ServerOptions struct {
	Addr string
	// WebhookPath enables the update endpoint when set, e.g. "/<token>".
	WebhookPath string
	// Updates receives decoded webhook updates.
	Updates     chan<- tele.Update
	SecretToken string
	MetricsPath string
	Metrics     http.Handler
}

// NewRouter builds the mux router serving liveness, webhook and metrics routes.
func NewRouter(opts ServerOptions) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", liveness).Methods(http.MethodGet, http.MethodHead)
	if opts.WebhookPath != "" && opts.Updates != nil {
		r.Handle(opts.WebhookPath, UpdateHandler(opts.Updates, opts.SecretToken)).Methods(http.MethodPost)
	}
	if opts.MetricsPath != "" && opts.Metrics != nil {
		r.Handle(opts.MetricsPath, opts.Metrics).Methods(http.MethodGet)
	}
	return r
}

func liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(livenessBody))
}

// UpdateHandler decodes Telegram webhook posts into out. It always answers
// 200 OK so Telegram never redelivers; malformed or unauthenticated bodies are dropped.
func UpdateHandler(out chan<- tele.Update, secret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(webhookAckBody))
		}()

		if secret != "" && r.Header.Get(secretHeader) != secret {
			logger.HTTP.LogAttrs(r.Context(), slog.LevelWarn, "",
				slog.String("event", "webhook.drop"),
				slog.String("reason", "secret_mismatch"),
			)
			return
		}

		var upd tele.Update
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			logger.HTTP.LogAttrs(r.Context(), slog.LevelWarn, "",
				slog.String("event", "webhook.drop"),
				slog.String("reason", "decode"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			return
		}

		select {
		case out <- upd:
		case <-r.Context().Done():
			logger.HTTP.LogAttrs(r.Context(), slog.LevelWarn, "",
				slog.String("event", "webhook.drop"),
				slog.String("reason", "client_gone"),
				slog.Int("update_id", upd.ID),
			)
		}
	})
}

// NewServer wraps the router in an http.Server with conservative timeouts.
func NewServer(opts ServerOptions) *http.Server {
	return &http.Server{
		Addr:              opts.Addr,
		Handler:           NewRouter(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Serve runs srv until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.HTTP.Info("http listening",
			slog.String("event", "http.listen"),
			slog.String("addr", srv.Addr),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.HTTP.Info("http stopped", slog.String("event", "http.stop"))
	return nil
}

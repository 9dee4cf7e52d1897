// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	handled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infobot_updates_handled_total",
		Help: "Total number of updates handled, by handler and status",
	}, []string{"handler", "status"})

	handlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "infobot_handler_duration_seconds",
		Help:    "Duration of update handling",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 3, 5, 10},
	}, []string{"handler"})

	repliesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infobot_replies_sent_total",
		Help: "Total number of replies sent to users",
	})

	cooldownDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infobot_cooldown_denied_total",
		Help: "Total number of rate-limited actions denied by the cooldown",
	})

	relayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infobot_relay_total",
		Help: "Total number of contact relay attempts, by status",
	}, []string{"status"})
)

// Relay statuses.
const (
	RelayQueued = "queued"
	RelaySent   = "sent"
	RelayFailed = "failed"
)

// RecordHandled records a finished handler invocation.
func RecordHandled(handler, status string, took time.Duration) {
	handled.WithLabelValues(handler, status).Inc()
	handlerDuration.WithLabelValues(handler).Observe(took.Seconds())
}

// RecordReplies adds n replies sent.
func RecordReplies(n int) {
	if n > 0 {
		repliesSent.Add(float64(n))
	}
}

// RecordCooldownDenied records a denied cooldown check.
func RecordCooldownDenied() {
	cooldownDenied.Inc()
}

// RecordRelay records a relay outcome.
func RecordRelay(status string) {
	relayed.WithLabelValues(status).Inc()
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

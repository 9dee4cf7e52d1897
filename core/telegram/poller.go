package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/infobot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// WebhookOptions declares webhook registration settings.
type WebhookOptions struct {
	// PublicURL is the full URL registered with setWebhook, token path included.
	PublicURL   string
	SecretToken string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

// BuildPoller returns a Telebot poller based on provided options.
// The webhook poller only registers the webhook; updates arrive through the
// HTTP surface served by Serve, so it never listens itself.
func BuildPoller(opts PollerOptions) tele.Poller {
	runMode := strings.ToLower(strings.TrimSpace(opts.RunMode))
	if runMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			SecretToken:    opts.Webhook.SecretToken,
			AllowedUpdates: []string{"message"},
			Endpoint:       &tele.WebhookEndpoint{PublicURL: opts.Webhook.PublicURL},
		}
	}

	timeout := defaultLongPollTimeout
	if opts.LongPollTimeoutSeconds > 0 {
		timeout = time.Duration(opts.LongPollTimeoutSeconds) * time.Second
	}
	return &tele.LongPoller{Timeout: timeout, AllowedUpdates: []string{"message"}}
}

// Package notify delivers episode notifications. The engine only sees
// the Sender interface; providers report failure through the returned
// error and never retry internally.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/lazypower/legacy/internal/config"
)

// ErrNotConfigured is returned by every Send on a sender whose transport
// has not been set up.
var ErrNotConfigured = errors.New("delivery transport not configured")

// Message is a single notification to one recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender is the interface for delivery providers.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// NewSender creates a sender based on the configured provider. An empty
// provider yields an Unconfigured sender, which fails every delivery.
func NewSender(cfg config.DeliveryConfig) (Sender, error) {
	switch cfg.Provider {
	case config.ProviderNone:
		return Unconfigured{Reason: "no delivery provider selected"}, nil
	case config.ProviderSMTP:
		if cfg.SMTP.Username == "" || cfg.SMTP.Password == "" {
			return nil, fmt.Errorf("smtp provider requires username and password (GMAIL_USER / GMAIL_APP_PASSWORD or config)")
		}
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("smtp provider requires a host")
		}
		return NewSMTP(cfg.SMTP), nil
	case config.ProviderWebhook:
		if cfg.Webhook.URL == "" {
			return nil, fmt.Errorf("webhook provider requires a url")
		}
		return NewWebhook(cfg.Webhook), nil
	default:
		return nil, fmt.Errorf("unknown delivery provider: %q", cfg.Provider)
	}
}

// Unconfigured fails every delivery with ErrNotConfigured, so a missing
// transport can never be mistaken for a successful notification.
type Unconfigured struct {
	Reason string
}

func (u Unconfigured) Send(ctx context.Context, msg Message) error {
	if u.Reason == "" {
		return ErrNotConfigured
	}
	return fmt.Errorf("%w: %s", ErrNotConfigured, u.Reason)
}

func (u Unconfigured) Name() string { return "unconfigured" }

package email

import (
	"context"

	"github.com/rs/zerolog"

	"hotel-guest-concierge/internal/domain/ports/adapter"
)

var _ adapter.EmailSender = (*NoopSender)(nil)

// NoopSender logs emails instead of delivering them. Used in dev and when
// no email provider is configured.
type NoopSender struct {
	log *zerolog.Logger
}

func NewNoopSender(logger *zerolog.Logger) *NoopSender {
	compLog := logger.With().Str("component", "NoopEmailSender").Logger()
	return &NoopSender{log: &compLog}
}

func (n *NoopSender) Send(ctx context.Context, e adapter.Email) (string, error) {
	n.log.Info().
		Str("to", e.To).
		Str("subject", e.Subject).
		Int("text_len", len(e.Text)).
		Msg("email suppressed (noop sender)")
	return "noop", nil
}

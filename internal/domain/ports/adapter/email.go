package adapter

import "context"

// Email is one outbound transactional message.
type Email struct {
	To      string
	Subject string
	Text    string
}

// EmailSender dispatches escalation emails. Send returns the provider's
// message id on success.
type EmailSender interface {
	Send(ctx context.Context, email Email) (string, error)
}

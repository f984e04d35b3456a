// Package email defines the outbound notification contract. Actual delivery is
// a surrounding collaborator; the log sender stands in for development.
package email

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, to, name, subject, body string) error
}

// LogSender logs emails instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the email.
func (s *LogSender) Send(ctx context.Context, to, name, subject, body string) error {
	s.logger.Info("email (log sender)",
		zap.String("to", to),
		zap.String("name", name),
		zap.String("subject", subject),
	)
	return nil
}

// Package mail provides email delivery backends for queued notification
// messages.
package mail

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/jobs"
)

// LogSender writes outbound messages to the structured log instead of an
// SMTP gateway. Delivery through a real provider happens in the identity
// platform; this backend keeps the queue exercised in development and in
// deployments without a mail gateway.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-backed email sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{
		logger: logger.With(slog.String("component", "log_mail_sender")),
	}
}

// Ensure LogSender implements jobs.EmailSender
var _ jobs.EmailSender = (*LogSender)(nil)

// Send records the message at INFO level.
func (s *LogSender) Send(_ context.Context, to string, msg jobs.EmailMessage) error {
	attrs := []any{
		slog.String("to", to),
		slog.String("kind", msg.Type),
	}
	for key, value := range msg.Params {
		attrs = append(attrs, slog.String("param_"+key, value))
	}
	s.logger.Info("email dispatched", attrs...)
	return nil
}

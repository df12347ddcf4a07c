package service

import (
	"context"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/logger"
)

// logNotifier records notifications in the log. Used when no email provider
// is configured.
type logNotifier struct{}

func NewLogNotifier() Notifier {
	return logNotifier{}
}

func (logNotifier) Notify(ctx context.Context, n domain.Notification) error {
	logger.InfoContext(ctx, "Notification",
		"recipient_id", n.RecipientID,
		"title", n.Title,
		"message", n.Message,
		"attributes", n.Attributes,
	)
	return nil
}

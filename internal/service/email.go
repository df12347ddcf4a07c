package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// mailSender is the part of the SendGrid client used here.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type sendGridNotifier struct {
	client    mailSender
	fromEmail string
	fromName  string
}

func NewSendGridNotifier(apiKey, fromEmail, fromName string) Notifier {
	return &sendGridNotifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridNotifier) Notify(ctx context.Context, n domain.Notification) error {
	if n.Email == "" {
		return fmt.Errorf("no email address for recipient %s", n.RecipientID)
	}
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(n.Name, n.Email)
	message := mail.NewSingleEmail(from, n.Title, to, plainBody(n), htmlBody(n))

	logger.ExternalServiceCall("sendgrid", "Send", "recipient_id", n.RecipientID, "title", n.Title)
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err, "recipient_id", n.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func plainBody(n domain.Notification) string {
	return fmt.Sprintf("Hello %s,\n\n%s\n\nBest regards,\nThe EstateHub Team", n.Name, n.Message)
}

func htmlBody(n domain.Notification) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<p>Hello %s,</p>", html.EscapeString(n.Name))
	fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(n.Message))
	b.WriteString("<p>Best regards,<br>The EstateHub Team</p></body></html>")
	return b.String()
}

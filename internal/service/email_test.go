package service

import (
	"context"
	"errors"
	"testing"

	"estatehub-backend/internal/domain"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockMailSender
type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rest.Response), args.Error(1)
}

var approvedNote = domain.Notification{
	RecipientID: "t1",
	Email:       "ada@example.com",
	Name:        "Ada <Tenant>",
	Title:       "Access approved",
	Message:     "You have been assigned unit U101.",
}

func TestSendGridNotifier_Notify(t *testing.T) {
	sender := new(MockMailSender)
	n := &sendGridNotifier{client: sender, fromEmail: "noreply@estatehub.io", fromName: "EstateHub"}

	sender.On("SendWithContext", mock.Anything, mock.MatchedBy(func(m *mail.SGMailV3) bool {
		return m.Subject == "Access approved" &&
			m.From.Address == "noreply@estatehub.io" &&
			len(m.Personalizations) == 1 &&
			m.Personalizations[0].To[0].Address == "ada@example.com"
	})).Return(&rest.Response{StatusCode: 202}, nil).Once()

	assert.NoError(t, n.Notify(context.Background(), approvedNote))
	sender.AssertExpectations(t)
}

func TestSendGridNotifier_Failures(t *testing.T) {
	sender := new(MockMailSender)
	n := &sendGridNotifier{client: sender, fromEmail: "noreply@estatehub.io", fromName: "EstateHub"}

	noEmail := approvedNote
	noEmail.Email = ""
	assert.ErrorContains(t, n.Notify(context.Background(), noEmail), "no email address")

	sender.On("SendWithContext", mock.Anything, mock.Anything).
		Return(&rest.Response{StatusCode: 401, Body: "unauthorized"}, nil).Once()
	assert.ErrorContains(t, n.Notify(context.Background(), approvedNote), "status 401")

	sender.On("SendWithContext", mock.Anything, mock.Anything).
		Return(nil, errors.New("dial tcp: timeout")).Once()
	assert.ErrorContains(t, n.Notify(context.Background(), approvedNote), "dial tcp")

	sender.AssertExpectations(t)
}

func TestHTMLBodyEscapesNames(t *testing.T) {
	body := htmlBody(approvedNote)
	assert.Contains(t, body, "Ada &lt;Tenant&gt;")
	assert.NotContains(t, body, "<Tenant>")
	assert.Contains(t, plainBody(approvedNote), "Hello Ada <Tenant>,")
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLogNotifier().Notify(context.Background(), approvedNote))
}

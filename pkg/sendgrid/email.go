// Package sendgrid sends the storefront's transactional email through the
// SendGrid v3 API.
package sendgrid

import (
	"context"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService interface {
	Send(ctx context.Context, req *models.EmailNotificationRequest) error
	GetSendGridClient() *sg.Client
}

type emailService struct {
	client  *sg.Client
	from    *mail.Email
	sandbox bool
}

// NewEmailService sends as cfg.FromName <cfg.FromEmail>. In sandbox mode
// SendGrid validates every message and delivers none.
func NewEmailService(cfg config.SendGrid) EmailService {
	return &emailService{
		client:  sg.NewSendClient(cfg.APIKey),
		from:    mail.NewEmail(cfg.FromName, cfg.FromEmail),
		sandbox: cfg.SandboxMode,
	}
}

func (e *emailService) Send(ctx context.Context, req *models.EmailNotificationRequest) error {

	response, err := e.client.SendWithContext(ctx, e.newMessage(req))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	return nil
}

// newMessage builds one personalization for req. Mail about an order carries
// the order id as a custom arg so SendGrid events can be traced back to it.
func (e *emailService) newMessage(req *models.EmailNotificationRequest) *mail.SGMailV3 {

	recipients := mail.NewPersonalization()
	recipients.AddTos(mail.NewEmail("", req.To))
	for _, cc := range req.CC {
		recipients.AddCCs(mail.NewEmail("", cc))
	}
	for _, bcc := range req.BCC {
		recipients.AddBCCs(mail.NewEmail("", bcc))
	}
	recipients.Subject = req.Subject
	if req.OrderID != "" {
		recipients.SetCustomArg("order_id", req.OrderID)
	}

	message := mail.NewV3Mail().SetFrom(e.from)
	message.AddPersonalizations(recipients)
	message.AddContent(mail.NewContent("text/plain", req.Content))
	if req.HTMLContent != "" {
		message.AddContent(mail.NewContent("text/html", req.HTMLContent))
	}
	if len(req.Categories) > 0 {
		message.AddCategories(req.Categories...)
	}

	if e.sandbox {
		message.SetMailSettings(mail.NewMailSettings().SetSandboxMode(mail.NewSetting(true)))
	}

	return message
}

// GetSendGridClient exposes the underlying client, mainly so tests can point it
// at a local server.
func (e *emailService) GetSendGridClient() *sg.Client {
	return e.client
}

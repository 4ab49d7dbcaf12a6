package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/pkg/sendgrid"
)

const notificationTimeout = 10 * time.Second

type NotificationService interface {
	SendEmail(ctx context.Context, req *models.EmailNotificationRequest) error
	NotifyOrderPlaced(ctx context.Context, order models.Order)
	NotifyDeliveryConfirmed(ctx context.Context, order models.Order)
}

type notificationService struct {
	emailService sendgrid.EmailService
}

// NewNotificationService returns a service that sends through emailService.
// A nil emailService turns every notification into a logged no-op.
func NewNotificationService(emailService sendgrid.EmailService) NotificationService {
	return &notificationService{emailService: emailService}
}

// SendEmail implements NotificationService.
func (n *notificationService) SendEmail(ctx context.Context, req *models.EmailNotificationRequest) error {
	if n.emailService == nil {
		middleware.LoggerFromContext(ctx).Debug("Email delivery disabled, skipping", slog.String("subject", req.Subject))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, notificationTimeout)
	defer cancel()

	if err := n.emailService.Send(ctx, req); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// NotifyOrderPlaced emails the order owner a receipt. Failures are only logged.
func (n *notificationService) NotifyOrderPlaced(ctx context.Context, order models.Order) {
	n.sendBestEffort(ctx, order, sendgrid.OrderPlacedEmail)
}

// NotifyDeliveryConfirmed tells the owner their order is marked delivered.
func (n *notificationService) NotifyDeliveryConfirmed(ctx context.Context, order models.Order) {
	n.sendBestEffort(ctx, order, sendgrid.DeliveryConfirmedEmail)
}

func (n *notificationService) sendBestEffort(ctx context.Context, order models.Order, compose func(models.Order) (*models.EmailNotificationRequest, error)) {
	logger := middleware.LoggerFromContext(ctx).With(slog.String("order_id", order.ID.String()))

	req, err := compose(order)
	if err != nil {
		logger.Error("Failed to compose order notification", slog.Any("error", err))
		return
	}

	if err := n.SendEmail(ctx, req); err != nil {
		logger.Warn("Order notification not delivered", slog.String("subject", req.Subject), slog.Any("error", err))
		return
	}

	logger.Info("Order notification sent", slog.String("subject", req.Subject))
}

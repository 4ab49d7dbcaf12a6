package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	validator           *validator.Validate
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		validator:           validator.New(),
	}
}

// SendEmail godoc
//	@Summary		Email a customer
//	@Description	Administrators only. Sent through SendGrid.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			email	body		models.EmailNotificationRequest	true	"Email"
//	@Success		202		{object}	map[string]bool					"Accepted by the provider"
//	@Failure		400		{object}	response.ErrorResponse			"Validation error"
//	@Failure		403		{object}	response.ErrorResponse			"Administrator access required"
//	@Failure		500		{object}	response.ErrorResponse			"Provider error"
//	@Security		BearerAuth
//	@Router			/admin/notifications/email [post]
func (h *NotificationHandler) SendEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		_, logger, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		var req models.EmailNotificationRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid notification input")
			return
		}

		if err := h.notificationService.SendEmail(r.Context(), &req); err != nil {
			logger.Error("Failed to send email", slog.Any("error", err))
			response.Error(w, errors.ThirdPartyError("Failed to send email").WithError(err))
			return
		}

		logger.Info("Email sent", slog.String("subject", req.Subject))
		response.Success(w, http.StatusAccepted, map[string]bool{"sent": true})
	}
}

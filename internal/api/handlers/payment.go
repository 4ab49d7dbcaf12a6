package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
)

const maxWebhookBytes = 64 << 10

type PaymentHandler struct {
	paymentService service.PaymentService
	carts          CartProvider
}

func NewPaymentHandler(paymentService service.PaymentService, carts CartProvider) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, carts: carts}
}

// Checkout godoc
//	@Summary		Start card checkout
//	@Description	Opens a Stripe payment intent for the cart total. The order is placed when Stripe reports the payment succeeded.
//	@Tags			Payments
//	@Produce		json
//	@Success		201	{object}	models.CheckoutSession	"Payment intent to confirm on the client"
//	@Failure		400	{object}	response.ErrorResponse	"Empty cart"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		500	{object}	response.ErrorResponse	"Payment provider error"
//	@Security		BearerAuth
//	@Router			/payments/checkout [post]
func (h *PaymentHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity, logger, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		session, err := h.paymentService.StartCheckout(r.Context(), identity, h.carts.Acquire(r.Context(), identity))
		if err != nil {
			logger.Error("Checkout failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Checkout started", slog.String("paymentIntentId", session.PaymentIntentID))
		response.Success(w, http.StatusCreated, session)
	}
}

// HandleStripeWebhook godoc
//	@Summary		Stripe webhook
//	@Description	Verified with the Stripe-Signature header.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string					true	"Stripe signature"
//	@Success		200					{object}	map[string]bool			"Acknowledged"
//	@Failure		400					{object}	response.ErrorResponse	"Bad signature or payload"
//	@Router			/payments/webhook [post]
func (h *PaymentHandler) HandleStripeWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			logger.Error("Error reading webhook body", slog.String("error", err.Error()))
			response.Error(w, errors.BadRequestError("Failed to read request body"))
			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if signature == "" {
			logger.Warn("Missing Stripe signature")
			response.Error(w, errors.BadRequestError("Stripe Signature is required"))
			return
		}

		event, err := h.paymentService.HandleWebhook(r.Context(), payload, signature)
		if err != nil {
			logger.Error("Failed to process payment webhook",
				slog.String("eventId", event.ID),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Payment webhook processed", slog.String("eventId", event.ID), slog.String("type", string(event.Type)))
		response.Success(w, http.StatusOK, map[string]bool{"received": true})
	}
}

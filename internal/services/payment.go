package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cache"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/pkg/stripe"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	stripeAPI "github.com/stripe/stripe-go/v81"
)

type PaymentService interface {
	StartCheckout(ctx context.Context, identity *models.Identity, cart CheckoutCart) (*models.CheckoutSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (stripe.Event, error)
}

const processedIntentTTL = 72 * time.Hour

type paymentService struct {
	stripeClient stripe.Client
	sessions     *CartSessions
	orders       OrderService
	processed    cache.Cache
	currency     string
}

// NewPaymentService wires checkout to Stripe. processed remembers intents that
// already produced an order so redelivered events are ignored; it may be nil.
func NewPaymentService(stripeClient stripe.Client, sessions *CartSessions, orders OrderService, processed cache.Cache, currency string) PaymentService {
	return &paymentService{stripeClient: stripeClient, sessions: sessions, orders: orders, processed: processed, currency: currency}
}

// StartCheckout opens a payment intent for the cart total. The buyer is
// recorded in the intent metadata so the succeeded webhook can place the order.
func (s *paymentService) StartCheckout(ctx context.Context, identity *models.Identity, cart CheckoutCart) (*models.CheckoutSession, error) {

	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	snapshot := cart.Snapshot()
	if snapshot.IsEmpty() {
		return nil, appErrors.BadRequestError("Cannot check out an empty cart")
	}

	amount := snapshot.Total.Shift(2).Round(0).IntPart()
	if amount <= 0 {
		return nil, appErrors.BadRequestError("Cart total must be greater than zero")
	}

	metadata := map[string]string{
		models.PaymentMetaUserID:    identity.UserID.String(),
		models.PaymentMetaUserEmail: identity.Email,
		models.PaymentMetaUserName:  identity.Name(),
	}

	intent, err := s.stripeClient.CreatePaymentIntent(ctx, amount, s.currency, fmt.Sprintf("Storefront order for %s", identity.Email), metadata)
	if err != nil {
		return nil, appErrors.ThirdPartyError("Failed to create payment intent").WithError(err)
	}

	return &models.CheckoutSession{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          snapshot.Total,
		Currency:        s.currency,
	}, nil
}

// HandleWebhook verifies a Stripe event and, for a succeeded payment intent,
// turns the buyer's cart into a paid order.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (stripe.Event, error) {

	logger := middleware.LoggerFromContext(ctx)

	event, err := s.stripeClient.VerifyWebhookSignature(payload, signature)
	if err != nil {
		return stripe.Event{}, appErrors.BadRequestError("Webhook signature verification failed").WithError(err)
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripeAPI.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return event, appErrors.BadRequestError("Malformed payment intent in webhook").WithError(err)
		}

		return event, s.placePaidOrder(ctx, &intent)

	case "payment_intent.payment_failed":
		var intent stripeAPI.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return event, appErrors.BadRequestError("Malformed payment intent in webhook").WithError(err)
		}

		logger.Warn("Payment failed",
			slog.String("payment_intent_id", intent.ID),
			slog.String("user_id", intent.Metadata[models.PaymentMetaUserID]),
		)

	default:
		logger.Debug("Ignoring webhook event", slog.String("event_type", string(event.Type)))
	}

	return event, nil
}

func identityFromIntent(intent *stripeAPI.PaymentIntent) (*models.Identity, error) {
	userID, err := uuid.Parse(intent.Metadata[models.PaymentMetaUserID])
	if err != nil {
		return nil, appErrors.BadRequestError("Payment intent has no buyer").WithError(err)
	}

	return &models.Identity{
		UserID:      userID,
		Email:       intent.Metadata[models.PaymentMetaUserEmail],
		DisplayName: intent.Metadata[models.PaymentMetaUserName],
	}, nil
}

func (s *paymentService) placePaidOrder(ctx context.Context, intent *stripeAPI.PaymentIntent) error {

	logger := middleware.LoggerFromContext(ctx).With(slog.String("payment_intent_id", intent.ID))

	identity, err := identityFromIntent(intent)
	if err != nil {
		return err
	}

	key := cache.Key(cache.PaymentIntentKeyPrefix, intent.ID)
	claimed := false
	if s.processed != nil {
		ok, err := s.processed.SetIfAbsent(ctx, key, "processing", processedIntentTTL)
		switch {
		case err != nil:
			logger.Warn("Could not claim payment intent, processing anyway", slog.Any("error", err))
		case !ok:
			logger.Info("Payment intent already handled")
			return nil
		default:
			claimed = true
		}
	}

	release := func() {
		if !claimed {
			return
		}
		if err := s.processed.Delete(ctx, key); err != nil {
			logger.Warn("Failed to release payment intent claim", slog.Any("error", err))
		}
	}

	cart := s.sessions.Acquire(ctx, identity)

	paid := decimal.New(intent.Amount, -2)
	if total := cart.Total(); !total.Equal(paid) {
		logger.Warn("Cart total differs from amount paid",
			slog.String("cart_total", total.StringFixed(2)),
			slog.String("amount_paid", paid.StringFixed(2)),
		)
	}

	order, err := s.orders.CreatePaidOrder(ctx, identity, cart)
	if err != nil {
		// a redelivered event finds the cart already cleared
		var appErr *appErrors.AppError
		release()
		if errors.As(err, &appErr) && appErr.StatusCode == http.StatusBadRequest {
			logger.Warn("Paid order not created", slog.String("reason", appErr.Message))
			return nil
		}
		return err
	}

	logger.Info("Paid order created", slog.String("order_id", order.ID.String()), slog.String("user_id", identity.UserID.String()))

	if claimed {
		if err := s.processed.Set(ctx, key, order.ID.String(), processedIntentTTL); err != nil {
			logger.Warn("Failed to remember processed intent", slog.Any("error", err))
		}
	}

	return nil
}

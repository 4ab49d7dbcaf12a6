package models

import "github.com/shopspring/decimal"

type CheckoutSession struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

// Metadata keys attached to payment intents so the webhook can find the buyer.
const (
	PaymentMetaUserID    = "user_id"
	PaymentMetaUserEmail = "user_email"
	PaymentMetaUserName  = "user_name"
)

package cache

import (
	"context"
	"time"
)

type Cache interface {
	// Get decodes the value stored at key into value and reports whether it was found.
	Get(ctx context.Context, key string, value any) (bool, error)
	// Set stores value at key; ttl <= 0 falls back to the configured default.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// SetIfAbsent stores value only when key is unset and reports whether it did.
	SetIfAbsent(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

const (
	ProductKeyPrefix       = "product"
	CatalogKeyPrefix       = "catalog"
	PaymentIntentKeyPrefix = "payment_intent"
)

// CatalogKey holds the full product list served to the storefront.
var CatalogKey = Key(CatalogKeyPrefix, "all")

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/google/uuid"
)

// CartRepository stores one cart document per user. Callers own the timeout of
// each call so that retries get a fresh deadline per attempt.
type CartRepository interface {
	GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	SaveCart(ctx context.Context, userID uuid.UUID, items []models.CartItem) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	query := `
		SELECT user_id, items
		FROM carts
		WHERE user_id = $1
	`

	cart := &models.Cart{}

	var itemsJSON []byte

	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&cart.UserID, &itemsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart items: %w", err)
	}

	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}

	cart.Total = models.CartTotal(cart.Items)

	return cart, nil
}

// SaveCart overwrites the user's cart document with items.
func (r *cartRepository) SaveCart(ctx context.Context, userID uuid.UUID, items []models.CartItem) error {

	if items == nil {
		items = []models.CartItem{}
	}

	if err := models.ValidateItems(items); err != nil {
		return fmt.Errorf("refusing to save invalid cart: %w", err)
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart items: %w", err)
	}

	query := `
		INSERT INTO carts (user_id, items, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = NOW()
	`

	if _, err := r.DB.ExecContext(ctx, query, userID, itemsJSON); err != nil {
		return fmt.Errorf("failed to save the cart: %w", err)
	}

	return nil
}

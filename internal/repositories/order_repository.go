package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	ListOrders(ctx context.Context, page, size int) ([]models.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (*models.Order, error)
	ConfirmDelivery(ctx context.Context, id uuid.UUID, confirmedAt *time.Time) (*models.Order, error)
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

const orderColumns = `id, user_id, user_email, user_name, items, total, status, delivery_info,
		confirmed_delivery, delivery_confirmed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {

	order := &models.Order{}

	var itemsJSON, deliveryJSON []byte
	var confirmedAt sql.NullTime

	err := row.Scan(&order.ID, &order.UserID, &order.UserEmail, &order.UserName, &itemsJSON, &order.Total, &order.Status, &deliveryJSON,
		&order.ConfirmedDelivery, &confirmedAt, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}

	if len(deliveryJSON) > 0 {
		order.DeliveryInfo = &models.DeliveryInfo{}
		if err := json.Unmarshal(deliveryJSON, order.DeliveryInfo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal delivery info: %w", err)
		}
	}

	if confirmedAt.Valid {
		t := confirmedAt.Time
		order.DeliveryConfirmedAt = &t
	}

	return order, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	// paid orders carry no delivery info and store NULL
	var deliveryJSON any
	if order.DeliveryInfo != nil {
		raw, err := json.Marshal(order.DeliveryInfo)
		if err != nil {
			return fmt.Errorf("failed to marshal delivery info: %w", err)
		}
		deliveryJSON = raw
	}

	query := `
		INSERT INTO orders (id, user_id, user_email, user_name, items, total, status, delivery_info, confirmed_delivery, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING created_at, updated_at
	`

	err = r.DB.QueryRowContext(dbCtx, query, order.ID, order.UserID, order.UserEmail, order.UserName, itemsJSON, order.Total, order.Status, deliveryJSON,
		order.ConfirmedDelivery, order.CreatedAt).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	return order, nil
}

// ListOrdersByUser pages through one user's orders, newest first.
func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int
	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * size

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// ListOrders pages through every order, newest first.
func (r *orderRepository) ListOrders(ctx context.Context, page, size int) ([]models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int
	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * size

	query := `SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(dbCtx, query, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func collectOrders(rows *sql.Rows) ([]models.Order, error) {

	orders := []models.Order{}

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan the orders: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate the orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus moves an order from one status to another. It returns
// sql.ErrNoRows when the order is missing or no longer in status from.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + orderColumns

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, query, to, id, from))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update the order status: %w", err)
	}

	return order, nil
}

// ConfirmDelivery marks an unconfirmed, unpaid order as delivered. confirmedAt
// may be nil. It returns sql.ErrNoRows when no row qualified.
func (r *orderRepository) ConfirmDelivery(ctx context.Context, id uuid.UUID, confirmedAt *time.Time) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders
		SET status = $1, confirmed_delivery = TRUE, delivery_confirmed_at = $2, updated_at = NOW()
		WHERE id = $3 AND confirmed_delivery = FALSE AND status <> $4
		RETURNING ` + orderColumns

	var at sql.NullTime
	if confirmedAt != nil {
		at = sql.NullTime{Time: *confirmedAt, Valid: true}
	}

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, query, models.OrderStatusDelivered, at, id, models.OrderStatusPaid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to confirm the delivery: %w", err)
	}

	return order, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutCart is the part of a cart that order placement needs.
type CheckoutCart interface {
	Snapshot() models.CartSnapshot
	ClearCart(ctx context.Context)
}

// CartManager holds one user's cart in memory. Every mutation updates the
// in-memory items synchronously and hands the full cart to the persister; a
// failed durable write is never reverted here.
type CartManager struct {
	mu       sync.Mutex
	identity *models.Identity
	items    []models.CartItem
	lastUsed time.Time
	// retired managers have been dropped from CartSessions and never sign in again
	retired bool

	repo   repository.CartRepository
	writer CartPersister
	now    func() time.Time
}

func NewCartManager(repo repository.CartRepository, writer CartPersister) *CartManager {
	return &CartManager{
		items:  []models.CartItem{},
		repo:   repo,
		writer: writer,
		now:    time.Now,
	}
}

// OnSessionChanged reacts to the caller signing in or out. A different signed-in
// user reloads the stored cart; nil clears memory without touching storage.
func (m *CartManager) OnSessionChanged(ctx context.Context, identity *models.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessionChangedLocked(ctx, identity)
}

// signIn is OnSessionChanged for managers owned by CartSessions. It reports
// false, and changes nothing, once the manager has been retired.
func (m *CartManager) signIn(ctx context.Context, identity *models.Identity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.retired {
		return false
	}

	m.sessionChangedLocked(ctx, identity)

	return true
}

// retire signs the manager out for good.
func (m *CartManager) retire() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.retireLocked()
}

// retireIfIdle retires the manager when it has not been used since cutoff. A
// manager busy with another call is not idle.
func (m *CartManager) retireIfIdle(cutoff time.Time) bool {
	if !m.mu.TryLock() {
		return false
	}
	defer m.mu.Unlock()

	if !m.lastUsed.Before(cutoff) {
		return false
	}

	m.retireLocked()

	return true
}

func (m *CartManager) retireLocked() {
	m.retired = true
	m.identity = nil
	m.items = []models.CartItem{}
}

func (m *CartManager) sessionChangedLocked(ctx context.Context, identity *models.Identity) {
	m.touch()

	if identity == nil {
		m.identity = nil
		m.items = []models.CartItem{}
		return
	}

	if m.identity != nil && m.identity.UserID == identity.UserID {
		m.identity = identity
		return
	}

	m.identity = identity
	m.loadLocked(ctx, identity.UserID)
}

// LoadCart replaces the in-memory items with the user's stored cart. A missing
// record or a failed read leaves the cart empty.
func (m *CartManager) LoadCart(ctx context.Context, userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loadLocked(ctx, userID)
}

func (m *CartManager) loadLocked(ctx context.Context, userID uuid.UUID) {

	logger := middleware.LoggerFromContext(ctx)

	m.items = []models.CartItem{}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	cart, err := m.repo.GetCartByUserID(dbCtx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Debug("No stored cart, starting empty", slog.String("user_id", userID.String()))
			return
		}
		logger.Error("Failed to load stored cart", slog.String("user_id", userID.String()), slog.Any("error", err))
		return
	}

	valid := make([]models.CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		if err := item.Validate(); err != nil {
			logger.Warn("Dropping invalid stored cart item",
				slog.String("user_id", userID.String()),
				slog.String("product_id", item.ProductID.String()),
				slog.Any("error", err),
			)
			continue
		}
		valid = append(valid, item)
	}

	m.items = valid
}

// AddToCart adds one unit of product. A line already at MaxItemQuantity is
// left unchanged and a ValidationError is returned.
func (m *CartManager) AddToCart(ctx context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.touch()

	if i := m.indexOf(product.ID); i >= 0 {
		if m.items[i].Quantity >= models.MaxItemQuantity {
			return appErrors.AddValidationError("quantity", fmt.Sprintf("must be at most %d", models.MaxItemQuantity))
		}
		m.items[i].Quantity++
	} else {
		m.items = append(m.items, models.NewCartItem(product))
	}

	m.persistLocked(ctx)

	return nil
}

func (m *CartManager) RemoveFromCart(ctx context.Context, productID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.touch()

	if i := m.indexOf(productID); i >= 0 {
		m.items = append(m.items[:i:i], m.items[i+1:]...)
	}

	m.persistLocked(ctx)
}

// UpdateQuantity sets the quantity of an item already in the cart. Quantities
// outside 1..MaxItemQuantity are rejected; removal goes through RemoveFromCart.
func (m *CartManager) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return appErrors.AddValidationError("quantity", "must be at least 1")
	}
	if quantity > models.MaxItemQuantity {
		return appErrors.AddValidationError("quantity", fmt.Sprintf("must be at most %d", models.MaxItemQuantity))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.touch()

	if i := m.indexOf(productID); i >= 0 {
		m.items[i].Quantity = quantity
	}

	m.persistLocked(ctx)

	return nil
}

// ClearCart empties the cart and, when signed in, stores the empty cart.
func (m *CartManager) ClearCart(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.touch()

	m.items = []models.CartItem{}
	m.persistLocked(ctx)
}

func (m *CartManager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()

	return models.CartTotal(m.items)
}

func (m *CartManager) Items() []models.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	return models.CloneItems(m.items)
}

func (m *CartManager) Snapshot() models.CartSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return models.NewCartSnapshot(m.items)
}

// View is the cart as returned to clients.
func (m *CartManager) View() *models.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart := &models.Cart{Items: models.CloneItems(m.items), Total: models.CartTotal(m.items)}
	if m.identity != nil {
		cart.UserID = m.identity.UserID
	}

	return cart
}

func (m *CartManager) touch() {
	m.lastUsed = m.now()
}

func (m *CartManager) indexOf(productID uuid.UUID) int {
	for i := range m.items {
		if m.items[i].ProductID == productID {
			return i
		}
	}

	return -1
}

// persistLocked hands the current items to the writer. Without a signed-in
// identity the change stays in memory.
func (m *CartManager) persistLocked(ctx context.Context) {
	if m.identity == nil || m.writer == nil {
		return
	}

	m.writer.Enqueue(ctx, m.identity.UserID, m.items)
}

package service_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memoryCartRepo is an in-memory CartRepository.
type memoryCartRepo struct {
	mu      sync.Mutex
	carts   map[uuid.UUID][]models.CartItem
	getErr  error
	saveErr func(attempt int) error
	saves   int
}

func newMemoryCartRepo() *memoryCartRepo {
	return &memoryCartRepo{carts: make(map[uuid.UUID][]models.CartItem)}
}

func (r *memoryCartRepo) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.getErr != nil {
		return nil, r.getErr
	}

	items, ok := r.carts[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}

	return &models.Cart{UserID: userID, Items: models.CloneItems(items), Total: models.CartTotal(items)}, nil
}

func (r *memoryCartRepo) SaveCart(ctx context.Context, userID uuid.UUID, items []models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves++
	if r.saveErr != nil {
		if err := r.saveErr(r.saves); err != nil {
			return err
		}
	}

	r.carts[userID] = models.CloneItems(items)

	return nil
}

func (r *memoryCartRepo) stored(userID uuid.UUID) ([]models.CartItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, ok := r.carts[userID]

	return items, ok
}

func (r *memoryCartRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.saves
}

type persistedCart struct {
	userID uuid.UUID
	items  []models.CartItem
}

// recordingPersister captures writes synchronously.
type recordingPersister struct {
	mu     sync.Mutex
	writes []persistedCart
}

func (p *recordingPersister) Enqueue(ctx context.Context, userID uuid.UUID, items []models.CartItem) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.writes = append(p.writes, persistedCart{userID: userID, items: models.CloneItems(items)})
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.writes)
}

func (p *recordingPersister) last() persistedCart {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.writes[len(p.writes)-1]
}

func newProduct(name string, price int64) *models.Product {
	return &models.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     decimal.NewFromInt(price),
		ImageURL:  "https://img.example.com/" + name + ".png",
		CreatedAt: time.Now(),
	}
}

func customer() *models.Identity {
	return &models.Identity{UserID: uuid.New(), Email: "buyer@example.com", DisplayName: "Buyer"}
}

func admin() *models.Identity {
	return &models.Identity{UserID: uuid.New(), Email: "admin@example.com", IsAdmin: true}
}

// memoryCache is a Cache that round-trips values through JSON like the Redis one.
type memoryCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	getErr  error
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, value any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return false, c.getErr
	}

	data, ok := c.values[key]
	if !ok {
		return false, nil
	}

	return true, json.Unmarshal(data, value)
}

func (c *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[key] = data

	return nil
}

func (c *memoryCache) SetIfAbsent(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = data

	return true, nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.values, key)
		c.deleted = append(c.deleted, key)
	}

	return nil
}

func (c *memoryCache) Close() error { return nil }

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.values[key]

	return ok
}

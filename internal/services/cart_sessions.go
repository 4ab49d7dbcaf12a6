package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
)

// CartSessions keeps one CartManager per signed-in user.
type CartSessions struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*CartManager

	repo   repository.CartRepository
	writer CartPersister
}

func NewCartSessions(repo repository.CartRepository, writer CartPersister) *CartSessions {
	return &CartSessions{
		carts:  make(map[uuid.UUID]*CartManager),
		repo:   repo,
		writer: writer,
	}
}

// Acquire returns the cart of the identified user, loading the stored cart the
// first time the user is seen.
func (s *CartSessions) Acquire(ctx context.Context, identity *models.Identity) *CartManager {

	for {
		manager := s.lookup(identity.UserID)

		// loads outside the registry lock; concurrent callers for the same user
		// wait on the manager's own lock. A manager retired in between has
		// already left the registry, so the next lookup registers a new one.
		if manager.signIn(ctx, identity) {
			return manager
		}
	}
}

func (s *CartSessions) lookup(userID uuid.UUID) *CartManager {
	s.mu.Lock()
	defer s.mu.Unlock()

	manager, ok := s.carts[userID]
	if !ok {
		manager = NewCartManager(s.repo, s.writer)
		s.carts[userID] = manager
		metrics.ActiveCartSessions.Inc()
	}

	return manager
}

// Release signs the user out of their cart. The stored cart is left as is.
func (s *CartSessions) Release(ctx context.Context, userID uuid.UUID) {

	s.mu.Lock()
	manager, ok := s.carts[userID]
	if ok {
		delete(s.carts, userID)
		metrics.ActiveCartSessions.Dec()
	}
	s.mu.Unlock()

	if ok {
		manager.retire()
	}
}

// EvictIdle releases carts untouched for longer than ttl and returns how many
// were released. Carts are retired while still under the registry lock, so a
// concurrent Acquire either sees the cart before it goes idle or a fresh one.
func (s *CartSessions) EvictIdle(ctx context.Context, ttl time.Duration) int {

	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	evicted := 0
	for userID, manager := range s.carts {
		if manager.retireIfIdle(cutoff) {
			delete(s.carts, userID)
			evicted++
		}
	}
	metrics.ActiveCartSessions.Sub(float64(evicted))
	s.mu.Unlock()

	if evicted > 0 {
		middleware.LoggerFromContext(ctx).Info("Evicted idle cart sessions", slog.Int("count", evicted))
	}

	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (s *CartSessions) RunEviction(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(ctx, ttl)
		}
	}
}

func (s *CartSessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.carts)
}

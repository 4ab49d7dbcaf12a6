package service

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// CartPersister accepts full-cart writes without blocking the caller.
type CartPersister interface {
	Enqueue(ctx context.Context, userID uuid.UUID, items []models.CartItem)
}

type cartWrite struct {
	userID uuid.UUID
	items  []models.CartItem
	logger *slog.Logger
}

// CartWriter persists carts in the background. Writes for one user always go
// to the same shard and are applied in the order they were enqueued, so the
// stored cart converges on the latest in-memory state.
type CartWriter struct {
	repo repository.CartRepository
	cfg  config.CartPersistence

	shards []chan cartWrite
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewCartWriter(repo repository.CartRepository, cfg config.CartPersistence) *CartWriter {

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &CartWriter{
		repo:   repo,
		cfg:    cfg,
		shards: make([]chan cartWrite, cfg.Workers),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := range w.shards {
		w.shards[i] = make(chan cartWrite, cfg.QueueSize)
		w.wg.Add(1)
		go w.run(w.shards[i])
	}

	return w
}

func (w *CartWriter) shardFor(userID uuid.UUID) chan cartWrite {
	h := fnv.New32a()
	h.Write(userID[:])

	return w.shards[h.Sum32()%uint32(len(w.shards))]
}

// Enqueue schedules a write of items as the user's whole cart. A full shard
// drops the write.
func (w *CartWriter) Enqueue(ctx context.Context, userID uuid.UUID, items []models.CartItem) {

	logger := middleware.LoggerFromContext(ctx)

	job := cartWrite{userID: userID, items: models.CloneItems(items), logger: logger}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		metrics.CartWrites.WithLabelValues("dropped").Inc()
		logger.Warn("Cart writer closed, dropping cart write", slog.String("user_id", userID.String()))
		return
	}

	select {
	case w.shardFor(userID) <- job:
		metrics.CartWriteQueueDepth.Inc()
	default:
		metrics.CartWrites.WithLabelValues("dropped").Inc()
		logger.Error("Cart write queue full, dropping cart write", slog.String("user_id", userID.String()), slog.Int("items", len(items)))
	}
}

func (w *CartWriter) run(shard <-chan cartWrite) {
	defer w.wg.Done()

	for job := range shard {
		metrics.CartWriteQueueDepth.Dec()
		w.persist(job)
	}
}

func (w *CartWriter) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.cfg.InitialInterval
	b.MaxInterval = w.cfg.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, w.cfg.MaxRetries), w.ctx)
}

func (w *CartWriter) persist(job cartWrite) {

	start := time.Now()

	operation := func() error {
		dbCtx, cancel := utils.WithDBTimeout(w.ctx)
		defer cancel()

		return w.repo.SaveCart(dbCtx, job.userID, job.items)
	}

	notify := func(err error, wait time.Duration) {
		metrics.CartWrites.WithLabelValues("retried").Inc()
		job.logger.Warn("Cart write failed, retrying",
			slog.String("user_id", job.userID.String()),
			slog.Duration("retry_in", wait),
			slog.Any("error", err),
		)
	}

	if err := backoff.RetryNotify(operation, w.newBackOff(), notify); err != nil {
		metrics.CartPersistFailures.Inc()
		job.logger.Error("Failed to persist cart",
			slog.String("user_id", job.userID.String()),
			slog.Int("items", len(job.items)),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err),
		)
		return
	}

	metrics.CartWrites.WithLabelValues("saved").Inc()
	job.logger.Debug("Cart persisted", slog.String("user_id", job.userID.String()), slog.Int("items", len(job.items)))
}

// Close stops accepting writes and waits for queued ones to finish. When ctx
// expires first, in-flight retries are abandoned.
func (w *CartWriter) Close(ctx context.Context) error {

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, shard := range w.shards {
		close(shard)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		<-done
		return ctx.Err()
	}
}

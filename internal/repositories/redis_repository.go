package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/redis/go-redis/v9"
)

// RateLimitRepository throttles login attempts per email address.
type RateLimitRepository interface {
	// CheckLoginRateLimit records an attempt and reports whether it may go
	// ahead, how many attempts are left in the window, and otherwise how many
	// seconds to wait.
	CheckLoginRateLimit(ctx context.Context, email string) (bool, int, int, error)
	ResetLoginAttempts(ctx context.Context, email string) error
}

type redisRateLimiter struct {
	client *redis.Client
	limits config.RateConfig
	now    func() time.Time
}

// NewRedisClient connects to the configured Redis and pings it once.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {

	rc := cfg.RedisConnect
	logger := slog.With(slog.String("redis_addr", rc.Host+":"+rc.Port), slog.Int("redis_db", rc.DB))

	opt, err := redis.ParseURL(rc.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = rc.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ Successfully connected to Redis")

	return client, nil
}

func NewRateLimitRepo(client *redis.Client, cfg *config.Config) RateLimitRepository {
	return NewRateLimitRepoWithClock(client, cfg.RateConfig, time.Now)
}

// NewRateLimitRepoWithClock is NewRateLimitRepo with a caller-supplied clock.
func NewRateLimitRepoWithClock(client *redis.Client, limits config.RateConfig, now func() time.Time) RateLimitRepository {
	return &redisRateLimiter{client: client, limits: limits, now: now}
}

func loginAttemptsKey(email string) string {
	return "login_attempts:" + email
}

// CheckLoginRateLimit keeps one sorted-set member per attempt, scored by its
// time in milliseconds, and counts the members inside the sliding window.
func (r *redisRateLimiter) CheckLoginRateLimit(ctx context.Context, email string) (bool, int, int, error) {

	logger := middleware.LoggerFromContext(ctx)
	key := loginAttemptsKey(email)

	now := r.now()
	nowMs := now.UnixMilli()
	windowMs := r.limits.WindowSize.Milliseconds()

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(nowMs-windowMs, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: strconv.FormatInt(now.UnixNano(), 10)})
	count := pipe.ZCard(ctx, key)
	oldest := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.PExpire(ctx, key, r.limits.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Rate limit pipeline failed", slog.String("key", key), slog.Any("error", err))
		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()
	if attempts <= r.limits.MaxAttempts {
		return true, int(r.limits.MaxAttempts - attempts), 0, nil
	}

	retryAfter := int(r.limits.WindowSize.Seconds())
	if first := oldest.Val(); len(first) > 0 {
		waitMs := int64(first[0].Score) + windowMs - nowMs
		retryAfter = int((waitMs + 999) / 1000)
	}
	retryAfter = max(retryAfter, 1)

	logger.Warn("Login rate limit exceeded", slog.String("email", email), slog.Int64("attempts", attempts), slog.Int("retry_after", retryAfter))

	return false, 0, retryAfter, nil
}

// ResetLoginAttempts forgets the attempts recorded for email after a successful login.
func (r *redisRateLimiter) ResetLoginAttempts(ctx context.Context, email string) error {

	if err := r.client.Del(ctx, loginAttemptsKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}

	return nil
}

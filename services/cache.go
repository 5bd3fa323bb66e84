package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"saferoute-api/config"
	"saferoute-api/models"

	"github.com/redis/go-redis/v9"
)

const (
	feedGenerationKey = "saferoute:hazards:verified:gen"
	feedTTL           = 30 * time.Second
	pingAttempts      = 5
)

var ErrCacheMiss = errors.New("cache miss")

// CacheService backs the verified feed with Redis. Entries are keyed by a
// generation counter that every committed transition bumps, so a stale feed
// never outlives the transition that made it stale. With no client every
// call is a miss or a no-op.
type CacheService struct {
	client *redis.Client
	logger *slog.Logger
}

func NewCacheService(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*CacheService, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if !cfg.Enabled() {
		logger.Info("redis not configured, feed cache disabled")
		return &CacheService{logger: logger}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for i := 0; i < pingAttempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = client.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			return &CacheService{client: client, logger: logger}, nil
		}
		logger.Warn("redis ping failed", "attempt", i+1, "max_attempts", pingAttempts, "error", lastErr)
		select {
		case <-ctx.Done():
			_ = client.Close()
			return &CacheService{logger: logger}, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	_ = client.Close()
	return &CacheService{logger: logger}, fmt.Errorf("redis ping failed after %d attempts: %w", pingAttempts, lastErr)
}

func newCacheServiceWithClient(client *redis.Client, logger *slog.Logger) *CacheService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CacheService{client: client, logger: logger}
}

func (s *CacheService) Available() bool {
	return s.client != nil
}

// Get decodes a cached JSON value into dest, returning ErrCacheMiss when the
// key is absent or the cache is disabled.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if s.client == nil {
		return ErrCacheMiss
	}
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Delete(ctx context.Context, key string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}

func feedKey(generation int64, limit int) string {
	return fmt.Sprintf("saferoute:hazards:verified:v%d:l%d", generation, limit)
}

func (s *CacheService) generation(ctx context.Context) (int64, error) {
	gen, err := s.client.Get(ctx, feedGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (s *CacheService) GetVisible(ctx context.Context, limit int) ([]models.Hazard, int64, bool) {
	if s.client == nil {
		return nil, 0, false
	}
	gen, err := s.generation(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "feed cache generation read failed", "error", err)
		return nil, 0, false
	}

	var hazards []models.Hazard
	err = s.Get(ctx, feedKey(gen, limit), &hazards)
	switch {
	case errors.Is(err, ErrCacheMiss):
		return nil, gen, false
	case err != nil:
		s.logger.WarnContext(ctx, "feed cache read failed", "error", err)
		return nil, gen, false
	}
	return hazards, gen, true
}

func (s *CacheService) PutVisible(ctx context.Context, generation int64, limit int, hazards []models.Hazard) {
	if s.client == nil {
		return
	}
	if err := s.Set(ctx, feedKey(generation, limit), hazards, feedTTL); err != nil {
		s.logger.WarnContext(ctx, "feed cache write failed", "error", err)
	}
}

// InvalidateVisible bumps the generation; older entries expire on their own.
func (s *CacheService) InvalidateVisible(ctx context.Context) {
	if s.client == nil {
		return
	}
	if err := s.client.Incr(ctx, feedGenerationKey).Err(); err != nil {
		s.logger.WarnContext(ctx, "feed cache invalidation failed", "error", err)
	}
}

func (s *CacheService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

var _ FeedCache = (*CacheService)(nil)

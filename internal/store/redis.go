package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sitroom/sitrep/internal/domain"
)

const (
	redisMonitorsKey = "sitrep:monitors"
	redisResultKey   = "sitrep:analysis:latest"
	redisAlertsChan  = "sitrep:alerts"
)

// RedisStore keeps the monitor list in a redis key, publishes alerts on a
// channel for out-of-process consumers, and can mirror the latest analysis
// result with a TTL for other processes to read.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) LoadMonitors(ctx context.Context) ([]domain.Monitor, error) {
	b, err := s.client.Get(ctx, redisMonitorsKey).Bytes()
	if err == redis.Nil {
		return []domain.Monitor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load monitors from redis: %w", err)
	}

	var monitors []domain.Monitor
	if err := json.Unmarshal(b, &monitors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal monitors from redis: %w", err)
	}
	return monitors, nil
}

func (s *RedisStore) SaveMonitors(ctx context.Context, monitors []domain.Monitor) error {
	b, err := json.Marshal(monitors)
	if err != nil {
		return fmt.Errorf("failed to marshal monitors: %w", err)
	}
	if err := s.client.Set(ctx, redisMonitorsKey, b, 0).Err(); err != nil {
		return fmt.Errorf("failed to save monitors to redis: %w", err)
	}
	return nil
}

// PublishAlert pushes an alert onto the alert channel.
func (s *RedisStore) PublishAlert(ctx context.Context, alert domain.Alert) error {
	b, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	if err := s.client.Publish(ctx, redisAlertsChan, b).Err(); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

// SetLatestResult mirrors the newest analysis result for other processes.
func (s *RedisStore) SetLatestResult(ctx context.Context, result *domain.AnalysisResult, ttl time.Duration) error {
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := s.client.Set(ctx, redisResultKey, b, ttl).Err(); err != nil {
		return fmt.Errorf("failed to mirror result to redis: %w", err)
	}
	return nil
}

// LatestResult reads the mirrored result, if any process wrote one recently.
func (s *RedisStore) LatestResult(ctx context.Context) (*domain.AnalysisResult, error) {
	b, err := s.client.Get(ctx, redisResultKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mirrored result: %w", err)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mirrored result: %w", err)
	}
	return &result, nil
}

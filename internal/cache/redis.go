package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"sensor-monitor/internal/models"
)

const (
	readingListKey    = "reading_list"
	threatCountPrefix = "threat_count:"
)

// RedisCache зеркало принятых показаний в Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache создает новый Redis кэш
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
	}, nil
}

// ReadingKey ключ показания
func ReadingKey(at time.Time) string {
	return fmt.Sprintf("reading:%d", at.UnixNano())
}

// ThreatCounterKey ключ счетчика угрозы ("Gas Leakage" -> threat_count:gas_leakage)
func ThreatCounterKey(threat string) string {
	return threatCountPrefix + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(threat)), " ", "_")
}

// StoreReading сохраняет показание и добавляет его в sorted set по времени
func (r *RedisCache) StoreReading(ctx context.Context, at time.Time, reading models.Reading) error {
	jsonData, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	key := ReadingKey(at)
	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, jsonData, r.ttl)
	pipe.ZAdd(ctx, readingListKey, redis.Z{Score: float64(at.Unix()), Member: key})
	pipe.Expire(ctx, readingListKey, r.ttl)

	_, err = pipe.Exec(ctx)
	return err
}

// IncrementThreat увеличивает счетчик угрозы
func (r *RedisCache) IncrementThreat(ctx context.Context, threat string) error {
	return r.client.Incr(ctx, ThreatCounterKey(threat)).Err()
}

// ThreatCount значение счетчика угрозы
func (r *RedisCache) ThreatCount(ctx context.Context, threat string) (int64, error) {
	val, err := r.client.Get(ctx, ThreatCounterKey(threat)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// Close закрывает соединение с Redis
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Ping проверяет доступность Redis
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// GetStats возвращает статистику пула соединений
func (r *RedisCache) GetStats() map[string]interface{} {
	stats := r.client.PoolStats()

	return map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}

package emitter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisEmitter publishes events on a Redis channel and keeps the latest one of
// each kind under <channel>:last:<kind> for late subscribers.
type RedisEmitter struct {
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger
}

// NewRedisEmitter wraps an existing client.
func NewRedisEmitter(client redis.UniversalClient, channel string, logger *zap.Logger) *RedisEmitter {
	if channel == "" {
		channel = "airguitar"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisEmitter{client: client, channel: channel, logger: logger}
}

// DialRedis connects to cfg.Addr and checks the connection with PING.
func DialRedis(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisEmitter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedisEmitter(client, cfg.Channel, logger), nil
}

func (e *RedisEmitter) Name() string { return "redis" }

// LastKey returns the key holding the latest event of kind.
func (e *RedisEmitter) LastKey(kind Kind) string {
	return e.channel + ":last:" + string(kind)
}

// Emit publishes ev and records it as the latest of its kind in one round trip.
func (e *RedisEmitter) Emit(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = e.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, e.channel, payload)
		pipe.Set(ctx, e.LastKey(ev.Kind), payload, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}

	e.logger.Debug("event published", zap.String("channel", e.channel), zap.String("kind", string(ev.Kind)))
	return nil
}

// Close closes the underlying client.
func (e *RedisEmitter) Close() error {
	return e.client.Close()
}

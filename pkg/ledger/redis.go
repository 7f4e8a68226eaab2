package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis client.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

// RedisLedger stores outcomes as JSON values with a TTL.
type RedisLedger struct {
	redisClient *redis.Client
	logger      zerolog.Logger
	ttl         time.Duration
	prefix      string
}

// NewRedisLedger creates and connects a new RedisLedger.
// It pings the Redis server to ensure connectivity before returning.
func NewRedisLedger(ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*RedisLedger, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis for ledger: %w", err)
	}
	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis for ledger.")

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "jobsink:outcome:"
	}
	return &RedisLedger{
		redisClient: rdb,
		logger:      logger.With().Str("component", "RedisLedger").Logger(),
		ttl:         cfg.TTL,
		prefix:      prefix,
	}, nil
}

func (l *RedisLedger) key(messageID string) string {
	return l.prefix + messageID
}

// Record marshals the outcome to JSON and stores it with the configured TTL.
func (l *RedisLedger) Record(ctx context.Context, o Outcome) error {
	jsonData, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome for message %s: %w", o.MessageID, err)
	}
	if err := l.redisClient.Set(ctx, l.key(o.MessageID), jsonData, l.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set outcome in redis for message %s: %w", o.MessageID, err)
	}
	return nil
}

// Lookup retrieves and unmarshals an outcome.
func (l *RedisLedger) Lookup(ctx context.Context, messageID string) (Outcome, error) {
	cachedData, err := l.redisClient.Get(ctx, l.key(messageID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Outcome{}, fmt.Errorf("message '%s': %w", messageID, ErrNotFound)
		}
		return Outcome{}, fmt.Errorf("redis get failed for message %s: %w", messageID, err)
	}
	var o Outcome
	if err := json.Unmarshal([]byte(cachedData), &o); err != nil {
		return Outcome{}, fmt.Errorf("failed to unmarshal outcome for message %s: %w", messageID, err)
	}
	return o, nil
}

// Close closes the Redis client connection.
func (l *RedisLedger) Close() error {
	if l.redisClient != nil {
		l.logger.Info().Msg("Closing Redis client connection...")
		return l.redisClient.Close()
	}
	return nil
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/mpatel/shopline-backend/config"
	"github.com/mpatel/shopline-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

func sharedCartKey(shareID string) string {
	return fmt.Sprintf("shared_cart:%s", shareID)
}

// CartShareStore keeps shared cart snapshots in Redis with a TTL.
type CartShareStore struct{}

func NewCartShareStore() *CartShareStore {
	return &CartShareStore{}
}

// Save stores a snapshot under the share ID for the given lifetime.
func (s *CartShareStore) Save(ctx context.Context, shareID string, payload []byte, ttl time.Duration) error {
	logger.Debug("Storing shared cart snapshot", map[string]interface{}{
		"share_id": shareID,
		"ttl":      ttl.String(),
	})

	err := client.Set(ctx, sharedCartKey(shareID), payload, ttl).Err()
	if err != nil {
		logger.Error("Failed to store shared cart snapshot", err, map[string]interface{}{
			"share_id": shareID,
		})
		return err
	}
	return nil
}

// Get returns the snapshot for the share ID, or nil when it does not
// exist or has expired.
func (s *CartShareStore) Get(ctx context.Context, shareID string) ([]byte, error) {
	val, err := client.Get(ctx, sharedCartKey(shareID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to read shared cart snapshot", err, map[string]interface{}{
			"share_id": shareID,
		})
		return nil, err
	}
	return val, nil
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"face-service/pkg/config"
)

const (
	trainingLockKey = "face:training:lock"
	modelVersionKey = "face:model:version"
)

// Client wraps the redis connection used for the cross-instance training
// lock and the published model version stamp.
type Client struct {
	rdb *redis.Client
}

func NewClient(cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// AcquireTrainingLock claims the training lock for ttl. Returns false when
// another instance holds it.
func (c *Client) AcquireTrainingLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, trainingLockKey, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

func (c *Client) ReleaseTrainingLock(ctx context.Context) error {
	return c.rdb.Del(ctx, trainingLockKey).Err()
}

// SetModelVersion stamps the currently published model. Verifiers compare
// this against their cached bundle and reload when it moves.
func (c *Client) SetModelVersion(ctx context.Context, runID string) error {
	return c.rdb.Set(ctx, modelVersionKey, runID, 0).Err()
}

// GetModelVersion returns the published model run id, or empty when no model
// has been trained yet.
func (c *Client) GetModelVersion(ctx context.Context) (string, error) {
	version, err := c.rdb.Get(ctx, modelVersionKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return version, nil
}

package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/latte-hq/latte-api/internal/config"
	"github.com/latte-hq/latte-api/internal/domain"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client        *redis.Client
	channelPrefix string
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client, channelPrefix: cfg.ChannelPrefix}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// Broadcast publishes a notification to the recipient's pub/sub channel so
// connected frontends can deliver it live. Recipients are keyed by email.
func (r *Redis) Broadcast(ctx context.Context, email string, notification *domain.Notification) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	channel := fmt.Sprintf("%s:%s", r.channelPrefix, email)
	return r.Client.Publish(ctx, channel, payload).Err()
}

package stream

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobflow/internal/model"
)

var _ model.Publisher = (*RedisPublisher)(nil)

// RedisPublisher publishes messages on Redis pub/sub channels.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher connects and pings the server.
func NewRedisPublisher(ctx context.Context, addr, password string, db int) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", addr, err)
	}
	return &RedisPublisher{client: client}, nil
}

// Publish sends payload to channel topic.
func (p *RedisPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := p.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publishing to redis channel %s: %w", topic, err)
	}
	return nil
}

// Close closes the connection pool.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

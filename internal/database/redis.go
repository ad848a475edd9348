package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients holds the two connections the app needs. A client subscribed
// to pub/sub cannot issue regular commands, so the job queue and the event
// feed each get their own.
type RedisClients struct {
	Queue  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	queue, err := dialRedis(opt)
	if err != nil {
		return nil, fmt.Errorf("redis queue client: %w", err)
	}

	pubsubOpt := *opt
	pubsub, err := dialRedis(&pubsubOpt)
	if err != nil {
		queue.Close()
		return nil, fmt.Errorf("redis pubsub client: %w", err)
	}

	return &RedisClients{Queue: queue, PubSub: pubsub}, nil
}

func dialRedis(opt *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (r *RedisClients) Close() {
	r.Queue.Close()
	r.PubSub.Close()
}

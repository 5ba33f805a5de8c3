package redis

import (
	"fmt"
	"log"
	"time"
)

// InitRedis connects to Redis and checks the connection. Live state is kept across
// restarts, so nothing is flushed here.
func InitRedis(Addr string, DB int, ttl time.Duration) (*RedisClient, error) {
	rc, err := NewRedisClient(Addr, DB, ttl)
	if err != nil {
		return nil, err
	}

	if err := rc.client.Ping(rc.ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	log.Println("Successfully connected to Redis")
	return rc, nil
}

// CloseRedis gracefully closes the Redis connection
func CloseRedis(rc *RedisClient) error {
	if err := rc.client.Close(); err != nil {
		return fmt.Errorf("error closing Redis connection: %v", err)
	}
	return nil
}

package config

import (
	"log"

	"Turnato/services/redis"
)

// Connect to Redis
func Connect_redis(cfg Config) (*redis.RedisClient, error) {
	redisClient, err := redis.InitRedis(cfg.RedisURL, 0, cfg.SnapshotTTL)
	if err != nil {
		log.Printf("Error connecting to Redis: %v", err)
		return nil, err
	}
	log.Println("Redis connection established")
	return redisClient, nil
}

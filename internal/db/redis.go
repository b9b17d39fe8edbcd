package db

import "github.com/redis/go-redis/v9"

// NewRedis creates a Redis client shared by the cache, token store and job queue.
func NewRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

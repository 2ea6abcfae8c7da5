// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"meetbot/config"

	"github.com/go-redis/redis/v8"
)

var (
	// SessionCacheClient holds dialogue sessions.
	SessionCacheClient *redis.Client
	// DirectoryCacheClient holds the participant directory.
	DirectoryCacheClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// GetSessionCacheClient returns the Redis client for dialogue sessions.
func GetSessionCacheClient() *redis.Client {
	if SessionCacheClient == nil {
		SessionCacheClient = newRedisClient(config.AppConfig.RedisSessionDB, "Session")
	}
	return SessionCacheClient
}

// GetDirectoryCacheClient returns the Redis client for the participant directory.
func GetDirectoryCacheClient() *redis.Client {
	if DirectoryCacheClient == nil {
		DirectoryCacheClient = newRedisClient(config.AppConfig.RedisDirectoryDB, "Directory")
	}
	return DirectoryCacheClient
}

// RedisClients returns every client opened so far, for health checks.
func RedisClients() []*redis.Client {
	var clients []*redis.Client
	for _, c := range []*redis.Client{SessionCacheClient, DirectoryCacheClient} {
		if c != nil {
			clients = append(clients, c)
		}
	}
	return clients
}

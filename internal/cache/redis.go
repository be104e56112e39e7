// Package cache provides an optional Redis-backed cache for verified
// customer logins. When Redis is unreachable the client stays nil and
// every lookup misses, so login falls back to bcrypt only.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const authCacheTTL = 15 * time.Minute

var client *redis.Client

// Init initializes the Redis connection
func Init() error {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// hashCredentials creates a hash of username+password for the cache key.
// Only the hash ever reaches Redis.
func hashCredentials(username, password string) string {
	h := sha256.New()
	h.Write([]byte(username + ":" + password))
	return "auth:" + hex.EncodeToString(h.Sum(nil))[:32]
}

// GetCachedAuth checks if credentials are cached and valid
func GetCachedAuth(ctx context.Context, username, password string) (int, bool) {
	if client == nil {
		return 0, false
	}
	key := hashCredentials(username, password)
	customerID, err := client.Get(ctx, key).Int()
	if err != nil {
		return 0, false
	}
	return customerID, true
}

// CacheAuth caches a verified login for a short window so repeated portal
// requests skip the bcrypt compare
func CacheAuth(ctx context.Context, username, password string, customerID int) {
	if client == nil {
		return
	}
	key := hashCredentials(username, password)
	client.Set(ctx, key, customerID, authCacheTTL)
}

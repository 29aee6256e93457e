package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Service handles all Redis-related operations
type Service struct {
	client *redis.Client
	ctx    context.Context
}

// getRedisConfig gets Redis configuration from environment variables
func getRedisConfig() (string, string, int) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "localhost:6379"
	}

	password := os.Getenv("REDIS_PASSWORD")

	dbStr := os.Getenv("REDIS_DB")
	db := 0
	if dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			db = dbInt
		}
	}

	return url, password, db
}

// NewService creates a new Redis service instance
func NewService() *Service {
	url, password, db := getRedisConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: password,
		DB:       db,
		// Connection pool settings
		PoolSize:     10,
		MinIdleConns: 5,
		// Timeout settings
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx := context.Background()

	// Test the connection
	_, err := client.Ping(ctx).Result()
	if err != nil {
		// Silent fail - Redis might not be available
	}

	return &Service{
		client: client,
		ctx:    ctx,
	}
}

// Close closes the Redis connection
func (r *Service) Close() error {
	return r.client.Close()
}

// Set stores a key-value pair in Redis
func (r *Service) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %v", err)
	}

	err = r.client.Set(r.ctx, key, jsonValue, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to set key %s: %v", key, err)
	}
	return nil
}

// Get retrieves a value from Redis
func (r *Service) Get(key string, dest interface{}) error {
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key %s not found", key)
		}
		return fmt.Errorf("failed to get key %s: %v", key, err)
	}

	err = json.Unmarshal([]byte(val), dest)
	if err != nil {
		return fmt.Errorf("failed to unmarshal value for key %s: %v", key, err)
	}
	return nil
}

// Delete removes a key from Redis
func (r *Service) Delete(key string) error {
	err := r.client.Del(r.ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %v", key, err)
	}
	return nil
}

// Exists checks if a key exists in Redis
func (r *Service) Exists(key string) (bool, error) {
	result, err := r.client.Exists(r.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence of key %s: %v", key, err)
	}

	return result > 0, nil
}

// IncrementCounter increments a counter in Redis
func (r *Service) IncrementCounter(key string) (int64, error) {
	result, err := r.client.Incr(r.ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %v", key, err)
	}
	return result, nil
}

// GetCounter gets the current value of a counter
func (r *Service) GetCounter(key string) (int64, error) {
	result, err := r.client.Get(r.ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get counter %s: %v", key, err)
	}

	return result, nil
}

// GetClient returns the Redis client for advanced operations
func (r *Service) GetClient() *redis.Client {
	return r.client
}

// GetContext returns the Redis context
func (r *Service) GetContext() context.Context {
	return r.ctx
}

// PresenceData represents a user's live connection state mirrored to Redis
// so operational tooling can see who is online without touching the process.
type PresenceData struct {
	UserID   string    `json:"user_id"`
	SocketID string    `json:"socket_id"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"last_seen"`
}

// CachePresence stores a user's presence record in Redis
func (r *Service) CachePresence(presence PresenceData, expiration time.Duration) error {
	key := fmt.Sprintf("presence:%s", presence.UserID)
	return r.Set(key, presence, expiration)
}

// GetPresence retrieves a user's presence record from Redis
func (r *Service) GetPresence(userID string) (*PresenceData, error) {
	key := fmt.Sprintf("presence:%s", userID)
	var presence PresenceData
	err := r.Get(key, &presence)
	if err != nil {
		return nil, err
	}
	return &presence, nil
}

// DeletePresence removes a user's presence record from Redis
func (r *Service) DeletePresence(userID string) error {
	key := fmt.Sprintf("presence:%s", userID)
	return r.Delete(key)
}

// CacheMatchStats stores the current queue/session gauges for the stats endpoint
func (r *Service) CacheMatchStats(stats map[string]interface{}, expiration time.Duration) error {
	key := "matchstats:current"
	return r.Set(key, stats, expiration)
}

// GetMatchStats retrieves the cached queue/session gauges
func (r *Service) GetMatchStats() (map[string]interface{}, error) {
	key := "matchstats:current"
	var stats map[string]interface{}
	err := r.Get(key, &stats)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// IncrementCompletedCalls bumps the lifetime completed-call counter
func (r *Service) IncrementCompletedCalls() (int64, error) {
	return r.IncrementCounter("calls:completed")
}

// GetCompletedCalls returns the lifetime completed-call counter
func (r *Service) GetCompletedCalls() (int64, error) {
	return r.GetCounter("calls:completed")
}

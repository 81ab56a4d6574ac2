// Package cache implements the fast progress tier on Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"coursestream/backend/models"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores serialized progress entries under
// "progress:<user_id>:<file_id>" with a TTL, plus "progress:dirty:" markers
// consumed by the backup sync worker.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// New connects to Redis and pings it once. A connection failure returns an
// error so the caller can decide to run without the cache tier.
func New(addr string, db int, ttl time.Duration, logger *log.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = log.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DB:          db,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	logger.Printf("cache: redis connected on %s", addr)
	return &RedisCache{client: client, ttl: ttl, logger: logger}, nil
}

func entryKey(userID, fileID string) string {
	return "progress:" + userID + ":" + fileID
}

func dirtyKey(userID, fileID string) string {
	return "progress:dirty:" + userID + ":" + fileID
}

func (c *RedisCache) GetEntry(ctx context.Context, userID, fileID string) (*models.ProgressEntry, error) {
	data, err := c.client.Get(ctx, entryKey(userID, fileID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry models.ProgressEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		// A corrupt cache value is treated as a miss, the durable tier
		// repopulates it.
		c.logger.Printf("cache: dropping unreadable entry %s: %v", entryKey(userID, fileID), err)
		c.client.Del(ctx, entryKey(userID, fileID))
		return nil, nil
	}
	return &entry, nil
}

func (c *RedisCache) SetEntry(ctx context.Context, entry *models.ProgressEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, entryKey(entry.UserID, entry.FileID), data, c.ttl).Err()
}

func (c *RedisCache) MarkDirty(ctx context.Context, userID, fileID string) error {
	// Dirty markers outlive the entry TTL so the sync worker never loses
	// track of an unsynced write.
	return c.client.Set(ctx, dirtyKey(userID, fileID), "1", 0).Err()
}

func (c *RedisCache) ClearDirty(ctx context.Context, userID, fileID string) error {
	return c.client.Del(ctx, dirtyKey(userID, fileID)).Err()
}

// DirtyEntries returns the cached entries whose dirty marker is still set.
// Markers whose entry expired from the cache are dropped.
func (c *RedisCache) DirtyEntries(ctx context.Context) ([]*models.ProgressEntry, error) {
	keys, err := c.client.Keys(ctx, "progress:dirty:*").Result()
	if err != nil {
		return nil, err
	}

	var entries []*models.ProgressEntry
	for _, key := range keys {
		parts := strings.SplitN(key, ":", 4)
		if len(parts) != 4 {
			c.logger.Printf("cache: invalid dirty key %q", key)
			continue
		}
		userID, fileID := parts[2], parts[3]

		entry, err := c.GetEntry(ctx, userID, fileID)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			c.client.Del(ctx, key)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

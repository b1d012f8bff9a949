package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"deliveryPanel/internal/modules/schedules/application/port"
	"deliveryPanel/internal/modules/schedules/domain"
)

type entryCacheItem struct {
	entries   []domain.ScheduleEntry
	fetchedAt time.Time
}

// MemoryEntryCache keeps entries in process; ttl <= 0 keeps them until invalidated.
type MemoryEntryCache struct {
	mu    sync.RWMutex
	items map[string]entryCacheItem
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryEntryCache(ttl time.Duration) *MemoryEntryCache {
	return &MemoryEntryCache{items: make(map[string]entryCacheItem), ttl: ttl, now: time.Now}
}

func (c *MemoryEntryCache) Get(_ context.Context, merchantID string) ([]domain.ScheduleEntry, bool) {
	key := strings.TrimSpace(merchantID)
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(item.fetchedAt) > c.ttl {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneEntries(item.entries), true
}

func (c *MemoryEntryCache) Set(_ context.Context, merchantID string, entries []domain.ScheduleEntry) {
	key := strings.TrimSpace(merchantID)
	if key == "" {
		return
	}
	c.mu.Lock()
	c.items[key] = entryCacheItem{entries: cloneEntries(entries), fetchedAt: c.now()}
	c.mu.Unlock()
}

func (c *MemoryEntryCache) Invalidate(_ context.Context, merchantID string) {
	c.mu.Lock()
	delete(c.items, strings.TrimSpace(merchantID))
	c.mu.Unlock()
}

// RedisEntryCache stores entries as JSON under "schedule:entries:<merchantId>".
type RedisEntryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisEntryCache(client *redis.Client, ttl time.Duration) *RedisEntryCache {
	return &RedisEntryCache{client: client, ttl: ttl}
}

func redisEntryKey(merchantID string) string {
	return fmt.Sprintf("schedule:entries:%s", strings.TrimSpace(merchantID))
}

func (c *RedisEntryCache) Get(ctx context.Context, merchantID string) ([]domain.ScheduleEntry, bool) {
	val, err := c.client.Get(ctx, redisEntryKey(merchantID)).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("entry cache read failed", slog.String("merchantId", merchantID), slog.Any("error", err))
		}
		return nil, false
	}
	var entries []domain.ScheduleEntry
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		slog.Warn("entry cache decode failed", slog.String("merchantId", merchantID), slog.Any("error", err))
		return nil, false
	}
	return entries, true
}

func (c *RedisEntryCache) Set(ctx context.Context, merchantID string, entries []domain.ScheduleEntry) {
	if strings.TrimSpace(merchantID) == "" {
		return
	}
	if entries == nil {
		entries = []domain.ScheduleEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisEntryKey(merchantID), data, c.ttl).Err(); err != nil {
		slog.Warn("entry cache write failed", slog.String("merchantId", merchantID), slog.Any("error", err))
	}
}

func (c *RedisEntryCache) Invalidate(ctx context.Context, merchantID string) {
	if err := c.client.Del(ctx, redisEntryKey(merchantID)).Err(); err != nil {
		slog.Warn("entry cache invalidate failed", slog.String("merchantId", merchantID), slog.Any("error", err))
	}
}

func cloneEntries(entries []domain.ScheduleEntry) []domain.ScheduleEntry {
	if entries == nil {
		return nil
	}
	out := make([]domain.ScheduleEntry, len(entries))
	for i, entry := range entries {
		out[i] = entry
		out[i].Days = append([]domain.DayOfWeek(nil), entry.Days...)
	}
	return out
}

var (
	_ port.EntryCache = (*MemoryEntryCache)(nil)
	_ port.EntryCache = (*RedisEntryCache)(nil)
)

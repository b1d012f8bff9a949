package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deliveryPanel/internal/modules/schedules/domain"
)

func sampleEntries() []domain.ScheduleEntry {
	return []domain.ScheduleEntry{{
		ID:     "e-1",
		Range:  domain.TimeRange{Opening: domain.MustTimeOfDay(8, 0), Closing: domain.MustTimeOfDay(12, 30)},
		Days:   []domain.DayOfWeek{domain.Monday, domain.Friday},
		Active: true,
	}}
}

func TestMemoryEntryCacheExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	cache := NewMemoryEntryCache(time.Minute)
	cache.now = func() time.Time { return now }

	cache.Set(ctx, "m-1", sampleEntries())
	got, ok := cache.Get(ctx, " m-1 ")
	require.True(t, ok)
	assert.Equal(t, sampleEntries(), got)

	got[0].Days[0] = domain.Sunday
	again, _ := cache.Get(ctx, "m-1")
	assert.Equal(t, domain.Monday, again[0].Days[0], "callers receive copies")

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get(ctx, "m-1")
	assert.False(t, ok)
}

func TestMemoryEntryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryEntryCache(0)
	cache.Set(ctx, "m-1", []domain.ScheduleEntry{})
	cache.Set(ctx, "  ", sampleEntries())

	got, ok := cache.Get(ctx, "m-1")
	require.True(t, ok, "an empty list is still a cached answer")
	assert.Empty(t, got)

	cache.Invalidate(ctx, "m-1")
	_, ok = cache.Get(ctx, "m-1")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "")
	assert.False(t, ok)
}

func TestRedisEntryCache(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewRedisEntryCache(client, time.Minute)

	_, ok := cache.Get(ctx, "m-1")
	assert.False(t, ok)

	cache.Set(ctx, "m-1", sampleEntries())
	assert.True(t, server.Exists("schedule:entries:m-1"))
	got, ok := cache.Get(ctx, "m-1")
	require.True(t, ok)
	assert.Equal(t, sampleEntries(), got)

	server.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx, "m-1")
	assert.False(t, ok)

	cache.Set(ctx, "m-2", nil)
	got, ok = cache.Get(ctx, "m-2")
	require.True(t, ok)
	assert.Empty(t, got)

	cache.Invalidate(ctx, "m-2")
	assert.False(t, server.Exists("schedule:entries:m-2"))
}

func TestRedisEntryCacheIgnoresCorruptValues(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, server.Set("schedule:entries:m-1", "not json"))
	_, ok := NewRedisEntryCache(client, 0).Get(ctx, "m-1")
	assert.False(t, ok)
}

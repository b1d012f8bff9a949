package usecase

import (
	"context"
	"fmt"
	"sync"

	"deliveryPanel/internal/modules/schedules/application/port"
	"deliveryPanel/internal/modules/schedules/domain"
)

// fakeGateway records calls and serves canned responses.
type fakeGateway struct {
	mu sync.Mutex

	entries    []domain.ScheduleEntry
	fetchErr   error
	createErr  error
	linkErr    error
	unlinkErrs map[string]error
	isOpen     bool
	isOpenErr  error

	// block, when set, stalls FetchEntries until closed.
	block chan struct{}

	fetches  int
	creates  []createCall
	links    []string
	unlinks  []string
	deletes  []string
	nextID   int
	openHits int
}

type createCall struct {
	rng    domain.TimeRange
	days   []domain.DayOfWeek
	active bool
}

func (g *fakeGateway) FetchEntries(ctx context.Context, _ string, _ string) ([]domain.ScheduleEntry, error) {
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches++
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return append([]domain.ScheduleEntry(nil), g.entries...), nil
}

func (g *fakeGateway) CreateEntry(_ context.Context, _ string, rng domain.TimeRange, days []domain.DayOfWeek, active bool) (domain.ScheduleEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return domain.ScheduleEntry{}, g.createErr
	}
	g.nextID++
	g.creates = append(g.creates, createCall{rng: rng, days: append([]domain.DayOfWeek(nil), days...), active: active})
	return domain.ScheduleEntry{ID: fmt.Sprintf("new-%d", g.nextID), Range: rng, Days: days, Active: active}, nil
}

func (g *fakeGateway) DeleteEntry(_ context.Context, _ string, entryID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletes = append(g.deletes, entryID)
	return nil
}

func (g *fakeGateway) LinkEntry(_ context.Context, _ string, _ string, entryID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.linkErr != nil {
		return g.linkErr
	}
	g.links = append(g.links, entryID)
	return nil
}

func (g *fakeGateway) UnlinkEntry(_ context.Context, _ string, _ string, entryID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unlinks = append(g.unlinks, entryID)
	if err, ok := g.unlinkErrs[entryID]; ok {
		return err
	}
	return nil
}

func (g *fakeGateway) FetchIsOpen(_ context.Context, _ string, _ string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.openHits++
	return g.isOpen, g.isOpenErr
}

var _ port.ScheduleGateway = (*fakeGateway)(nil)

// mapCache is a minimal EntryCache.
type mapCache struct {
	mu    sync.Mutex
	items map[string][]domain.ScheduleEntry
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string][]domain.ScheduleEntry)}
}

func (c *mapCache) Get(_ context.Context, merchantID string) ([]domain.ScheduleEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, ok := c.items[merchantID]
	return entries, ok
}

func (c *mapCache) Set(_ context.Context, merchantID string, entries []domain.ScheduleEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[merchantID] = entries
}

func (c *mapCache) Invalidate(_ context.Context, merchantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, merchantID)
}

// recordingBroadcaster keeps every message it was asked to deliver.
type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []*domain.Message
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, msg *domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func (b *recordingBroadcaster) all() []*domain.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*domain.Message(nil), b.messages...)
}

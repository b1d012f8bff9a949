package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"deliveryPanel/internal/modules/schedules/application/port"
	"deliveryPanel/internal/modules/schedules/domain"
	"deliveryPanel/internal/platform/metrics"
)

// OpenStateUseCase answers "is this merchant open now" and keeps websocket watchers up to date.
type OpenStateUseCase struct {
	gateway  port.ScheduleGateway
	cache    port.EntryCache
	clock    port.Clock
	mu       sync.RWMutex
	watchers map[string]*openWatcher
}

type openWatcher struct {
	merchantID string
	token      string
	last       *domain.OpenState
}

func NewOpenStateUseCase(gateway port.ScheduleGateway, cache port.EntryCache, clock port.Clock) *OpenStateUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &OpenStateUseCase{
		gateway:  gateway,
		cache:    cache,
		clock:    clock,
		watchers: make(map[string]*openWatcher),
	}
}

// Evaluate asks the backend first. When the backend is unreachable or answers with a non-auth
// failure, the state is computed locally from cached entries or a fresh fetch. With neither
// available the state is unknown and the backend error is returned. Cancellation and auth
// failures are returned as-is.
func (uc *OpenStateUseCase) Evaluate(ctx context.Context, token, merchantID string) (domain.OpenState, error) {
	merchantID = strings.TrimSpace(merchantID)
	if merchantID == "" {
		return domain.OpenState{}, ErrMissingMerchant
	}
	open, err := uc.gateway.FetchIsOpen(ctx, token, merchantID)
	if err == nil {
		metrics.IncOpenEvaluation(string(domain.OpenSourceRemote))
		return domain.OpenState{Open: open, EvaluatedAt: uc.clock(), Source: domain.OpenSourceRemote}, nil
	}
	if !fallbackAllowed(err) {
		return domain.OpenState{}, err
	}
	slog.Warn("open state remote failed, evaluating locally", slog.String("merchantId", merchantID), slog.Any("error", err))
	entries, ok := uc.localEntries(ctx, token, merchantID)
	if !ok {
		return domain.OpenState{}, err
	}
	state := domain.EvaluateOpen(entries, uc.clock())
	metrics.IncOpenEvaluation(string(domain.OpenSourceLocal))
	return state, nil
}

func fallbackAllowed(err error) bool {
	if port.IsCanceled(err) || port.IsAuthFailure(err) {
		return false
	}
	return port.KindOf(err) != ""
}

func (uc *OpenStateUseCase) localEntries(ctx context.Context, token, merchantID string) ([]domain.ScheduleEntry, bool) {
	if uc.cache != nil {
		if entries, ok := uc.cache.Get(ctx, merchantID); ok {
			return entries, true
		}
	}
	entries, err := uc.gateway.FetchEntries(ctx, token, merchantID)
	if err != nil {
		slog.Warn("open state local fetch failed, state unknown", slog.String("merchantId", merchantID), slog.Any("error", err))
		return nil, false
	}
	if uc.cache != nil {
		uc.cache.Set(ctx, merchantID, entries)
	}
	return entries, true
}

// Watch registers a websocket client interested in merchantID's open state.
func (uc *OpenStateUseCase) Watch(clientKey, merchantID, token string) {
	clientKey = strings.TrimSpace(clientKey)
	merchantID = strings.TrimSpace(merchantID)
	if clientKey == "" || merchantID == "" {
		return
	}
	uc.mu.Lock()
	uc.watchers[clientKey] = &openWatcher{merchantID: merchantID, token: strings.TrimSpace(token)}
	uc.mu.Unlock()
}

// Unwatch forgets a websocket client.
func (uc *OpenStateUseCase) Unwatch(clientKey string) {
	uc.mu.Lock()
	delete(uc.watchers, strings.TrimSpace(clientKey))
	uc.mu.Unlock()
}

// Watching returns how many clients follow merchantID; an empty id counts every watcher.
func (uc *OpenStateUseCase) Watching(merchantID string) int {
	merchantID = strings.TrimSpace(merchantID)
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	if merchantID == "" {
		return len(uc.watchers)
	}
	count := 0
	for _, w := range uc.watchers {
		if w.merchantID == merchantID {
			count++
		}
	}
	return count
}

// RefreshMerchant re-evaluates merchantID once, using any watcher's token, and broadcasts the
// result when it differs from the last one sent (or force is set).
func (uc *OpenStateUseCase) RefreshMerchant(ctx context.Context, merchantID string, force bool, broadcaster *BroadcastUseCase) {
	if broadcaster == nil {
		return
	}
	merchantID = strings.TrimSpace(merchantID)
	token, ok := uc.watcherToken(merchantID)
	if !ok {
		return
	}
	state, err := uc.Evaluate(ctx, token, merchantID)
	if err != nil {
		slog.Warn("open state refresh failed", slog.String("merchantId", merchantID), slog.Any("error", err))
		broadcaster.Failure(ctx, merchantID, err, uc.clock())
		return
	}
	if !uc.remember(merchantID, state) && !force {
		return
	}
	broadcaster.OpenState(ctx, merchantID, state)
}

// RefreshAll re-evaluates every watched merchant.
func (uc *OpenStateUseCase) RefreshAll(ctx context.Context, broadcaster *BroadcastUseCase) {
	uc.mu.RLock()
	merchants := make(map[string]struct{}, len(uc.watchers))
	for _, w := range uc.watchers {
		merchants[w.merchantID] = struct{}{}
	}
	uc.mu.RUnlock()

	for merchantID := range merchants {
		if ctx.Err() != nil {
			return
		}
		uc.RefreshMerchant(ctx, merchantID, false, broadcaster)
	}
}

func (uc *OpenStateUseCase) watcherToken(merchantID string) (string, bool) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	for _, w := range uc.watchers {
		if w.merchantID == merchantID {
			return w.token, true
		}
	}
	return "", false
}

// remember stores state on every watcher of merchantID and reports whether the open flag changed.
func (uc *OpenStateUseCase) remember(merchantID string, state domain.OpenState) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	changed := false
	for _, w := range uc.watchers {
		if w.merchantID != merchantID {
			continue
		}
		if w.last == nil || w.last.Open != state.Open {
			changed = true
		}
		stored := state
		w.last = &stored
	}
	return changed
}

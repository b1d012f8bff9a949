package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deliveryPanel/internal/modules/schedules/application/port"
	"deliveryPanel/internal/modules/schedules/domain"
)

// mondayAt returns a Monday (2024-01-01) at the given hour.
func mondayAt(hour int) func() time.Time {
	return func() time.Time { return time.Date(2024, time.January, 1, hour, 0, 0, 0, time.UTC) }
}

func mondayEntries(t *testing.T) []domain.ScheduleEntry {
	return []domain.ScheduleEntry{{ID: "e1", Range: mustRange(t, "08:00", "18:00"), Days: []domain.DayOfWeek{domain.Monday}, Active: true}}
}

func TestEvaluateUsesRemoteAnswer(t *testing.T) {
	gateway := &fakeGateway{isOpen: true}
	uc := NewOpenStateUseCase(gateway, nil, mondayAt(22))

	state, err := uc.Evaluate(context.Background(), "tok", "m-1")
	require.NoError(t, err)
	assert.True(t, state.Open)
	assert.Equal(t, domain.OpenSourceRemote, state.Source)
	assert.Zero(t, gateway.fetches)
}

func TestEvaluateFallsBackToCachedEntries(t *testing.T) {
	gateway := &fakeGateway{isOpenErr: &port.NetworkUnavailableError{Op: "schedule.fetch_is_open", Err: errors.New("dial tcp: refused")}}
	cache := newMapCache()
	cache.Set(context.Background(), "m-1", mondayEntries(t))
	uc := NewOpenStateUseCase(gateway, cache, mondayAt(10))

	state, err := uc.Evaluate(context.Background(), "tok", "m-1")
	require.NoError(t, err)
	assert.True(t, state.Open)
	assert.Equal(t, domain.OpenSourceLocal, state.Source)
	assert.Zero(t, gateway.fetches, "cached entries avoid a fetch")
}

func TestEvaluateFallsBackToFetchedEntries(t *testing.T) {
	gateway := &fakeGateway{
		isOpenErr: port.NewRemoteError("schedule.fetch_is_open", http.StatusInternalServerError, "boom"),
		entries:   mondayEntries(t),
	}
	cache := newMapCache()
	uc := NewOpenStateUseCase(gateway, cache, mondayAt(19))

	state, err := uc.Evaluate(context.Background(), "tok", "m-1")
	require.NoError(t, err)
	assert.False(t, state.Open)
	assert.Equal(t, domain.OpenSourceLocal, state.Source)
	assert.Equal(t, 1, gateway.fetches)
	_, cached := cache.Get(context.Background(), "m-1")
	assert.True(t, cached)
}

func TestEvaluateWithoutAnyEntrySetReturnsBackendError(t *testing.T) {
	unreachable := &port.NetworkUnavailableError{Op: "schedule.fetch_is_open", Err: errors.New("no route")}
	gateway := &fakeGateway{isOpenErr: unreachable, fetchErr: &port.NetworkUnavailableError{Op: "schedule.fetch_entries", Err: errors.New("no route")}}
	uc := NewOpenStateUseCase(gateway, nil, mondayAt(10))

	_, err := uc.Evaluate(context.Background(), "tok", "m-1")
	require.Error(t, err)
	assert.Same(t, unreachable, err)
	assert.True(t, port.IsNetworkUnavailable(err))
}

func TestEvaluateWithEmptyEntrySetIsClosed(t *testing.T) {
	gateway := &fakeGateway{isOpenErr: &port.NetworkUnavailableError{Op: "op", Err: errors.New("no route")}}
	uc := NewOpenStateUseCase(gateway, nil, mondayAt(10))

	state, err := uc.Evaluate(context.Background(), "tok", "m-1")
	require.NoError(t, err)
	assert.False(t, state.Open)
	assert.Equal(t, domain.OpenSourceLocal, state.Source)
}

func TestEvaluatePropagatesAuthAndCancellation(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		gateway := &fakeGateway{isOpenErr: port.NewRemoteError("schedule.fetch_is_open", status, "")}
		_, err := NewOpenStateUseCase(gateway, nil, mondayAt(10)).Evaluate(context.Background(), "tok", "m-1")
		assert.True(t, port.IsAuthFailure(err), "status %d", status)
		assert.Zero(t, gateway.fetches)
	}

	gateway := &fakeGateway{isOpenErr: context.Canceled}
	_, err := NewOpenStateUseCase(gateway, nil, mondayAt(10)).Evaluate(context.Background(), "tok", "m-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefreshMerchantBroadcastsOnChange(t *testing.T) {
	gateway := &fakeGateway{isOpen: true}
	sink := &recordingBroadcaster{}
	broadcastUC := NewBroadcastUseCase(sink)
	uc := NewOpenStateUseCase(gateway, nil, mondayAt(10))

	uc.RefreshMerchant(context.Background(), "m-1", false, broadcastUC)
	assert.Empty(t, sink.all(), "no watchers, nothing to refresh")

	uc.Watch("sess-1:m-1", "m-1", "tok")
	uc.Watch("sess-2:m-1", "m-1", "tok")
	assert.Equal(t, 2, uc.Watching("m-1"))

	uc.RefreshMerchant(context.Background(), "m-1", false, broadcastUC)
	uc.RefreshMerchant(context.Background(), "m-1", false, broadcastUC)
	messages := sink.all()
	require.Len(t, messages, 1, "unchanged state is not re-sent")
	assert.Equal(t, domain.OpenStateTopic("m-1"), messages[0].Topic)
	assert.Equal(t, "merchants.m-1.open", messages[0].Topic)

	gateway.isOpen = false
	uc.RefreshAll(context.Background(), broadcastUC)
	require.Len(t, sink.all(), 2)
	state, ok := sink.all()[1].Data.(domain.OpenState)
	require.True(t, ok)
	assert.False(t, state.Open)

	uc.RefreshMerchant(context.Background(), "m-1", true, broadcastUC)
	assert.Len(t, sink.all(), 3, "forced refresh always sends")

	uc.Unwatch("sess-1:m-1")
	uc.Unwatch("sess-2:m-1")
	assert.Zero(t, uc.Watching(""))
}

func TestRefreshMerchantEmitsErrorMessage(t *testing.T) {
	gateway := &fakeGateway{isOpenErr: port.NewRemoteError("schedule.fetch_is_open", http.StatusUnauthorized, "expired")}
	sink := &recordingBroadcaster{}
	uc := NewOpenStateUseCase(gateway, nil, mondayAt(10))
	uc.Watch("sess-1:m-1", "m-1", "tok")

	uc.RefreshMerchant(context.Background(), "m-1", false, NewBroadcastUseCase(sink))
	messages := sink.all()
	require.Len(t, messages, 1)
	assert.Equal(t, domain.ActionError, messages[0].Action)
	assert.Equal(t, string(port.KindUnauthorized), messages[0].Metadata["kind"])
}

package infrastructure

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deliveryPanel/internal/modules/schedules/application/usecase"
	"deliveryPanel/internal/modules/schedules/application/viewmodel"
	"deliveryPanel/internal/modules/schedules/domain"
	"deliveryPanel/internal/shared/auth"
)

func TestReconcileUnlinksEntriesWithUnreadableTimes(t *testing.T) {
	client, stub := newBackend(t, map[string]func(http.ResponseWriter){
		"GET /api/v1/merchants/m-1/schedules":             respond(http.StatusOK, `[{"id":"legacy-7","days":"Monday","opening":"8am","closing":"5pm","active":true}]`),
		"DELETE /api/v1/merchants/m-1/schedules/legacy-7": respond(http.StatusNoContent, ""),
		"POST /api/v1/schedules":                          respond(http.StatusCreated, `{"id":"new-1","days":"Monday","opening":"09:00","closing":"17:00","active":true}`),
		"POST /api/v1/merchants/m-1/schedules/new-1":      respond(http.StatusNoContent, ""),
	})

	draft := domain.NewWeeklyDraft()
	draft.Add(domain.Monday, domain.DraftSlot{Range: domain.TimeRange{
		Opening: domain.TimeOfDay{Hour: 9},
		Closing: domain.TimeOfDay{Hour: 17},
	}, Active: true})

	uc := usecase.NewReconcileUseCase(client, NewMemoryEntryCache(time.Minute), usecase.ReconcileOptions{})
	session := auth.Session{ID: "sess-1", Subject: "user-1", Token: "tok"}
	result, err := uc.Reconcile(context.Background(), session, "m-1", draft)
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy-7"}, result.Unlinked)
	require.Len(t, result.Created, 1)

	var calls []string
	for _, req := range stub.requests {
		calls = append(calls, req.method+" "+req.path)
	}
	assert.Equal(t, []string{
		"GET /api/v1/merchants/m-1/schedules",
		"DELETE /api/v1/merchants/m-1/schedules/legacy-7",
		"POST /api/v1/schedules",
		"POST /api/v1/merchants/m-1/schedules/new-1",
	}, calls)
}

func TestUnreadableEntriesStayOutOfDraftAndOpenState(t *testing.T) {
	client, _ := newBackend(t, map[string]func(http.ResponseWriter){
		"GET /api/v1/merchants/m-1/schedules": respond(http.StatusOK, `[{"id":"legacy-7","days":"Monday","opening":"8am","closing":"5pm"}]`),
	})
	entries, err := client.FetchEntries(context.Background(), "tok", "m-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	monday := viewmodel.ToDraft(entries).Slots(domain.Monday)
	require.Len(t, monday, 1)
	assert.False(t, monday[0].Active, "only the placeholder is shown")

	mondayNoon := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, domain.EvaluateOpen(entries, mondayNoon).Open)
}

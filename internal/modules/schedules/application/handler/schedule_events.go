package handler

import (
	"context"
	"log/slog"
	"strings"

	"deliveryPanel/internal/modules/schedules/application/port"
	"deliveryPanel/internal/modules/schedules/application/usecase"
	"deliveryPanel/internal/modules/schedules/domain"
)

// ScheduleEventHandler reacts to schedule changes published on a Kafka topic: the merchant's cached
// entries are dropped and its watchers get a fresh open state.
type ScheduleEventHandler struct {
	kafkaTopic     string
	allowedActions map[string]struct{}
	cache          port.EntryCache
	openUC         *usecase.OpenStateUseCase
	broadcastUC    *usecase.BroadcastUseCase
}

func NewScheduleEventHandler(kafkaTopic string, allowedActions []string, cache port.EntryCache, openUC *usecase.OpenStateUseCase, broadcastUC *usecase.BroadcastUseCase) *ScheduleEventHandler {
	actionSet := make(map[string]struct{}, len(allowedActions))
	for _, a := range allowedActions {
		if v := strings.TrimSpace(strings.ToLower(a)); v != "" {
			actionSet[v] = struct{}{}
		}
	}
	return &ScheduleEventHandler{
		kafkaTopic:     kafkaTopic,
		allowedActions: actionSet,
		cache:          cache,
		openUC:         openUC,
		broadcastUC:    broadcastUC,
	}
}

func (h *ScheduleEventHandler) Topic() string { return h.kafkaTopic }

func (h *ScheduleEventHandler) Handle(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	if len(h.allowedActions) > 0 {
		if _, ok := h.allowedActions[strings.ToLower(msg.Action)]; !ok {
			return nil
		}
	}
	merchantID := strings.TrimSpace(msg.ResourceID)
	if merchantID == "" && msg.Metadata != nil {
		merchantID = strings.TrimSpace(msg.Metadata["merchantId"])
	}
	if merchantID == "" {
		slog.Debug("schedule event without merchant ignored", slog.String("topic", h.kafkaTopic), slog.String("action", msg.Action))
		return nil
	}
	if h.cache != nil {
		h.cache.Invalidate(ctx, merchantID)
	}
	slog.Info("schedule event refresh", slog.String("merchantId", merchantID), slog.String("action", msg.Action))
	if h.openUC != nil {
		h.openUC.RefreshMerchant(ctx, merchantID, false, h.broadcastUC)
	}
	return nil
}

var _ port.TopicHandler = (*ScheduleEventHandler)(nil)

package usecase

import (
	"context"
	"strings"
	"time"

	"deliveryPanel/internal/modules/schedules/application/port"
	"deliveryPanel/internal/modules/schedules/domain"
	"deliveryPanel/internal/platform/metrics"
)

// BroadcastUseCase publishes open-state updates and failures to websocket subscribers.
type BroadcastUseCase struct {
	broadcaster port.Broadcaster
}

func NewBroadcastUseCase(b port.Broadcaster) *BroadcastUseCase {
	return &BroadcastUseCase{broadcaster: b}
}

// Execute delivers msg as is; a zero timestamp is set to now.
func (uc *BroadcastUseCase) Execute(ctx context.Context, msg *domain.Message) {
	if msg == nil || uc.broadcaster == nil {
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	metrics.IncBroadcast(msg.Action)
	uc.broadcaster.Broadcast(ctx, msg)
}

// OpenState sends the merchant's evaluated state on its open-state topic.
func (uc *BroadcastUseCase) OpenState(ctx context.Context, merchantID string, state domain.OpenState) {
	uc.Execute(ctx, domain.BuildOpenStateMessage(merchantID, state))
}

// Failure tells the merchant's subscribers that evaluation failed, tagged with the error kind.
func (uc *BroadcastUseCase) Failure(ctx context.Context, merchantID string, err error, at time.Time) {
	merchantID = strings.TrimSpace(merchantID)
	topic := domain.OpenStateTopic(merchantID)
	if topic == "" || err == nil {
		return
	}
	uc.Execute(ctx, &domain.Message{
		Topic:      topic,
		Entity:     domain.MerchantsEntity,
		Action:     domain.ActionError,
		ResourceID: merchantID,
		Metadata: domain.Metadata{
			"merchantId": merchantID,
			"kind":       string(port.KindOf(err)),
		},
		Data:      map[string]string{"error": err.Error()},
		Timestamp: at.UTC(),
	})
}

package broker

import (
	"context"
	"log/slog"
	"strings"

	"deliveryPanel/internal/modules/schedules/domain"
	"deliveryPanel/internal/modules/schedules/infrastructure"
)

// StartKafkaConsumers starts one consumer goroutine per topic and returns immediately.
// Nothing is started without brokers.
func StartKafkaConsumers(
	ctx context.Context,
	router *infrastructure.EventRouter,
	brokers []string,
	groupID string,
	topics []string,
) int {
	if len(brokers) == 0 {
		slog.Info("kafka disabled, no brokers configured")
		return 0
	}
	started := 0
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		started++
		go func(tp string) {
			consumer := NewKafkaConsumer(brokers, groupID, tp)
			err := consumer.Consume(ctx, func(msg *domain.Message) error {
				return router.Route(ctx, msg)
			})
			slog.Info("kafka consumer stopped", slog.String("topic", tp), slog.Any("reason", err))
		}(topic)
	}
	return started
}

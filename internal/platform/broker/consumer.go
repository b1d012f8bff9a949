package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"deliveryPanel/internal/modules/schedules/domain"
	"deliveryPanel/internal/shared/normalization"
)

const retryDelay = time.Second

// KafkaConsumer reads one topic. With a group id, offsets are committed after the handler ran,
// so a crash replays the in-flight event instead of losing it.
type KafkaConsumer struct {
	reader *kafka.Reader
	commit bool
}

func NewKafkaConsumer(brokers []string, groupID string, topic string) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		}),
		commit: groupID != "",
	}
}

// Consume blocks until ctx is done. Handler errors are logged; the event is still committed.
func (c *KafkaConsumer) Consume(ctx context.Context, handler func(*domain.Message) error) error {
	defer c.reader.Close()
	for {
		record, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("kafka fetch failed", slog.String("topic", c.reader.Config().Topic), slog.Any("error", err))
			if !sleepCtx(ctx, retryDelay) {
				return ctx.Err()
			}
			continue
		}

		msg := decodeMessage(record)
		log := slog.With(
			slog.String("topic", record.Topic),
			slog.Int("partition", record.Partition),
			slog.Int64("offset", record.Offset),
		)
		log.Debug("kafka event", slog.String("entity", msg.Entity), slog.String("action", msg.Action), slog.String("resourceId", msg.ResourceID))
		if err := handler(msg); err != nil {
			log.Warn("kafka event not handled", slog.Any("error", err))
		}
		if c.commit {
			if err := c.reader.CommitMessages(ctx, record); err != nil && ctx.Err() == nil {
				log.Warn("kafka commit failed", slog.Any("error", err))
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type rawEvent struct {
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	ResourceID string            `json:"resourceId"`
	Topic      string            `json:"topic"`
	Metadata   map[string]string `json:"metadata"`
	Data       any               `json:"data"`
}

var merchantIDKeys = []string{"merchantId", "merchant_id", "idMerchant", "shopId"}

// decodeMessage turns a Kafka record into a Message. The Message topic is always the Kafka topic
// so handlers registered per Kafka topic receive it; schedule events name the merchant in
// resourceId, metadata or data.
func decodeMessage(m kafka.Message) *domain.Message {
	msg := &domain.Message{Topic: m.Topic, Timestamp: m.Time.UTC()}
	if m.Time.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	var event rawEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		msg.Entity, msg.Action = inferEntityActionFromTopic(m.Topic)
		msg.Data = string(m.Value)
		return msg
	}

	msg.Entity = normalization.NormalizeEntity(firstNonEmpty(event.Entity, lastSegment(m.Topic)))
	msg.Action = strings.ToLower(firstNonEmpty(event.Action, "unknown"))
	msg.Data = event.Data
	if len(event.Metadata) > 0 {
		msg.Metadata = domain.Metadata(event.Metadata)
	}
	msg.ResourceID = firstNonEmpty(merchantFromMetadata(event.Metadata), merchantFromData(event.Data))
	if msg.ResourceID == "" && msg.Entity == domain.MerchantsEntity {
		msg.ResourceID = strings.TrimSpace(event.ResourceID)
	}
	return msg
}

func merchantFromMetadata(metadata map[string]string) string {
	for _, key := range merchantIDKeys {
		if v := strings.TrimSpace(metadata[key]); v != "" {
			return v
		}
	}
	return ""
}

func merchantFromData(data any) string {
	payload := normalization.MapFromPayload(data)
	if payload == nil {
		return ""
	}
	if v, ok := normalization.FirstPresent(payload, merchantIDKeys...); ok {
		return strings.TrimSpace(normalization.AsString(v))
	}
	return ""
}

func inferEntityActionFromTopic(topic string) (string, string) {
	parts := strings.Split(topic, ".")
	if len(parts) >= 2 {
		entity := strings.TrimSpace(parts[len(parts)-2])
		action := strings.TrimSpace(parts[len(parts)-1])
		if entity != "" && action != "" {
			return normalization.NormalizeEntity(entity), strings.ToLower(action)
		}
	}
	if entity := lastSegment(topic); entity != "" {
		return normalization.NormalizeEntity(entity), "unknown"
	}
	return "", "unknown"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func lastSegment(topic string) string {
	if idx := strings.LastIndex(topic, "."); idx >= 0 {
		topic = topic[idx+1:]
	}
	return strings.TrimSpace(topic)
}

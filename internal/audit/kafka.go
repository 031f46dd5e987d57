package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher fans audit events out to a Kafka topic for downstream
// consumers (guardian notifications, compliance exports). Production is
// asynchronous; delivery failures are logged, not surfaced.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

type eventPayload struct {
	Timestamp   string `json:"timestamp"`
	DependentID string `json:"dependent_id"`
	Action      string `json:"action"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Token       string `json:"token,omitempty"`
	Decision    string `json:"decision"`
	Reason      string `json:"reason,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(eventPayload{
		Timestamp:   event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		DependentID: event.DependentID.String(),
		Action:      event.Action,
		Category:    string(event.Category),
		Amount:      event.Amount.String(),
		Token:       event.Token,
		Decision:    event.Decision,
		Reason:      event.Reason,
		RequestID:   event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.DependentID.String()),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("audit event delivery failed", "topic", p.topic, "error", err)
		}
	})
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}

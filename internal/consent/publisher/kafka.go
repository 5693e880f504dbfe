// Package publisher mirrors consent ledger rows to a Kafka topic so
// downstream reporting systems can consume them without touching the store.
// Delivery is best effort; the store row is authoritative.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"authbridge/internal/consent"
)

type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

func NewKafka(brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

// Publish writes one record synchronously, keyed by principal so a
// principal's grants stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, record consent.ConsentRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal consent record: %w", err)
	}
	rec := &kgo.Record{
		Key:   []byte(record.PrincipalName),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce consent record: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}

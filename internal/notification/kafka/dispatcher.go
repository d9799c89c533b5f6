// Package kafka dispatches custody change events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"casework/pkg/requestcontext"
)

// Dispatcher publishes notification events as JSON records keyed by offender
// id so per-offender ordering is preserved within a partition.
type Dispatcher struct {
	client *kgo.Client
	topic  string
	log    *slog.Logger
}

// envelope is the wire shape of one event.
type envelope struct {
	ID         string            `json:"id"`
	Event      string            `json:"event"`
	OccurredAt time.Time         `json:"occurredAt"`
	Attributes map[string]string `json:"attributes"`
}

// New connects a producer to the given brokers.
func New(brokers []string, topic string, log *slog.Logger) (*Dispatcher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Dispatcher{client: client, topic: topic, log: log}, nil
}

// EnsureTopic creates the topic when it does not exist yet. Called once at
// startup; safe to call against an existing topic.
func (d *Dispatcher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(d.client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, d.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", d.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", d.topic, resp.Err)
	}
	return nil
}

// Notify produces the event asynchronously. Errors are logged, not returned
// to the caller's request path: delivery is the broker's responsibility once
// the record is handed over.
func (d *Dispatcher) Notify(ctx context.Context, event string, attributes map[string]string) error {
	payload, err := json.Marshal(envelope{
		ID:         uuid.NewString(),
		Event:      event,
		OccurredAt: requestcontext.Now(ctx),
		Attributes: attributes,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	record := &kgo.Record{
		Topic: d.topic,
		Key:   []byte(attributes["offenderId"]),
		Value: payload,
	}
	d.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			d.log.Error("notification delivery failed",
				"event", event,
				"topic", d.topic,
				"error", err.Error(),
			)
		}
	})
	return nil
}

// Flush drains in-flight records; used on shutdown and by tests.
func (d *Dispatcher) Flush(ctx context.Context) error {
	return d.client.Flush(ctx)
}

// Close flushes and releases the producer.
func (d *Dispatcher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = d.client.Flush(ctx)
	d.client.Close()
}

package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/solventhq/walletcore/pkg/config"
	"github.com/solventhq/walletcore/pkg/domain/events"
	"github.com/solventhq/walletcore/pkg/eventbus"
)

// envelope is the wire shape of a published event.
type envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// KafkaPublisher forwards transfer lifecycle events to a Kafka topic for
// external consumers. It is registered as a handler on the in-process bus,
// so publish failures never fail the transfer itself.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaPublisher creates a publisher for the configured topic.
func NewKafkaPublisher(cnf config.Kafka, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cnf.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher: brokers are required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cnf.Brokers...),
		Topic:                  cnf.Topic,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           cnf.WriteTimeout,
	}
	return &KafkaPublisher{
		writer: writer,
		logger: logger.With("bus", "kafka"),
	}, nil
}

// Handle serializes the event and writes it keyed by transfer id, so one
// transfer's lifecycle lands on one partition in order. Satisfies
// eventbus.HandlerFunc.
func (p *KafkaPublisher) Handle(ctx context.Context, e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", e.Type(), err)
	}
	env, err := json.Marshal(envelope{
		Type:       e.Type(),
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(partitionKey(e)),
		Value: env,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("kafka publish failed", "event", e.Type(), "error", err)
		return err
	}
	return nil
}

// RegisterTransferEvents subscribes the publisher to every transfer
// lifecycle event on the given bus.
func (p *KafkaPublisher) RegisterTransferEvents(bus eventbus.EventBus) {
	for _, t := range []string{
		events.TransferApproved{}.Type(),
		events.TransferPending{}.Type(),
		events.TransferDeclined{}.Type(),
	} {
		bus.Register(t, p.Handle)
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func partitionKey(e events.Event) string {
	switch evt := e.(type) {
	case events.TransferApproved:
		return evt.TransferID.String()
	case events.TransferPending:
		return evt.TransferID.String()
	case events.TransferDeclined:
		return evt.TransferID.String()
	default:
		return e.Type()
	}
}

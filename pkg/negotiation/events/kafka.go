package events

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// kafkaProducer is the slice of *kafka.Writer this package relies on, so
// tests can substitute a fake.
type kafkaProducer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Kafka appends every event to a topic as an append-only log, keyed by
// negotiation id so a consumer group can replay one session's history in
// order.
type Kafka struct {
	writer kafkaProducer
	topic  string
}

func NewKafka(writer *kafka.Writer, topic string) *Kafka {
	return &Kafka{writer: writer, topic: topic}
}

func (k *Kafka) Push(ctx context.Context, event protocol.Event) error {
	payload, err := marshalData(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Topic: k.topic,
		Key:   []byte(event.NegotiationID),
		Value: payload,
	})
}

func (k *Kafka) PushMany(ctx context.Context, evts []protocol.Event) error {
	msgs := make([]kafka.Message, 0, len(evts))
	for _, e := range evts {
		payload, err := marshalData(e)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		msgs = append(msgs, kafka.Message{Topic: k.topic, Key: []byte(e.NegotiationID), Value: payload})
	}
	return k.writer.WriteMessages(ctx, msgs...)
}

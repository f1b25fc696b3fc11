package events

import (
	"context"
	"encoding/json"

	"github.com/demandmesh/negotiator/pkg/logger"
	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// Null discards every event. Useful when no observer is wired up.
type Null struct{}

func (Null) Push(ctx context.Context, event protocol.Event) error { return nil }

func (n Null) PushMany(ctx context.Context, events []protocol.Event) error {
	for _, e := range events {
		if err := n.Push(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Logging writes every event to the process-wide structured logger.
// Intended for local development and as the pusher of last resort.
type Logging struct{}

func (Logging) Push(ctx context.Context, event protocol.Event) error {
	logger.Default().Info("negotiation event",
		"negotiation_id", event.NegotiationID,
		"event_type", event.EventType,
		"event_id", event.EventID,
	)
	return nil
}

func (l Logging) PushMany(ctx context.Context, events []protocol.Event) error {
	for _, e := range events {
		if err := l.Push(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// FanOut composes many pushers behind a single protocol.EventPusher, which
// is the shape start_negotiation actually depends on: the engine calls one
// pusher, and fan-out to many observers happens here, outside the engine.
type FanOut struct {
	Pushers []protocol.EventPusher
}

func (f FanOut) Push(ctx context.Context, event protocol.Event) error {
	for _, p := range f.Pushers {
		// Each member pusher is responsible for its own failure handling;
		// the engine already swallows our own return value.
		_ = p.Push(ctx, event)
	}
	return nil
}

func (f FanOut) PushMany(ctx context.Context, evts []protocol.Event) error {
	for _, e := range evts {
		_ = f.Push(ctx, e)
	}
	return nil
}

// marshalData renders a whole event (event_type, negotiation_id, timestamp,
// event_id and its data map) as compact JSON, the payload shape used by the
// wire-transport pushers (Redis, Kafka).
func marshalData(event protocol.Event) ([]byte, error) {
	return json.Marshal(map[string]any{
		"event_type":     event.EventType,
		"negotiation_id": event.NegotiationID,
		"timestamp":      event.Timestamp,
		"event_id":       event.EventID,
		"data":           event.Data,
	})
}

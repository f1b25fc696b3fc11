package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// Redis publishes every event to a per-negotiation Redis Pub/Sub channel, so
// an external dashboard can subscribe to "negotiation:<id>" and watch a
// session's event stream live.
type Redis struct {
	client      redis.UniversalClient
	channelFunc func(negotiationID string) string
}

// NewRedis builds a Redis-backed pusher against an already-configured
// client. Passing a nil channelFunc uses the default "negotiation:<id>"
// channel naming.
func NewRedis(client redis.UniversalClient, channelFunc func(string) string) *Redis {
	if channelFunc == nil {
		channelFunc = func(id string) string { return fmt.Sprintf("negotiation:%s", id) }
	}
	return &Redis{client: client, channelFunc: channelFunc}
}

func (r *Redis) Push(ctx context.Context, event protocol.Event) error {
	payload, err := marshalData(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return r.client.Publish(ctx, r.channelFunc(event.NegotiationID), payload).Err()
}

func (r *Redis) PushMany(ctx context.Context, evts []protocol.Event) error {
	for _, e := range evts {
		if err := r.Push(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

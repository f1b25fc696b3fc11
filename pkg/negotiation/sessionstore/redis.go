// Package sessionstore persists NegotiationSession snapshots keyed by id,
// so the process exposing confirm_formulation/is_awaiting_confirmation (or
// a status endpoint) can look a session up by the id returned from
// start_negotiation without holding every session in memory.
package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/demandmesh/negotiator/pkg/negotiation/model"
)

// Redis is a Redis-backed session registry. It stores point-in-time
// snapshots, not live references: callers must re-Save after mutating a
// session if they want the change reflected.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedis builds a Redis-backed store. ttl of zero means entries never
// expire.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, prefix: "negotiation:session:"}
}

func (r *Redis) key(negotiationID string) string {
	return r.prefix + negotiationID
}

// Save stores (or overwrites) one session's current snapshot.
func (r *Redis) Save(ctx context.Context, session *model.NegotiationSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("sessionstore: marshal session %s: %w", session.NegotiationID, err)
	}
	if err := r.client.Set(ctx, r.key(session.NegotiationID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("sessionstore: saving session %s: %w", session.NegotiationID, err)
	}
	return nil
}

// Get loads a session snapshot by id. redis.Nil is translated to a plain
// "not found" error so callers don't need to import go-redis to check it.
func (r *Redis) Get(ctx context.Context, negotiationID string) (*model.NegotiationSession, error) {
	payload, err := r.client.Get(ctx, r.key(negotiationID)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("sessionstore: session %s not found", negotiationID)
	}
	if err != nil {
		return nil, fmt.Errorf("sessionstore: loading session %s: %w", negotiationID, err)
	}

	var session model.NegotiationSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("sessionstore: unmarshal session %s: %w", negotiationID, err)
	}
	return &session, nil
}

// RegisterFunc adapts Save to the engine.RegisterSessionFunc shape,
// passing a save error to onError (when non-nil) rather than failing the
// synthesis loop — losing
// the ability to look a sub-session up later is not fatal to the
// negotiation that spawned it.
func (r *Redis) RegisterFunc(ctx context.Context, onError func(error)) func(child *model.NegotiationSession) {
	return func(child *model.NegotiationSession) {
		if err := r.Save(ctx, child); err != nil && onError != nil {
			onError(err)
		}
	}
}

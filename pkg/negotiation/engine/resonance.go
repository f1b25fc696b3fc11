package engine

import (
	"context"

	"github.com/demandmesh/negotiator/pkg/negotiation/events"
	"github.com/demandmesh/negotiator/pkg/negotiation/model"
	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// runEncodingAndResonance encodes the formulated demand and selects the
// top-KStar agents by cosine similarity, populating session.Participants in
// score-descending, tie-stable order. An encoding failure is fatal per the
// spec's error taxonomy.
func (e *Engine) runEncodingAndResonance(ctx context.Context, session *model.NegotiationSession, opts StartOptions) error {
	if opts.KStar <= 0 || len(opts.AgentVectors) == 0 {
		e.pushEvent(ctx, session, events.ResonanceActivatedEvent(session.NegotiationID, nil))
		return nil
	}

	text := session.Demand.Text()
	demandVector, err := e.encoder.Encode(ctx, text)
	if err != nil {
		return protocol.NewEncodingError("encoding demand text failed", err)
	}

	scores, err := e.detector.Detect(ctx, demandVector, opts.AgentVectors, opts.KStar)
	if err != nil {
		return protocol.NewEncodingError("resonance detection failed", err)
	}

	participants := make([]*model.AgentParticipant, 0, len(scores))
	for _, s := range scores {
		displayName := ""
		if opts.DisplayNames != nil {
			displayName = opts.DisplayNames[s.AgentID]
		}
		participants = append(participants, &model.AgentParticipant{
			AgentID:        s.AgentID,
			DisplayName:    displayName,
			ResonanceScore: s.Score,
			State:          model.AgentActive,
		})
	}
	session.Participants = participants

	e.pushEvent(ctx, session, events.ResonanceActivatedEvent(session.NegotiationID, participants))
	return nil
}

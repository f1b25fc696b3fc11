package engine

import (
	"context"

	"github.com/demandmesh/negotiator/pkg/logger"
	"github.com/demandmesh/negotiator/pkg/negotiation/events"
	"github.com/demandmesh/negotiator/pkg/negotiation/model"
)

// runFormulation enriches demand.RawIntent into FormulatedText. Any failure
// degrades gracefully: the raw intent stands in unchanged, no enrichments
// are recorded, but formulation.ready still fires and the stage still
// advances — formulation is enhancement, not gate.
func (e *Engine) runFormulation(ctx context.Context, session *model.NegotiationSession, opts StartOptions) error {
	log := logger.Negotiation(ctx, session.NegotiationID)

	if opts.Formulation == nil {
		session.Demand.FormulatedText = session.Demand.RawIntent
		e.pushEvent(ctx, session, events.FormulationReadyEvent(session.NegotiationID, session.Demand.RawIntent, session.Demand.FormulatedText, nil))
		return nil
	}

	profile := map[string]any{}
	if opts.Adapter != nil && session.Demand.UserID != "" {
		if p, err := opts.Adapter.GetProfile(ctx, session.Demand.UserID); err == nil {
			profile = p
		} else {
			log.Warn("formulation: profile fetch failed, proceeding without it", "error", err)
		}
	}

	result, err := opts.Formulation.Execute(ctx, map[string]any{
		"raw_intent":   session.Demand.RawIntent,
		"agent_id":     session.Demand.UserID,
		"profile_data": profile,
		"adapter":      opts.Adapter,
	})
	if err != nil {
		log.Warn("formulation degraded, falling back to raw intent", "error", err)
		session.Demand.FormulatedText = session.Demand.RawIntent
		e.pushEvent(ctx, session, events.FormulationReadyEvent(session.NegotiationID, session.Demand.RawIntent, session.Demand.FormulatedText, nil))
		return nil
	}

	formulatedText, _ := result["formulated_text"].(string)
	if formulatedText == "" {
		formulatedText = session.Demand.RawIntent
	}
	session.Demand.FormulatedText = formulatedText

	var enrichments map[string]any
	if raw, ok := result["enrichments"]; ok && raw != nil {
		if m, ok := raw.(map[string]any); ok {
			enrichments = m
		}
		if session.Demand.Metadata == nil {
			session.Demand.Metadata = map[string]any{}
		}
		session.Demand.Metadata["enrichments"] = raw
	}

	e.pushEvent(ctx, session, events.FormulationReadyEvent(session.NegotiationID, session.Demand.RawIntent, session.Demand.FormulatedText, enrichments))
	return nil
}

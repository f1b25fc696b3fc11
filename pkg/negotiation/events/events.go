// Package events defines the negotiation engine's event taxonomy and the
// constructors used to build each typed event before it is pushed to an
// protocol.EventPusher.
package events

import (
	"time"

	"github.com/demandmesh/negotiator/pkg/negotiation/model"
	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// Event type tags, stable on the wire.
const (
	FormulationReady      = "formulation.ready"
	ResonanceActivated    = "resonance.activated"
	OfferReceived         = "offer.received"
	BarrierComplete       = "barrier.complete"
	CenterToolCall        = "center.tool_call"
	PlanReady             = "plan.ready"
	SubNegotiationStarted = "sub_negotiation.started"
	// Reserved for future use; never emitted by this engine today.
	ExecutionProgress = "execution.progress"
	EchoReceived      = "echo.received"
)

func build(eventType, negotiationID string, data map[string]any) protocol.Event {
	return protocol.Event{
		EventID:       model.NewID("evt"),
		EventType:     eventType,
		NegotiationID: negotiationID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		Data:          data,
	}
}

func FormulationReadyEvent(negotiationID, rawIntent, formulatedText string, enrichments map[string]any) protocol.Event {
	if enrichments == nil {
		enrichments = map[string]any{}
	}
	return build(FormulationReady, negotiationID, map[string]any{
		"raw_intent":      rawIntent,
		"formulated_text": formulatedText,
		"enrichments":     enrichments,
	})
}

func ResonanceActivatedEvent(negotiationID string, participants []*model.AgentParticipant) protocol.Event {
	agents := make([]map[string]any, 0, len(participants))
	for _, p := range participants {
		agents = append(agents, map[string]any{
			"agent_id":        p.AgentID,
			"display_name":    p.DisplayName,
			"resonance_score": p.ResonanceScore,
		})
	}
	return build(ResonanceActivated, negotiationID, map[string]any{
		"activated_count": len(participants),
		"agents":          agents,
	})
}

func OfferReceivedEvent(negotiationID, agentID, displayName, content string, capabilities []string) protocol.Event {
	return build(OfferReceived, negotiationID, map[string]any{
		"agent_id":     agentID,
		"display_name": displayName,
		"content":      content,
		"capabilities": capabilities,
	})
}

func BarrierCompleteEvent(negotiationID string, totalParticipants, offersReceived, exitedCount int) protocol.Event {
	return build(BarrierComplete, negotiationID, map[string]any{
		"total_participants": totalParticipants,
		"offers_received":    offersReceived,
		"exited_count":       exitedCount,
	})
}

func CenterToolCallEvent(negotiationID, toolName string, toolArgs map[string]any, roundNumber int) protocol.Event {
	return build(CenterToolCall, negotiationID, map[string]any{
		"tool_name":    toolName,
		"tool_args":    toolArgs,
		"round_number": roundNumber,
	})
}

func PlanReadyEvent(negotiationID, planText string, centerRounds int, participatingAgents []string) protocol.Event {
	return build(PlanReady, negotiationID, map[string]any{
		"plan_text":            planText,
		"center_rounds":        centerRounds,
		"participating_agents": participatingAgents,
	})
}

func SubNegotiationStartedEvent(negotiationID, subNegotiationID, gapDescription string) protocol.Event {
	return build(SubNegotiationStarted, negotiationID, map[string]any{
		"sub_negotiation_id": subNegotiationID,
		"gap_description":    gapDescription,
	})
}

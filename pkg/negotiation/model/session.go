package model

import "time"

// NegotiationSession is the central entity the engine drives from CREATED to
// COMPLETED. Callers construct it with state CREATED and a demand; the
// engine owns every subsequent mutation.
type NegotiationSession struct {
	NegotiationID       string
	Demand              DemandSnapshot
	State               NegotiationState
	Participants        []*AgentParticipant
	CenterRounds        int
	MaxCenterRounds     int
	PlanOutput          string
	ParentNegotiationID string
	Depth               int
	SubSessionIDs       []string
	Trace               *TraceChain
	CreatedAt           time.Time
	CompletedAt         *time.Time
	Metadata            map[string]any
}

// NewSession builds a session in state CREATED, ready to be handed to the
// engine. MaxCenterRounds defaults to 2 per the protocol's default budget.
func NewSession(rawIntent string) *NegotiationSession {
	return &NegotiationSession{
		NegotiationID:   NewID("neg"),
		Demand:          DemandSnapshot{RawIntent: rawIntent, Metadata: map[string]any{}},
		State:           StateCreated,
		MaxCenterRounds: 2,
		CreatedAt:       time.Now().UTC(),
		Metadata:        map[string]any{},
	}
}

// CollectedOffers returns every offer gathered so far, in participant order.
func (s *NegotiationSession) CollectedOffers() []*Offer {
	offers := make([]*Offer, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p.Offer != nil {
			offers = append(offers, p.Offer)
		}
	}
	return offers
}

// IsBarrierMet reports whether every participant has reached a terminal
// participant state (REPLIED or EXITED).
func (s *NegotiationSession) IsBarrierMet() bool {
	for _, p := range s.Participants {
		if p.State != AgentReplied && p.State != AgentExited {
			return false
		}
	}
	return true
}

// ToolsRestricted reports whether the synthesis loop has entered its final
// round, in which only output_plan and create_machine are offered.
func (s *NegotiationSession) ToolsRestricted() bool {
	return s.CenterRounds >= s.MaxCenterRounds
}

// ParticipatingAgentIDs returns the agent ids of every participant that
// reached the barrier with an offer, in participant order.
func (s *NegotiationSession) ParticipatingAgentIDs() []string {
	ids := make([]string, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p.Offer != nil {
			ids = append(ids, p.AgentID)
		}
	}
	return ids
}

// Participant looks up a participant by agent id, returning nil if absent.
func (s *NegotiationSession) Participant(agentID string) *AgentParticipant {
	for _, p := range s.Participants {
		if p.AgentID == agentID {
			return p
		}
	}
	return nil
}

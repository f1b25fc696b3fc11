package model

import "time"

// Offer is a single agent's response to a formulated demand.
type Offer struct {
	AgentID      string
	Content      string
	Capabilities []string
	Confidence   float64
	CreatedAt    time.Time
	Metadata     map[string]any
}

// AgentParticipant is one candidate agent activated by resonance detection.
// Offer is set at most once, when the participant transitions to REPLIED.
type AgentParticipant struct {
	AgentID        string
	DisplayName    string
	ResonanceScore float64
	State          AgentState
	Offer          *Offer
}

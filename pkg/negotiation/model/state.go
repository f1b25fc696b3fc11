package model

// NegotiationState is the lifecycle stage of a NegotiationSession. States
// advance monotonically; COMPLETED is terminal.
type NegotiationState string

const (
	StateCreated        NegotiationState = "created"
	StateFormulating     NegotiationState = "formulating"
	StateFormulated      NegotiationState = "formulated"
	StateEncoding        NegotiationState = "encoding"
	StateOffering        NegotiationState = "offering"
	StateBarrierWaiting  NegotiationState = "barrier_waiting"
	StateSynthesizing    NegotiationState = "synthesizing"
	StateCompleted       NegotiationState = "completed"
)

// validTransitions mirrors the state machine in the spec: any transition not
// present here is a programming error.
var validTransitions = map[NegotiationState]map[NegotiationState]bool{
	StateCreated:        {StateFormulating: true, StateCompleted: true},
	StateFormulating:    {StateFormulated: true, StateCompleted: true},
	StateFormulated:     {StateEncoding: true, StateCompleted: true},
	StateEncoding:       {StateOffering: true, StateCompleted: true},
	StateOffering:       {StateBarrierWaiting: true, StateCompleted: true},
	StateBarrierWaiting: {StateSynthesizing: true, StateCompleted: true},
	StateSynthesizing:   {StateSynthesizing: true, StateCompleted: true},
	StateCompleted:      {},
}

// CanTransition reports whether moving from "from" to "to" is a legal edge
// of the negotiation state machine.
func CanTransition(from, to NegotiationState) bool {
	return validTransitions[from][to]
}

// AgentState is the lifecycle of a single participant within the barrier.
type AgentState string

const (
	AgentActive  AgentState = "active"
	AgentReplied AgentState = "replied"
	AgentExited  AgentState = "exited"
)

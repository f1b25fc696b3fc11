package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_HappyPathChain(t *testing.T) {
	chain := []NegotiationState{
		StateCreated, StateFormulating, StateFormulated, StateEncoding,
		StateOffering, StateBarrierWaiting, StateSynthesizing, StateCompleted,
	}
	for i := 0; i < len(chain)-1; i++ {
		assert.Truef(t, CanTransition(chain[i], chain[i+1]), "%s -> %s should be legal", chain[i], chain[i+1])
	}
}

func TestCanTransition_CompletedEscapeFromEveryNonTerminalState(t *testing.T) {
	nonTerminal := []NegotiationState{
		StateCreated, StateFormulating, StateFormulated, StateEncoding,
		StateOffering, StateBarrierWaiting, StateSynthesizing,
	}
	for _, s := range nonTerminal {
		assert.Truef(t, CanTransition(s, StateCompleted), "%s -> COMPLETED should be legal", s)
	}
}

func TestCanTransition_SynthesizingSelfLoop(t *testing.T) {
	assert.True(t, CanTransition(StateSynthesizing, StateSynthesizing))
}

func TestCanTransition_CompletedIsTerminal(t *testing.T) {
	assert.False(t, CanTransition(StateCompleted, StateFormulating))
	assert.False(t, CanTransition(StateCompleted, StateCompleted))
}

func TestCanTransition_RejectsSkippingStages(t *testing.T) {
	assert.False(t, CanTransition(StateCreated, StateOffering))
	assert.False(t, CanTransition(StateFormulated, StateSynthesizing))
	assert.False(t, CanTransition(StateOffering, StateFormulating))
}

package hdc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

func TestCosine_IdenticalVectors(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine(protocol.Vector{1, 0, 0}, protocol.Vector{1, 0, 0}), 1e-9)
}

func TestCosine_OrthogonalVectors(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine(protocol.Vector{1, 0}, protocol.Vector{0, 1}), 1e-9)
}

func TestCosine_CommutativeAndBounded(t *testing.T) {
	a := protocol.Vector{0.3, -0.8, 0.1}
	b := protocol.Vector{-0.2, 0.5, 0.9}
	ab := Cosine(a, b)
	ba := Cosine(b, a)
	assert.InDelta(t, ab, ba, 1e-12)
	assert.GreaterOrEqual(t, ab, -1.0)
	assert.LessOrEqual(t, ab, 1.0)
}

func TestCosine_ZeroNormIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Cosine(protocol.Vector{0, 0, 0}, protocol.Vector{1, 2, 3}))
	assert.Equal(t, 0.0, Cosine(protocol.Vector{1e-12, 0}, protocol.Vector{1, 1}))
}

func TestCosineDetector_TopKDescendingOrder(t *testing.T) {
	d := NewCosineDetector()
	demand := protocol.Vector{1, 0, 0}
	agents := []protocol.AgentVector{
		{AgentID: "a1", Vector: protocol.Vector{1, 0, 0}},
		{AgentID: "a2", Vector: protocol.Vector{0, 1, 0}},
		{AgentID: "a3", Vector: protocol.Vector{0.9, 0.1, 0}},
	}

	scores, err := d.Detect(context.Background(), demand, agents, 2)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "a1", scores[0].AgentID)
	assert.Equal(t, "a3", scores[1].AgentID)
	assert.GreaterOrEqual(t, scores[0].Score, scores[1].Score)
}

func TestCosineDetector_StableTieBreak(t *testing.T) {
	d := NewCosineDetector()
	demand := protocol.Vector{1, 0}
	agents := []protocol.AgentVector{
		{AgentID: "first", Vector: protocol.Vector{1, 0}},
		{AgentID: "second", Vector: protocol.Vector{1, 0}},
		{AgentID: "third", Vector: protocol.Vector{1, 0}},
	}

	scores, err := d.Detect(context.Background(), demand, agents, 3)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{scores[0].AgentID, scores[1].AgentID, scores[2].AgentID})
}

func TestCosineDetector_KStarZeroOrEmptyVectors(t *testing.T) {
	d := NewCosineDetector()
	agents := []protocol.AgentVector{{AgentID: "a1", Vector: protocol.Vector{1, 0}}}

	scores, err := d.Detect(context.Background(), protocol.Vector{1, 0}, agents, 0)
	require.NoError(t, err)
	assert.Empty(t, scores)

	scores, err = d.Detect(context.Background(), protocol.Vector{1, 0}, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestMockEncoder_Deterministic(t *testing.T) {
	enc := NewMockEncoder()
	v1, err := enc.Encode(context.Background(), "hello world")
	require.NoError(t, err)
	v2, err := enc.Encode(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	v3, err := enc.Encode(context.Background(), "something else")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v3)
}

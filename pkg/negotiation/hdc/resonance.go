// Package hdc implements resonance detection: selecting the agents whose
// vectors are most similar to a demand vector.
package hdc

import (
	"context"
	"math"
	"sort"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// CosineDetector selects the top-k agents by cosine similarity, breaking
// ties by the input slice's order (the "stable insertion order" the spec
// calls for).
type CosineDetector struct{}

func NewCosineDetector() *CosineDetector { return &CosineDetector{} }

func (d *CosineDetector) Detect(ctx context.Context, demandVector protocol.Vector, agentVectors []protocol.AgentVector, kStar int) ([]protocol.AgentScore, error) {
	if kStar <= 0 || len(agentVectors) == 0 {
		return nil, nil
	}

	type scored struct {
		id    string
		score float64
		rank  int
	}
	results := make([]scored, len(agentVectors))
	for i, av := range agentVectors {
		results[i] = scored{id: av.AgentID, score: Cosine(demandVector, av.Vector), rank: i}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].rank < results[j].rank
	})

	if kStar < len(results) {
		results = results[:kStar]
	}

	out := make([]protocol.AgentScore, len(results))
	for i, r := range results {
		out[i] = protocol.AgentScore{AgentID: r.id, Score: r.score}
	}
	return out, nil
}

// Cosine computes cosine similarity, defined as 0 when either vector's norm
// falls below 1e-10.
func Cosine(a, b protocol.Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)
	if normA < 1e-10 || normB < 1e-10 {
		return 0
	}
	return dot / (normA * normB)
}

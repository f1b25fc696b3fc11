package hdc

import (
	"context"
	"crypto/md5"
	"fmt"
	"math"
	"strings"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// MockEncoder derives a deterministic, dependency-free embedding from the
// input text's MD5 digest. It exists for tests and local development where
// no real embedding provider is configured — never for production
// resonance quality.
type MockEncoder struct {
	Dimension int
}

func NewMockEncoder() *MockEncoder { return &MockEncoder{Dimension: 768} }

func (e *MockEncoder) Encode(ctx context.Context, text string) (protocol.Vector, error) {
	if strings.TrimSpace(text) == "" {
		return nil, protocol.NewEncodingError("cannot encode empty text", nil)
	}
	dim := e.Dimension
	if dim <= 0 {
		dim = 768
	}
	vec := make([]float32, dim)
	digest := md5.Sum([]byte(text))
	for i, b := range digest {
		idx := (i * 32) % dim
		vec[idx] = float32(b) / 255.0
	}
	for i := range vec {
		if vec[i] == 0 {
			h := md5.Sum([]byte(fmt.Sprintf("%s_%d", text, i)))
			vec[i] = float32(h[0]) / 255.0
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 1e-10 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

func (e *MockEncoder) BatchEncode(ctx context.Context, texts []string) ([]protocol.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([]protocol.Vector, len(texts))
	for i, t := range texts {
		v, err := e.Encode(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("batch encode index %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Package embed adapts real third-party embedding providers to
// protocol.Encoder, the demand/agent text-to-vector boundary resonance
// detection runs against.
package embed

import (
	"context"
	"fmt"

	oai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAI encodes demand and agent text via the OpenAI embeddings API.
type OpenAI struct {
	client oai.Client
	model  string
}

// NewOpenAI constructs an OpenAI-backed encoder. An empty model falls back
// to DefaultOpenAIModel.
func NewOpenAI(apiKey, model string, opts ...option.RequestOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai encoder: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAI{client: oai.NewClient(reqOpts...), model: model}, nil
}

func (o *OpenAI) Encode(ctx context.Context, text string) (protocol.Vector, error) {
	if text == "" {
		return nil, protocol.NewEncodingError("cannot encode empty text", nil)
	}
	vecs, err := o.BatchEncode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (o *OpenAI) BatchEncode(ctx context.Context, texts []string) ([]protocol.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if t == "" {
			return nil, protocol.NewEncodingError(fmt.Sprintf("cannot encode empty text at index %d", i), nil)
		}
	}

	resp, err := o.client.Embeddings.New(ctx, oai.EmbeddingNewParams{
		Model: o.model,
		Input: oai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, protocol.NewEncodingError("openai embeddings request failed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, protocol.NewEncodingError(fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)), nil)
	}

	out := make([]protocol.Vector, len(texts))
	for _, e := range resp.Data {
		idx := int(e.Index)
		if idx < 0 || idx >= len(texts) {
			return nil, protocol.NewEncodingError(fmt.Sprintf("unexpected embedding index %d", idx), nil)
		}
		vec := make(protocol.Vector, len(e.Embedding))
		for i, v := range e.Embedding {
			vec[i] = float32(v)
		}
		out[idx] = vec
	}
	return out, nil
}

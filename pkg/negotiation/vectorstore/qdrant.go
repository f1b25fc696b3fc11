// Package vectorstore supplies agent vectors from a real vector database.
// The engine itself takes agent vectors as a plain argument to Start
// (StartOptions.AgentVectors) — this
// package is the optional component that fills that argument from storage
// instead of requiring the caller to hand-assemble it.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// Qdrant fetches per-agent embeddings from a Qdrant collection, keyed by
// point ID == agent ID.
type Qdrant struct {
	client     *qdrant.Client
	collection string
}

// QdrantConfig configures the Qdrant connection.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

func NewQdrant(cfg QdrantConfig) (*Qdrant, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("vectorstore: collection must not be empty")
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: connecting to qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Qdrant{client: client, collection: cfg.Collection}, nil
}

// AgentVectors retrieves the embeddings for the given agent IDs, in the
// order requested, skipping any ID with no stored point. The ordering
// matters: it is the "stable insertion order" resonance tie-breaking relies
// on, so callers should pass agentIDs in a deterministic order of their own.
func (q *Qdrant) AgentVectors(ctx context.Context, agentIDs []string) ([]protocol.AgentVector, error) {
	if len(agentIDs) == 0 {
		return nil, nil
	}

	ids := make([]*qdrant.PointId, len(agentIDs))
	for i, id := range agentIDs {
		ids[i] = qdrant.NewID(id)
	}

	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.collection,
		Ids:            ids,
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, protocol.NewAdapterError("qdrant get points failed", err)
	}

	byID := make(map[string]protocol.Vector, len(points))
	for _, p := range points {
		id := pointIDString(p.Id)
		if id == "" || p.Vectors == nil {
			continue
		}
		if dense := p.Vectors.GetVector(); dense != nil {
			if d, ok := dense.Vector.(*qdrant.VectorOutput_Dense); ok && d.Dense != nil {
				byID[id] = protocol.Vector(d.Dense.Data)
			}
		}
	}

	out := make([]protocol.AgentVector, 0, len(agentIDs))
	for _, id := range agentIDs {
		if vec, ok := byID[id]; ok {
			out = append(out, protocol.AgentVector{AgentID: id, Vector: vec})
		}
	}
	return out, nil
}

// Upsert stores or replaces one agent's vector, creating the collection on
// first write.
func (q *Qdrant) Upsert(ctx context.Context, agentID string, vector protocol.Vector) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return protocol.NewAdapterError("checking qdrant collection", err)
	}
	if !exists {
		err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(len(vector)),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return protocol.NewAdapterError("creating qdrant collection", err)
		}
	}

	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(agentID),
			Vectors: qdrant.NewVectors(vector...),
		}},
	})
	if err != nil {
		return protocol.NewAdapterError("upserting agent vector", err)
	}
	return nil
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil || id.PointIdOptions == nil {
		return ""
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	default:
		return ""
	}
}

package protocol

import (
	"context"

	"github.com/demandmesh/negotiator/pkg/negotiation/model"
)

// Vector is a dense embedding. Callers are responsible for keeping
// dimensions consistent between demand and agent vectors.
type Vector []float32

// Message is one turn of a chat exchange passed to an LLMClient or an
// AgentAdapter.
type Message struct {
	Role    string
	Content string
}

// ToolDefinition describes one tool an LLMClient may invoke, in JSON-Schema
// form (the wire shape Anthropic/OpenAI/Gemini all converge on).
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolCall is one invocation an LLM asked for.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// LLMResponse is the normalized shape of an LLM turn: free text, zero or
// more tool calls, and the provider's stop reason.
type LLMResponse struct {
	Content    string
	ToolCalls  []ToolCall
	StopReason string
}

// Encoder turns text into a unit-norm vector. The zero vector (or an error)
// signals encoding failure; empty input must error.
type Encoder interface {
	Encode(ctx context.Context, text string) (Vector, error)
	BatchEncode(ctx context.Context, texts []string) ([]Vector, error)
}

// AgentScore pairs an agent id with its resonance score against a demand
// vector, in descending-score order.
type AgentScore struct {
	AgentID string
	Score   float64
}

// AgentVector pairs an agent id with its embedding. Agent vectors are
// supplied as an ordered slice, not a map, so that tie-breaking by "stable
// insertion order" (per the resonance-detection invariant) is well defined
// — Go map iteration order is not.
type AgentVector struct {
	AgentID string
	Vector  Vector
}

// ResonanceDetector selects the top-k agents by similarity to a demand
// vector.
type ResonanceDetector interface {
	Detect(ctx context.Context, demandVector Vector, agentVectors []AgentVector, kStar int) ([]AgentScore, error)
}

// ProfileAdapter is the per-agent chat simulation boundary: fetching an
// agent's profile and driving a chat turn against it.
type ProfileAdapter interface {
	GetProfile(ctx context.Context, agentID string) (map[string]any, error)
	Chat(ctx context.Context, agentID string, messages []Message, systemPrompt string) (string, error)
	// ChatStream yields successive text fragments on fragments, closing it
	// when the turn completes or ctx is done.
	ChatStream(ctx context.Context, agentID string, messages []Message, systemPrompt string) (<-chan string, error)
}

// LLMClient is the platform-level LLM used for synthesis and enrichment —
// distinct from ProfileAdapter, which simulates individual agents.
type LLMClient interface {
	Chat(ctx context.Context, messages []Message, systemPrompt string, tools []ToolDefinition) (*LLMResponse, error)
}

// Skill is a stateless, idempotent-up-to-LLM transformation: it builds a
// prompt from a context map and validates the raw model output into a
// structured result. A Skill may return a *Error with KindSkill to fail the
// owning stage.
type Skill interface {
	Name() string
	Execute(ctx context.Context, input map[string]any) (map[string]any, error)
}

// Event is a single observable record of protocol progress.
type Event struct {
	EventID       string
	EventType     string
	NegotiationID string
	Timestamp     string
	Data          map[string]any
}

// EventPusher fans an Event out to zero or more observers. Implementations
// must not let a delivery failure propagate back into the engine.
type EventPusher interface {
	Push(ctx context.Context, event Event) error
	PushMany(ctx context.Context, events []Event) error
}

// CenterToolHandler lets a caller register a custom tool the Center skill
// may invoke, alongside the five built-ins.
type CenterToolHandler interface {
	ToolName() string
	Handle(ctx context.Context, session *model.NegotiationSession, args map[string]any) (map[string]any, error)
}

// Package adapter provides a ProfileAdapter backed by an in-process map of
// agent profiles, for tests and local development where no real per-agent
// chat service is wired up.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// Memory drives every agent's chat turn through a single shared LLMClient,
// injecting that agent's profile as context on each user message — the
// same "append profile, forward to one underlying LLM" shape the reference
// per-agent adapter uses against its own backing service.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]map[string]any
	llm      protocol.LLMClient
}

// NewMemory builds an adapter seeded with profiles, simulating every
// agent's responses through llm.
func NewMemory(llm protocol.LLMClient, profiles map[string]map[string]any) *Memory {
	if profiles == nil {
		profiles = map[string]map[string]any{}
	}
	return &Memory{profiles: profiles, llm: llm}
}

// SetProfile adds or replaces one agent's profile.
func (m *Memory) SetProfile(agentID string, profile map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[agentID] = profile
}

func (m *Memory) GetProfile(ctx context.Context, agentID string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[agentID]; ok {
		return p, nil
	}
	return map[string]any{"agent_id": agentID}, nil
}

func (m *Memory) Chat(ctx context.Context, agentID string, messages []protocol.Message, systemPrompt string) (string, error) {
	if m.llm == nil {
		return "", protocol.NewAdapterError(fmt.Sprintf("chat failed for agent %s", agentID), fmt.Errorf("no llm client configured"))
	}

	profile, _ := m.GetProfile(ctx, agentID)
	profileText := "{}"
	if b, err := json.Marshal(profile); err == nil {
		profileText = string(b)
	}

	withContext := make([]protocol.Message, len(messages))
	for i, msg := range messages {
		if msg.Role == "user" {
			withContext[i] = protocol.Message{Role: msg.Role, Content: msg.Content + "\n\nYour profile:\n" + profileText}
		} else {
			withContext[i] = msg
		}
	}

	resp, err := m.llm.Chat(ctx, withContext, systemPrompt, nil)
	if err != nil {
		return "", protocol.NewAdapterError(fmt.Sprintf("chat failed for agent %s", agentID), err)
	}
	return resp.Content, nil
}

// ChatStream wraps Chat, delivering the whole response as a single
// fragment — this in-memory adapter has no real streaming backend to
// forward incremental tokens from.
func (m *Memory) ChatStream(ctx context.Context, agentID string, messages []protocol.Message, systemPrompt string) (<-chan string, error) {
	out := make(chan string, 1)
	text, err := m.Chat(ctx, agentID, messages, systemPrompt)
	if err != nil {
		close(out)
		return out, err
	}
	out <- text
	close(out)
	return out, nil
}

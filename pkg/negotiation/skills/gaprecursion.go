package skills

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

const systemPromptGapRecursion = `You need to convert a resource gap into an independent demand. This demand will be broadcast to the network for other participants to respond to.

Rules:
1. The sub-demand should be more specific than the original demand.
2. The sub-demand should be self-contained — readers should not need to know the parent demand's details.
3. But preserve enough context for responders to understand the background.

Output in JSON format:
{
  "sub_demand_text": "the independent sub-demand",
  "context": "relevant background context from the parent demand"
}
`

// GapRecursion converts an identified resource gap into a self-contained
// sub-demand, bounded to one level of recursion by the engine.
type GapRecursion struct{}

func NewGapRecursion() *GapRecursion { return &GapRecursion{} }

func (s *GapRecursion) Name() string { return "gap_recursion" }

func (s *GapRecursion) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	gapDescription, _ := input["gap_description"].(string)
	demandContext, _ := input["demand_context"].(string)
	llmClient, _ := input["llm_client"].(protocol.LLMClient)

	if gapDescription == "" {
		return nil, protocol.NewSkillError("gap_description is required")
	}
	if llmClient == nil {
		return nil, protocol.NewSkillError("llm_client is required")
	}

	messages := s.buildPrompt(gapDescription, demandContext)

	resp, err := llmClient.Chat(ctx, messages, systemPromptGapRecursion, nil)
	if err != nil {
		return nil, protocol.NewSkillError(fmt.Sprintf("llm chat failed: %v", err))
	}

	return s.validateOutput(resp.Content, demandContext)
}

func (s *GapRecursion) buildPrompt(gapDescription, demandContext string) []protocol.Message {
	if demandContext == "" {
		demandContext = "(no parent context)"
	}
	userContent := fmt.Sprintf("## Original Demand\n%s\n\n## Identified Gap\n%s\n\nPlease generate an independent sub-demand.", demandContext, gapDescription)
	return []protocol.Message{{Role: "user", Content: userContent}}
}

func (s *GapRecursion) validateOutput(rawOutput, demandContext string) (map[string]any, error) {
	cleaned := stripCodeFence(rawOutput)

	var parsed struct {
		SubDemandText string `json:"sub_demand_text"`
		Context       string `json:"context"`
	}
	subDemandText := ""
	subContext := demandContext

	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil && parsed.SubDemandText != "" {
		subDemandText = parsed.SubDemandText
		subContext = parsed.Context
	} else {
		subDemandText = cleaned
	}

	if subDemandText == "" {
		return nil, protocol.NewSkillError("gap_recursion: sub_demand_text is empty")
	}

	return map[string]any{
		"sub_demand_text": subDemandText,
		"context":         subContext,
	}, nil
}

package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

const systemPromptSubNegotiation = `You are a resource discovery specialist. Two participants have each given their responses, but their profiles may contain relevant capabilities not mentioned in their offers. Your task is to discover complementarities and potential collaboration value between them.

Rules:
1. Focus on parts of the profile NOT covered in the offer.
2. Look for unexpected complementarities and combinations.
3. If there's conflict, find coordination paths acceptable to both parties.

Output in JSON format:
{
  "discovery_report": {
    "new_associations": ["association 1", "association 2"],
    "coordination": "coordination approach or null if not needed",
    "additional_contributions": {
      "agent_a": ["potential contribution 1"],
      "agent_b": ["potential contribution 1"]
    },
    "summary": "brief summary of discoveries"
  }
}
`

// DiscoveryParty is one side of a discovery dialogue: an agent's identity,
// its current offer text and its full profile.
type DiscoveryParty struct {
	AgentID     string
	DisplayName string
	Offer       string
	Profile     map[string]any
}

func (p DiscoveryParty) name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.AgentID != "" {
		return p.AgentID
	}
	return "Agent"
}

// DiscoveryReport is the structured result of a sub-negotiation dialogue.
type DiscoveryReport struct {
	NewAssociations         []string       `json:"new_associations"`
	Coordination            *string        `json:"coordination"`
	AdditionalContributions map[string]any `json:"additional_contributions"`
	Summary                 string         `json:"summary"`
}

// SubNegotiation runs a discovery dialogue between two agents to surface
// complementarities their offers alone didn't reveal.
type SubNegotiation struct{}

func NewSubNegotiation() *SubNegotiation { return &SubNegotiation{} }

func (s *SubNegotiation) Name() string { return "sub_negotiation" }

func (s *SubNegotiation) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	agentA, okA := input["agent_a"].(DiscoveryParty)
	agentB, okB := input["agent_b"].(DiscoveryParty)
	reason, _ := input["reason"].(string)
	llmClient, _ := input["llm_client"].(protocol.LLMClient)

	if !okA {
		return nil, protocol.NewSkillError("agent_a is required")
	}
	if !okB {
		return nil, protocol.NewSkillError("agent_b is required")
	}
	if reason == "" {
		return nil, protocol.NewSkillError("reason is required")
	}
	if llmClient == nil {
		return nil, protocol.NewSkillError("llm_client is required")
	}

	messages := s.buildPrompt(agentA, agentB, reason)

	resp, err := llmClient.Chat(ctx, messages, systemPromptSubNegotiation, nil)
	if err != nil {
		return nil, protocol.NewSkillError(fmt.Sprintf("llm chat failed: %v", err))
	}

	return s.validateOutput(resp.Content)
}

func (s *SubNegotiation) buildPrompt(agentA, agentB DiscoveryParty, reason string) []protocol.Message {
	aOffer := agentA.Offer
	if aOffer == "" {
		aOffer = "(no offer)"
	}
	bOffer := agentB.Offer
	if bOffer == "" {
		bOffer = "(no offer)"
	}

	aProfile := marshalProfile(agentA.Profile)
	bProfile := marshalProfile(agentB.Profile)

	var b strings.Builder
	fmt.Fprintf(&b, "## Trigger Reason\n%s\n\n", reason)
	fmt.Fprintf(&b, "## Participant A: %s\nOffer: %s\nProfile:\n%s\n\n", agentA.name(), aOffer, aProfile)
	fmt.Fprintf(&b, "## Participant B: %s\nOffer: %s\nProfile:\n%s", agentB.name(), bOffer, bProfile)

	return []protocol.Message{{Role: "user", Content: b.String()}}
}

func marshalProfile(profile map[string]any) string {
	if len(profile) == 0 {
		return "{}"
	}
	if b, err := json.MarshalIndent(profile, "", "  "); err == nil {
		return string(b)
	}
	return "{}"
}

func (s *SubNegotiation) validateOutput(rawOutput string) (map[string]any, error) {
	var parsed map[string]any
	var report map[string]any

	if err := json.Unmarshal([]byte(rawOutput), &parsed); err == nil {
		if dr, ok := parsed["discovery_report"].(map[string]any); ok {
			report = dr
		} else {
			report = parsed
		}
	} else {
		report = map[string]any{
			"new_associations":         []string{},
			"coordination":             nil,
			"additional_contributions": map[string]any{},
			"summary":                  strings.TrimSpace(rawOutput),
		}
	}

	if _, ok := report["new_associations"]; !ok {
		report["new_associations"] = []string{}
	}
	if _, ok := report["coordination"]; !ok {
		report["coordination"] = nil
	}
	if _, ok := report["additional_contributions"]; !ok {
		report["additional_contributions"] = map[string]any{}
	}
	summary, _ := report["summary"].(string)
	report["summary"] = summary

	associations, _ := report["new_associations"].([]any)
	if summary == "" && len(associations) == 0 {
		return nil, protocol.NewSkillError("sub_negotiation: discovery_report has no content")
	}

	return map[string]any{"discovery_report": report}, nil
}

package skills

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

const systemPromptFormulationZH = `你代表一个真实的人。你的任务是理解用户真正需要什么，并基于你对他们的了解，帮助他们更准确、完整地表达需求。

规则：
1. 区分"需要"和"要求"——具体的要求可能只是满足真实需要的一种方式。
2. 从用户画像中补充相关上下文，让响应者能更好地理解。
3. 不要替换用户的原始意图——丰富和补充它。
4. 保留用户的偏好，但标注哪些是硬约束、哪些是可协商的。

用户画像：
%s

以 JSON 格式输出：
{
  "formulated_text": "丰富后的需求文本",
  "enrichments": {
    "hard_constraints": ["..."],
    "negotiable_preferences": ["..."],
    "context_added": ["..."]
  }
}
`

const systemPromptFormulationEN = `You represent a real person. Your task is to understand what the user truly needs and help them express it more accurately and completely, based on your knowledge of them.

Rules:
1. Distinguish "needs" from "requirements" — the specific ask may be just one way to satisfy the real need.
2. Supplement with relevant context from the user's profile so responders understand better.
3. Do not replace the user's original intent — enrich and supplement it.
4. Preserve the user's preferences, but mark which are hard constraints and which are negotiable.

The user's profile:
%s

Output in JSON format:
{
  "formulated_text": "the enriched demand text",
  "enrichments": {
    "hard_constraints": ["..."],
    "negotiable_preferences": ["..."],
    "context_added": ["..."]
  }
}
`

// Formulation enriches a raw user intent into a fuller demand statement
// using the requesting agent's own profile as context.
type Formulation struct{}

func NewFormulation() *Formulation { return &Formulation{} }

func (s *Formulation) Name() string { return "demand_formulation" }

func (s *Formulation) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	rawIntent, _ := input["raw_intent"].(string)
	agentID, _ := input["agent_id"].(string)
	adapter, _ := input["adapter"].(protocol.ProfileAdapter)

	if rawIntent == "" {
		return nil, protocol.NewSkillError("raw_intent is required")
	}
	if agentID == "" {
		return nil, protocol.NewSkillError("agent_id is required")
	}
	if adapter == nil {
		return nil, protocol.NewSkillError("adapter (ProfileAdapter) is required")
	}

	systemPrompt, messages := s.buildPrompt(input)

	rawOutput, err := adapter.Chat(ctx, agentID, messages, systemPrompt)
	if err != nil {
		return nil, protocol.NewSkillError(fmt.Sprintf("adapter chat failed: %v", err))
	}

	return s.validateOutput(rawOutput)
}

func (s *Formulation) buildPrompt(input map[string]any) (string, []protocol.Message) {
	profileData, _ := input["profile_data"].(map[string]any)
	rawIntent, _ := input["raw_intent"].(string)

	profileStr := "(no profile data)"
	if len(profileData) > 0 {
		if b, err := json.MarshalIndent(profileData, "", "  "); err == nil {
			profileStr = string(b)
		}
	}

	if detectCJK(rawIntent) {
		system := fmt.Sprintf(systemPromptFormulationZH, profileStr)
		messages := []protocol.Message{{Role: "user", Content: fmt.Sprintf("用户说：%s\n请生成丰富后的需求表述。", rawIntent)}}
		return system, messages
	}

	system := fmt.Sprintf(systemPromptFormulationEN, profileStr)
	messages := []protocol.Message{{Role: "user", Content: fmt.Sprintf("The user says: %s\nPlease generate an enriched demand expression.", rawIntent)}}
	return system, messages
}

func (s *Formulation) validateOutput(rawOutput string) (map[string]any, error) {
	cleaned := stripCodeFence(rawOutput)

	var formulated string
	var enrichments map[string]any

	var parsed struct {
		FormulatedText string         `json:"formulated_text"`
		Enrichments    map[string]any `json:"enrichments"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil && parsed.FormulatedText != "" {
		formulated = parsed.FormulatedText
		enrichments = parsed.Enrichments
	} else {
		formulated = cleaned
	}

	if formulated == "" {
		return nil, protocol.NewSkillError("demand_formulation: formulated_text is empty")
	}

	return map[string]any{
		"formulated_text": formulated,
		"enrichments":     enrichments,
	}, nil
}

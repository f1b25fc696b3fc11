package skills

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

const systemPromptOfferZH = `你代表一个真实的人。你的任务是基于你的真实背景，诚实地回应这个需求。

规则：
1. 只描述你的 profile 中记录的能力和经历。
2. 如果需求部分相关，明确说明哪些相关、哪些不相关。
3. 如果完全不相关，说"这个需求不在我的能力范围内"，并简述你能做什么。
4. 思考：在这个需求的语境下，你的哪些经历可能有意想不到的价值？

你的画像：
%s

以 JSON 格式输出：
{
  "content": "你对需求的回应",
  "capabilities": ["相关能力1", "相关能力2"],
  "confidence": 0.0 到 1.0
}
`

const systemPromptOfferEN = `You represent a real person/service. Your task is to honestly respond to this demand based on your actual background.

Rules:
1. Only describe capabilities and experiences recorded in your profile.
2. If the demand is partially relevant, clearly state what's relevant and what's not.
3. If completely irrelevant, say "I can't help with this."
4. Think: in the context of this demand, which of your experiences might have unexpected value?

Your profile:
%s

Output in JSON format:
{
  "content": "your response to the demand",
  "capabilities": ["relevant capability 1", "relevant capability 2"],
  "confidence": 0.0 to 1.0
}
`

// Offer generates one agent's honest response to a formulated demand.
type Offer struct{}

func NewOffer() *Offer { return &Offer{} }

func (s *Offer) Name() string { return "offer_generation" }

func (s *Offer) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	agentID, _ := input["agent_id"].(string)
	demandText, _ := input["demand_text"].(string)
	adapter, _ := input["adapter"].(protocol.ProfileAdapter)

	if agentID == "" {
		return nil, protocol.NewSkillError("agent_id is required")
	}
	if demandText == "" {
		return nil, protocol.NewSkillError("demand_text is required")
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

func (s *Offer) buildPrompt(input map[string]any) (string, []protocol.Message) {
	profileData, _ := input["profile_data"].(map[string]any)
	demandText, _ := input["demand_text"].(string)

	profileStr := "(no profile data)"
	if len(profileData) > 0 {
		if b, err := json.MarshalIndent(profileData, "", "  "); err == nil {
			profileStr = string(b)
		}
	}

	if detectCJK(demandText) {
		system := fmt.Sprintf(systemPromptOfferZH, profileStr)
		messages := []protocol.Message{{Role: "user", Content: fmt.Sprintf("需求：%s\n请给出你的回应。", demandText)}}
		return system, messages
	}

	system := fmt.Sprintf(systemPromptOfferEN, profileStr)
	messages := []protocol.Message{{Role: "user", Content: fmt.Sprintf("Demand: %s\nPlease give your response.", demandText)}}
	return system, messages
}

func (s *Offer) validateOutput(rawOutput string) (map[string]any, error) {
	cleaned := stripCodeFence(rawOutput)

	var parsed struct {
		Content      string   `json:"content"`
		Capabilities []string `json:"capabilities"`
		Confidence   float64  `json:"confidence"`
	}
	content := cleaned
	capabilities := []string{}
	confidence := 0.5

	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil && parsed.Content != "" {
		content = parsed.Content
		if parsed.Capabilities != nil {
			capabilities = parsed.Capabilities
		}
		confidence = parsed.Confidence
	}

	if content == "" {
		return nil, protocol.NewSkillError("offer_generation: content is empty")
	}

	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return map[string]any{
		"content":      content,
		"capabilities": capabilities,
		"confidence":   confidence,
	}, nil
}

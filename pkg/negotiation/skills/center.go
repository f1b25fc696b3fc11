package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/demandmesh/negotiator/pkg/negotiation/model"
	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// ToolOutputPlan, ToolAskAgent, ToolStartDiscovery, ToolCreateSubDemand and
// ToolCreateMachine name the five tools the Center skill offers the
// synthesis LLM.
const (
	ToolOutputPlan      = "output_plan"
	ToolAskAgent        = "ask_agent"
	ToolStartDiscovery  = "start_discovery"
	ToolCreateSubDemand = "create_sub_demand"
	ToolCreateMachine   = "create_machine"
)

var allCenterTools = []protocol.ToolDefinition{
	{
		Name:        ToolOutputPlan,
		Description: "Output a text plan (suggestion, analysis, recommendation). This terminates the negotiation.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"plan_text": map[string]any{
					"type":        "string",
					"description": "The complete plan text including resource allocation, coordination approach, and expected outcomes.",
				},
			},
			"required": []any{"plan_text"},
		},
	},
	{
		Name:        ToolAskAgent,
		Description: "Ask a specific agent a follow-up question. The agent's response will be provided in the next round.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"agent_id": map[string]any{"type": "string", "description": "The ID of the agent to ask."},
				"question": map[string]any{"type": "string", "description": "The follow-up question to ask the agent."},
			},
			"required": []any{"agent_id", "question"},
		},
	},
	{
		Name:        ToolStartDiscovery,
		Description: "Trigger a discovery dialogue between two agents to uncover hidden complementarities in their profiles.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"agent_a": map[string]any{"type": "string", "description": "ID of the first agent."},
				"agent_b": map[string]any{"type": "string", "description": "ID of the second agent."},
				"reason":  map[string]any{"type": "string", "description": "Why this discovery dialogue is needed."},
			},
			"required": []any{"agent_a", "agent_b", "reason"},
		},
	},
	{
		Name:        ToolCreateSubDemand,
		Description: "Create a sub-demand for a gap that current participants cannot fill. This triggers a new negotiation.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"gap_description": map[string]any{"type": "string", "description": "Description of the gap that needs to be filled."},
			},
			"required": []any{"gap_description"},
		},
	},
	{
		Name:        ToolCreateMachine,
		Description: "Create a WOWOK Machine (workflow) draft for on-chain execution. V1: stub, not implemented.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"machine_json": map[string]any{"type": "string", "description": "The Machine definition as JSON string."},
			},
			"required": []any{"machine_json"},
		},
	},
}

var restrictedCenterTools = []protocol.ToolDefinition{allCenterTools[0], allCenterTools[4]}

var validCenterToolNames = func() map[string]bool {
	m := make(map[string]bool, len(allCenterTools))
	for _, t := range allCenterTools {
		m[t.Name] = true
	}
	return m
}()

const systemPromptCenterZH = `你是一个多方资源协调规划者。

## 角色
你收到一个需求和多个参与者的响应（offer）。
每个参与者基于自己的真实背景做出回应。
你的任务是找到最优的资源组合方案。

## 决策原则（按优先级）
1. 需求能否被满足？
2. 接受率——各方是否会同意？
3. 效率

## 元认知要求
- 考虑响应之间的互补性
- 考虑意想不到的组合（1+1>2）
- 注意每个响应的独特视角，不只看表面匹配
- 部分相关的参与者在组合中可能产生额外价值

## 行动
使用提供的工具采取行动。你可以同时调用多个工具。
- 当你有足够信息提出方案时，使用 output_plan。
- 当你需要向某个参与者追问时，使用 ask_agent。
- 当两个参与者可能有隐藏的互补性时，使用 start_discovery。
- 当当前参与者无法填补某个缺口时，使用 create_sub_demand。

## 语言
用中文输出方案。
`

const systemPromptCenterEN = `You are a multi-party resource coordination planner.

## Role
You receive a demand and responses (offers) from multiple participants.
Each participant responded based on their real background.
Your task is to find the optimal resource combination plan.

## Decision Principles (by priority)
1. Can the demand be satisfied?
2. Acceptance rate — will each party agree?
3. Efficiency

## Metacognition Requirements
- Consider complementarities between responses
- Consider unexpected combinations (1+1>2)
- Notice each response's unique perspective, don't just look at surface matching
- Partially relevant participants may add value in combination

## Actions
Use the provided tools to take action. You may call multiple tools at once.
- Use output_plan when you have enough information to propose a plan.
- Use ask_agent when you need more information from a specific participant.
- Use start_discovery when two participants might have hidden complementarities.
- Use create_sub_demand when there's a gap that current participants cannot fill.
`

// HistoryEntry is one round's worth of synthesis context carried forward:
// the Center's own reasoning, a decision, or the result of a dispatched
// tool call.
type HistoryEntry struct {
	Type    string
	Round   int
	Content string
	AgentID string
	Tool    string
	Args    map[string]any
	Result  any
}

// Center drives one round of the synthesis loop: it builds the prompt from
// the current demand/offers/history, calls the platform LLM with the
// appropriate tool set, and validates the result into a normalized tool-call
// list.
type Center struct{}

func NewCenter() *Center { return &Center{} }

func (s *Center) Name() string { return "center_coordinator" }

// Tools returns the full or restricted tool set offered to the synthesis
// LLM. Both sets hold built-in tools only: this skill does not offer tools
// registered through engine.Engine.RegisterToolHandler, and validateOutput
// rejects their names, so a custom handler is reached only when a different
// Center skill returns its tool name.
func Tools(restricted bool) []protocol.ToolDefinition {
	if restricted {
		return append([]protocol.ToolDefinition(nil), restrictedCenterTools...)
	}
	return append([]protocol.ToolDefinition(nil), allCenterTools...)
}

func (s *Center) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	demand, _ := input["demand"].(*model.DemandSnapshot)
	offers, _ := input["offers"].([]*model.Offer)
	llmClient, _ := input["llm_client"].(protocol.LLMClient)

	if demand == nil {
		return nil, protocol.NewSkillError("demand is required")
	}
	if offers == nil {
		return nil, protocol.NewSkillError("offers list is required")
	}
	if llmClient == nil {
		return nil, protocol.NewSkillError("llm_client is required")
	}

	toolsRestricted, _ := input["tools_restricted"].(bool)

	systemPrompt, messages := s.buildPrompt(input)
	tools := Tools(toolsRestricted)

	resp, err := llmClient.Chat(ctx, messages, systemPrompt, tools)
	if err != nil {
		return nil, protocol.NewSkillError(fmt.Sprintf("llm chat failed: %v", err))
	}

	return s.validateOutput(resp, toolsRestricted)
}

func (s *Center) buildPrompt(input map[string]any) (string, []protocol.Message) {
	demand := input["demand"].(*model.DemandSnapshot)
	offers, _ := input["offers"].([]*model.Offer)
	participants, _ := input["participants"].([]*model.AgentParticipant)
	roundNumber, _ := input["round_number"].(int)
	history, _ := input["history"].([]HistoryEntry)

	demandText := demand.Text()

	var section string
	if roundNumber > 1 && len(history) > 0 {
		section = s.buildMaskedOffers(offers, history)
	} else {
		section = s.buildOffers(offers, participants)
	}

	userContent := fmt.Sprintf("## Demand\n%s\n\n%s", demandText, section)
	if len(history) > 0 {
		userContent += "\n\n" + s.buildHistory(history)
	}

	system := systemPromptCenterEN
	if detectCJK(demandText) {
		system = systemPromptCenterZH
	}
	return system, []protocol.Message{{Role: "user", Content: userContent}}
}

func (s *Center) buildOffers(offers []*model.Offer, participants []*model.AgentParticipant) string {
	byID := make(map[string]*model.AgentParticipant, len(participants))
	for _, p := range participants {
		byID[p.AgentID] = p
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Participant Responses (%d total)", len(offers))
	for i, offer := range offers {
		display := offer.AgentID
		if p, ok := byID[offer.AgentID]; ok && p.DisplayName != "" {
			display = p.DisplayName
		}
		fmt.Fprintf(&b, "\n\n### Participant %d: %s (ID: %s)", i+1, display, offer.AgentID)
		fmt.Fprintf(&b, "\nResponse: %s", offer.Content)
		if len(offer.Capabilities) > 0 {
			fmt.Fprintf(&b, "\nCapabilities: %s", strings.Join(offer.Capabilities, ", "))
		}
		fmt.Fprintf(&b, "\nConfidence: %.2f", offer.Confidence)
	}
	return b.String()
}

func (s *Center) buildMaskedOffers(offers []*model.Offer, history []HistoryEntry) string {
	names := make([]string, len(offers))
	for i, o := range offers {
		names[i] = o.AgentID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Participant Responses (masked)\nReceived %d offers from: %s.\n(Original offer details have been masked. See previous round reasoning for analysis.)", len(offers), strings.Join(names, ", "))

	var replies []HistoryEntry
	for _, h := range history {
		if h.Type == "agent_reply" {
			replies = append(replies, h)
		}
	}
	if len(replies) > 0 {
		b.WriteString("\n\n## New Replies This Round")
		for _, r := range replies {
			fmt.Fprintf(&b, "\n### %s\n%s", r.AgentID, r.Content)
		}
	}
	return b.String()
}

func (s *Center) buildHistory(history []HistoryEntry) string {
	var b strings.Builder
	b.WriteString("## History from Previous Rounds")
	for _, h := range history {
		switch h.Type {
		case "center_reasoning":
			fmt.Fprintf(&b, "\n\n### Round %d Reasoning\n%s", h.Round, h.Content)
		case "center_decision":
			fmt.Fprintf(&b, "\n\n### Round %d Decision\n%s", h.Round, h.Content)
		default:
			if h.Tool != "" {
				fmt.Fprintf(&b, "\n\n### Tool Result: %s", h.Tool)
				if argsJSON, err := json.Marshal(h.Args); err == nil {
					fmt.Fprintf(&b, "\nArguments: %s", argsJSON)
				}
				if h.Result != nil {
					if resultJSON, err := json.MarshalIndent(h.Result, "", "  "); err == nil {
						fmt.Fprintf(&b, "\nResult:\n```json\n%s\n```", resultJSON)
					} else {
						fmt.Fprintf(&b, "\nResult: %v", h.Result)
					}
				}
			}
		}
	}
	return b.String()
}

func (s *Center) validateOutput(resp *protocol.LLMResponse, toolsRestricted bool) (map[string]any, error) {
	if len(resp.ToolCalls) == 0 {
		content := strings.TrimSpace(stripThinkTags(resp.Content))
		if content != "" {
			return map[string]any{
				"tool_calls": []protocol.ToolCall{{Name: ToolOutputPlan, Arguments: map[string]any{"plan_text": content}}},
			}, nil
		}
		return nil, protocol.NewSkillError("center_coordinator: no tool calls and no content in response")
	}

	allowed := validCenterToolNames
	if toolsRestricted {
		allowed = make(map[string]bool, len(restrictedCenterTools))
		for _, t := range restrictedCenterTools {
			allowed[t.Name] = true
		}
	}

	validated := make([]protocol.ToolCall, 0, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		if !allowed[tc.Name] {
			return nil, protocol.NewSkillErrorf("center_coordinator: invalid tool name '%s'", tc.Name)
		}
		validated = append(validated, tc)
	}

	out := map[string]any{"tool_calls": validated}
	if content := strings.TrimSpace(stripThinkTags(resp.Content)); content != "" {
		out["content"] = content
	}
	return out, nil
}

package engine

import (
	"context"
	"fmt"

	"github.com/demandmesh/negotiator/pkg/logger"
	"github.com/demandmesh/negotiator/pkg/negotiation/events"
	"github.com/demandmesh/negotiator/pkg/negotiation/model"
	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
	"github.com/demandmesh/negotiator/pkg/negotiation/skills"
)

const noPlanGeneratedText = "No plan could be generated within the available synthesis rounds."

// runSynthesis drives the Center loop: each iteration invokes the Center
// skill, dispatches every returned tool call, and loops until output_plan
// (or its degraded equivalent) terminates the session, an unknown tool name
// raises a fatal SkillError, or max_center_rounds is exhausted.
func (e *Engine) runSynthesis(ctx context.Context, session *model.NegotiationSession, opts StartOptions) error {
	if opts.Center == nil {
		return protocol.NewConfigError("center skill is required")
	}

	var history []skills.HistoryEntry

	for {
		session.CenterRounds++
		toolsRestricted := session.ToolsRestricted()

		result, err := opts.Center.Execute(ctx, map[string]any{
			"demand":           &session.Demand,
			"offers":           session.CollectedOffers(),
			"participants":     session.Participants,
			"round_number":     session.CenterRounds,
			"history":          history,
			"tools_restricted": toolsRestricted,
			"llm_client":       opts.LLMClient,
		})
		if err != nil {
			return err
		}

		toolCalls, _ := result["tool_calls"].([]protocol.ToolCall)
		if content, ok := result["content"].(string); ok && content != "" {
			history = append(history, skills.HistoryEntry{Type: "center_reasoning", Round: session.CenterRounds, Content: content})
		}

		terminal, err := e.dispatchToolCalls(ctx, session, opts, toolCalls, &history)
		if err != nil {
			return err
		}
		if terminal {
			return nil
		}

		if session.CenterRounds >= session.MaxCenterRounds {
			session.PlanOutput = noPlanGeneratedText
			e.pushEvent(ctx, session, events.PlanReadyEvent(session.NegotiationID, session.PlanOutput, session.CenterRounds, session.ParticipatingAgentIDs()))
			return e.complete(session)
		}
	}
}

// dispatchToolCalls runs every tool call in order and reports whether a
// terminal tool (output_plan) was among them.
func (e *Engine) dispatchToolCalls(ctx context.Context, session *model.NegotiationSession, opts StartOptions, toolCalls []protocol.ToolCall, history *[]skills.HistoryEntry) (bool, error) {
	log := logger.Negotiation(ctx, session.NegotiationID)

	for _, tc := range toolCalls {
		e.pushEvent(ctx, session, events.CenterToolCallEvent(session.NegotiationID, tc.Name, tc.Arguments, session.CenterRounds))

		switch tc.Name {
		case skills.ToolOutputPlan:
			planText, _ := tc.Arguments["plan_text"].(string)
			session.PlanOutput = planText
			e.pushEvent(ctx, session, events.PlanReadyEvent(session.NegotiationID, planText, session.CenterRounds, session.ParticipatingAgentIDs()))
			if err := e.complete(session); err != nil {
				return false, err
			}
			return true, nil

		case skills.ToolAskAgent:
			e.dispatchAskAgent(ctx, session, opts, tc.Arguments, history)

		case skills.ToolStartDiscovery:
			e.dispatchStartDiscovery(ctx, session, opts, tc.Arguments, history)

		case skills.ToolCreateSubDemand:
			e.dispatchCreateSubDemand(ctx, session, opts, tc.Arguments, history)

		case skills.ToolCreateMachine:
			// Reserved placeholder: the center.tool_call event above is the
			// only observable effect until the machine-execution surface is
			// specified.

		default:
			if handler, ok := e.toolHandler(tc.Name); ok {
				result, err := handler.Handle(ctx, session, tc.Arguments)
				if err != nil {
					log.Warn("custom tool handler failed", "tool", tc.Name, "error", err)
				}
				*history = append(*history, skills.HistoryEntry{Type: "custom_tool", Round: session.CenterRounds, Tool: tc.Name, Args: tc.Arguments, Result: result})
				continue
			}
			return false, protocol.NewSkillErrorf("center: unknown tool %q", tc.Name)
		}
	}

	return false, nil
}

func (e *Engine) dispatchAskAgent(ctx context.Context, session *model.NegotiationSession, opts StartOptions, args map[string]any, history *[]skills.HistoryEntry) {
	log := logger.Negotiation(ctx, session.NegotiationID)

	agentID, _ := args["agent_id"].(string)
	question, _ := args["question"].(string)

	participant := session.Participant(agentID)
	if participant == nil {
		log.Warn("ask_agent: unknown participant, skipping", "agent_id", agentID)
		return
	}
	if opts.Adapter == nil {
		return
	}

	response, err := opts.Adapter.Chat(ctx, agentID, []protocol.Message{{Role: "user", Content: question}}, "")
	if err != nil {
		response = fmt.Sprintf("[Error: %v]", err)
	}

	*history = append(*history, skills.HistoryEntry{
		Type:    "agent_reply",
		Round:   session.CenterRounds,
		AgentID: agentID,
		Content: response,
		Args:    map[string]any{"question": question},
	})
}

func (e *Engine) dispatchStartDiscovery(ctx context.Context, session *model.NegotiationSession, opts StartOptions, args map[string]any, history *[]skills.HistoryEntry) {
	log := logger.Negotiation(ctx, session.NegotiationID)

	agentAID, _ := args["agent_a"].(string)
	agentBID, _ := args["agent_b"].(string)
	reason, _ := args["reason"].(string)

	pa := session.Participant(agentAID)
	pb := session.Participant(agentBID)
	if pa == nil || pb == nil || opts.SubNegotiation == nil || opts.Adapter == nil {
		log.Warn("start_discovery: missing participant or dependency, skipping", "agent_a", agentAID, "agent_b", agentBID)
		return
	}

	profileA, _ := opts.Adapter.GetProfile(ctx, agentAID)
	profileB, _ := opts.Adapter.GetProfile(ctx, agentBID)

	result, err := opts.SubNegotiation.Execute(ctx, map[string]any{
		"agent_a":    partyOf(pa, profileA),
		"agent_b":    partyOf(pb, profileB),
		"reason":     reason,
		"llm_client": opts.LLMClient,
	})
	if err != nil {
		log.Warn("start_discovery: skill failed, skipping", "error", err)
		return
	}

	*history = append(*history, skills.HistoryEntry{
		Type:   "discovery_report",
		Round:  session.CenterRounds,
		Tool:   skills.ToolStartDiscovery,
		Args:   args,
		Result: result["discovery_report"],
	})
}

func partyOf(p *model.AgentParticipant, profile map[string]any) skills.DiscoveryParty {
	offerText := ""
	if p.Offer != nil {
		offerText = p.Offer.Content
	}
	return skills.DiscoveryParty{
		AgentID:     p.AgentID,
		DisplayName: p.DisplayName,
		Offer:       offerText,
		Profile:     profile,
	}
}

func (e *Engine) dispatchCreateSubDemand(ctx context.Context, session *model.NegotiationSession, opts StartOptions, args map[string]any, history *[]skills.HistoryEntry) {
	log := logger.Negotiation(ctx, session.NegotiationID)

	if session.Depth >= 1 {
		log.Warn("create_sub_demand: refusing, max recursion depth reached")
		return
	}
	if opts.GapRecursion == nil {
		return
	}

	gapDescription, _ := args["gap_description"].(string)

	result, err := opts.GapRecursion.Execute(ctx, map[string]any{
		"gap_description": gapDescription,
		"demand_context":  session.Demand.Text(),
		"llm_client":      opts.LLMClient,
	})
	if err != nil {
		log.Warn("create_sub_demand: gap recursion failed, skipping", "error", err)
		return
	}

	subDemandText, _ := result["sub_demand_text"].(string)
	if subDemandText == "" {
		return
	}

	child := model.NewSession(subDemandText)
	child.ParentNegotiationID = session.NegotiationID
	child.Depth = session.Depth + 1

	if opts.RegisterSession != nil {
		opts.RegisterSession(child)
	}
	session.SubSessionIDs = append(session.SubSessionIDs, child.NegotiationID)

	e.pushEvent(ctx, session, events.SubNegotiationStartedEvent(session.NegotiationID, child.NegotiationID, gapDescription))

	// The child synthesises from history alone: per the source behaviour
	// this preserves an empty agent_vectors/k_star=0 invocation rather than
	// re-running resonance for the sub-demand (see DESIGN.md).
	childOpts := opts
	childOpts.AgentVectors = nil
	childOpts.KStar = 0
	childOpts.AwaitConfirmation = false

	if err := e.Start(ctx, child, childOpts); err != nil {
		log.Warn("sub-negotiation failed, continuing parent", "child_negotiation_id", child.NegotiationID, "error", err)
	}

	*history = append(*history, skills.HistoryEntry{
		Type:   "sub_negotiation_outcome",
		Round:  session.CenterRounds,
		Tool:   skills.ToolCreateSubDemand,
		Args:   args,
		Result: map[string]any{"child_negotiation_id": child.NegotiationID, "plan_output": child.PlanOutput, "state": string(child.State)},
	})
}

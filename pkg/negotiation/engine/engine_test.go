package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demandmesh/negotiator/pkg/negotiation/events"
	"github.com/demandmesh/negotiator/pkg/negotiation/hdc"
	"github.com/demandmesh/negotiator/pkg/negotiation/model"
	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// fakeAdapter is a minimal protocol.ProfileAdapter for engine tests.
type fakeAdapter struct {
	chatFn func(ctx context.Context, agentID string, messages []protocol.Message, systemPrompt string) (string, error)
}

func (a *fakeAdapter) GetProfile(ctx context.Context, agentID string) (map[string]any, error) {
	return map[string]any{"agent_id": agentID}, nil
}

func (a *fakeAdapter) Chat(ctx context.Context, agentID string, messages []protocol.Message, systemPrompt string) (string, error) {
	if a.chatFn != nil {
		return a.chatFn(ctx, agentID, messages, systemPrompt)
	}
	return "ok", nil
}

func (a *fakeAdapter) ChatStream(ctx context.Context, agentID string, messages []protocol.Message, systemPrompt string) (<-chan string, error) {
	ch := make(chan string, 1)
	ch <- "ok"
	close(ch)
	return ch, nil
}

// fakeOfferSkill returns a fixed offer for every agent, optionally sleeping
// past the per-task timeout for a named agent to exercise the EXITED path.
type fakeOfferSkill struct {
	slowAgentID string
	sleepFor    time.Duration
}

func (s *fakeOfferSkill) Name() string { return "fake_offer" }

func (s *fakeOfferSkill) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	agentID, _ := input["agent_id"].(string)
	if agentID == s.slowAgentID {
		select {
		case <-time.After(s.sleepFor):
		case <-ctx.Done():
		}
	}
	return map[string]any{"content": "ok", "capabilities": []string{"x"}, "confidence": 0.9}, nil
}

// fakeCenterSkill returns a scripted sequence of results, one per call.
type fakeCenterSkill struct {
	results []map[string]any
	calls   int
}

func (s *fakeCenterSkill) Name() string { return "fake_center" }

func (s *fakeCenterSkill) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	r := s.results[s.calls]
	if s.calls < len(s.results)-1 {
		s.calls++
	}
	return r, nil
}

func outputPlanResult(planText string) map[string]any {
	return map[string]any{
		"tool_calls": []protocol.ToolCall{{Name: "output_plan", Arguments: map[string]any{"plan_text": planText}}},
	}
}

func TestEngine_SingleAgentHappyPath(t *testing.T) {
	eng := New(hdc.NewMockEncoder(), hdc.NewCosineDetector(), events.Null{})
	session := model.NewSession("need a ride to the airport")

	opts := StartOptions{
		Adapter:      &fakeAdapter{},
		LLMClient:    nil,
		Center:       &fakeCenterSkill{results: []map[string]any{outputPlanResult("P")}},
		Offer:        &fakeOfferSkill{},
		AgentVectors: []protocol.AgentVector{{AgentID: "a1", Vector: protocol.Vector{1, 0, 0}}},
		KStar:        1,
		OfferTimeout: 2 * time.Second,
	}

	err := eng.Start(context.Background(), session, opts)
	require.NoError(t, err)

	assert.Equal(t, model.StateCompleted, session.State)
	assert.Equal(t, "P", session.PlanOutput)
	require.Len(t, session.Participants, 1)
	assert.Equal(t, model.AgentReplied, session.Participants[0].State)
	require.NotNil(t, session.Participants[0].Offer)
	assert.Equal(t, "ok", session.Participants[0].Offer.Content)
}

func TestEngine_MixedTimeout(t *testing.T) {
	eng := New(hdc.NewMockEncoder(), hdc.NewCosineDetector(), events.Null{})
	session := model.NewSession("need three agents")

	opts := StartOptions{
		Adapter: &fakeAdapter{},
		Center:  &fakeCenterSkill{results: []map[string]any{outputPlanResult("P")}},
		Offer:   &fakeOfferSkill{slowAgentID: "a2", sleepFor: 200 * time.Millisecond},
		AgentVectors: []protocol.AgentVector{
			{AgentID: "a1", Vector: protocol.Vector{1, 0, 0}},
			{AgentID: "a2", Vector: protocol.Vector{0, 1, 0}},
			{AgentID: "a3", Vector: protocol.Vector{0, 0, 1}},
		},
		KStar:        3,
		OfferTimeout: 50 * time.Millisecond,
	}

	err := eng.Start(context.Background(), session, opts)
	require.NoError(t, err)

	replied, exited := 0, 0
	for _, p := range session.Participants {
		switch p.State {
		case model.AgentReplied:
			replied++
		case model.AgentExited:
			exited++
		}
	}
	assert.Equal(t, 2, replied)
	assert.Equal(t, 1, exited)
	assert.Equal(t, model.StateCompleted, session.State)
}

func TestEngine_UnknownToolNameTerminatesBeforeCompleted(t *testing.T) {
	eng := New(hdc.NewMockEncoder(), hdc.NewCosineDetector(), events.Null{})
	session := model.NewSession("demand")

	opts := StartOptions{
		Adapter: &fakeAdapter{},
		Center: &fakeCenterSkill{results: []map[string]any{{
			"tool_calls": []protocol.ToolCall{{Name: "frobnicate", Arguments: map[string]any{}}},
		}}},
		Offer:        &fakeOfferSkill{},
		AgentVectors: nil,
		KStar:        0,
		OfferTimeout: time.Second,
	}

	err := eng.Start(context.Background(), session, opts)
	require.Error(t, err)
	assert.True(t, protocol.IsKind(err, protocol.KindSkill))
	assert.NotEqual(t, model.StateCompleted, session.State)
	assert.Empty(t, session.PlanOutput)
}

func TestEngine_RestrictedToolsOnFinalRound(t *testing.T) {
	// max_center_rounds=2: round 1 unrestricted (ask_agent), round 2
	// restricted (tools_restricted=true, output_plan/create_machine only).
	eng := New(hdc.NewMockEncoder(), hdc.NewCosineDetector(), events.Null{})
	session := model.NewSession("demand")
	session.MaxCenterRounds = 2

	opts := StartOptions{
		Adapter: &fakeAdapter{},
		Center: &fakeCenterSkill{results: []map[string]any{
			{"tool_calls": []protocol.ToolCall{{Name: "ask_agent", Arguments: map[string]any{"agent_id": "missing", "question": "q?"}}}},
			outputPlanResult("Q"),
		}},
		Offer:        &fakeOfferSkill{},
		AgentVectors: nil,
		KStar:        0,
		OfferTimeout: time.Second,
	}

	err := eng.Start(context.Background(), session, opts)
	require.NoError(t, err)
	assert.Equal(t, "Q", session.PlanOutput)
	assert.Equal(t, 2, session.CenterRounds)
}

func TestEngine_EmptyAgentVectorsZeroParticipants(t *testing.T) {
	eng := New(hdc.NewMockEncoder(), hdc.NewCosineDetector(), events.Null{})
	session := model.NewSession("demand")

	opts := StartOptions{
		Adapter:      &fakeAdapter{},
		Center:       &fakeCenterSkill{results: []map[string]any{outputPlanResult("P")}},
		Offer:        &fakeOfferSkill{},
		AgentVectors: nil,
		KStar:        5,
		OfferTimeout: time.Second,
	}

	err := eng.Start(context.Background(), session, opts)
	require.NoError(t, err)
	assert.Empty(t, session.Participants)
	assert.Equal(t, model.StateCompleted, session.State)
}

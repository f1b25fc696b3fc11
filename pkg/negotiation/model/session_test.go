package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_Defaults(t *testing.T) {
	s := NewSession("I need a ride to the airport")
	assert.Equal(t, StateCreated, s.State)
	assert.Equal(t, 2, s.MaxCenterRounds)
	assert.Equal(t, "I need a ride to the airport", s.Demand.RawIntent)
	assert.NotEmpty(t, s.NegotiationID)
	assert.NotNil(t, s.Demand.Metadata)
}

func TestCollectedOffers_OnlyRepliedParticipants(t *testing.T) {
	s := NewSession("demand")
	replied := &AgentParticipant{AgentID: "a1", State: AgentReplied, Offer: &Offer{AgentID: "a1", Content: "ok"}}
	exited := &AgentParticipant{AgentID: "a2", State: AgentExited}
	s.Participants = []*AgentParticipant{replied, exited}

	offers := s.CollectedOffers()
	require.Len(t, offers, 1)
	assert.Equal(t, "a1", offers[0].AgentID)
}

func TestIsBarrierMet(t *testing.T) {
	s := NewSession("demand")
	s.Participants = []*AgentParticipant{
		{AgentID: "a1", State: AgentActive},
		{AgentID: "a2", State: AgentReplied},
	}
	assert.False(t, s.IsBarrierMet())

	s.Participants[0].State = AgentExited
	assert.True(t, s.IsBarrierMet())
}

func TestToolsRestricted(t *testing.T) {
	s := NewSession("demand")
	s.MaxCenterRounds = 2
	s.CenterRounds = 1
	assert.False(t, s.ToolsRestricted())
	s.CenterRounds = 2
	assert.True(t, s.ToolsRestricted())
}

func TestParticipant_Lookup(t *testing.T) {
	s := NewSession("demand")
	s.Participants = []*AgentParticipant{{AgentID: "a1"}, {AgentID: "a2"}}
	assert.Same(t, s.Participants[1], s.Participant("a2"))
	assert.Nil(t, s.Participant("missing"))
}

func TestParticipatingAgentIDs_OnlyThoseWithOffers(t *testing.T) {
	s := NewSession("demand")
	s.Participants = []*AgentParticipant{
		{AgentID: "a1", Offer: &Offer{AgentID: "a1"}},
		{AgentID: "a2"},
		{AgentID: "a3", Offer: &Offer{AgentID: "a3"}},
	}
	assert.Equal(t, []string{"a1", "a3"}, s.ParticipatingAgentIDs())
}

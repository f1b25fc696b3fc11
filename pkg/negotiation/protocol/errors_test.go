package protocol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKind_MatchesDirectError(t *testing.T) {
	err := NewConfigError("missing adapter")
	assert.True(t, IsKind(err, KindConfig))
	assert.False(t, IsKind(err, KindSkill))
}

func TestIsKind_MatchesThroughWrapping(t *testing.T) {
	cause := NewAdapterError("profile fetch failed", errors.New("timeout"))
	wrapped := fmt.Errorf("building session: %w", cause)
	assert.True(t, IsKind(wrapped, KindAdapter))
}

func TestIsKind_NilAndUnrelatedErrors(t *testing.T) {
	assert.False(t, IsKind(nil, KindConfig))
	assert.False(t, IsKind(errors.New("plain error"), KindConfig))
}

func TestError_MessageIncludesCause(t *testing.T) {
	err := NewEncodingError("encoding demand text failed", errors.New("empty input"))
	assert.Contains(t, err.Error(), "encoding demand text failed")
	assert.Contains(t, err.Error(), "empty input")
}

func TestNewSkillErrorf_FormatsMessage(t *testing.T) {
	err := NewSkillErrorf("center: unknown tool %q", "frobnicate")
	assert.True(t, IsKind(err, KindSkill))
	assert.Contains(t, err.Error(), `"frobnicate"`)
}

func TestNewInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransitionError("offering", "formulating")
	assert.True(t, IsKind(err, KindInvalidStateTransition))
	assert.Contains(t, err.Error(), "offering")
	assert.Contains(t, err.Error(), "formulating")
}

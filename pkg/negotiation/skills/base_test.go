package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCJK(t *testing.T) {
	assert.True(t, detectCJK("我需要一辆车去机场"))
	assert.True(t, detectCJK("mixed 中文 and english"))
	assert.False(t, detectCJK("I need a ride to the airport"))
	assert.False(t, detectCJK(""))
}

func TestStripCodeFence_JSONFence(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, stripCodeFence(in))
}

func TestStripCodeFence_PlainFence(t *testing.T) {
	in := "```\nraw text\n```"
	assert.Equal(t, "raw text", stripCodeFence(in))
}

func TestStripCodeFence_NoFencePassesThrough(t *testing.T) {
	in := "  {\"a\": 1}  "
	assert.Equal(t, `{"a": 1}`, stripCodeFence(in))
}

// Package skills implements the five LLM-mediated steps of a negotiation:
// demand formulation, offer generation, center synthesis, gap recursion and
// sub-negotiation discovery. Each is a stateless protocol.Skill.
package skills

import (
	"regexp"
	"strings"
)

var cjkPattern = regexp.MustCompile(`[\x{4e00}-\x{9fff}\x{3040}-\x{30ff}\x{ac00}-\x{d7af}]`)

// detectCJK reports whether text contains CJK script, used to pick between
// the Chinese and English system prompt variants.
func detectCJK(text string) bool {
	return cjkPattern.MatchString(text)
}

var codeFencePattern = regexp.MustCompile(`(?s)^` + "```" + `(?:json)?\s*\n?(.*?)\n?\s*` + "```" + `$`)

// stripCodeFence removes a surrounding ```json ... ``` or ``` ... ``` block,
// returning the inner text unchanged if no fence is present.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := codeFencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

var thinkTagPattern = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)

// stripThinkTags removes any <think>...</think> reasoning blocks some models
// prepend to their answer.
func stripThinkTags(text string) string {
	return thinkTagPattern.ReplaceAllString(text, "")
}

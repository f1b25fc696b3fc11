// Package protocol defines the small capability interfaces the engine
// depends on: Encoder, ResonanceDetector, ProfileAdapter, LLMClient, Skill,
// EventPusher and CenterToolHandler. Each is implemented by an adapter
// package and composed at construction time by the builder — no duck typing,
// no global singleton.
package protocol

import "fmt"

// Kind distinguishes the error taxonomy described by the spec: Config,
// Encoding, Adapter, Skill, LLM and InvalidStateTransition.
type Kind string

const (
	KindConfig                  Kind = "config"
	KindEncoding                Kind = "encoding"
	KindAdapter                 Kind = "adapter"
	KindSkill                   Kind = "skill"
	KindLLM                     Kind = "llm"
	KindInvalidStateTransition Kind = "invalid_state_transition"
)

// Error is the common error type raised by negotiation components. Kind
// lets callers classify a failure without string matching.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func NewConfigError(msg string) error { return newErr(KindConfig, msg, nil) }

func NewEncodingError(msg string, cause error) error { return newErr(KindEncoding, msg, cause) }

func NewAdapterError(msg string, cause error) error { return newErr(KindAdapter, msg, cause) }

func NewSkillError(msg string) error { return newErr(KindSkill, msg, nil) }

func NewSkillErrorf(format string, args ...any) error {
	return newErr(KindSkill, fmt.Sprintf(format, args...), nil)
}

func NewLLMError(msg string, cause error) error { return newErr(KindLLM, msg, cause) }

func NewInvalidTransitionError(from, to any) error {
	return newErr(KindInvalidStateTransition, fmt.Sprintf("invalid state transition: %v -> %v", from, to), nil)
}

// IsKind reports whether err (or something it wraps) is a *Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ee, ok := err.(*Error); ok {
			e = ee
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}

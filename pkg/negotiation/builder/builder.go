// Package builder provides a fluent API for assembling a negotiation
// engine.Engine from pluggable parts, filling in the same defaults the
// engine itself would apply when a dependency is left unset.
package builder

import (
	"time"

	"github.com/demandmesh/negotiator/pkg/negotiation/engine"
	"github.com/demandmesh/negotiator/pkg/negotiation/hdc"
	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
	"github.com/demandmesh/negotiator/pkg/negotiation/skills"
)

// EngineBuilder accumulates an Engine's collaborators before Build.
//
// Example:
//
//	eng, opts, err := builder.New().
//	    WithEncoder(embedder).
//	    WithPusher(kafkaPusher).
//	    WithLLMClient(anthropicClient).
//	    WithAdapter(profileAdapter).
//	    WithDefaultSkills().
//	    Build()
type EngineBuilder struct {
	encoder  protocol.Encoder
	detector protocol.ResonanceDetector
	pusher   protocol.EventPusher

	llmClient      protocol.LLMClient
	adapter        protocol.ProfileAdapter
	center         protocol.Skill
	formulation    protocol.Skill
	offer          protocol.Skill
	subNegotiation protocol.Skill
	gapRecursion   protocol.Skill

	kStar               int
	offerTimeout        time.Duration
	confirmationTimeout time.Duration
	awaitConfirmation   bool
	registerSession     engine.RegisterSessionFunc
	toolHandlers        []protocol.CenterToolHandler

	err error
}

// New starts a builder with a cosine ResonanceDetector and a k_star of 5.
// Build requires an encoder, LLM client, adapter and center skill; the
// event pusher may be left unset, in which case events are not pushed.
func New() *EngineBuilder {
	return &EngineBuilder{detector: hdc.NewCosineDetector(), kStar: 5}
}

func (b *EngineBuilder) WithEncoder(e protocol.Encoder) *EngineBuilder {
	b.encoder = e
	return b
}

// WithResonanceDetector overrides the default cosine detector.
func (b *EngineBuilder) WithResonanceDetector(d protocol.ResonanceDetector) *EngineBuilder {
	b.detector = d
	return b
}

func (b *EngineBuilder) WithPusher(p protocol.EventPusher) *EngineBuilder {
	b.pusher = p
	return b
}

func (b *EngineBuilder) WithLLMClient(c protocol.LLMClient) *EngineBuilder {
	b.llmClient = c
	return b
}

func (b *EngineBuilder) WithAdapter(a protocol.ProfileAdapter) *EngineBuilder {
	b.adapter = a
	return b
}

func (b *EngineBuilder) WithCenter(s protocol.Skill) *EngineBuilder {
	b.center = s
	return b
}

func (b *EngineBuilder) WithFormulation(s protocol.Skill) *EngineBuilder {
	b.formulation = s
	return b
}

func (b *EngineBuilder) WithOffer(s protocol.Skill) *EngineBuilder {
	b.offer = s
	return b
}

func (b *EngineBuilder) WithSubNegotiation(s protocol.Skill) *EngineBuilder {
	b.subNegotiation = s
	return b
}

func (b *EngineBuilder) WithGapRecursion(s protocol.Skill) *EngineBuilder {
	b.gapRecursion = s
	return b
}

// WithDefaultSkills fills in Formulation/Offer/Center/SubNegotiation/
// GapRecursion with their standard implementations, for callers who don't
// need to substitute a custom skill.
func (b *EngineBuilder) WithDefaultSkills() *EngineBuilder {
	b.formulation = skills.NewFormulation()
	b.offer = skills.NewOffer()
	b.center = skills.NewCenter()
	b.subNegotiation = skills.NewSubNegotiation()
	b.gapRecursion = skills.NewGapRecursion()
	return b
}

func (b *EngineBuilder) WithKStar(k int) *EngineBuilder {
	b.kStar = k
	return b
}

func (b *EngineBuilder) WithOfferTimeout(d time.Duration) *EngineBuilder {
	b.offerTimeout = d
	return b
}

func (b *EngineBuilder) WithConfirmationTimeout(d time.Duration) *EngineBuilder {
	b.confirmationTimeout = d
	return b
}

func (b *EngineBuilder) WithAwaitConfirmation(await bool) *EngineBuilder {
	b.awaitConfirmation = await
	return b
}

func (b *EngineBuilder) WithRegisterSession(fn engine.RegisterSessionFunc) *EngineBuilder {
	b.registerSession = fn
	return b
}

func (b *EngineBuilder) WithToolHandler(h protocol.CenterToolHandler) *EngineBuilder {
	b.toolHandlers = append(b.toolHandlers, h)
	return b
}

// Build validates required dependencies and returns a configured Engine
// alongside the StartOptions template every negotiation should be started
// with (agent vectors and display names are per-negotiation and must still
// be set by the caller before Start).
func (b *EngineBuilder) Build() (*engine.Engine, engine.StartOptions, error) {
	if b.err != nil {
		return nil, engine.StartOptions{}, b.err
	}
	if b.encoder == nil {
		return nil, engine.StartOptions{}, protocol.NewConfigError("encoder is required")
	}
	if b.llmClient == nil {
		return nil, engine.StartOptions{}, protocol.NewConfigError("llm client is required")
	}
	if b.adapter == nil {
		return nil, engine.StartOptions{}, protocol.NewConfigError("adapter is required")
	}
	if b.center == nil {
		return nil, engine.StartOptions{}, protocol.NewConfigError("center skill is required")
	}

	eng := engine.New(b.encoder, b.detector, b.pusher)
	for _, h := range b.toolHandlers {
		if err := eng.RegisterToolHandler(h); err != nil {
			return nil, engine.StartOptions{}, err
		}
	}

	opts := engine.StartOptions{
		Adapter:             b.adapter,
		LLMClient:           b.llmClient,
		Center:              b.center,
		Formulation:         b.formulation,
		Offer:               b.offer,
		SubNegotiation:      b.subNegotiation,
		GapRecursion:        b.gapRecursion,
		KStar:               b.kStar,
		OfferTimeout:        b.offerTimeout,
		ConfirmationTimeout: b.confirmationTimeout,
		AwaitConfirmation:   b.awaitConfirmation,
		RegisterSession:     b.registerSession,
	}

	return eng, opts, nil
}

// Package engine implements the negotiation state machine: formulation,
// resonance-based candidate selection, concurrent offer collection under a
// barrier, and a bounded Center synthesis loop with tool dispatch and
// controlled recursion into sub-negotiations.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/demandmesh/negotiator/pkg/logger"
	"github.com/demandmesh/negotiator/pkg/negotiation/model"
	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

const (
	defaultOfferTimeout        = 30 * time.Second
	defaultConfirmationTimeout = 300 * time.Second
	defaultKStar               = 5
)

// RegisterSessionFunc lets a caller record a child session created during
// sub-demand recursion — e.g. inserting it into a session table keyed by id.
type RegisterSessionFunc func(child *model.NegotiationSession)

// StartOptions carries everything start_negotiation needs beyond the
// session itself (the encoder, detector and event pusher are given to New).
// Center is required: Start fails with a Config error at synthesis without
// it. Adapter and LLMClient are handed to the skills that use them. Zero
// timeouts fall back to their defaults, and a zero KStar falls back to 5
// when AgentVectors is non-nil.
type StartOptions struct {
	Adapter             protocol.ProfileAdapter
	LLMClient           protocol.LLMClient
	Center              protocol.Skill
	Formulation         protocol.Skill
	Offer               protocol.Skill
	SubNegotiation      protocol.Skill
	GapRecursion        protocol.Skill
	AgentVectors        []protocol.AgentVector
	KStar               int
	DisplayNames        map[string]string
	RegisterSession     RegisterSessionFunc
	OfferTimeout        time.Duration
	ConfirmationTimeout time.Duration
	AwaitConfirmation   bool
	// OfferConcurrency bounds how many offer-generation tasks run at once,
	// protecting shared LLM/adapter rate limits when a demand activates a
	// large participant set. Zero means unbounded (one goroutine per
	// participant, as the spec's fan-out model describes).
	OfferConcurrency int
}

// Engine drives NegotiationSession instances to completion. It holds no
// per-session state beyond the confirmation rendezvous and custom tool
// registry: each session is advanced by exactly one caller of Start.
type Engine struct {
	encoder  protocol.Encoder
	detector protocol.ResonanceDetector
	pusher   protocol.EventPusher

	mu           sync.Mutex
	toolHandlers map[string]protocol.CenterToolHandler

	confirmMu     sync.Mutex
	confirmations map[string]*confirmationSignal
}

type confirmationSignal struct {
	ch            chan string
	once          sync.Once
	confirmedText *string
}

// New builds an Engine. encoder, detector and pusher are shared by
// reference across every session it drives.
func New(encoder protocol.Encoder, detector protocol.ResonanceDetector, pusher protocol.EventPusher) *Engine {
	return &Engine{
		encoder:       encoder,
		detector:      detector,
		pusher:        pusher,
		toolHandlers:  make(map[string]protocol.CenterToolHandler),
		confirmations: make(map[string]*confirmationSignal),
	}
}

// RegisterToolHandler adds a custom Center tool. Colliding with a built-in
// name, including "output_plan", is a configuration error.
func (e *Engine) RegisterToolHandler(h protocol.CenterToolHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := h.ToolName()
	if builtinToolNames[name] {
		return protocol.NewConfigError(fmt.Sprintf("tool handler name %q collides with a built-in tool", name))
	}
	if _, exists := e.toolHandlers[name]; exists {
		return protocol.NewConfigError(fmt.Sprintf("tool handler %q already registered", name))
	}
	e.toolHandlers[name] = h
	return nil
}

func (e *Engine) toolHandler(name string) (protocol.CenterToolHandler, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.toolHandlers[name]
	return h, ok
}

var builtinToolNames = map[string]bool{
	"output_plan":       true,
	"ask_agent":         true,
	"start_discovery":   true,
	"create_sub_demand": true,
	"create_machine":    true,
}

// Start drives session from CREATED to COMPLETED, updating it in place. A
// nil error means session is now COMPLETED. A non-nil error means the session
// terminated before reaching COMPLETED because of a fatal failure; the
// session's State and PlanOutput still reflect the last valid progress.
func (e *Engine) Start(ctx context.Context, session *model.NegotiationSession, opts StartOptions) error {
	if opts.OfferTimeout <= 0 {
		opts.OfferTimeout = defaultOfferTimeout
	}
	if opts.ConfirmationTimeout <= 0 {
		opts.ConfirmationTimeout = defaultConfirmationTimeout
	}
	if opts.KStar == 0 && opts.AgentVectors != nil {
		opts.KStar = defaultKStar
	}

	log := logger.Negotiation(ctx, session.NegotiationID)

	if err := e.transition(session, model.StateFormulating); err != nil {
		return err
	}

	if err := e.runFormulation(ctx, session, opts); err != nil {
		return err
	}
	if err := e.transition(session, model.StateFormulated); err != nil {
		return err
	}

	if opts.AwaitConfirmation {
		e.awaitConfirmation(ctx, session, opts.ConfirmationTimeout)
	}

	if err := e.transition(session, model.StateEncoding); err != nil {
		return err
	}
	if err := e.runEncodingAndResonance(ctx, session, opts); err != nil {
		return err
	}

	if err := e.transition(session, model.StateOffering); err != nil {
		return err
	}
	e.runOfferBarrier(ctx, session, opts)

	if err := e.transition(session, model.StateBarrierWaiting); err != nil {
		return err
	}
	if err := e.transition(session, model.StateSynthesizing); err != nil {
		return err
	}

	if err := e.runSynthesis(ctx, session, opts); err != nil {
		log.Error("synthesis failed", "error", err)
		return err
	}

	return nil
}

func (e *Engine) transition(session *model.NegotiationSession, to model.NegotiationState) error {
	if !model.CanTransition(session.State, to) {
		return protocol.NewInvalidTransitionError(session.State, to)
	}
	session.State = to
	return nil
}

func (e *Engine) complete(session *model.NegotiationSession) error {
	if session.State == model.StateCompleted {
		return nil
	}
	if !model.CanTransition(session.State, model.StateCompleted) {
		return protocol.NewInvalidTransitionError(session.State, model.StateCompleted)
	}
	session.State = model.StateCompleted
	now := time.Now().UTC()
	session.CompletedAt = &now
	return nil
}

// pushEvent awaits the push but swallows any failure: per §4.7 the
// protocol never depends on observability.
func (e *Engine) pushEvent(ctx context.Context, session *model.NegotiationSession, event protocol.Event) {
	if e.pusher == nil {
		return
	}
	if err := e.pusher.Push(ctx, event); err != nil {
		logger.Negotiation(ctx, session.NegotiationID).Warn("event push failed", "event_type", event.EventType, "error", err)
	}
}

package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/demandmesh/negotiator/pkg/logger"
	"github.com/demandmesh/negotiator/pkg/negotiation/events"
	"github.com/demandmesh/negotiator/pkg/negotiation/model"
)

// runOfferBarrier launches one task per participant and waits for every one
// to reach a terminal participant state. Each task is bounded by its own
// timeout; a slow or failing agent never blocks the others, and no task
// failure is allowed to reach the caller — each is caught and turned into
// an EXITED transition. A weighted semaphore caps how many run at once when
// OfferConcurrency is set, without changing the one-task-per-participant
// shape the spec describes.
func (e *Engine) runOfferBarrier(ctx context.Context, session *model.NegotiationSession, opts StartOptions) {
	var sem *semaphore.Weighted
	if opts.OfferConcurrency > 0 {
		sem = semaphore.NewWeighted(int64(opts.OfferConcurrency))
	}

	var wg sync.WaitGroup
	wg.Add(len(session.Participants))

	for _, p := range session.Participants {
		go func(p *model.AgentParticipant) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Negotiation(ctx, session.NegotiationID).Error("offer task panicked", "agent_id", p.AgentID, "panic", r)
					p.State = model.AgentExited
				}
			}()
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					logger.Negotiation(ctx, session.NegotiationID).Warn("offer: could not acquire concurrency slot, exiting participant", "agent_id", p.AgentID, "error", err)
					p.State = model.AgentExited
					return
				}
				defer sem.Release(1)
			}
			e.runOneOffer(ctx, session, p, opts)
		}(p)
	}

	wg.Wait()

	received, exited := 0, 0
	for _, p := range session.Participants {
		switch p.State {
		case model.AgentReplied:
			received++
		case model.AgentExited:
			exited++
		}
	}
	e.pushEvent(ctx, session, events.BarrierCompleteEvent(session.NegotiationID, len(session.Participants), received, exited))
}

func (e *Engine) runOneOffer(ctx context.Context, session *model.NegotiationSession, p *model.AgentParticipant, opts StartOptions) {
	log := logger.Negotiation(ctx, session.NegotiationID)

	taskCtx, cancel := context.WithTimeout(ctx, opts.OfferTimeout)
	defer cancel()

	if opts.Offer == nil || opts.Adapter == nil {
		log.Warn("offer skill or adapter missing, exiting participant", "agent_id", p.AgentID)
		p.State = model.AgentExited
		return
	}

	profile, err := opts.Adapter.GetProfile(taskCtx, p.AgentID)
	if err != nil {
		log.Warn("offer: profile fetch failed, exiting participant", "agent_id", p.AgentID, "error", err)
		p.State = model.AgentExited
		return
	}

	result, err := opts.Offer.Execute(taskCtx, map[string]any{
		"agent_id":     p.AgentID,
		"demand_text":  session.Demand.Text(),
		"profile_data": profile,
		"adapter":      opts.Adapter,
	})
	if err != nil {
		log.Warn("offer: skill failed, exiting participant", "agent_id", p.AgentID, "error", err)
		p.State = model.AgentExited
		return
	}

	if taskCtx.Err() != nil {
		log.Warn("offer: timed out, exiting participant", "agent_id", p.AgentID)
		p.State = model.AgentExited
		return
	}

	content, _ := result["content"].(string)
	capabilities, _ := result["capabilities"].([]string)
	confidence, _ := result["confidence"].(float64)

	p.Offer = &model.Offer{
		AgentID:      p.AgentID,
		Content:      content,
		Capabilities: capabilities,
		Confidence:   confidence,
		CreatedAt:    time.Now().UTC(),
	}
	p.State = model.AgentReplied

	e.pushEvent(ctx, session, events.OfferReceivedEvent(session.NegotiationID, p.AgentID, p.DisplayName, content, capabilities))
}

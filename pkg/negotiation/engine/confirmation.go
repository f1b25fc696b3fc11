package engine

import (
	"context"
	"time"

	"github.com/demandmesh/negotiator/pkg/logger"
	"github.com/demandmesh/negotiator/pkg/negotiation/model"
)

// awaitConfirmation registers a rendezvous for session and blocks until
// either ConfirmFormulation fires it or timeout elapses, in which case the
// engine proceeds with the current FormulatedText unchanged.
func (e *Engine) awaitConfirmation(ctx context.Context, session *model.NegotiationSession, timeout time.Duration) {
	sig := &confirmationSignal{ch: make(chan string, 1)}

	e.confirmMu.Lock()
	e.confirmations[session.NegotiationID] = sig
	e.confirmMu.Unlock()

	defer func() {
		e.confirmMu.Lock()
		delete(e.confirmations, session.NegotiationID)
		e.confirmMu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case text := <-sig.ch:
		if text != "" {
			session.Demand.FormulatedText = text
		}
	case <-timer.C:
		logger.Negotiation(ctx, session.NegotiationID).Info("confirmation timeout elapsed, proceeding with current text")
	case <-ctx.Done():
	}
}

// ConfirmFormulation fires the rendezvous for negotiationID, optionally
// replacing FormulatedText. It returns false if no rendezvous is currently
// registered (the session never opted in, already progressed, or the id is
// unknown).
func (e *Engine) ConfirmFormulation(negotiationID string, confirmedText *string) bool {
	e.confirmMu.Lock()
	sig, ok := e.confirmations[negotiationID]
	e.confirmMu.Unlock()
	if !ok {
		return false
	}

	fired := false
	sig.once.Do(func() {
		text := ""
		if confirmedText != nil {
			text = *confirmedText
		}
		sig.ch <- text
		fired = true
	})
	return fired
}

// IsAwaitingConfirmation reports whether negotiationID currently has a
// registered confirmation rendezvous.
func (e *Engine) IsAwaitingConfirmation(negotiationID string) bool {
	e.confirmMu.Lock()
	defer e.confirmMu.Unlock()
	_, ok := e.confirmations[negotiationID]
	return ok
}

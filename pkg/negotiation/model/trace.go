package model

import "time"

// TraceEntry records one observable step of a negotiation's execution, for
// diagnostics and post-hoc replay. Optional — a session may run without a
// TraceChain attached.
type TraceEntry struct {
	Step           string
	Timestamp      time.Time
	DurationMS     *float64
	InputSummary   string
	OutputSummary  string
	Metadata       map[string]any
}

// TraceChain is the ordered list of TraceEntry for one negotiation.
type TraceChain struct {
	NegotiationID string
	Entries       []TraceEntry
	StartedAt     time.Time
	CompletedAt   *time.Time
}

// Add appends an entry and returns it.
func (t *TraceChain) Add(step string) *TraceEntry {
	t.Entries = append(t.Entries, TraceEntry{Step: step, Timestamp: time.Now().UTC()})
	return &t.Entries[len(t.Entries)-1]
}

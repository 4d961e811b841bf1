package desk

import (
	"context"
	"time"

	"quality-desk/internal/analysis"
	"quality-desk/internal/complaints"
)

const defaultAnalysisTimeout = 8 * time.Second

// Intake is the submission path: validate, enrich, store.
type Intake struct {
	store    *Store
	analyzer analysis.Analyzer
	timeout  time.Duration
	clock    func() time.Time
}

// NewIntake wires a store to an optional analyzer. A nil analyzer skips
// enrichment.
func NewIntake(store *Store, analyzer analysis.Analyzer, timeout time.Duration) *Intake {
	if timeout <= 0 {
		timeout = defaultAnalysisTimeout
	}
	return &Intake{store: store, analyzer: analyzer, timeout: timeout, clock: time.Now}
}

// Submit rejects invalid drafts before they reach the store. Analysis can
// only add to the record; its failure never blocks submission. A returned
// *TransportError means the record is kept locally and unsynced.
func (in *Intake) Submit(ctx context.Context, draft complaints.Complaint) (Record, error) {
	c, err := complaints.Normalize(draft, in.clock())
	if err != nil {
		return Record{}, err
	}
	res := analysis.Degrade(ctx, in.analyzer, c.Description, in.timeout)
	if c.Sentiment == "" {
		c.Sentiment = res.Sentiment
	}
	if c.SuggestedResponse == "" {
		c.SuggestedResponse = res.SuggestedResponse
	}
	if draft.Priority == "" && res.Priority != "" {
		c.Priority = res.Priority
	}
	return in.store.Add(ctx, c)
}

// Package proctor accumulates browser-reported integrity violations. Events
// are append-only; a student is flagged once their cumulative count exceeds
// the configured maximum. Flagging never blocks progression, it only marks
// the student for admin attention.
package proctor

import (
	"log/slog"

	"github.com/pranavkale/placement-cell/internal/model"
	"github.com/pranavkale/placement-cell/internal/store"
)

// Verdict is the state after recording or inspecting violations.
type Verdict struct {
	Count   int  `json:"count"`
	Flagged bool `json:"flagged"`
}

// Accumulator records violations and derives the flagged state.
type Accumulator struct {
	store *store.Store
	max   int
}

func New(s *store.Store, maxViolations int) *Accumulator {
	return &Accumulator{store: s, max: maxViolations}
}

// Record appends one violation and returns the student's updated verdict.
func (a *Accumulator) Record(ev model.ProctorEvent) (Verdict, error) {
	if _, err := a.store.InsertProctorEvent(ev); err != nil {
		return Verdict{}, err
	}
	v, err := a.Verdict(ev.UserID)
	if err != nil {
		return Verdict{}, err
	}
	if v.Flagged {
		slog.Warn("student flagged for proctoring violations",
			"user_id", ev.UserID, "count", v.Count, "max", a.max)
	}
	return v, nil
}

// Verdict returns the current violation count and flagged state. Flagged
// means strictly more violations than the allowed maximum.
func (a *Accumulator) Verdict(userID int64) (Verdict, error) {
	count, err := a.store.CountProctorEvents(userID)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Count: count, Flagged: count > a.max}, nil
}

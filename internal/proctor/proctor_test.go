package proctor

import (
	"testing"

	"github.com/pranavkale/placement-cell/internal/model"
	"github.com/pranavkale/placement-cell/internal/store"
)

func newTestAccumulator(t *testing.T, max int) (*Accumulator, int64) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	uid, err := s.CreateUser(model.User{
		Email: "p@test.edu", FirstName: "P", LastName: "T", PRN: "PRN-P",
		PasswordHash: "hash", Department: "MBA", Role: model.UserRoleStudent,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return New(s, max), uid
}

func event(uid int64) model.ProctorEvent {
	return model.ProctorEvent{
		UserID:        uid,
		ViolationType: "tab_switch",
		RoundName:     "aptitude",
		Details:       map[string]any{"source": "visibilitychange"},
	}
}

func TestFlaggingThresholdIsStrict(t *testing.T) {
	const max = 5
	acc, uid := newTestAccumulator(t, max)

	// Up to and including the maximum, the student stays unflagged.
	for i := 1; i <= max; i++ {
		v, err := acc.Record(event(uid))
		if err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
		if v.Count != i {
			t.Errorf("after %d events: expected count %d, got %d", i, i, v.Count)
		}
		if v.Flagged {
			t.Errorf("after %d events: must not be flagged at or below max %d", i, max)
		}
	}

	// One more crosses the threshold.
	v, err := acc.Record(event(uid))
	if err != nil {
		t.Fatalf("Record over max: %v", err)
	}
	if !v.Flagged {
		t.Errorf("after %d events with max %d: must be flagged", max+1, max)
	}
	if v.Count != max+1 {
		t.Errorf("expected count %d, got %d", max+1, v.Count)
	}
}

func TestVerdictWithoutEvents(t *testing.T) {
	acc, uid := newTestAccumulator(t, 5)
	v, err := acc.Verdict(uid)
	if err != nil {
		t.Fatalf("Verdict: %v", err)
	}
	if v.Count != 0 || v.Flagged {
		t.Errorf("fresh student: expected 0/unflagged, got %+v", v)
	}
}

package model

import (
	"testing"
)

// TestUnitStateTransitions tests the forward-only state machine.
func TestUnitStateTransitions(t *testing.T) {
	t.Parallel()

	t.Run("happy path reaches DONE", func(t *testing.T) {
		t.Parallel()

		u := &CrawlUnit{SchoolName: "Georgia State University", SubjectName: "CS", Semester: "Fall 2025"}

		path := []UnitState{
			StateFetching, StateFetched, StateExtracting,
			StateExtracted, StateNormalizing, StatePersisting, StateDone,
		}
		for _, next := range path {
			if err := u.Transition(next); err != nil {
				t.Fatalf("transition to %s failed: %v", next, err)
			}
		}
		if !u.State().Terminal() {
			t.Error("DONE should be terminal")
		}
	})

	t.Run("fetch failure is terminal", func(t *testing.T) {
		t.Parallel()

		u := &CrawlUnit{}
		if err := u.Transition(StateFetching); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := u.Transition(StateFetchFailed); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !u.State().Terminal() {
			t.Error("FETCH_FAILED should be terminal")
		}
		if err := u.Transition(StateExtracting); err == nil {
			t.Error("expected error transitioning out of terminal state")
		}
	})

	t.Run("no backward transitions", func(t *testing.T) {
		t.Parallel()

		u := &CrawlUnit{}
		if err := u.Transition(StateFetching); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := u.Transition(StatePending); err == nil {
			t.Error("expected error on backward transition")
		}
	})

	t.Run("cannot skip states", func(t *testing.T) {
		t.Parallel()

		u := &CrawlUnit{}
		if err := u.Transition(StateDone); err == nil {
			t.Error("expected error skipping from PENDING to DONE")
		}
	})
}

// TestUnitStateString tests state names.
func TestUnitStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state UnitState
		want  string
	}{
		{StatePending, "PENDING"},
		{StateFetchFailed, "FETCH_FAILED"},
		{StateExtractFailed, "EXTRACT_FAILED"},
		{StateDone, "DONE"},
		{StateRejected, "REJECTED"},
		{UnitState(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("UnitState(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

// TestUnitID tests the stable artifact identifier.
func TestUnitID(t *testing.T) {
	t.Parallel()

	u := &CrawlUnit{
		SchoolName:  "Georgia State University",
		SubjectName: "CSC - Computer Science",
		Semester:    "Fall 2025",
	}

	got := u.ID()
	want := "georgia-state-university_csc-computer-science_fall-2025"
	if got != want {
		t.Errorf("ID() = %q, want %q", got, want)
	}

	// Must be stable across calls.
	if again := u.ID(); again != got {
		t.Errorf("ID() not stable: %q then %q", got, again)
	}
}

// TestRunSummaryCounters tests concurrent-safe counter accumulation.
func TestRunSummaryCounters(t *testing.T) {
	t.Parallel()

	s := NewRunSummary("test-run")

	s.UnitAttempted()
	s.UnitAttempted()
	s.UnitSucceeded()
	s.PageFetched()
	s.PageFailed("unit-a", ReasonNetworkTransient)
	s.RecordsFound(5)
	s.RecordPersisted()
	s.RecordRejected(ReasonInvalidCreditHours)
	s.RecordRejected(ReasonInvalidCreditHours)
	s.DuplicateSuppressed()
	s.Finish()

	if s.UnitsAttempted != 2 {
		t.Errorf("UnitsAttempted = %d, want 2", s.UnitsAttempted)
	}
	if s.UnitsSucceeded != 1 {
		t.Errorf("UnitsSucceeded = %d, want 1", s.UnitsSucceeded)
	}
	if s.PagesFailed != 1 {
		t.Errorf("PagesFailed = %d, want 1", s.PagesFailed)
	}
	if s.RecordsExtracted != 5 {
		t.Errorf("RecordsExtracted = %d, want 5", s.RecordsExtracted)
	}
	if s.RejectReasons[ReasonInvalidCreditHours] != 2 {
		t.Errorf("INVALID_CREDIT_HOURS bucket = %d, want 2", s.RejectReasons[ReasonInvalidCreditHours])
	}
	if s.RejectReasons[ReasonNetworkTransient] != 1 {
		t.Errorf("NETWORK_TRANSIENT bucket = %d, want 1", s.RejectReasons[ReasonNetworkTransient])
	}
	if len(s.FailedUnits) != 1 || s.FailedUnits[0] != "unit-a" {
		t.Errorf("FailedUnits = %v, want [unit-a]", s.FailedUnits)
	}
	if s.Elapsed() < 0 {
		t.Error("Elapsed should be non-negative after Finish")
	}
}

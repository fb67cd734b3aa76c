package model

import (
	"sync"
	"time"
)

// RunSummary accumulates per-run counters and is emitted at the end of a
// crawl. All mutation goes through methods holding the internal mutex so
// concurrent crawl workers can report into one summary.
//
// Design decision: Counters live behind a mutex rather than atomics because
// several of them (reason buckets, failed units) are map and slice appends
// that need the lock anyway, and the summary is nowhere near hot enough for
// lock contention to matter.
type RunSummary struct {
	mu sync.Mutex

	// RunID uniquely identifies this crawl run.
	RunID string `json:"run_id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended (set by Finish).
	FinishedAt time.Time `json:"finished_at"`

	// UnitsAttempted counts crawl units that left PENDING.
	UnitsAttempted int `json:"units_attempted"`

	// UnitsSucceeded counts units that reached DONE.
	UnitsSucceeded int `json:"units_succeeded"`

	// PagesFetched counts successful page fetches.
	PagesFetched int `json:"pages_fetched"`

	// PagesFailed counts pages that failed after retry exhaustion or a
	// fatal error.
	PagesFailed int `json:"pages_failed"`

	// RecordsExtracted counts raw records produced by the extractor.
	RecordsExtracted int `json:"records_extracted"`

	// RecordsPersisted counts records committed to the store.
	RecordsPersisted int `json:"records_persisted"`

	// RecordsRejected counts records rejected by the normalizer or rolled
	// back by the persister.
	RecordsRejected int `json:"records_rejected"`

	// DuplicatesSuppressed counts records collapsed by in-run dedup.
	DuplicatesSuppressed int `json:"duplicates_suppressed"`

	// RejectReasons buckets rejections and page failures by taxonomy
	// reason.
	RejectReasons map[Reason]int `json:"reject_reasons"`

	// FailedUnits lists the IDs of units that ended in a failure state,
	// for correlation with debug artifacts.
	FailedUnits []string `json:"failed_units,omitempty"`
}

// NewRunSummary creates a summary for a run starting now.
func NewRunSummary(runID string) *RunSummary {
	return &RunSummary{
		RunID:         runID,
		StartedAt:     time.Now().UTC(),
		RejectReasons: make(map[Reason]int),
	}
}

// UnitAttempted records a unit leaving PENDING.
func (s *RunSummary) UnitAttempted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UnitsAttempted++
}

// UnitSucceeded records a unit reaching DONE.
func (s *RunSummary) UnitSucceeded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UnitsSucceeded++
}

// PageFetched records a successful fetch.
func (s *RunSummary) PageFetched() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PagesFetched++
}

// PageFailed records a permanently failed page under the given reason and
// remembers the unit for artifact correlation.
func (s *RunSummary) PageFailed(unitID string, reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PagesFailed++
	s.RejectReasons[reason]++
	s.FailedUnits = append(s.FailedUnits, unitID)
}

// RecordsFound adds to the extracted-record count.
func (s *RunSummary) RecordsFound(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RecordsExtracted += n
}

// RecordPersisted records a committed record.
func (s *RunSummary) RecordPersisted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RecordsPersisted++
}

// RecordRejected buckets a rejected record under its reason.
func (s *RunSummary) RecordRejected(reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RecordsRejected++
	s.RejectReasons[reason]++
}

// DuplicateSuppressed records one collapsed duplicate.
func (s *RunSummary) DuplicateSuppressed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DuplicatesSuppressed++
}

// SoftWarning buckets a partial-parse warning without failing the unit.
func (s *RunSummary) SoftWarning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RejectReasons[ReasonParseSoft]++
}

// Finish stamps the end time.
func (s *RunSummary) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FinishedAt = time.Now().UTC()
}

// Elapsed returns the run duration. Zero if the run has not finished.
func (s *RunSummary) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

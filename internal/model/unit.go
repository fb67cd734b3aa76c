package model

import (
	"fmt"
	"regexp"
	"strings"
)

// UnitState is the lifecycle state of a crawl unit. Units only move
// forward; a failure is terminal for that unit and never aborts the run.
type UnitState int

// Crawl unit states, in lifecycle order.
const (
	// StatePending means the unit has been enumerated but not started.
	StatePending UnitState = iota

	// StateFetching means the unit's result page request is in flight
	// (including retries).
	StateFetching

	// StateFetched means the page body was retrieved.
	StateFetched

	// StateFetchFailed means all retries were exhausted or the failure
	// was fatal. Terminal.
	StateFetchFailed

	// StateExtracting means the page body is being parsed.
	StateExtracting

	// StateExtracted means raw records (possibly zero) were produced.
	StateExtracted

	// StateExtractFailed means the page was unparsable. Terminal.
	StateExtractFailed

	// StateNormalizing means raw records are being canonicalized.
	StateNormalizing

	// StatePersisting means normalized records are being upserted.
	StatePersisting

	// StateDone means the unit completed. Terminal.
	StateDone

	// StateRejected means every record the unit produced was rejected.
	// Terminal.
	StateRejected
)

// String returns the state name used in logs and summaries.
func (s UnitState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateFetching:
		return "FETCHING"
	case StateFetched:
		return "FETCHED"
	case StateFetchFailed:
		return "FETCH_FAILED"
	case StateExtracting:
		return "EXTRACTING"
	case StateExtracted:
		return "EXTRACTED"
	case StateExtractFailed:
		return "EXTRACT_FAILED"
	case StateNormalizing:
		return "NORMALIZING"
	case StatePersisting:
		return "PERSISTING"
	case StateDone:
		return "DONE"
	case StateRejected:
		return "REJECTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// Terminal reports whether the state ends the unit's lifecycle.
func (s UnitState) Terminal() bool {
	switch s {
	case StateDone, StateFetchFailed, StateExtractFailed, StateRejected:
		return true
	default:
		return false
	}
}

// validTransitions enumerates the allowed forward edges of the unit state
// machine. Anything not listed is a programming error.
var validTransitions = map[UnitState][]UnitState{
	StatePending:     {StateFetching},
	StateFetching:    {StateFetched, StateFetchFailed},
	StateFetched:     {StateExtracting},
	StateExtracting:  {StateExtracted, StateExtractFailed},
	StateExtracted:   {StateNormalizing},
	StateNormalizing: {StatePersisting},
	StatePersisting:  {StateDone, StateRejected},
}

// CrawlUnit is one (school, subject, term) combination driving one
// fetch-extract-normalize-persist cycle.
type CrawlUnit struct {
	// SchoolValue is the portal's form value for the school.
	SchoolValue string

	// SchoolName is the school's display name.
	SchoolName string

	// SubjectValue is the portal's form value for the subject.
	SubjectValue string

	// SubjectName is the subject's display name.
	SubjectName string

	// Semester is the term label the unit runs against.
	Semester string

	// state is the unit's current lifecycle state.
	state UnitState
}

// State returns the unit's current state.
func (u *CrawlUnit) State() UnitState {
	return u.state
}

// Transition moves the unit to the next state, enforcing forward-only
// movement. Returns an error on an illegal edge rather than panicking so
// the orchestrator can surface it in the summary.
func (u *CrawlUnit) Transition(next UnitState) error {
	for _, allowed := range validTransitions[u.state] {
		if allowed == next {
			u.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal unit transition %s -> %s for %s", u.state, next, u.ID())
}

// idSanitizer strips characters unsafe in file names and identifiers.
var idSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and replaces runs of non-alphanumeric characters with
// a dash. Used for unit identifiers and snapshot file names.
func Slug(s string) string {
	return strings.Trim(idSanitizer.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// ID returns a stable identifier for the unit, derived from its request
// parameters. Used to key debug artifacts and log lines so a failed fetch
// can be correlated with its saved body across runs.
func (u *CrawlUnit) ID() string {
	return Slug(u.SchoolName) + "_" + Slug(u.SubjectName) + "_" + Slug(u.Semester)
}

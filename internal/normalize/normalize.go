package normalize

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/transfermap/transfermap/internal/model"
)

// RejectionError reports why a record was rejected. It carries the
// taxonomy reason so the orchestrator can bucket it into the summary.
type RejectionError struct {
	// Reason is the taxonomy bucket.
	Reason model.Reason

	// Field names the offending field.
	Field string

	// Value is the raw value that failed.
	Value string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	return fmt.Sprintf("record rejected (%s): %s=%q", e.Reason, e.Field, e.Value)
}

// codePattern is the canonical course code grammar after whitespace
// stripping: a letter prefix, digits, and an optional letter suffix for
// lab sections ("BIOS1107L").
var codePattern = regexp.MustCompile(`^([A-Z]+)([0-9]+[A-Z]*)$`)

// CourseCode canonicalizes a course code: strip all whitespace,
// uppercase, then re-insert a single space between the letter prefix and
// the trailing digit run. "cs 1331", "CS1331" and "CS  1331" all become
// "CS 1331".
func CourseCode(raw string) (string, error) {
	stripped := strings.ToUpper(strings.Join(strings.Fields(raw), ""))

	m := codePattern.FindStringSubmatch(stripped)
	if m == nil {
		return "", &RejectionError{Reason: model.ReasonMalformedCode, Field: "code", Value: raw}
	}

	return m[1] + " " + m[2], nil
}

// CreditHours parses a credit-hour value, requiring a strictly positive
// real number. "0", "-1", "N/A" and "" are all rejections, never
// defaults.
func CreditHours(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 {
		return 0, &RejectionError{Reason: model.ReasonInvalidCreditHours, Field: "credit_hours", Value: raw}
	}
	return v, nil
}

// SchoolName trims and collapses internal whitespace. The result is the
// School's unique key and is compared case-sensitively; two spellings
// differing only in case become distinct Schools. A deliberate
// simplification.
func SchoolName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Normalizer canonicalizes records and collapses in-run duplicates.
// One Normalizer spans one crawl run; its duplicate set must not outlive
// the run, because re-runs rely on the store's uniqueness constraints,
// not on this cache. Safe for concurrent use by crawl workers.
type Normalizer struct {
	// mu guards seen and suppressed.
	mu sync.Mutex

	// seen tracks deduplication keys observed this run.
	seen map[model.DedupeKey]bool

	// suppressed counts duplicates collapsed this run.
	suppressed int

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// New creates a Normalizer for one crawl run.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		seen:   make(map[model.DedupeKey]bool),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Normalize canonicalizes one raw record. Returns a *RejectionError (as
// error) when a field fails validation. A nil record with nil error means
// the record was a duplicate of one already seen this run; the first-seen
// title and credit-hour values win.
func (n *Normalizer) Normalize(raw model.RawRecord) (*model.NormalizedRecord, error) {
	gtCode, err := CourseCode(raw.GTCode)
	if err != nil {
		return nil, err
	}

	extCode, err := CourseCode(raw.ExternalCode)
	if err != nil {
		return nil, err
	}

	gtHours, err := CreditHours(raw.GTCreditHours)
	if err != nil {
		return nil, err
	}

	extHours, err := CreditHours(raw.ExternalCreditHours)
	if err != nil {
		return nil, err
	}

	rec := &model.NormalizedRecord{
		SchoolName:          SchoolName(raw.SchoolName),
		GTCode:              gtCode,
		GTTitle:             strings.TrimSpace(raw.GTTitle),
		GTCreditHours:       gtHours,
		ExternalCode:        extCode,
		ExternalTitle:       strings.TrimSpace(raw.ExternalTitle),
		ExternalCreditHours: extHours,
		Semester:            strings.TrimSpace(raw.Semester),
	}

	key := rec.Key()
	n.mu.Lock()
	dup := n.seen[key]
	if dup {
		n.suppressed++
	} else {
		n.seen[key] = true
	}
	n.mu.Unlock()

	if dup {
		n.logger.Debug("duplicate record suppressed",
			"gt_code", key.GTCode,
			"school", key.SchoolName,
			"external_code", key.ExternalCode,
		)
		return nil, nil
	}

	return rec, nil
}

// Suppressed returns how many duplicates were collapsed this run.
func (n *Normalizer) Suppressed() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.suppressed
}

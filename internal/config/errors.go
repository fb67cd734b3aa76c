package config

import "errors"

// Configuration validation errors returned by Config.Validate().
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrMissingBaseURL is returned when no portal entry URL is configured.
	ErrMissingBaseURL = errors.New("missing base URL: set BASE_URL or --base-url")

	// ErrMissingSemester is returned when no term label is configured.
	// The semester is submitted with every search and stamped on every
	// persisted equivalency, so the crawl cannot run without one.
	ErrMissingSemester = errors.New("missing semester: set SEMESTER or --semester")

	// ErrInvalidRequestBudget is returned when the per-minute request
	// budget is not positive. Zero would deadlock every fetch.
	ErrInvalidRequestBudget = errors.New("invalid request budget: requests per minute must be positive")

	// ErrInvalidRetryMax is returned when the retry budget is not positive.
	ErrInvalidRetryMax = errors.New("invalid retry max: must be positive")

	// ErrInvalidRetryBackoff is returned when the initial retry delay is
	// not positive.
	ErrInvalidRetryBackoff = errors.New("invalid retry backoff: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidSemesterPolicy is returned for a policy other than
	// "overwrite" or "keep".
	ErrInvalidSemesterPolicy = errors.New("invalid semester policy: must be overwrite or keep")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is
	// negative. Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)

package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Politeness settings are deliberately
// conservative: the upstream portal is an institutional legacy system
// that was not built with crawlers in mind.
const (
	// DefaultBaseURL is the entry point of the transfer equivalency
	// search flow.
	DefaultBaseURL = "https://oscar.gatech.edu/pls/bprod/wwsktrna.P_find_location"

	// DefaultStateName is the state whose institutions are crawled.
	DefaultStateName = "Georgia"

	// DefaultLevel is the course level submitted with every search.
	DefaultLevel = "Undergraduate"

	// DefaultSemester is the term label submitted with every search and
	// stamped on persisted equivalencies.
	DefaultSemester = "Fall 2025"

	// DefaultRequestsPerMinute is the rolling-window request budget.
	// Eight requests per minute keeps a full crawl under the portal's
	// radar while still finishing in hours, not days.
	DefaultRequestsPerMinute = 8

	// DefaultRetryMax is the total attempt budget per page.
	DefaultRetryMax = 3

	// DefaultRetryBackoff is the initial delay between retry attempts.
	// Doubles per attempt with jitter.
	DefaultRetryBackoff = 2 * time.Second

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the crawler and a contact point so the
	// portal's operators can see who is calling.
	DefaultUserAgent = "TransferMap/1.0 (+https://github.com/transfermap/transfermap)"

	// DefaultWorkers is the number of concurrent crawl units. One by
	// default: the portal's session-driven form flow is friendlier to a
	// sequential caller, and the rate limiter is the real throttle.
	DefaultWorkers = 1

	// DefaultMaxBodySize limits response bodies to prevent memory
	// exhaustion from an unexpectedly large page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "transfermap"
)

// Config holds all configuration options for a crawl run.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, StoreConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// BaseURL is the entry point of the portal's search flow. The
	// navigation steps discover every subsequent URL from the forms the
	// portal serves.
	BaseURL string

	// StateName is the visible text of the state option to select.
	StateName string

	// Level is the visible text of the course level option to select.
	Level string

	// Semester is the visible text of the term option to select. Also
	// stamped on every persisted equivalency.
	Semester string

	// RequestsPerMinute is the rolling-window request budget shared by
	// every worker. No request bypasses it.
	RequestsPerMinute int

	// RetryMax is the total attempt budget per page fetch.
	RetryMax int

	// RetryBackoff is the initial delay between retry attempts.
	RetryBackoff time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// UserAgent is the identifying User-Agent header sent with every
	// request.
	UserAgent string

	// SchoolNameFilter restricts the crawl to schools whose name starts
	// with this prefix (case-insensitive). Empty means all schools.
	SchoolNameFilter string

	// SubjectPrefixFilter restricts the crawl to subjects whose label
	// starts with this prefix (case-sensitive, matching the portal's
	// subject labels). Empty means all subjects.
	SubjectPrefixFilter string

	// Workers is the number of concurrent crawl units.
	Workers int

	// SemesterPolicy decides what a repeat equivalency observation with a
	// different semester does: "overwrite" (default) or "keep".
	SemesterPolicy string

	// DBPath is the SQLite database file path. Defaults to the XDG data
	// directory.
	DBPath string

	// ArtifactDir is where debug HTML bodies of failed fetches are
	// written.
	ArtifactDir string

	// SnapshotDir is where JSON snapshots (full dataset and per school)
	// are written.
	SnapshotDir string

	// ProfilePath is the path to an optional YAML crawl profile. If
	// empty, .transfermap.yml is searched in the current and home
	// directories.
	ProfilePath string

	// Verbose enables debug-level log output.
	Verbose bool

	// JSONReport emits the run summary as JSON instead of plain text.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport emits the run summary as Markdown instead of plain
	// text. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file for the run summary. When empty, the
	// summary is written to stdout.
	ReportFile string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		StateName:         DefaultStateName,
		Level:             DefaultLevel,
		Semester:          DefaultSemester,
		RequestsPerMinute: DefaultRequestsPerMinute,
		RetryMax:          DefaultRetryMax,
		RetryBackoff:      DefaultRetryBackoff,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		Workers:           DefaultWorkers,
		SemesterPolicy:    "overwrite",
		DBPath:            filepath.Join(XDGDataDir(), "transfermap.db"),
		ArtifactDir:       filepath.Join(XDGDataDir(), "debug"),
		SnapshotDir:       filepath.Join(XDGDataDir(), "snapshots"),
		MaxBodySize:       DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for TransferMap.
// On Linux: ~/.local/share/transfermap
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for TransferMap.
// On Linux: ~/.config/transfermap
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid, returning the first
// problem found. Called once after flag parsing, before any crawling
// begins, so misconfiguration fails fast.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Semester == "" {
		return ErrMissingSemester
	}
	if c.RequestsPerMinute <= 0 {
		return ErrInvalidRequestBudget
	}
	if c.RetryMax <= 0 {
		return ErrInvalidRetryMax
	}
	if c.RetryBackoff <= 0 {
		return ErrInvalidRetryBackoff
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.SemesterPolicy != "overwrite" && c.SemesterPolicy != "keep" {
		return ErrInvalidSemesterPolicy
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}

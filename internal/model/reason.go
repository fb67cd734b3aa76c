package model

// Reason classifies why a record or page was rejected or failed. Reasons
// are counted into labeled buckets on the run summary; no rejection is ever
// silently discarded.
//
// Design decision: We use a string type rather than iota constants because
// reasons appear verbatim in JSON summaries and log lines, and a stable
// wire representation matters more than compactness here.
type Reason string

// Page-level and record-level failure reasons.
const (
	// ReasonNetworkTransient marks a fetch that failed with a retryable
	// error (timeout, 5xx, connection reset) and exhausted its retries.
	ReasonNetworkTransient Reason = "NETWORK_TRANSIENT"

	// ReasonNetworkFatal marks a fetch that failed with a non-retryable
	// error (malformed URL, 4xx other than 429).
	ReasonNetworkFatal Reason = "NETWORK_FATAL"

	// ReasonRateLimited marks an upstream 429. Treated as transient.
	ReasonRateLimited Reason = "RATE_LIMITED"

	// ReasonParseSoft marks a page that yielded partial records plus a
	// warning. The unit still proceeds with what was extracted.
	ReasonParseSoft Reason = "PARSE_SOFT"

	// ReasonParseHard marks an unparsable page; the unit is terminal.
	ReasonParseHard Reason = "PARSE_HARD"

	// ReasonMalformedCode marks a record whose course code does not match
	// the LETTERS+DIGITS grammar.
	ReasonMalformedCode Reason = "MALFORMED_CODE"

	// ReasonInvalidCreditHours marks a record whose credit hours are
	// unparsable or not strictly positive.
	ReasonInvalidCreditHours Reason = "INVALID_CREDIT_HOURS"

	// ReasonIntegrityViolation marks a record whose persistence
	// transaction rolled back on a constraint violation.
	ReasonIntegrityViolation Reason = "INTEGRITY_VIOLATION"
)

// String returns the reason label.
func (r Reason) String() string {
	return string(r)
}

package model

// RawRecord is one equivalency row exactly as extracted from a result page.
// All fields are raw strings as found in the HTML; no normalization has
// happened yet. Credit hours stay strings here because the upstream table
// sometimes contains values like "N/A" that the normalizer must reject
// rather than the extractor silently coercing.
type RawRecord struct {
	// SchoolName is the external institution's display name.
	SchoolName string

	// Subject is the subject label of the crawl unit that produced this
	// record (e.g. "CS - Computer Science"). Kept for snapshots and logs.
	Subject string

	// GTCode is the home-institution course code as scraped ("CS1331").
	GTCode string

	// GTTitle is the home-institution course title.
	GTTitle string

	// GTCreditHours is the home-institution credit hours as scraped.
	GTCreditHours string

	// ExternalCode is the external course code as scraped.
	ExternalCode string

	// ExternalTitle is the external course title. May be empty; the
	// upstream table omits it for some rows.
	ExternalTitle string

	// ExternalCreditHours is the external credit hours as scraped.
	ExternalCreditHours string

	// Semester is the term label the crawl ran against ("Fall 2025").
	Semester string
}

// NormalizedRecord is a RawRecord after canonicalization. It is the unit of
// persistence: one NormalizedRecord maps to one School, one GTCourse, one
// ExternalCourse, and one Equivalency upsert.
type NormalizedRecord struct {
	// SchoolName is trimmed with internal whitespace collapsed. It is the
	// School's unique key and is compared case-sensitively.
	SchoolName string

	// GTCode is in canonical "PREFIX NNNN" form.
	GTCode string

	// GTTitle is the home-institution course title, trimmed.
	GTTitle string

	// GTCreditHours is a strictly positive credit-hour value.
	GTCreditHours float64

	// ExternalCode is in canonical "PREFIX NNNN" form.
	ExternalCode string

	// ExternalTitle is the external course title, trimmed. Empty when the
	// source omitted it.
	ExternalTitle string

	// ExternalCreditHours is a strictly positive credit-hour value.
	ExternalCreditHours float64

	// Semester is the term label.
	Semester string
}

// DedupeKey identifies a normalized record for in-run deduplication.
// Two records with the same key are the same fact observed twice; the
// first observation wins.
type DedupeKey struct {
	GTCode       string
	SchoolName   string
	ExternalCode string
	Semester     string
}

// Key returns the record's deduplication key.
func (r NormalizedRecord) Key() DedupeKey {
	return DedupeKey{
		GTCode:       r.GTCode,
		SchoolName:   r.SchoolName,
		ExternalCode: r.ExternalCode,
		Semester:     r.Semester,
	}
}

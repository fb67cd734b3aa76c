// Package normalize canonicalizes raw equivalency records and
// deduplicates them within a crawl run.
//
// Canonical course codes have the form "PREFIX NNNN": whitespace
// stripped, uppercased, one space re-inserted between the letter prefix
// and the digits. Lab and section suffixes are preserved ("BIOS 1107L").
// Credit hours must parse as strictly positive real numbers; anything
// else rejects the record with a taxonomy reason rather than coercing it.
package normalize

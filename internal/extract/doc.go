// Package extract parses the portal's semi-structured HTML. It has two
// halves: form navigation helpers that drive the multi-step search flow
// (hidden-input harvesting, option lookup by visible text, select
// discovery), and the equivalency-table extractor that turns a result page
// into raw records.
//
// Design decision: We parse with goquery rather than walking
// golang.org/x/net/html nodes by hand because the portal's markup is
// table soup from a legacy system; selector-driven extraction keeps the
// column heuristics readable and survives attribute noise.
//
// Extraction is a pure function of its input: re-parsing the same body
// always yields the same records in the same order, which is what makes
// re-runs of the pipeline idempotent end to end. Unexpected markup
// degrades to a partial record slice plus soft warnings; only an
// unparsable document fails a page outright.
package extract

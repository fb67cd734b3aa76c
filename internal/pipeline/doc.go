// Package pipeline drives the crawl: it navigates the portal's form flow
// to enumerate crawl units, then pushes each unit through
// fetch, extract, normalize, and persist, accumulating a run summary.
//
// The portal has no URL scheme to enumerate; every step is a
// server-generated form that must be submitted the way a browser would.
// The Navigator walks that chain (US question, state, school list, then
// per school the subject/level/term form) and turns it into precomputed
// POST requests, one per (school, subject, term) unit. The Orchestrator
// runs those units through a bounded worker pool.
//
// Failure policy: a failed navigation step skips that school, a failed
// unit ends only that unit, a rejected record ends only that record.
// Nothing short of context cancellation stops the run, and every failure
// lands in a counted summary bucket.
package pipeline

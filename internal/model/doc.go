// Package model defines the core data structures shared across the
// ingestion pipeline: raw and normalized equivalency records, crawl units
// and their state machine, the rejection taxonomy, run summaries, and the
// snapshot export types.
//
// Design decision: Every pipeline package depends on model, and model
// depends on nothing but the standard library. This keeps the dependency
// graph a strict fan-in and lets each stage be tested in isolation.
package model

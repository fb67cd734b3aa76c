// Package report renders crawl run summaries and dataset snapshots.
//
// Three summary formats share one Writer interface: plain text for the
// terminal, JSON for tool integration, and Markdown for sharing.
// Snapshots are always JSON: one full-dataset file plus one file per
// school, named by the school's slug.
package report

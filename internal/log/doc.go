// Package log provides logging helpers built on top of the standard slog
// package.
//
// The crawl deals in whole HTML pages, and debug logging is most useful
// exactly when a page looks wrong. TruncatingHandler lets components log
// raw bodies and form payloads without flooding the output: oversized
// string attributes are cut at a configurable limit with a marker noting
// how much was dropped. The full body is never lost; permanently failed
// pages are written to debug artifacts on disk.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log

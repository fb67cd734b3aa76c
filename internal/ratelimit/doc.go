// Package ratelimit enforces the global request budget against the
// upstream portal: no more than R requests in any rolling 60-second
// window, regardless of how many crawl workers are fetching.
//
// Design decision: We implement our own sliding-window limiter rather than
// using golang.org/x/time/rate because:
//  1. Tests need an injectable clock to run deterministically without
//     real sleeps, and x/time/rate is bound to the wall clock
//  2. The budget is a rolling-window guarantee, not a token refill rate
//  3. The limiter is the sole serialization point of the crawl; keeping
//     it small and auditable matters more than reusing a generic one
package ratelimit

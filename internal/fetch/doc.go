// Package fetch issues HTTP requests to the upstream portal. Every
// request passes through the rate limiter, carries an identifying
// User-Agent, and retries transient failures with capped exponential
// backoff plus jitter. A request that fails permanently writes its last
// response body to a debug artifact keyed by the crawl unit's identifier
// and returns a classified error; failures are never swallowed.
//
// # Politeness
//
// The fetcher is polite by construction:
//   - No request bypasses the shared rate limiter
//   - The User-Agent identifies the tool and a contact point
//   - 429 responses honor the Retry-After header before the next attempt
package fetch

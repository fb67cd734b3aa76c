// Package config holds the crawl configuration: portal location, crawl
// target (state, level, term), politeness settings, filters, and output
// paths.
//
// Values are resolved in layers: compiled defaults, then an optional .env
// file, then process environment variables, then an optional YAML crawl
// profile, then CLI flags. Later layers win. The struct itself is passed
// through the application by dependency injection; there is no global
// configuration state.
package config

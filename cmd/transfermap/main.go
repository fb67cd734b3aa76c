// Package main provides the entry point for the TransferMap CLI.
//
// TransferMap crawls a university transfer equivalency portal and builds
// a queryable local dataset of course equivalencies.
//
// Usage:
//
//	transfermap crawl
//	transfermap lookup "CS 1331"
//	transfermap export
//
// See --help for all available options.
package main

// main is the entry point for TransferMap.
func main() {
	Execute()
}

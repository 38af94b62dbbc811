// Package model defines the data structures shared across bmclean.
//
// This package contains the following main types:
//   - Status: Liveness classification of a bookmarked URL
//   - ProbeResult: The outcome of one liveness probe
//   - Event and Reporter: The event sink the core calls while it works
//   - CleanReport: The summary of a single clean run
//
// The models carry no tree or network code. They serialize to JSON for
// report output and history storage.
package model

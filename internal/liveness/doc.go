// Package liveness decides whether bookmarked URLs still resolve.
//
// Each unique URL is fetched once with a GET request. The response is
// classified as follows:
//   - 404 Not Found: dead, and every bookmark entry for it is removed
//   - any other status code: alive
//   - no response at all: error, which is reported but never removed
//
// Probes run concurrently with a configurable in-flight limit. Results are
// returned in index order regardless of completion order.
package liveness

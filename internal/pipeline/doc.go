// Package pipeline runs the stages of a clean in sequence.
//
// A clean is parse, index, duplicate detection, liveness check, duplicate
// removal, outdated removal and write. Each stage is a Step that reads and
// updates a shared State. The driver is single-goroutine; only the liveness
// step fans out, and it joins before returning, so every tree mutation
// happens after all probes have finished.
package pipeline

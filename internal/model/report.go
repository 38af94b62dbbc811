package model

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"
)

// URLCount pairs a URL with how many bookmark entries referenced it.
type URLCount struct {
	// URL is the exact bookmark target.
	URL string `json:"url"`

	// Title is the anchor text of the first entry, if any.
	Title string `json:"title,omitempty"`

	// Count is the number of entries that referenced the URL.
	Count int `json:"count"`

	// SingleEntry is set on a duplicate whose occurrences all come from one
	// bookmark repeating its href attribute. Such a bookmark is never removed.
	SingleEntry bool `json:"single_entry,omitempty"`
}

// CleanReport summarises one clean run.
// Lists are ordered by first occurrence in the document.
type CleanReport struct {
	// Input is the bookmark document that was read.
	Input string `json:"input"`

	// Output is the path the cleaned document was (or would be) written to.
	Output string `json:"output"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`

	// Bookmarks is the number of indexed bookmark entries before cleaning.
	Bookmarks int `json:"bookmarks"`

	// UniqueURLs is the number of distinct bookmark targets before cleaning.
	UniqueURLs int `json:"unique_urls"`

	// Duplicates lists URLs referenced by two or more entries.
	Duplicates []URLCount `json:"duplicates"`

	// Outdated lists URLs whose probe returned 404.
	Outdated []URLCount `json:"outdated"`

	// Probes holds every probe result, in index order.
	Probes []ProbeResult `json:"probes,omitempty"`

	// LivenessChecked is false when probing was skipped.
	LivenessChecked bool `json:"liveness_checked"`

	// RemovedNodes is the number of bookmark entries detached from the tree.
	RemovedNodes int `json:"removed_nodes"`

	// DryRun is true when writing was suppressed.
	DryRun bool `json:"dry_run"`

	// Written is true when the cleaned document was saved.
	Written bool `json:"written"`

	// Checksum is the SHA3-256 of the cleaned document, when one was produced.
	Checksum string `json:"checksum,omitempty"`
}

// NewCleanReport creates an empty report for the given input and output paths.
func NewCleanReport(input, output string) *CleanReport {
	return &CleanReport{
		Input:      input,
		Output:     output,
		StartedAt:  time.Now(),
		Duplicates: make([]URLCount, 0),
		Outdated:   make([]URLCount, 0),
	}
}

// HasChanges reports whether anything needs to be removed.
// The cleaned document is written only when this is true.
func (r *CleanReport) HasChanges() bool {
	return len(r.Duplicates) > 0 || len(r.Outdated) > 0
}

// ErrorCount returns how many probes failed without a response.
func (r *CleanReport) ErrorCount() int {
	n := 0
	for _, p := range r.Probes {
		if p.Status == StatusError {
			n++
		}
	}
	return n
}

// AliveCount returns how many probes got a non-404 response.
func (r *CleanReport) AliveCount() int {
	n := 0
	for _, p := range r.Probes {
		if p.Status == StatusAlive {
			n++
		}
	}
	return n
}

// Checksum returns the hex SHA3-256 digest of data.
func Checksum(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

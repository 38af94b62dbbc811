package model

import "time"

// ProbeResult is the outcome of probing one unique URL.
// It is produced once per URL per run and is never cached.
type ProbeResult struct {
	// URL is the exact bookmark target that was probed.
	URL string `json:"url"`

	// Status is the liveness classification.
	Status Status `json:"status"`

	// StatusCode is the HTTP status code, or 0 when no response arrived.
	StatusCode int `json:"status_code,omitempty"`

	// Error describes the transport failure for StatusError results.
	Error string `json:"error,omitempty"`

	// Elapsed is how long the probe took.
	Elapsed time.Duration `json:"elapsed"`
}

// IsDead reports whether the URL was classified dead.
func (r ProbeResult) IsDead() bool {
	return r.Status == StatusDead
}

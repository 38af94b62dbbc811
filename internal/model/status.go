package model

import (
	"fmt"
	"strings"
)

// Status is the liveness classification of a URL.
type Status int

const (
	// StatusAlive means a response arrived with any status code other than 404.
	// Only a 404 is treated as evidence that a bookmark target is gone.
	StatusAlive Status = iota

	// StatusDead means the server answered 404 Not Found.
	StatusDead

	// StatusError means no response arrived at all (timeout, DNS failure,
	// refused connection, TLS failure, malformed URL and so on).
	// An error is not proof of removal and never leads to deletion.
	StatusError
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusAlive:
		return "alive"
	case StatusDead:
		return "dead"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so that statuses appear by
// name in JSON reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus converts a status name back to a Status.
func ParseStatus(name string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "alive":
		return StatusAlive, nil
	case "dead":
		return StatusDead, nil
	case "error":
		return StatusError, nil
	default:
		return StatusError, fmt.Errorf("unknown status %q", name)
	}
}

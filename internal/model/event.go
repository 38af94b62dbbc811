package model

// EventKind identifies what happened.
type EventKind int

const (
	// EventDuplicateFound is sent once per URL that occurs two or more times.
	EventDuplicateFound EventKind = iota

	// EventProbeStarted is sent before a liveness probe is issued.
	EventProbeStarted

	// EventURLClassified is sent after a probe finished, with its result.
	EventURLClassified

	// EventDuplicateRemoved is sent after redundant copies of a URL were detached.
	EventDuplicateRemoved

	// EventOutdatedRemoved is sent after every copy of a dead URL was detached.
	EventOutdatedRemoved
)

// String returns the event name used in logs.
func (k EventKind) String() string {
	switch k {
	case EventDuplicateFound:
		return "duplicate_found"
	case EventProbeStarted:
		return "probe_started"
	case EventURLClassified:
		return "url_classified"
	case EventDuplicateRemoved:
		return "duplicate_removed"
	case EventOutdatedRemoved:
		return "outdated_removed"
	default:
		return "unknown"
	}
}

// Event is a progress notification emitted by the core stages.
type Event struct {
	// Kind is the event type.
	Kind EventKind

	// URL is the bookmark target the event refers to.
	URL string

	// Count is the number of occurrences found or nodes removed.
	Count int

	// Result is set for EventURLClassified.
	Result *ProbeResult
}

// Reporter receives events from the core.
// Implementations must be safe for concurrent use: liveness probes report
// from their own goroutines.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) {
	f(e)
}

// NopReporter discards every event.
type NopReporter struct{}

// Report does nothing.
func (NopReporter) Report(Event) {}

// MultiReporter fans each event out to several reporters in order.
type MultiReporter []Reporter

// Report forwards e to every reporter.
func (m MultiReporter) Report(e Event) {
	for _, r := range m {
		if r != nil {
			r.Report(e)
		}
	}
}

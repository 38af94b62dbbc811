// Package mutator detaches bookmark entries from a document.
//
// It is the only code path that changes the tree. Removal is by node
// identity, and nodes that are already detached are skipped silently, so
// applying the duplicate pass and then the outdated pass over overlapping
// node sets is safe.
package mutator

import (
	"log/slog"

	"github.com/nao1215/bmclean/internal/bookmark"
	"github.com/nao1215/bmclean/internal/dedupe"
	"github.com/nao1215/bmclean/internal/document"
	"github.com/nao1215/bmclean/internal/model"
)

// Remover detaches nodes from a single document.
type Remover struct {
	doc      *document.Document
	reporter model.Reporter
	logger   *slog.Logger
}

// Option configures a Remover.
type Option func(*Remover)

// WithReporter sets the sink for removal events.
func WithReporter(r model.Reporter) Option {
	return func(m *Remover) {
		if r != nil {
			m.reporter = r
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Remover) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Remover for doc.
func New(doc *document.Document, opts ...Option) *Remover {
	m := &Remover{
		doc:      doc,
		reporter: model.NopReporter{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Remove detaches every node in nodes and returns how many were actually
// detached. Nodes without a parent are skipped.
func (m *Remover) Remove(nodes []document.NodeID) int {
	removed := 0
	for _, id := range nodes {
		if m.doc.Detach(id) {
			removed++
		}
	}
	return removed
}

// RemoveDuplicates collapses each duplicated URL to its first occurrence.
// It returns the total number of nodes detached.
func (m *Remover) RemoveDuplicates(dups *bookmark.Index) int {
	total := 0
	for url, nodes := range dups.All() {
		n := m.Remove(dedupe.ChooseRemovable(nodes))
		total += n

		m.logger.Debug("removed duplicate bookmarks", "url", url, "removed", n, "occurrences", len(nodes))
		m.reporter.Report(model.Event{Kind: model.EventDuplicateRemoved, URL: url, Count: n})
	}
	return total
}

// RemoveOutdated drops every occurrence of each outdated URL.
// It returns the total number of nodes detached.
func (m *Remover) RemoveOutdated(outdated *bookmark.Index) int {
	total := 0
	for url, nodes := range outdated.All() {
		n := m.Remove(dedupe.RemoveAll(nodes))
		total += n

		m.logger.Debug("removed outdated bookmarks", "url", url, "removed", n, "occurrences", len(nodes))
		m.reporter.Report(model.Event{Kind: model.EventOutdatedRemoved, URL: url, Count: n})
	}
	return total
}

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/bmclean/internal/model"
)

// SimpleWriter outputs a plain text summary.
type SimpleWriter struct {
	baseWriter

	// verbose lists every probe result, not only the counts.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every probe result.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *SimpleWriter) Write(report *model.CleanReport) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Found %d bookmarks (%d unique URLs) in %s\n", report.Bookmarks, report.UniqueURLs, report.Input)

	if len(report.Duplicates) > 0 {
		sb.WriteString("\nDuplicate URLs:\n")
		kept := 0
		for _, d := range report.Duplicates {
			if d.SingleEntry {
				kept++
				fmt.Fprintf(&sb, "  %s (%d occurrences, one bookmark; kept)\n", d.URL, d.Count)
				continue
			}
			fmt.Fprintf(&sb, "  %s (%d occurrences)\n", d.URL, d.Count)
		}
		if kept > 0 {
			fmt.Fprintf(&sb, "\n%d bookmarks repeat their own href and cannot be collapsed\n", kept)
		}
	}

	if report.LivenessChecked {
		fmt.Fprintf(&sb, "\nChecked %d unique URLs\n", len(report.Probes))
		if w.verbose {
			for _, p := range report.Probes {
				w.writeProbe(&sb, p)
			}
		}
		if len(report.Outdated) > 0 {
			sb.WriteString("\nOutdated URLs (404 Not Found):\n")
			for _, o := range report.Outdated {
				if o.Count > 1 {
					fmt.Fprintf(&sb, "  %s (%d occurrences)\n", o.URL, o.Count)
				} else {
					fmt.Fprintf(&sb, "  %s\n", o.URL)
				}
			}
		}
		if n := report.ErrorCount(); n > 0 {
			fmt.Fprintf(&sb, "\n%d URLs could not be checked and were kept\n", n)
		}
	}

	if report.RemovedNodes > 0 {
		fmt.Fprintf(&sb, "\nRemoved %d bookmarks\n", report.RemovedNodes)
	}
	sb.WriteString("\n")
	sb.WriteString(resultLine(report))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeProbe(sb *strings.Builder, p model.ProbeResult) {
	switch p.Status {
	case model.StatusError:
		fmt.Fprintf(sb, "  [%s] %s: %s\n", statusLabel(p.Status), p.URL, p.Error)
	default:
		fmt.Fprintf(sb, "  [%s] %s (%d)\n", statusLabel(p.Status), p.URL, p.StatusCode)
	}
}

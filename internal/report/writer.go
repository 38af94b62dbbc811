package report

import (
	"io"

	"github.com/nao1215/bmclean/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer writes a clean summary.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *model.CleanReport) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every writer and stops on the first error.
func (m *MultiWriter) Write(report *model.CleanReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

var titleCaser = cases.Title(language.English)

// statusLabel returns the display name of a probe status, e.g. "Dead".
func statusLabel(s model.Status) string {
	return titleCaser.String(s.String())
}

// resultLine is the closing sentence of a run summary.
func resultLine(report *model.CleanReport) string {
	switch {
	case !report.HasChanges():
		return "No duplicate or outdated bookmarks found; nothing written."
	case report.DryRun:
		return "Dry run: cleaned bookmarks not saved (would write to: " + report.Output + ")"
	case report.Written:
		return "Saved cleaned bookmarks to: " + report.Output
	default:
		return "Cleaned bookmarks not saved."
	}
}

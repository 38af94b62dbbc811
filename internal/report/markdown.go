package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nao1215/bmclean/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// titlePolicy strips all markup from bookmark titles, which come straight
// from the untrusted input document.
var titlePolicy = bluemonday.StrictPolicy()

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CleanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeURLTable(md, "Duplicate URLs", "No duplicate URLs.", report.Duplicates)
	if report.LivenessChecked {
		w.writeProbeSummary(md, report)
		w.writeURLTable(md, "Outdated URLs", "No outdated URLs.", report.Outdated)
	}
	w.writeFooter(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CleanReport) {
	md.H1("Bookmark Clean Report")
	md.PlainText("")

	liveness := "checked"
	if !report.LivenessChecked {
		liveness = "skipped"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Input", "`" + report.Input + "`"},
			{"Output", "`" + report.Output + "`"},
			{"Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Bookmarks", strconv.Itoa(report.Bookmarks)},
			{"Unique URLs", strconv.Itoa(report.UniqueURLs)},
			{"Liveness", liveness},
			{"Removed", strconv.Itoa(report.RemovedNodes)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CleanReport) {
	switch {
	case !report.HasChanges():
		md.Tip("No duplicate or outdated bookmarks found.")
	case report.DryRun:
		md.Importantf("Dry run: %d bookmark(s) would be removed.", report.RemovedNodes)
	case report.Written:
		md.Notef("%d bookmark(s) removed.", report.RemovedNodes)
	default:
		md.Warning("Cleaned bookmarks were not saved.")
	}
	md.PlainText("")

	if n := report.ErrorCount(); n > 0 {
		md.Cautionf("%d URL(s) could not be checked and were kept.", n)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeURLTable(md *markdown.Markdown, title, empty string, entries []model.URLCount) {
	md.H2(title)
	md.PlainText("")

	if len(entries) == 0 {
		md.PlainText(empty)
		md.PlainText("")
		return
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{titleCell(e.Title), "`" + e.URL + "`", strconv.Itoa(e.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "URL", "Occurrences"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeProbeSummary(md *markdown.Markdown, report *model.CleanReport) {
	md.H2("Liveness")
	md.PlainText("")

	counts := map[model.Status]int{}
	for _, p := range report.Probes {
		counts[p.Status]++
	}
	statuses := []model.Status{model.StatusAlive, model.StatusDead, model.StatusError}

	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []string{statusLabel(s), strconv.Itoa(counts[s])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Status", "URLs"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.Probes) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("URL Status"),
		piechart.WithShowData(true),
	)
	for _, s := range statuses {
		if counts[s] > 0 {
			chart.LabelAndIntValue(statusLabel(s), uint64(counts[s])) //nolint:gosec // counts are non-negative
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, report *model.CleanReport) {
	md.HorizontalRule()
	md.PlainText("")
	if report.Checksum != "" {
		md.PlainTextf("SHA3-256: `%s`", report.Checksum)
		md.PlainText("")
	}
	md.PlainText(resultLine(report))
}

// titleCell renders a bookmark title as plain text safe for a table cell.
func titleCell(title string) string {
	name := strings.TrimSpace(titlePolicy.Sanitize(title))
	if name == "" {
		return "-"
	}
	return strings.ReplaceAll(truncateString(name, 40), "|", `\|`)
}

// truncateString shortens s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

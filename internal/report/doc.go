// Package report renders clean summaries.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Plain text for terminal display
//   - JSONWriter: Structured JSON for tool integration
//   - MarkdownWriter: Markdown for sharing and archiving
//
// Writers implement the Writer interface and can be combined with
// MultiWriter.
package report

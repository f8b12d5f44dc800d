// Package report renders a case record as a document.
//
// This package contains writers for the supported output formats:
//   - JSONWriter: the record as structured JSON
//   - MarkdownWriter: a GitHub-flavored Markdown case summary
//   - HTMLWriter: the Markdown summary converted to a standalone HTML page
//   - SummaryWriter: a short plain-text summary for terminal display
//
// Writers implement the Writer interface. NewWriter selects one from a
// Format parsed with ParseFormat. Every writer is deterministic: the same
// record always produces the same bytes.
package report

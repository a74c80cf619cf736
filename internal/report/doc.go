// Package report renders extractions and comparisons.
//
// Writers for the supported output formats:
//   - SimpleWriter: plain text for the terminal, optionally links only
//   - JSONWriter: structured JSON for other tools
//   - MarkdownWriter: GitHub Flavored Markdown with tables and alerts
//
// MultiWriter fans one report out to several writers.
package report

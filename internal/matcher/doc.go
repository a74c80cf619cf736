// Package matcher extracts anchor href targets from HTML text.
//
// The matcher recognizes anchor-opening constructs of the shape
// <a ... href="URL" ...> and captures the URL without its fragment.
// Only a fixed URL grammar is accepted:
//
//   - an optional http:// or https:// prefix followed by a dot-separated host
//     (labels of 1-63 alphanumeric or hyphen characters, at least two labels)
//   - zero or more path segments (/segment, /segment/ or /file.ext)
//   - an optional query string of key=value pairs joined by &
//   - an optional fragment, which is matched but never returned
//
// Everything else in the document is skipped silently. A href value that does
// not fit the grammar is not an error, it simply produces no link.
//
// # Scan modes
//
// ScanPattern (default) matches the whole anchor tag with a single RE2
// expression, so other attributes must be simple name="value" pairs.
// ScanTokenizer uses golang.org/x/net/html to locate anchor start tags and
// applies the URL grammar to the href value only.
//
// # De-duplication
//
// DedupTrailingSlash (default) strips a single trailing slash before the
// presence check, so http://a.com/x and http://a.com/x/ collapse to one entry.
// DedupExact compares candidates byte for byte.
//
// # Usage
//
//	links := matcher.Extract(htmlText)
//	exact := matcher.Extract(htmlText, matcher.WithDedup(matcher.DedupExact))
package matcher

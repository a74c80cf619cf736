package matcher

import (
	"fmt"
	"strings"
)

// DedupMode selects the equality rule used to de-duplicate extracted links.
type DedupMode string

const (
	// DedupTrailingSlash strips a single trailing "/" from a candidate before
	// the presence check and stores the stripped value.
	DedupTrailingSlash DedupMode = "trailing-slash"

	// DedupExact only collapses candidates that are byte-equal.
	DedupExact DedupMode = "exact"
)

// ParseDedupMode converts a configuration string into a DedupMode.
func ParseDedupMode(s string) (DedupMode, error) {
	switch DedupMode(strings.ToLower(s)) {
	case DedupTrailingSlash:
		return DedupTrailingSlash, nil
	case DedupExact:
		return DedupExact, nil
	default:
		return "", fmt.Errorf("unknown dedup mode %q (want %q or %q)", s, DedupTrailingSlash, DedupExact)
	}
}

// ScanMode selects how anchor tags are located in the document.
type ScanMode string

const (
	// ScanPattern matches whole anchor tags with HrefPattern.
	ScanPattern ScanMode = "pattern"

	// ScanTokenizer finds anchor start tags with the x/net/html tokenizer and
	// applies the URL grammar to the href value.
	ScanTokenizer ScanMode = "tokenizer"
)

// ParseScanMode converts a configuration string into a ScanMode.
func ParseScanMode(s string) (ScanMode, error) {
	switch ScanMode(strings.ToLower(s)) {
	case ScanPattern:
		return ScanPattern, nil
	case ScanTokenizer:
		return ScanTokenizer, nil
	default:
		return "", fmt.Errorf("unknown scan mode %q (want %q or %q)", s, ScanPattern, ScanTokenizer)
	}
}

// options holds the settings applied by Extract.
type options struct {
	dedup DedupMode
	scan  ScanMode
}

// Option configures Extract.
type Option func(*options)

// WithDedup sets the de-duplication rule. Default is DedupTrailingSlash.
func WithDedup(mode DedupMode) Option {
	return func(o *options) {
		o.dedup = mode
	}
}

// WithScanMode sets how anchors are located. Default is ScanPattern.
func WithScanMode(mode ScanMode) Option {
	return func(o *options) {
		o.scan = mode
	}
}

// Normalize returns the value stored for candidate under the given mode.
func Normalize(candidate string, mode DedupMode) string {
	if mode == DedupTrailingSlash {
		return strings.TrimSuffix(candidate, "/")
	}
	return candidate
}

// Extract returns the distinct href targets of html in first-seen order.
// Fragments are stripped. The result is never nil.
func Extract(html string, opts ...Option) []string {
	o := options{
		dedup: DedupTrailingSlash,
		scan:  ScanPattern,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var candidates []string
	if o.scan == ScanTokenizer {
		candidates = tokenizeHrefs(html)
	} else {
		candidates = patternHrefs(html)
	}

	links := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		link := Normalize(c, o.dedup)
		if link == "" {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

// patternHrefs returns the target capture of every HrefPattern match.
func patternHrefs(html string) []string {
	matches := HrefPattern.FindAllStringSubmatch(html, -1)
	hrefs := make([]string, 0, len(matches))
	for _, m := range matches {
		hrefs = append(hrefs, m[hrefTargetIndex])
	}
	return hrefs
}

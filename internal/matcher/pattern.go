package matcher

import "regexp"

// URL grammar building blocks. Every expression is compiled case-insensitively.
const (
	// hostLabel is one dot-separated component of a hostname.
	hostLabel = `[a-z0-9\-]{1,63}`

	// schemeHost matches "http://" or "https://" followed by a hostname of at
	// least two labels and an optional trailing slash.
	schemeHost = `(?:https?://` + hostLabel + `(?:\.` + hostLabel + `)+/?)`

	// pathSegment matches "/segment", "/segment/" or "/file.ext".
	pathSegment = `(?:/[a-z0-9_\-]+/?|/[a-z0-9_\-]+\.[a-z0-9]+)`

	// queryValue is the character class allowed on the right side of "=".
	queryValue = `[a-z0-9+:,_\-]+`

	// query matches "?k=v" optionally followed by "&k=v" pairs.
	query = `(?:\?[a-z0-9]+=` + queryValue + `(?:&[a-z0-9]+=` + queryValue + `)*)`

	// fragment matches "#name" with optional "=value" sub-parts.
	fragment = `(?:#[a-z0-9+:,_\-]+(?:=[a-z0-9+:,_\-.]+)*)`

	// target is the URL without its fragment. Every part is optional, so the
	// capture can be empty; empty captures are dropped by Extract.
	target = schemeHost + `*` + pathSegment + `*` + query + `?`

	// attribute is a simple quoted attribute other than href.
	attribute = `(?:[a-z]+\s*=\s*"[a-z0-9_]+"\s*)`
)

// targetGroup is the name of the capture group holding the URL without fragment.
const targetGroup = "target"

var (
	// HrefPattern matches a complete anchor-opening tag and captures the href
	// URL without its fragment in the "target" group.
	HrefPattern = regexp.MustCompile(`(?i)<a\s+` + attribute + `*href\s*=\s*"(?P<` + targetGroup + `>` + target + `)` +
		fragment + `*"\s*` + attribute + `*\s*>`)

	// hrefValuePattern matches a bare href attribute value as returned by the
	// HTML tokenizer.
	hrefValuePattern = regexp.MustCompile(`(?i)^(?P<` + targetGroup + `>` + target + `)` + fragment + `*$`)

	// linkTargetPattern matches a complete URL without fragment.
	linkTargetPattern = regexp.MustCompile(`(?i)^` + target + `$`)

	hrefTargetIndex  = HrefPattern.SubexpIndex(targetGroup)
	valueTargetIndex = hrefValuePattern.SubexpIndex(targetGroup)
)

// IsLinkTarget reports whether s is a non-empty URL without fragment that the
// href grammar accepts. Every value returned by Extract satisfies it.
func IsLinkTarget(s string) bool {
	return s != "" && linkTargetPattern.MatchString(s)
}

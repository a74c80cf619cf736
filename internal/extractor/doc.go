// Package extractor turns a source, either a local HTML file or an
// http(s) URL, into a model.Extraction.
//
// Both operations are synchronous and never return an error: a failure is
// recorded in the returned Extraction together with its kind, so callers can
// tell "no links" from "could not look". An Extractor holds no per-call state
// and may be shared between goroutines.
package extractor

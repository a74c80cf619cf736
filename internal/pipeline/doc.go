// Package pipeline runs extractions for many sources.
//
// A Pipeline executes Steps in order against one model.Extraction: the
// extract step fills it from its source and the history step records it.
// A BatchProcessor runs one pipeline per source with bounded concurrency
// using errgroup and returns the extractions in source order. Each single
// extraction stays synchronous; only distinct sources run in parallel.
package pipeline

// Package model defines the data structures shared by linkmatch packages.
//
// This package contains the following main types:
//   - Extraction: the tagged result of one extraction, either a link sequence
//     or a failure with its kind
//   - FailureKind: the failure taxonomy (resource, connection, protocol)
//   - LinkDiff: the difference between two extractions of the same source
//   - Summary: counts over a batch of extractions
//
// The models are serializable to JSON for report output and database storage.
package model

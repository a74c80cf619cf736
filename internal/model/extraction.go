package model

import (
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// SourceKind tells where the HTML of an extraction came from.
type SourceKind string

const (
	// SourceFile is a local file path.
	SourceFile SourceKind = "file"

	// SourceRemote is an http:// or https:// URL fetched over a raw connection.
	SourceRemote SourceKind = "remote"
)

// Status is the outcome tag of an extraction.
type Status string

const (
	// StatusOK means the document was read and scanned.
	StatusOK Status = "ok"

	// StatusFailed means the document could not be obtained.
	StatusFailed Status = "failed"
)

// DetectSourceKind returns SourceRemote for http(s) URLs and SourceFile otherwise.
func DetectSourceKind(source string) SourceKind {
	lower := strings.ToLower(strings.TrimSpace(source))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return SourceRemote
	}
	return SourceFile
}

// Extraction is the result of extracting links from one source.
// Callers distinguish "no links found" (Succeeded with empty Links) from
// "extraction failed" (Failure != FailureNone).
type Extraction struct {
	// Source is the file path or URL that was processed.
	Source string `json:"source"`

	// Kind is where the document came from.
	Kind SourceKind `json:"kind"`

	// Links are the distinct, fragment-stripped targets in first-seen order.
	// Never nil; empty on failure.
	Links []string `json:"links"`

	// Status is StatusOK or StatusFailed.
	Status Status `json:"status"`

	// Failure is FailureNone on success.
	Failure FailureKind `json:"failure"`

	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty"`

	// StatusCode is the HTTP status for remote sources, 0 otherwise.
	StatusCode int `json:"status_code,omitempty"`

	// BodySize is the size in bytes of the parsed document.
	BodySize int `json:"body_size"`

	// BodyHash is the hex SHA3-256 digest of the parsed document.
	BodyHash string `json:"body_hash,omitempty"`

	// Truncated is true when the remote response exceeded the size limit.
	Truncated bool `json:"truncated,omitempty"`

	// ExtractedAt is when the extraction started.
	ExtractedAt time.Time `json:"extracted_at"`

	// Duration is how long the extraction took.
	Duration time.Duration `json:"duration"`
}

// NewExtraction creates an empty successful Extraction for source.
func NewExtraction(source string) *Extraction {
	return &Extraction{
		Source:      source,
		Kind:        DetectSourceKind(source),
		Links:       make([]string, 0),
		Status:      StatusOK,
		ExtractedAt: time.Now(),
	}
}

// Succeeded reports whether the extraction completed without failure.
func (e *Extraction) Succeeded() bool {
	return e.Failure == FailureNone
}

// Fail marks the extraction as failed and drops any links collected so far.
func (e *Extraction) Fail(kind FailureKind, err error) {
	e.Status = StatusFailed
	e.Failure = kind
	if err != nil {
		e.Error = err.Error()
	}
	e.Links = make([]string, 0)
}

// SetBody records size and digest of the parsed document.
func (e *Extraction) SetBody(body []byte) {
	e.BodySize = len(body)
	e.BodyHash = HashBody(body)
}

// Finish records the elapsed time since ExtractedAt.
func (e *Extraction) Finish() {
	e.Duration = time.Since(e.ExtractedAt)
}

// HashBody returns the hex SHA3-256 digest of body.
func HashBody(body []byte) string {
	sum := sha3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

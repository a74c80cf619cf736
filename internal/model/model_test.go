package model

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

// TestFailureKindString tests the String method of FailureKind.
func TestFailureKindString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		kind     FailureKind
		expected string
	}{
		{FailureNone, "none"},
		{FailureResourceUnavailable, "resource_unavailable"},
		{FailureConnection, "connection_failure"},
		{FailureProtocol, "protocol_failure"},
		{FailureKind(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if got := tc.kind.String(); got != tc.expected {
				t.Errorf("got %q, expected %q", got, tc.expected)
			}
		})
	}
}

// TestParseFailureKind tests ParseFailureKind.
func TestParseFailureKind(t *testing.T) {
	t.Parallel()

	for k := FailureNone; k <= FailureProtocol; k++ {
		got, err := ParseFailureKind(k.String())
		if err != nil {
			t.Fatalf("ParseFailureKind(%q) error: %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseFailureKind(%q) = %v, expected %v", k.String(), got, k)
		}
	}

	if _, err := ParseFailureKind("bogus"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

// TestFailureKindHint tests that every failure has a hint and success has none.
func TestFailureKindHint(t *testing.T) {
	t.Parallel()

	if FailureNone.Hint() != "" {
		t.Error("expected empty hint for FailureNone")
	}
	for _, k := range []FailureKind{FailureResourceUnavailable, FailureConnection, FailureProtocol} {
		if k.Hint() == "" {
			t.Errorf("expected hint for %s", k)
		}
	}
}

// TestDetectSourceKind tests source classification.
func TestDetectSourceKind(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		source   string
		expected SourceKind
	}{
		{"http://a.com/", SourceRemote},
		{"HTTPS://a.com/", SourceRemote},
		{"  http://a.com", SourceRemote},
		{"page.html", SourceFile},
		{"/tmp/http.html", SourceFile},
		{"ftp://a.com/", SourceFile},
	}

	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			t.Parallel()
			if got := DetectSourceKind(tc.source); got != tc.expected {
				t.Errorf("DetectSourceKind(%q) = %q, expected %q", tc.source, got, tc.expected)
			}
		})
	}
}

// TestExtraction tests the Extraction lifecycle.
func TestExtraction(t *testing.T) {
	t.Parallel()

	t.Run("new extraction succeeds with empty links", func(t *testing.T) {
		t.Parallel()

		e := NewExtraction("index.html")
		if !e.Succeeded() {
			t.Error("expected new extraction to be successful")
		}
		if e.Links == nil || len(e.Links) != 0 {
			t.Errorf("expected empty non-nil links, got %#v", e.Links)
		}
		if e.Kind != SourceFile {
			t.Errorf("expected kind %q, got %q", SourceFile, e.Kind)
		}
		if e.ExtractedAt.IsZero() {
			t.Error("expected ExtractedAt to be set")
		}
	})

	t.Run("fail drops links", func(t *testing.T) {
		t.Parallel()

		e := NewExtraction("http://a.com/")
		e.Links = append(e.Links, "http://b.com")
		e.Fail(FailureConnection, errors.New("connection refused"))

		if e.Succeeded() {
			t.Error("expected failure")
		}
		if len(e.Links) != 0 {
			t.Errorf("expected links to be dropped, got %v", e.Links)
		}
		if e.Status != StatusFailed {
			t.Errorf("expected status %q, got %q", StatusFailed, e.Status)
		}
		if e.Error != "connection refused" {
			t.Errorf("unexpected error text %q", e.Error)
		}
	})

	t.Run("set body hashes content", func(t *testing.T) {
		t.Parallel()

		e := NewExtraction("index.html")
		e.SetBody([]byte("<a href=\"http://a.com\">x</a>"))
		if e.BodySize != 28 {
			t.Errorf("expected size 28, got %d", e.BodySize)
		}
		if len(e.BodyHash) != 64 {
			t.Errorf("expected 64 hex chars, got %d", len(e.BodyHash))
		}
		if e.BodyHash != HashBody([]byte("<a href=\"http://a.com\">x</a>")) {
			t.Error("expected hash to be deterministic")
		}
	})
}

// TestHashBody tests the SHA3-256 digest of an empty body.
func TestHashBody(t *testing.T) {
	t.Parallel()

	const emptySHA3 = "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"
	if got := HashBody(nil); got != emptySHA3 {
		t.Errorf("HashBody(nil) = %s, expected %s", got, emptySHA3)
	}
}

// TestExtractionJSON tests that the failure kind is encoded by name.
func TestExtractionJSON(t *testing.T) {
	t.Parallel()

	e := NewExtraction("http://a.com/")
	e.Fail(FailureProtocol, errors.New("document marker not found"))

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if raw["failure"] != "protocol_failure" {
		t.Errorf("expected failure name, got %v", raw["failure"])
	}
	if raw["kind"] != "remote" {
		t.Errorf("expected remote kind, got %v", raw["kind"])
	}

	var back Extraction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal into Extraction error: %v", err)
	}
	if back.Failure != FailureProtocol {
		t.Errorf("expected FailureProtocol, got %v", back.Failure)
	}
}

// TestDiff tests link set comparison.
func TestDiff(t *testing.T) {
	t.Parallel()

	older := []string{"http://a.com", "http://b.com", "http://c.com"}
	newer := []string{"http://d.com", "http://b.com", "http://a.com"}

	d := Diff(older, newer)

	if !slices.Equal(d.Added, []string{"http://d.com"}) {
		t.Errorf("Added = %v", d.Added)
	}
	if !slices.Equal(d.Removed, []string{"http://c.com"}) {
		t.Errorf("Removed = %v", d.Removed)
	}
	if !slices.Equal(d.Unchanged, []string{"http://b.com", "http://a.com"}) {
		t.Errorf("Unchanged = %v", d.Unchanged)
	}
	if !d.HasChanges() {
		t.Error("expected changes")
	}

	same := Diff(older, older)
	if same.HasChanges() {
		t.Error("expected no changes for identical inputs")
	}
	if len(Diff(nil, nil).Added) != 0 {
		t.Error("expected empty diff for nil inputs")
	}
}

// TestSummarize tests batch aggregation.
func TestSummarize(t *testing.T) {
	t.Parallel()

	ok1 := NewExtraction("a.html")
	ok1.Links = []string{"http://a.com", "http://b.com"}
	ok2 := NewExtraction("b.html")
	ok2.Links = []string{"http://b.com"}
	bad := NewExtraction("http://c.com/")
	bad.Fail(FailureConnection, nil)
	missing := NewExtraction("missing.html")
	missing.Fail(FailureResourceUnavailable, nil)

	s := Summarize([]*Extraction{ok1, nil, ok2, bad, missing})

	if s.Sources != 4 {
		t.Errorf("Sources = %d, expected 4", s.Sources)
	}
	if s.Succeeded != 2 {
		t.Errorf("Succeeded = %d, expected 2", s.Succeeded)
	}
	if s.TotalLinks != 3 {
		t.Errorf("TotalLinks = %d, expected 3", s.TotalLinks)
	}
	if s.UniqueLinks != 2 {
		t.Errorf("UniqueLinks = %d, expected 2", s.UniqueLinks)
	}
	if s.FailedTotal() != 2 || !s.HasFailures() {
		t.Errorf("FailedTotal = %d, expected 2", s.FailedTotal())
	}
	if s.Failed[FailureConnection] != 1 || s.Failed[FailureResourceUnavailable] != 1 {
		t.Errorf("unexpected failure counts %v", s.Failed)
	}
}

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/linkmatch/internal/model"
)

const ruleWidth = 70

// SimpleWriter renders plain text for the terminal.
type SimpleWriter struct {
	baseWriter

	// linksOnly prints one link per line and nothing else.
	linksOnly bool

	// verbose adds body size, hash and timing per source.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithLinksOnly prints bare links, one per line, for piping into other tools.
func WithLinksOnly(linksOnly bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.linksOnly = linksOnly
	}
}

// WithVerbose enables per-source details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to output.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders extractions.
func (w *SimpleWriter) Write(extractions []*model.Extraction) (int, error) {
	extractions = compact(extractions)
	var sb strings.Builder

	if w.linksOnly {
		for _, e := range extractions {
			for _, l := range e.Links {
				sb.WriteString(l)
				sb.WriteString("\n")
			}
		}
		return io.WriteString(w.output, sb.String())
	}

	for _, e := range extractions {
		w.writeExtraction(&sb, e)
	}
	w.writeSummary(&sb, model.Summarize(extractions))

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeExtraction(sb *strings.Builder, e *model.Extraction) {
	section(sb, fmt.Sprintf("%s (%s)", e.Source, e.Kind))

	if !e.Succeeded() {
		fmt.Fprintf(sb, "  [!] %s: %s\n", failureLabel(e.Failure), e.Error)
		if hint := e.Failure.Hint(); hint != "" {
			fmt.Fprintf(sb, "      %s\n", hint)
		}
		sb.WriteString("\n")
		return
	}

	if e.StatusCode != 0 {
		fmt.Fprintf(sb, "  Status: %d\n", e.StatusCode)
	}
	if w.verbose {
		fmt.Fprintf(sb, "  Body:   %d bytes, sha3-256 %s\n", e.BodySize, e.BodyHash)
		fmt.Fprintf(sb, "  Time:   %s\n", e.Duration)
	}
	if e.Truncated {
		sb.WriteString("  Note:   response truncated at size limit\n")
	}
	if len(e.Links) == 0 {
		sb.WriteString("  No links found\n\n")
		return
	}
	for _, l := range e.Links {
		fmt.Fprintf(sb, "  %s\n", l)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, s model.Summary) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Sources: %d  Succeeded: %d  Failed: %d\n", s.Sources, s.Succeeded, s.FailedTotal())
	fmt.Fprintf(sb, "Links:   %d total, %d unique\n", s.TotalLinks, s.UniqueLinks)
	for _, kind := range []model.FailureKind{model.FailureResourceUnavailable, model.FailureConnection, model.FailureProtocol} {
		if n := s.Failed[kind]; n > 0 {
			fmt.Fprintf(sb, "  %s: %d\n", failureLabel(kind), n)
		}
	}
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}

// WriteComparison renders added and removed links with +/- markers.
func (w *SimpleWriter) WriteComparison(c *Comparison) (int, error) {
	var sb strings.Builder

	if w.linksOnly {
		for _, l := range c.Diff.Added {
			fmt.Fprintf(&sb, "+%s\n", l)
		}
		for _, l := range c.Diff.Removed {
			fmt.Fprintf(&sb, "-%s\n", l)
		}
		return io.WriteString(w.output, sb.String())
	}

	section(&sb, "COMPARISON: "+c.Source)
	fmt.Fprintf(&sb, "  Older: %s (%d links)\n", c.Older.ExtractedAt.Format("2006-01-02 15:04:05 MST"), len(c.Older.Links))
	fmt.Fprintf(&sb, "  Newer: %s (%d links)\n\n", c.Newer.ExtractedAt.Format("2006-01-02 15:04:05 MST"), len(c.Newer.Links))

	if !c.Diff.HasChanges() {
		sb.WriteString("  No changes\n")
		return io.WriteString(w.output, sb.String())
	}
	for _, l := range c.Diff.Added {
		fmt.Fprintf(&sb, "  + %s\n", l)
	}
	for _, l := range c.Diff.Removed {
		fmt.Fprintf(&sb, "  - %s\n", l)
	}
	fmt.Fprintf(&sb, "\n  %d added, %d removed, %d unchanged\n", len(c.Diff.Added), len(c.Diff.Removed), len(c.Diff.Unchanged))

	return io.WriteString(w.output, sb.String())
}

// section writes a title between two rules.
func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
}

package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/linkmatch/internal/model"
)

// MarkdownWriter outputs reports as GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write renders extractions.
func (w *MarkdownWriter) Write(extractions []*model.Extraction) (int, error) {
	extractions = compact(extractions)
	s := model.Summarize(extractions)
	md := markdown.NewMarkdown(w.output)

	md.H1("linkmatch Report")
	md.PlainText("")
	w.writeSummary(md, s)

	for _, e := range extractions {
		w.writeExtraction(md, e)
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s model.Summary) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Sources", strconv.Itoa(s.Sources)},
			{"Succeeded", strconv.Itoa(s.Succeeded)},
			{"Failed", strconv.Itoa(s.FailedTotal())},
			{"Links", strconv.Itoa(s.TotalLinks)},
			{"Unique Links", strconv.Itoa(s.UniqueLinks)},
		},
	})
	md.PlainText("")

	if s.HasFailures() && s.Sources > 1 {
		w.writePieChart(md, s)
	}

	switch {
	case s.Sources > 0 && s.Succeeded == 0:
		md.Cautionf("All %d source(s) failed.", s.Sources)
	case s.HasFailures():
		md.Warningf("%d of %d source(s) failed.", s.FailedTotal(), s.Sources)
	case s.TotalLinks == 0:
		md.Note("No links found.")
	default:
		md.Tip("All sources extracted.")
	}
	md.PlainText("")
}

// writePieChart shows the outcome distribution of the batch.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Extraction Outcomes"),
		piechart.WithShowData(true),
	)
	if s.Succeeded > 0 {
		chart.LabelAndIntValue("Succeeded", uint64(s.Succeeded))
	}
	for _, kind := range []model.FailureKind{model.FailureResourceUnavailable, model.FailureConnection, model.FailureProtocol} {
		if n := s.Failed[kind]; n > 0 {
			chart.LabelAndIntValue(failureLabel(kind), uint64(n))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeExtraction(md *markdown.Markdown, e *model.Extraction) {
	md.H2("`" + e.Source + "`")
	md.PlainText("")

	rows := [][]string{
		{"Kind", string(e.Kind)},
		{"Extracted", e.ExtractedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if e.Succeeded() {
		rows = append(rows, []string{"Status", "✅ OK"})
	} else {
		rows = append(rows, []string{"Status", "❌ " + failureLabel(e.Failure)})
	}
	if e.StatusCode != 0 {
		rows = append(rows, []string{"HTTP Status", strconv.Itoa(e.StatusCode)})
	}
	if e.BodyHash != "" {
		rows = append(rows, []string{"Body", strconv.Itoa(e.BodySize) + " bytes"})
		rows = append(rows, []string{"SHA3-256", "`" + e.BodyHash + "`"})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")

	if !e.Succeeded() {
		md.Warningf("%s: %s", failureLabel(e.Failure), e.Error)
		md.PlainText("")
		return
	}
	if e.Truncated {
		md.Important("The response was truncated at the size limit.")
		md.PlainText("")
	}
	if len(e.Links) == 0 {
		md.PlainText("No links found.")
		md.PlainText("")
		return
	}
	md.BulletList(e.Links...)
	md.PlainText("")
}

// WriteComparison renders c with a table of changed links.
func (w *MarkdownWriter) WriteComparison(c *Comparison) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("linkmatch Comparison")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + c.Source + "`"},
			{"Older", c.Older.ExtractedAt.Format("2006-01-02 15:04:05 MST")},
			{"Newer", c.Newer.ExtractedAt.Format("2006-01-02 15:04:05 MST")},
			{"Added", strconv.Itoa(len(c.Diff.Added))},
			{"Removed", strconv.Itoa(len(c.Diff.Removed))},
			{"Unchanged", strconv.Itoa(len(c.Diff.Unchanged))},
		},
	})
	md.PlainText("")

	if !c.Diff.HasChanges() {
		md.Tip("No changes between the two extractions.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, len(c.Diff.Added)+len(c.Diff.Removed))
	for _, l := range c.Diff.Added {
		rows = append(rows, []string{"➕ Added", l})
	}
	for _, l := range c.Diff.Removed {
		rows = append(rows, []string{"➖ Removed", l})
	}
	md.H2("Changes")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: []string{"Change", "Link"}, Rows: rows})
	md.PlainText("")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [linkmatch](https://github.com/nao1215/linkmatch)*")
}

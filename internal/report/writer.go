package report

import (
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/linkmatch/internal/model"
)

// Writer renders reports.
type Writer interface {
	// Write renders the result of a batch. Nil entries are skipped.
	Write(extractions []*model.Extraction) (int, error)

	// WriteComparison renders the difference between two extractions.
	WriteComparison(c *Comparison) (int, error)
}

// Comparison pairs two extractions of the same source with their diff.
type Comparison struct {
	// Source is the compared file path or URL.
	Source string `json:"source"`

	// Older is the earlier extraction.
	Older *model.Extraction `json:"older"`

	// Newer is the later extraction.
	Newer *model.Extraction `json:"newer"`

	// Diff is the change from Older to Newer.
	Diff model.LinkDiff `json:"diff"`
}

// NewComparison computes the diff of older and newer.
func NewComparison(source string, older, newer *model.Extraction) *Comparison {
	return &Comparison{
		Source: source,
		Older:  older,
		Newer:  newer,
		Diff:   model.Diff(older.Links, newer.Links),
	}
}

// MultiWriter writes to several Writers in order and stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders extractions with every writer.
func (m *MultiWriter) Write(extractions []*model.Extraction) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(extractions)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteComparison renders c with every writer.
func (m *MultiWriter) WriteComparison(c *Comparison) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteComparison(c)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the output shared by all writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// compact drops nil entries.
func compact(extractions []*model.Extraction) []*model.Extraction {
	out := make([]*model.Extraction, 0, len(extractions))
	for _, e := range extractions {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

var titleCaser = cases.Title(language.English)

// failureLabel turns "connection_failure" into "Connection Failure".
func failureLabel(kind model.FailureKind) string {
	return titleCaser.String(strings.ReplaceAll(kind.String(), "_", " "))
}

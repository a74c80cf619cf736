package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/linkmatch/internal/model"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter
	version      string
	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output with the given prefix and indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the producing version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONSummary is the JSON form of model.Summary.
type JSONSummary struct {
	Sources     int            `json:"sources"`
	Succeeded   int            `json:"succeeded"`
	Failed      map[string]int `json:"failed"`
	TotalLinks  int            `json:"total_links"`
	UniqueLinks int            `json:"unique_links"`
}

// JSONReport wraps a batch with metadata.
type JSONReport struct {
	Version     string              `json:"version,omitempty"`
	GeneratedAt time.Time           `json:"generated_at"`
	Summary     JSONSummary         `json:"summary"`
	Extractions []*model.Extraction `json:"extractions"`
}

// Write outputs extractions wrapped in a JSONReport.
func (w *JSONWriter) Write(extractions []*model.Extraction) (int, error) {
	extractions = compact(extractions)
	s := model.Summarize(extractions)

	failed := make(map[string]int, len(s.Failed))
	for kind, n := range s.Failed {
		failed[kind.String()] = n
	}

	return w.writeJSON(&JSONReport{
		Version:     w.version,
		GeneratedAt: time.Now().UTC(),
		Summary: JSONSummary{
			Sources:     s.Sources,
			Succeeded:   s.Succeeded,
			Failed:      failed,
			TotalLinks:  s.TotalLinks,
			UniqueLinks: s.UniqueLinks,
		},
		Extractions: extractions,
	})
}

// WriteComparison outputs c as JSON.
func (w *JSONWriter) WriteComparison(c *Comparison) (int, error) {
	return w.writeJSON(c)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}

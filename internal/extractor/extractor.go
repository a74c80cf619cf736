package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/nao1215/linkmatch/internal/fetch"
	"github.com/nao1215/linkmatch/internal/matcher"
	"github.com/nao1215/linkmatch/internal/model"
)

// Extractor runs the matcher over local files and fetched documents.
type Extractor struct {
	fetcher     *fetch.Fetcher
	matcherOpts []matcher.Option
	logger      *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFetcher sets the fetcher used for remote sources.
func WithFetcher(f *fetch.Fetcher) Option {
	return func(e *Extractor) {
		e.fetcher = f
	}
}

// WithMatcherOptions sets the options passed to matcher.Extract.
func WithMatcherOptions(opts ...matcher.Option) Option {
	return func(e *Extractor) {
		e.matcherOpts = append(e.matcherOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor. Without WithFetcher a default fetch.Fetcher
// sharing the Extractor's logger is used.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.fetcher == nil {
		e.fetcher = fetch.New(fetch.WithLogger(e.logger))
	}
	return e
}

// Extract dispatches to FetchAndExtract for http:// and https:// sources
// and to ExtractFile for everything else.
func (e *Extractor) Extract(ctx context.Context, source string) *model.Extraction {
	if model.DetectSourceKind(source) == model.SourceRemote {
		return e.FetchAndExtract(ctx, source)
	}
	return e.ExtractFile(source)
}

// ExtractFile reads the file at path and returns its links.
// A missing or unreadable file yields FailureResourceUnavailable.
func (e *Extractor) ExtractFile(path string) *model.Extraction {
	result := model.NewExtraction(path)
	result.Kind = model.SourceFile
	defer result.Finish()

	content, err := readDocument(path)
	if err != nil {
		e.logger.Error("failed to read file", "path", path, "error", err)
		result.Fail(model.FailureResourceUnavailable, err)
		return result
	}

	result.SetBody(content)
	result.Links = matcher.Extract(string(content), e.matcherOpts...)
	e.logger.Debug("extracted links from file", "path", path, "links", len(result.Links))
	return result
}

// FetchAndExtract fetches rawURL and returns the links of its body.
func (e *Extractor) FetchAndExtract(ctx context.Context, rawURL string) *model.Extraction {
	result := model.NewExtraction(rawURL)
	result.Kind = model.SourceRemote
	defer result.Finish()

	resp, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		kind := classify(err)
		e.logger.Error("failed to fetch document", "url", rawURL, "failure", kind.String(), "error", err)
		result.Fail(kind, err)
		return result
	}

	result.StatusCode = resp.StatusCode
	result.Truncated = resp.Truncated
	if resp.StatusCode != 0 && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		e.logger.Warn("non-success status", "url", rawURL, "status", resp.StatusCode)
	}

	result.SetBody(resp.Body)
	result.Links = matcher.Extract(string(resp.Body), e.matcherOpts...)
	e.logger.Debug("extracted links from URL", "url", rawURL, "links", len(result.Links))
	return result
}

// classify maps a fetch error onto the failure taxonomy.
func classify(err error) model.FailureKind {
	if errors.Is(err, fetch.ErrProtocol) {
		return model.FailureProtocol
	}
	return model.FailureConnection
}

// readDocument returns the file content with a leading byte order mark removed.
// UTF-16 documents announced by their BOM are decoded to UTF-8.
func readDocument(path string) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // reading user-supplied paths is the purpose
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	content, err := io.ReadAll(transform.NewReader(f, unicode.BOMOverride(transform.Nop)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, nil
}

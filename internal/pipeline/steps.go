package pipeline

import (
	"context"
	"fmt"

	"github.com/nao1215/linkmatch/internal/model"
)

// Extractor produces an extraction for a source.
// *extractor.Extractor implements it.
type Extractor interface {
	Extract(ctx context.Context, source string) *model.Extraction
}

// HistoryStore records extractions.
// *database.HistoryDB implements it.
type HistoryStore interface {
	SaveExtraction(ctx context.Context, extraction *model.Extraction) error
}

// ExtractStep fills the extraction from its source.
type ExtractStep struct {
	extractor Extractor
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(extractor Extractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do replaces the contents of extraction with the result for its source.
// Extraction failures are part of the result, so Do never fails.
func (s *ExtractStep) Do(ctx context.Context, extraction *model.Extraction) error {
	*extraction = *s.extractor.Extract(ctx, extraction.Source)
	return nil
}

// HistoryStep saves the extraction, successful or not.
type HistoryStep struct {
	store HistoryStore
}

// NewHistoryStep creates a HistoryStep.
func NewHistoryStep(store HistoryStore) *HistoryStep {
	return &HistoryStep{store: store}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do saves extraction.
func (s *HistoryStep) Do(ctx context.Context, extraction *model.Extraction) error {
	if err := s.store.SaveExtraction(ctx, extraction); err != nil {
		return fmt.Errorf("failed to save extraction of %s: %w", extraction.Source, err)
	}
	return nil
}

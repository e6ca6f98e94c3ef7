package extract

import (
	"context"
	"fmt"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/textsource"
)

// Analysis is the document context report without any task extraction.
type Analysis struct {
	DocID             string                `json:"doc_id"`
	Version           string                `json:"version"`
	Context           Context               `json:"context"`
	SuggestedMappings map[string]Assignment `json:"suggested_mappings,omitempty"`
}

// Analyze reads the document text and reports its inferred type, primary
// department, actors, and suggested mappings for the unmapped ones. It
// runs against any status: inspecting a Draft before approval is the
// point.
func (s *Service) Analyze(ctx context.Context, docID string, cfg Config) (*Analysis, error) {
	doc, err := s.store.GetByDocID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.FilePath == "" {
		return nil, fmt.Errorf("%w: document %s has no file to analyze", document.ErrValidation, docID)
	}

	pages, err := s.source.Extract(ctx, doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", docID, err)
	}

	docCtx := AnalyzeContext(textsource.Join(pages), cfg)

	analysis := &Analysis{
		DocID:   doc.DocID,
		Version: doc.Version,
		Context: docCtx,
	}
	if len(docCtx.UnmappedActors) > 0 {
		analysis.SuggestedMappings = SuggestMappings(docCtx)
	}
	return analysis, nil
}

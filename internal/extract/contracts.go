package extract

import (
	"context"

	"github.com/joseph-ayodele/docingest/internal/entity"
)

// Extractor turns one file of a known format into a document.
type Extractor interface {
	Extract(ctx context.Context, path string) (entity.IngestedDocument, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, path string) (entity.IngestedDocument, error)

func (f ExtractorFunc) Extract(ctx context.Context, path string) (entity.IngestedDocument, error) {
	return f(ctx, path)
}

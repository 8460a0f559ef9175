package ingest

import (
	"context"
	"time"

	"github.com/joseph-ayodele/docingest/constants"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	DocumentID   string
	Deduplicated bool
	HashHex      string
	Format       constants.Format
	Chars        int
	OCRKind      string // empty when OCR was not attempted
	IngestedAt   time.Time
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// FileIngestor is the behavior batch and watch modes depend on.
type FileIngestor interface {
	IngestFile(ctx context.Context, path string) (IngestionResult, error)
}

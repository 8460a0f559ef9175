package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docingest/internal/entity"
	"github.com/joseph-ayodele/docingest/internal/export"
	"github.com/joseph-ayodele/docingest/internal/ingest"
	"github.com/joseph-ayodele/docingest/internal/repository"
)

// Router turns a path into a document.
type Router interface {
	Ingest(ctx context.Context, path string) (entity.IngestedDocument, error)
}

// Result is the outcome of ProcessFile.
type Result struct {
	ID           uuid.UUID
	Deduplicated bool
	HashHex      string
	Document     entity.IngestedDocument
	Record       repository.DocumentRecord
}

// Processor coordinates extraction, storage and export for one file.
type Processor struct {
	router Router
	repo   repository.DocumentRepository
	sinks  []export.Sink
	logger *slog.Logger
	now    func() time.Time
}

var _ ingest.FileIngestor = (*Processor)(nil)

func NewProcessor(router Router, repo repository.DocumentRepository, logger *slog.Logger, sinks ...export.Sink) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{router: router, repo: repo, sinks: sinks, logger: logger, now: time.Now}
}

// ProcessFile extracts path, stores it keyed by content hash and hands new
// records to every sink. A file whose content is already stored returns the
// existing record and is not exported again.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	doc, err := p.router.Ingest(ctx, path)
	if err != nil {
		p.logger.Error("processor.extract.failed", "path", path, "error", err)
		return Result{}, err
	}
	if doc.OCR != nil && doc.OCR.Kind != "ok" {
		p.logger.Warn("processor.ocr.degraded", "path", path, "kind", doc.OCR.Kind, "error", doc.OCR.Error)
	}

	hash, err := HashFile(path)
	if err != nil {
		p.logger.Error("processor.hash.failed", "path", path, "error", err)
		return Result{}, err
	}

	rec, dedup, err := p.repo.UpsertByHash(ctx, path, hash, doc, p.now().UTC())
	if err != nil {
		p.logger.Error("processor.store.failed", "path", path, "error", err)
		return Result{}, fmt.Errorf("store document: %w", err)
	}
	res := Result{ID: rec.ID, Deduplicated: dedup, HashHex: rec.HashHex(), Document: rec.Document, Record: *rec}

	if !dedup {
		out := export.FromRecord(*rec)
		for _, s := range p.sinks {
			if err := s.Put(ctx, out); err != nil {
				p.logger.Error("processor.export.failed", "path", path, "id", rec.ID, "error", err)
				return res, fmt.Errorf("export document: %w", err)
			}
		}
	}

	p.logger.Info("processor.ok",
		"path", path,
		"id", rec.ID,
		"format", doc.Format,
		"deduplicated", dedup,
		"chars", len([]rune(doc.Content)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// IngestFile adapts ProcessFile for batch and watch modes.
func (p *Processor) IngestFile(ctx context.Context, path string) (ingest.IngestionResult, error) {
	res, err := p.ProcessFile(ctx, path)
	if err != nil {
		return ingest.IngestionResult{SourcePath: path, Err: err.Error()}, err
	}
	doc := res.Document
	out := ingest.IngestionResult{
		SourcePath:   path,
		DocumentID:   res.ID.String(),
		Deduplicated: res.Deduplicated,
		HashHex:      res.HashHex,
		Format:       doc.Format,
		Chars:        len([]rune(doc.Content)),
		IngestedAt:   res.Record.IngestedAt,
	}
	if doc.OCR != nil {
		out.OCRKind = doc.OCR.Kind
	}
	return out, nil
}

// HashFile returns the SHA-256 of the file at path.
func HashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

// HashHex is HashFile as lowercase hex.
func HashHex(path string) (string, error) {
	b, err := HashFile(path)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

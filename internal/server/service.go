package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/export"
	"github.com/joseph-ayodele/docingest/internal/pipeline"
	"github.com/joseph-ayodele/docingest/internal/repository"
)

// Processor is the part of pipeline.Processor the transports need.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (pipeline.Result, error)
}

// DocumentService is the transport-independent API behind HTTP and gRPC.
type DocumentService struct {
	proc   Processor
	repo   repository.DocumentRepository
	logger *slog.Logger
}

func NewDocumentService(proc Processor, repo repository.DocumentRepository, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{proc: proc, repo: repo, logger: logger}
}

// Ingest processes the server-local file at path.
func (s *DocumentService) Ingest(ctx context.Context, path string) (export.Record, bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		s.logger.Error("ingest request missing path")
		return export.Record{}, false, fmt.Errorf("%w: path is required", common.ErrInvalidInput)
	}

	s.logger.Info("starting file ingest", "path", path)
	res, err := s.proc.ProcessFile(ctx, path)
	if err != nil {
		return export.Record{}, false, err
	}
	s.logger.Info("file ingest succeeded", "path", path, "id", res.ID, "deduplicated", res.Deduplicated)
	return export.FromRecord(res.Record), res.Deduplicated, nil
}

func (s *DocumentService) Get(ctx context.Context, rawID string) (export.Record, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return export.Record{}, fmt.Errorf("%w: id must be a UUID", common.ErrInvalidInput)
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return export.Record{}, err
	}
	return export.FromRecord(*rec), nil
}

func (s *DocumentService) List(ctx context.Context, limit, offset int) ([]export.Record, error) {
	recs, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Warn("list documents failed", "error", err)
		return nil, err
	}
	out := make([]export.Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, export.FromRecord(r))
	}
	return out, nil
}

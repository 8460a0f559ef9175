package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/docingest/constants"
	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/entity"
	"github.com/joseph-ayodele/docingest/internal/extract"
)

// Router resolves a path to a format once and dispatches to that format's
// extractor.
type Router struct {
	extractors map[constants.Format]extract.Extractor
	logger     *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{extractors: make(map[constants.Format]extract.Extractor), logger: logger}
}

// Register binds an extractor to a format, replacing any previous one.
func (r *Router) Register(format constants.Format, e extract.Extractor) *Router {
	r.extractors[format] = e
	return r
}

// Route validates path and returns its format.
func (r *Router) Route(path string) (constants.Format, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", common.ErrPathNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", common.ErrNotRegularFile, path)
	}

	ext := filepath.Ext(path)
	if constants.IsLegacyExt(ext) {
		return "", fmt.Errorf("%w: legacy .%s format not supported", common.ErrLegacyFormat, constants.NormalizeExt(ext))
	}
	format := constants.MapExtToFormat(ext)
	if format == "" {
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}
	if _, ok := r.extractors[format]; !ok {
		return "", fmt.Errorf("%w: no extractor for %s", common.ErrUnsupportedFormat, format)
	}
	return format, nil
}

// Ingest routes path and runs the matching extractor.
func (r *Router) Ingest(ctx context.Context, path string) (entity.IngestedDocument, error) {
	format, err := r.Route(path)
	if err != nil {
		r.logger.Debug("route rejected file", "path", path, "error", err)
		return entity.IngestedDocument{}, err
	}
	r.logger.Debug("routing file", "path", path, "format", format)
	return r.extractors[format].Extract(ctx, path)
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Batch ingests every candidate file under a directory with bounded
// concurrency.
type Batch struct {
	files   FileIngestor
	workers int
	logger  *slog.Logger
}

func NewBatch(files FileIngestor, workers int, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	return &Batch{files: files, workers: workers, logger: logger}
}

// IngestDirectory walks root, skips hidden entries if requested and ingests each
// candidate file. Results are returned in walk order; per-file failures are
// recorded in the result and never abort the walk.
func (b *Batch) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var (
		results []IngestionResult
		paths   []string
		slots   []int // index into results for each path
		stats   DirStats
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Candidate(path) {
			return nil
		}
		stats.Matched++
		slots = append(slots, len(results))
		paths = append(paths, path)
		results = append(results, IngestionResult{SourcePath: path})
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	b.logger.Info("directory scanned", "root", root, "scanned", stats.Scanned, "matched", stats.Matched)

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(b.workers)
	for i, path := range paths {
		path := path
		slot := slots[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := b.files.IngestFile(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				b.logger.Warn("file ingest failed", "path", path, "error", err)
				results[slot] = IngestionResult{SourcePath: path, Err: err.Error()}
				stats.Failed++
				return nil
			}
			r.SourcePath = path
			results[slot] = r
			stats.Succeeded++
			if r.Deduplicated {
				stats.Deduplicated++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, stats, err
	}

	b.logger.Info("directory ingested",
		"root", root,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

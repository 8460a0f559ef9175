package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/export"
	"github.com/joseph-ayodele/docingest/internal/ingest"
	"github.com/joseph-ayodele/docingest/internal/ocr"
	"github.com/joseph-ayodele/docingest/internal/pipeline"
	"github.com/joseph-ayodele/docingest/internal/repository"
)

// app is the wiring shared by the commands.
type app struct {
	cfg       *common.Config
	logger    *slog.Logger
	ocr       *ocr.Orchestrator
	router    *ingest.Router
	repo      repository.DocumentRepository
	processor *pipeline.Processor
	closers   []func() error
}

// loadApp reads configuration and builds the logger and extractors. The store
// and sinks are opened by openStore.
func loadApp(cmd *cobra.Command) (*app, error) {
	logger, err := newLogger(cmd.ErrOrStderr(), logLevel)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	cfg, err := common.Load(configPath)
	if err != nil {
		return nil, err
	}
	if inMemory {
		cfg.Store.Driver = repository.DriverSQLite
		cfg.Store.SQLitePath = repository.MemoryPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "config", cfg.String())

	o := ocr.NewOrchestrator(ocr.ConfigFrom(cfg.OCR), logger)
	return &app{
		cfg:    cfg,
		logger: logger,
		ocr:    o,
		router: ingest.NewDefaultRouter(cfg, o, logger),
	}, nil
}

func (a *app) openStore(ctx context.Context) error {
	repo, err := repository.Open(ctx, a.cfg.Store, a.logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.repo = repo
	a.closers = append(a.closers, repo.Close)

	var sinks []export.Sink
	if a.cfg.Export.Dir != "" {
		s, err := export.NewDirSink(a.cfg.Export.Dir, a.logger)
		if err != nil {
			return err
		}
		sinks = append(sinks, s)
	}
	if a.cfg.Export.GCSBucket != "" {
		s, err := export.NewGCSSink(ctx, a.cfg.Export.GCSBucket, a.cfg.Export.GCSPrefix, a.logger)
		if err != nil {
			return err
		}
		sinks = append(sinks, s)
		a.closers = append(a.closers, s.Close)
	}
	a.processor = pipeline.NewProcessor(a.router, repo, a.logger, sinks...)
	return nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

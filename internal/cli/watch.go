package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docingest/internal/async"
	"github.com/joseph-ayodele/docingest/internal/ingest"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ingest files as they appear in directories",
	RunE:  runWatch,
}

var (
	watchDirs     []string
	watchInitial  bool
	watchDebounce time.Duration
)

func init() {
	watchCmd.Flags().StringSliceVarP(&watchDirs, "dir", "d", nil, "Directory to watch, repeatable (required)")
	watchCmd.Flags().BoolVar(&watchInitial, "initial-scan", true, "Ingest files already present at startup")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet period before a changed file is ingested")
	_ = watchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()
	if err := a.openStore(ctx); err != nil {
		return err
	}

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       watchDirs,
		InitialScan: watchInitial,
		Debounce:    watchDebounce,
		SkipHidden:  a.cfg.Batch.SkipHidden,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}

	queue := async.NewProcessorQueue(a.processor, a.logger,
		async.WithWorkers(a.cfg.Batch.Workers),
		async.WithQueueSize(512),
		async.WithProcessTimeout(a.cfg.OCR.Timeout+time.Minute),
		async.WithOnDone(func(job async.Job, r ingest.IngestionResult, err error) {
			if err != nil {
				cmd.PrintErrf("FAIL  %s: %v\n", job.Path, err)
				return
			}
			cmd.Printf("%s  %s\n", r.DocumentID, job.Path)
		}),
	)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		queue.Shutdown(sctx)
	}()

	a.logger.Info("watching", "dirs", watchDirs)
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if err := queue.Enqueue(ctx, async.NewJob(path)); err != nil {
				a.logger.Warn("enqueue failed", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			a.logger.Warn("watcher error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}

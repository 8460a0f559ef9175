package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docingest/internal/export"
	"github.com/joseph-ayodele/docingest/internal/ingest"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Ingest every supported file under a directory",
	RunE:  runBatch,
}

var (
	batchDir     string
	batchOut     string
	batchWorkers int
	batchHidden  bool
)

func init() {
	batchCmd.Flags().StringVarP(&batchDir, "dir", "d", "", "Directory to ingest (required)")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "Write an XLSX report to this path")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "Concurrent files (default from BATCH_WORKERS)")
	batchCmd.Flags().BoolVar(&batchHidden, "include-hidden", false, "Also ingest hidden files and directories")
	_ = batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()
	if err := a.openStore(ctx); err != nil {
		return err
	}

	workers := batchWorkers
	if workers <= 0 {
		workers = a.cfg.Batch.Workers
	}
	skipHidden := a.cfg.Batch.SkipHidden && !batchHidden

	results, stats, err := ingest.NewBatch(a.processor, workers, a.logger).IngestDirectory(ctx, batchDir, skipHidden)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != "" {
			cmd.Printf("FAIL  %s: %s\n", r.SourcePath, r.Err)
			continue
		}
		tag := "OK   "
		if r.Deduplicated {
			tag = "DUP  "
		}
		cmd.Printf("%s %s (%s, %d chars)\n", tag, r.SourcePath, r.Format, r.Chars)
	}
	cmd.Printf("\nScanned %d, matched %d, succeeded %d, deduplicated %d, failed %d\n",
		stats.Scanned, stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Failed)

	if batchOut != "" {
		b, err := export.ReportXLSX(results, stats, a.logger)
		if err != nil {
			return err
		}
		if err := os.WriteFile(batchOut, b, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		cmd.Printf("Report written to %s\n", batchOut)
	}
	if stats.Failed > 0 {
		return errors.New("some files failed to ingest")
	}
	return nil
}

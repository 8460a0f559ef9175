package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docingest/internal/ingest"
)

const reportSheet = "Ingestion"

var reportHeaders = []string{
	"Source Path",
	"Format",
	"Status",
	"Document ID",
	"Characters",
	"OCR",
	"Error",
}

// ReportXLSX renders a batch report workbook: one row per file plus a summary
// sheet.
func ReportXLSX(results []ingest.IngestionResult, stats ingest.DirStats, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, err
	}

	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(reportSheet, cell, h)
	}

	row := 2
	for _, r := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(reportSheet, cell, v)
		}
		write(1, r.SourcePath)
		write(2, string(r.Format))
		write(3, status(r))
		write(4, r.DocumentID)
		write(5, r.Chars)
		write(6, r.OCRKind)
		write(7, truncate(r.Err, 240))
		row++
	}

	_ = f.SetColWidth(reportSheet, "A", "A", 60) // path
	_ = f.SetColWidth(reportSheet, "B", "C", 12)
	_ = f.SetColWidth(reportSheet, "D", "D", 38) // uuid
	_ = f.SetColWidth(reportSheet, "E", "F", 12)
	_ = f.SetColWidth(reportSheet, "G", "G", 80) // error

	const summary = "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return nil, err
	}
	for i, kv := range [][2]any{
		{"Scanned", stats.Scanned},
		{"Matched", stats.Matched},
		{"Succeeded", stats.Succeeded},
		{"Deduplicated", stats.Deduplicated},
		{"Failed", stats.Failed},
	} {
		_ = f.SetCellValue(summary, fmt.Sprintf("A%d", i+1), kv[0])
		_ = f.SetCellValue(summary, fmt.Sprintf("B%d", i+1), kv[1])
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("report rendered",
		"rows", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func status(r ingest.IngestionResult) string {
	switch {
	case r.Err != "":
		return "failed"
	case r.Deduplicated:
		return "duplicate"
	default:
		return "ok"
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

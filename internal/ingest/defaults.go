package ingest

import (
	"log/slog"

	"github.com/joseph-ayodele/docingest/constants"
	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/extract/docx"
	"github.com/joseph-ayodele/docingest/internal/extract/markdown"
	"github.com/joseph-ayodele/docingest/internal/extract/pdf"
	"github.com/joseph-ayodele/docingest/internal/extract/text"
	"github.com/joseph-ayodele/docingest/internal/extract/xlsx"
)

// NewDefaultRouter registers an extractor for every supported format. o runs OCR
// for scanned PDFs; a nil o turns OCR outcomes into error sentinels.
func NewDefaultRouter(cfg *common.Config, o pdf.OCR, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	pdfIngestor := pdf.NewIngestor(
		pdf.NewNativeExtractor(logger),
		pdf.NewScanDetector(cfg.OCR.ScanThreshold),
		o,
		logger,
		pdf.WithValidation(cfg.PDF.Validate),
	)
	return NewRouter(logger).
		Register(constants.TXT, text.New(constants.TXT, logger)).
		Register(constants.CSV, text.New(constants.CSV, logger)).
		Register(constants.DOCX, docx.New(logger)).
		Register(constants.XLSX, xlsx.New(logger)).
		Register(constants.MARKDOWN, markdown.New(logger)).
		Register(constants.PDF, pdfIngestor)
}

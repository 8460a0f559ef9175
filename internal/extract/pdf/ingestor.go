package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/docingest/constants"
	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/entity"
	"github.com/joseph-ayodele/docingest/internal/extract"
	"github.com/joseph-ayodele/docingest/internal/fsmeta"
	"github.com/joseph-ayodele/docingest/internal/ocr"
)

// OCR runs recognition on a scanned PDF. *ocr.Orchestrator satisfies it.
type OCR interface {
	Run(ctx context.Context, path string) ocr.Result
}

// Ingestor composes native extraction, scan detection and OCR.
type Ingestor struct {
	native   *NativeExtractor
	detector ScanDetector
	ocr      OCR
	validate bool
	logger   *slog.Logger
}

var _ extract.Extractor = (*Ingestor)(nil)

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithValidation enables a relaxed pdfcpu structural check before extraction.
func WithValidation(enabled bool) IngestorOption {
	return func(i *Ingestor) { i.validate = enabled }
}

func NewIngestor(native *NativeExtractor, detector ScanDetector, o OCR, logger *slog.Logger, opts ...IngestorOption) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	if native == nil {
		native = NewNativeExtractor(logger)
	}
	if detector.MinChars <= 0 {
		detector = NewScanDetector(0)
	}
	i := &Ingestor{native: native, detector: detector, ocr: o, logger: logger}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest extracts a PDF into a document. For a structurally valid PDF it never
// fails: page errors are skipped and OCR failures become sentinel content.
func (i *Ingestor) Ingest(ctx context.Context, path string) (entity.IngestedDocument, error) {
	if i.validate {
		if err := validateFile(path); err != nil {
			i.logger.Warn("pdf failed validation", "path", path, "error", err)
			return entity.IngestedDocument{}, fmt.Errorf("%w: %s: %v", common.ErrInvalidDocument, path, err)
		}
	}

	native, err := i.native.Extract(ctx, path)
	if err != nil {
		return entity.IngestedDocument{}, err
	}

	meta, err := fsmeta.Probe(path)
	if err != nil {
		return entity.IngestedDocument{}, err
	}

	doc := entity.NewDocument(constants.PDF, native.Text, meta)

	if i.detector.IsScanned(native.Pages, native.Text) {
		i.logger.Warn("document appears scanned, running OCR",
			"path", path,
			"file", filepath.Base(path),
			"pages", native.Pages,
		)
		res := i.runOCR(ctx, path)
		doc.Content = res.Content()
		doc.OCR = report(res)
		if !res.OK() {
			i.logger.Warn("ocr did not produce text", "path", path, "kind", res.Kind.String(), "error", res.Err)
		}
	}

	if native.Info.Author != "" {
		meta.SetIfAbsent(entity.KeyCreatedAuthor, native.Info.Author)
	}
	if native.Info.CreationDate != "" {
		meta.SetIfAbsent(entity.KeyCreatedDateInternal, FormatInternalDate(native.Info.CreationDate))
	}
	return doc, nil
}

// Extract lets the router dispatch PDFs to the ingestor.
func (i *Ingestor) Extract(ctx context.Context, path string) (entity.IngestedDocument, error) {
	return i.Ingest(ctx, path)
}

func (i *Ingestor) runOCR(ctx context.Context, path string) ocr.Result {
	if i.ocr == nil {
		return ocr.Result{Kind: ocr.KindError, Err: fmt.Errorf("ocr is not configured")}
	}
	return i.ocr.Run(ctx, path)
}

func report(r ocr.Result) *entity.OCRReport {
	rep := &entity.OCRReport{
		Kind:       r.Kind.String(),
		DurationMS: r.Duration.Round(time.Millisecond).Milliseconds(),
	}
	if r.Err != nil {
		rep.Error = r.Err.Error()
	}
	return rep
}

func validateFile(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.ValidateFile(path, conf)
}

// Package pdf turns PDF files into IngestedDocuments, using the text layer when
// there is one and OCR when the file looks scanned.
package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/docingest/internal/common"
)

// Info holds the document information dictionary entries we surface.
type Info struct {
	Author       string
	CreationDate string // raw PDF date string, e.g. D:20240301101500+02'00'
}

// Document is the read-only view of a parsed PDF used by NativeExtractor.
type Document interface {
	NumPage() int
	// PageText returns the text layer of page i (1-based).
	PageText(i int) (string, error)
	Info() Info
	Close() error
}

// Opener parses the PDF at path.
type Opener func(path string) (Document, error)

// NativeText is the text layer of a PDF.
type NativeText struct {
	Text  string
	Pages int
	Info  Info
}

type NativeExtractor struct {
	open   Opener
	logger *slog.Logger
}

// NativeOption configures a NativeExtractor.
type NativeOption func(*NativeExtractor)

// WithOpener replaces the ledongthuc/pdf backed opener.
func WithOpener(o Opener) NativeOption {
	return func(e *NativeExtractor) {
		if o != nil {
			e.open = o
		}
	}
}

func NewNativeExtractor(logger *slog.Logger, opts ...NativeOption) *NativeExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &NativeExtractor{open: OpenFile, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the text layer of every page. A page that fails is logged and
// treated as empty; only a file that cannot be parsed at all is an error.
func (e *NativeExtractor) Extract(ctx context.Context, path string) (NativeText, error) {
	doc, err := e.open(path)
	if err != nil {
		return NativeText{}, fmt.Errorf("%w: %s: %v", common.ErrInvalidDocument, path, err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			e.logger.Debug("close pdf", "path", path, "error", cerr)
		}
	}()

	numPages := doc.NumPage()
	e.logger.Debug("PDF text extraction starting", "path", path, "pages", numPages)

	texts := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return NativeText{}, err
		}
		if t := e.pageText(doc, i, path); t != "" {
			texts = append(texts, t)
		}
	}

	e.logger.Debug("PDF text extraction finished", "path", path, "pages_with_text", len(texts))
	return NativeText{
		Text:  strings.Join(texts, "\n"),
		Pages: numPages,
		Info:  e.info(doc, path),
	}, nil
}

func (e *NativeExtractor) pageText(doc Document, page int, path string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("page extraction failed", "path", path, "page", page, "error", fmt.Sprintf("panic: %v", r))
			text = ""
		}
	}()
	t, err := doc.PageText(page)
	if err != nil {
		e.logger.Warn("page extraction failed", "path", path, "page", page, "error", err)
		return ""
	}
	return t
}

func (e *NativeExtractor) info(doc Document, path string) (info Info) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pdf info unreadable", "path", path, "error", fmt.Sprintf("panic: %v", r))
			info = Info{}
		}
	}()
	return doc.Info()
}

// ledongthucDoc adapts github.com/ledongthuc/pdf to Document.
type ledongthucDoc struct {
	f *os.File
	r *pdf.Reader
}

// OpenFile opens path with github.com/ledongthuc/pdf.
func OpenFile(path string) (_ Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
		if err != nil {
			_ = f.Close()
		}
	}()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	r, err := pdf.NewReader(f, fi.Size())
	if err != nil {
		return nil, err
	}
	return &ledongthucDoc{f: f, r: r}, nil
}

func (d *ledongthucDoc) NumPage() int { return d.r.NumPage() }

func (d *ledongthucDoc) PageText(i int) (string, error) {
	page := d.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (d *ledongthucDoc) Info() Info {
	info := d.r.Trailer().Key("Info")
	if info.IsNull() {
		return Info{}
	}
	return Info{
		Author:       strings.TrimSpace(info.Key("Author").Text()),
		CreationDate: strings.TrimSpace(info.Key("CreationDate").Text()),
	}
}

func (d *ledongthucDoc) Close() error { return d.f.Close() }

package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docingest/constants"
	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/entity"
	"github.com/joseph-ayodele/docingest/internal/ocr"
	"github.com/joseph-ayodele/docingest/internal/testutil"
)

// page is one fake page: text, or an error, or a panic.
type page struct {
	text  string
	err   error
	panic bool
}

type fakeDoc struct {
	pages  []page
	info   Info
	closed bool
}

func (d *fakeDoc) NumPage() int { return len(d.pages) }
func (d *fakeDoc) Info() Info   { return d.info }
func (d *fakeDoc) Close() error { d.closed = true; return nil }

func (d *fakeDoc) PageText(i int) (string, error) {
	p := d.pages[i-1]
	if p.panic {
		panic("malformed content stream")
	}
	return p.text, p.err
}

func openerFor(doc *fakeDoc) Opener {
	return func(string) (Document, error) { return doc, nil }
}

type fakeOCR struct {
	calls  int
	result ocr.Result
}

func (f *fakeOCR) Run(context.Context, string) ocr.Result {
	f.calls++
	return f.result
}

func tempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%%EOF\n"), 0o644))
	return path
}

func TestScanDetector(t *testing.T) {
	d := NewScanDetector(0)
	require.Equal(t, 50, d.MinChars)

	tests := []struct {
		name  string
		pages int
		text  string
		want  bool
	}{
		{"zero pages empty text", 0, "", false},
		{"zero pages short text", 0, "abc", false},
		{"49 chars", 1, strings.Repeat("a", 49), true},
		{"50 chars", 1, strings.Repeat("a", 50), false},
		{"51 chars", 3, strings.Repeat("a", 51), false},
		{"padding is stripped", 1, "   \n" + strings.Repeat("a", 49) + "\n\t ", true},
		{"whitespace only", 2, " \n\n ", true},
		{"invoice number", 1, "Invoice #42", true},
		{"multibyte counted as runes", 1, strings.Repeat("ă", 50), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, d.IsScanned(tc.pages, tc.text))
		})
	}
}

func TestNativeExtractor_SkipsFailingPages(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	doc := &fakeDoc{pages: []page{{err: errors.New("bad xref")}, {text: "ABC"}}}
	e := NewNativeExtractor(logger, WithOpener(openerFor(doc)))

	got, err := e.Extract(context.Background(), "doc.pdf")
	require.NoError(t, err)

	assert.Equal(t, "ABC", got.Text)
	assert.Equal(t, 2, got.Pages)
	assert.True(t, doc.closed)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "page extraction failed")
	assert.Contains(t, logs.String(), "page=1")
}

func TestNativeExtractor_RecoversPanickingPage(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	doc := &fakeDoc{pages: []page{{text: "first"}, {panic: true}, {text: ""}, {text: "last"}}}
	e := NewNativeExtractor(logger, WithOpener(openerFor(doc)))

	got, err := e.Extract(context.Background(), "doc.pdf")
	require.NoError(t, err)

	assert.Equal(t, "first\nlast", got.Text)
	assert.Contains(t, logs.String(), "malformed content stream")
}

func TestNativeExtractor_OpenFailure(t *testing.T) {
	e := NewNativeExtractor(nil, WithOpener(func(string) (Document, error) {
		return nil, errors.New("not a pdf")
	}))
	_, err := e.Extract(context.Background(), "doc.pdf")
	assert.ErrorIs(t, err, common.ErrInvalidDocument)
}

func TestOpenFile_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	_, err := OpenFile(path)
	assert.Error(t, err)
}

func TestIngestor_ScannedRoutesToOCR(t *testing.T) {
	path := tempPDF(t)
	logger, logs := testutil.NewTestLogger(t)
	doc := &fakeDoc{pages: []page{{text: "Invoice #42"}}}
	o := &fakeOCR{result: ocr.Result{Kind: ocr.KindOK, Text: "Factura 42\nTotal: 100 RON"}}
	ing := NewIngestor(NewNativeExtractor(logger, WithOpener(openerFor(doc))), NewScanDetector(50), o, logger)

	got, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, o.calls)
	assert.Equal(t, constants.PDF, got.Format)
	assert.Equal(t, "Factura 42\nTotal: 100 RON", got.Content)
	require.NotNil(t, got.OCR)
	assert.Equal(t, "ok", got.OCR.Kind)
	assert.Contains(t, logs.String(), "document appears scanned, running OCR")
}

func TestIngestor_NativeTextSkipsOCR(t *testing.T) {
	path := tempPDF(t)
	text := strings.Repeat("Lorem ipsum ", 6) + "dolor si" // 80 chars
	require.Len(t, text, 80)
	doc := &fakeDoc{pages: []page{{text: text}}}
	o := &fakeOCR{}
	ing := NewIngestor(NewNativeExtractor(nil, WithOpener(openerFor(doc))), NewScanDetector(50), o, nil)

	got, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Zero(t, o.calls)
	assert.Equal(t, text, got.Content)
	assert.Nil(t, got.OCR)
	assert.True(t, got.OCRSucceeded())
}

func TestIngestor_OCRFailureBecomesSentinel(t *testing.T) {
	path := tempPDF(t)
	doc := &fakeDoc{pages: []page{{text: ""}, {text: ""}}}
	o := &fakeOCR{result: ocr.Result{Kind: ocr.KindFailed, Err: errors.New("exit status 2")}}
	ing := NewIngestor(NewNativeExtractor(nil, WithOpener(openerFor(doc))), NewScanDetector(50), o, nil)

	got, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, ocr.SentinelFailed, got.Content)
	require.NotNil(t, got.OCR)
	assert.Equal(t, "failed", got.OCR.Kind)
	assert.Equal(t, "exit status 2", got.OCR.Error)
	assert.False(t, got.OCRSucceeded())
}

func TestIngestor_ZeroPagesNeverOCR(t *testing.T) {
	path := tempPDF(t)
	o := &fakeOCR{}
	ing := NewIngestor(NewNativeExtractor(nil, WithOpener(openerFor(&fakeDoc{}))), NewScanDetector(50), o, nil)

	got, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, o.calls)
	assert.Equal(t, "", got.Content)
}

func TestIngestor_Metadata(t *testing.T) {
	path := tempPDF(t)
	doc := &fakeDoc{
		pages: []page{{text: strings.Repeat("x", 60)}},
		info:  Info{Author: "PDF_User", CreationDate: "D:20240301101500+02'00'"},
	}
	ing := NewIngestor(NewNativeExtractor(nil, WithOpener(openerFor(doc))), NewScanDetector(50), nil, nil)

	got, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{
		entity.KeyFileName, entity.KeyFileSize, entity.KeyCreatedDate, entity.KeyModifiedDate,
		entity.KeyCreatedAuthor, entity.KeyCreatedDateInternal,
	}, got.Metadata.Keys())
	assert.Equal(t, "invoice.pdf", got.Metadata.GetString(entity.KeyFileName))
	assert.Equal(t, "PDF_User", got.Metadata.GetString(entity.KeyCreatedAuthor))
	assert.Equal(t, "2024-03-01 10:15:00+02:00", got.Metadata.GetString(entity.KeyCreatedDateInternal))
}

func TestIngestor_NoInfoMeansNoExtraKeys(t *testing.T) {
	path := tempPDF(t)
	doc := &fakeDoc{pages: []page{{text: strings.Repeat("x", 60)}}}
	ing := NewIngestor(NewNativeExtractor(nil, WithOpener(openerFor(doc))), NewScanDetector(50), nil, nil)

	got, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Metadata.Len())
	assert.False(t, got.Metadata.Has(entity.KeyCreatedAuthor))
}

func TestIngestor_ValidationRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))
	ing := NewIngestor(nil, NewScanDetector(50), nil, nil, WithValidation(true))

	_, err := ing.Ingest(context.Background(), path)
	assert.ErrorIs(t, err, common.ErrInvalidDocument)
}

func TestFormatInternalDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"D:20240301101500+02'00'", "2024-03-01 10:15:00+02:00"},
		{"D:20240301101500-05'30", "2024-03-01 10:15:00-05:30"},
		{"D:20240301101500Z", "2024-03-01 10:15:00+00:00"},
		{"D:20240301", "2024-03-01 00:00:00"},
		{"20231231235959", "2023-12-31 23:59:59"},
		{"yesterday", "yesterday"},
		{"D:2024xx", "D:2024xx"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatInternalDate(tc.in))
		})
	}
}

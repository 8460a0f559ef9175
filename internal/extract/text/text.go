// Package text reads plain-text and CSV files.
package text

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/joseph-ayodele/docingest/constants"
	"github.com/joseph-ayodele/docingest/internal/entity"
	"github.com/joseph-ayodele/docingest/internal/fsmeta"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Extractor struct {
	format constants.Format
	logger *slog.Logger
}

// New returns an extractor that tags documents with format (TXT or CSV).
func New(format constants.Format, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if format == "" {
		format = constants.TXT
	}
	return &Extractor{format: format, logger: logger}
}

// Extract reads the file as UTF-8, falling back to Latin-1 when the bytes are
// not valid UTF-8. Line endings are normalized to "\n".
func (e *Extractor) Extract(_ context.Context, path string) (entity.IngestedDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return entity.IngestedDocument{}, fmt.Errorf("read %s: %w", path, err)
	}
	content, err := Decode(raw)
	if err != nil {
		return entity.IngestedDocument{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if !utf8.Valid(raw) {
		e.logger.Debug("file is not utf-8, decoded as latin-1", "path", path)
	}

	meta, err := fsmeta.Probe(path)
	if err != nil {
		return entity.IngestedDocument{}, err
	}
	return entity.NewDocument(e.format, content, meta), nil
}

// Decode converts raw file bytes to a string.
func Decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		dec, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
		raw = dec
	}
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	raw = bytes.ReplaceAll(raw, []byte("\r"), []byte("\n"))
	return string(raw), nil
}

// Package xlsx extracts cell text from Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docingest/constants"
	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/entity"
	"github.com/joseph-ayodele/docingest/internal/fsmeta"
)

const cellSeparator = " | "

type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract emits "--- Sheet: <name> ---" for every sheet followed by one line per
// non-empty row, its non-empty cells joined by " | ". Cell values are the cached
// results, not formulas.
func (e *Extractor) Extract(ctx context.Context, path string) (entity.IngestedDocument, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return entity.IngestedDocument{}, fmt.Errorf("%w: %s: %v", common.ErrInvalidDocument, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Debug("close workbook", "path", path, "error", cerr)
		}
	}()

	var lines []string
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return entity.IngestedDocument{}, err
		}
		lines = append(lines, fmt.Sprintf("--- Sheet: %s ---", sheet))
		rows, err := f.GetRows(sheet)
		if err != nil {
			e.logger.Warn("sheet unreadable", "path", path, "sheet", sheet, "error", err)
			continue
		}
		for _, row := range rows {
			if line := joinRow(row); line != "" {
				lines = append(lines, line)
			}
		}
	}

	meta, err := fsmeta.Probe(path)
	if err != nil {
		return entity.IngestedDocument{}, err
	}
	if props, err := f.GetDocProps(); err == nil && props != nil {
		if c := strings.TrimSpace(props.Creator); c != "" {
			meta.SetIfAbsent(entity.KeyCreatedAuthor, c)
		}
		if m := strings.TrimSpace(props.LastModifiedBy); m != "" {
			meta.SetIfAbsent(entity.KeyModifiedAuthor, m)
		}
	} else if err != nil {
		e.logger.Debug("workbook properties unreadable", "path", path, "error", err)
	}

	return entity.NewDocument(constants.XLSX, strings.Join(lines, "\n"), meta), nil
}

func joinRow(row []string) string {
	cells := make([]string, 0, len(row))
	for _, c := range row {
		if c != "" {
			cells = append(cells, c)
		}
	}
	return strings.Join(cells, cellSeparator)
}

// Package docx extracts text and core properties from Word (.docx) files.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docingest/constants"
	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/entity"
	"github.com/joseph-ayodele/docingest/internal/fsmeta"
)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract returns body paragraphs, one per line, followed by the text of every
// table cell.
func (e *Extractor) Extract(_ context.Context, path string) (entity.IngestedDocument, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return entity.IngestedDocument{}, fmt.Errorf("%w: %s: %v", common.ErrInvalidDocument, path, err)
	}
	defer zr.Close()

	body, err := readPart(&zr.Reader, documentPart)
	if err != nil {
		return entity.IngestedDocument{}, fmt.Errorf("%w: %s: %v", common.ErrInvalidDocument, path, err)
	}
	content, err := ParseDocument(body)
	if err != nil {
		return entity.IngestedDocument{}, fmt.Errorf("%w: %s: %v", common.ErrInvalidDocument, path, err)
	}

	meta, err := fsmeta.Probe(path)
	if err != nil {
		return entity.IngestedDocument{}, err
	}

	if raw, err := readPart(&zr.Reader, corePart); err == nil {
		props, perr := ParseCore(raw)
		if perr != nil {
			e.logger.Warn("docx core properties unreadable", "path", path, "error", perr)
		} else {
			props.apply(meta)
		}
	} else if !errors.Is(err, errPartMissing) {
		e.logger.Warn("docx core properties unreadable", "path", path, "error", err)
	}

	return entity.NewDocument(constants.DOCX, content, meta), nil
}

var errPartMissing = errors.New("part missing")

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s: %w", name, errPartMissing)
}

// ParseDocument walks word/document.xml. Top-level paragraphs come first, in
// order; table cells follow, each cell's paragraphs joined by "\n".
func ParseDocument(body []byte) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(string(body)))

	var (
		paras, cells []string
		para, cell   *strings.Builder
		cellHasPara  bool
		tblDepth     int
		runDepth     int
		inText       bool
	)
	target := func() *strings.Builder {
		if tblDepth == 0 {
			return para
		}
		return cell
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "tc":
				if tblDepth == 1 {
					cell = &strings.Builder{}
					cellHasPara = false
				}
			case "p":
				if tblDepth == 0 {
					para = &strings.Builder{}
				} else if cell != nil {
					if cellHasPara {
						cell.WriteString("\n")
					}
					cellHasPara = true
				}
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				// w:tab also defines tab stops inside paragraph properties.
				if b := target(); b != nil && runDepth > 0 {
					b.WriteString("\t")
				}
			case "br", "cr":
				if b := target(); b != nil && runDepth > 0 {
					b.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "r":
				runDepth--
			case "t":
				inText = false
			case "p":
				if tblDepth == 0 && para != nil {
					paras = append(paras, para.String())
					para = nil
				}
			case "tc":
				if tblDepth == 1 && cell != nil {
					cells = append(cells, cell.String())
					cell = nil
				}
			case "tbl":
				tblDepth--
			}
		case xml.CharData:
			if inText {
				if b := target(); b != nil {
					b.Write(t)
				}
			}
		}
	}
	return strings.Join(append(paras, cells...), "\n"), nil
}

// CoreProperties holds the docProps/core.xml fields we surface.
type CoreProperties struct {
	Creator        string `xml:"creator"`
	LastModifiedBy string `xml:"lastModifiedBy"`
	Created        string `xml:"created"`
}

func ParseCore(raw []byte) (CoreProperties, error) {
	var p CoreProperties
	if err := xml.Unmarshal(raw, &p); err != nil {
		return CoreProperties{}, err
	}
	p.Creator = strings.TrimSpace(p.Creator)
	p.LastModifiedBy = strings.TrimSpace(p.LastModifiedBy)
	p.Created = strings.TrimSpace(p.Created)
	return p, nil
}

func (p CoreProperties) apply(meta *entity.Metadata) {
	if p.Creator != "" {
		meta.SetIfAbsent(entity.KeyCreatedAuthor, p.Creator)
	}
	if p.LastModifiedBy != "" {
		meta.SetIfAbsent(entity.KeyModifiedAuthor, p.LastModifiedBy)
	}
	if p.Created != "" {
		created := p.Created
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			created = t.Format(time.RFC3339)
		}
		meta.SetIfAbsent(entity.KeyCreatedDateInternal, created)
	}
}

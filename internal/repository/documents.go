package repository

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docingest/constants"
	"github.com/joseph-ayodele/docingest/internal/entity"
)

// DocumentRecord is a persisted IngestedDocument.
type DocumentRecord struct {
	ID          uuid.UUID
	SourcePath  string
	ContentHash []byte
	IngestedAt  time.Time
	Document    entity.IngestedDocument
}

// HashHex returns the content hash as lowercase hex.
func (r DocumentRecord) HashHex() string {
	return hex.EncodeToString(r.ContentHash)
}

// DocumentRepository stores documents, one row per distinct file content.
type DocumentRepository interface {
	// UpsertByHash inserts doc unless a row with the same content hash exists,
	// in which case the existing row is returned with deduplicated=true. A row
	// whose OCR run did not succeed is the exception: it is overwritten in
	// place, keeping its ID, and returned with deduplicated=false.
	UpsertByHash(ctx context.Context, sourcePath string, hash []byte, doc entity.IngestedDocument, at time.Time) (rec *DocumentRecord, deduplicated bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*DocumentRecord, error)
	GetByHash(ctx context.Context, hash []byte) (*DocumentRecord, error)
	// List returns the newest documents first.
	List(ctx context.Context, limit, offset int) ([]DocumentRecord, error)
	Close() error
}

const defaultListLimit = 50

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 1000 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// row holds the column encoding shared by both drivers.
type row struct {
	id         string
	sourcePath string
	hash       []byte
	format     string
	content    string
	metadata   string
	ocr        *string
	ocrKind    *string // mirrors ocr.kind so upserts can test it
	ingestedAt time.Time
}

func encodeRow(id uuid.UUID, sourcePath string, hash []byte, doc entity.IngestedDocument, at time.Time) (row, error) {
	meta := doc.Metadata
	if meta == nil {
		meta = entity.NewMetadata()
	}
	mb, err := json.Marshal(meta)
	if err != nil {
		return row{}, fmt.Errorf("encode metadata: %w", err)
	}
	r := row{
		id:         id.String(),
		sourcePath: sourcePath,
		hash:       hash,
		format:     string(doc.Format),
		content:    doc.Content,
		metadata:   string(mb),
		ingestedAt: at.UTC(),
	}
	if doc.OCR != nil {
		ob, err := json.Marshal(doc.OCR)
		if err != nil {
			return row{}, fmt.Errorf("encode ocr report: %w", err)
		}
		s := string(ob)
		r.ocr = &s
		kind := doc.OCR.Kind
		r.ocrKind = &kind
	}
	return r, nil
}

func (r row) decode() (*DocumentRecord, error) {
	id, err := uuid.Parse(r.id)
	if err != nil {
		return nil, fmt.Errorf("decode id %q: %w", r.id, err)
	}
	meta := entity.NewMetadata()
	if r.metadata != "" {
		if err := json.Unmarshal([]byte(r.metadata), meta); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	doc := entity.NewDocument(constants.Format(r.format), r.content, meta)
	if r.ocr != nil && *r.ocr != "" {
		var rep entity.OCRReport
		if err := json.Unmarshal([]byte(*r.ocr), &rep); err != nil {
			return nil, fmt.Errorf("decode ocr report: %w", err)
		}
		doc.OCR = &rep
	}
	return &DocumentRecord{
		ID:          id,
		SourcePath:  r.sourcePath,
		ContentHash: r.hash,
		IngestedAt:  r.ingestedAt,
		Document:    doc,
	}, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/entity"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
    id            UUID PRIMARY KEY,
    source_path   TEXT NOT NULL,
    content_hash  BYTEA NOT NULL UNIQUE,
    format        TEXT NOT NULL,
    content       TEXT NOT NULL,
    metadata_json TEXT NOT NULL DEFAULT '{}',
    ocr_json      TEXT,
    ocr_kind      TEXT,
    ingested_at   TIMESTAMPTZ NOT NULL
);
ALTER TABLE documents ADD COLUMN IF NOT EXISTS ocr_kind TEXT;
CREATE INDEX IF NOT EXISTS idx_documents_ingested_at ON documents (ingested_at DESC);
CREATE INDEX IF NOT EXISTS idx_documents_format ON documents (format);
`

// metadata_json stays TEXT: JSONB would reorder the keys.
const postgresColumns = "id::text, source_path, content_hash, format, content, metadata_json, ocr_json, ingested_at"

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ DocumentRepository = (*postgresRepo)(nil)

// NewPostgres wraps an open pool and ensures the schema exists.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (DocumentRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("%w: create schema: %v", common.ErrDatabase, err)
	}
	return &postgresRepo{pool: pool, logger: logger}, nil
}

func (r *postgresRepo) UpsertByHash(ctx context.Context, sourcePath string, hash []byte, doc entity.IngestedDocument, at time.Time) (*DocumentRecord, bool, error) {
	enc, err := encodeRow(uuid.New(), sourcePath, hash, doc, at)
	if err != nil {
		return nil, false, err
	}
	var id string
	err = r.pool.QueryRow(ctx,
		`INSERT INTO documents (id, source_path, content_hash, format, content, metadata_json, ocr_json, ingested_at, ocr_kind)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (content_hash) DO UPDATE SET
		     source_path = EXCLUDED.source_path,
		     format = EXCLUDED.format,
		     content = EXCLUDED.content,
		     metadata_json = EXCLUDED.metadata_json,
		     ocr_json = EXCLUDED.ocr_json,
		     ocr_kind = EXCLUDED.ocr_kind,
		     ingested_at = EXCLUDED.ingested_at
		 WHERE `+degradedOCR+`
		 RETURNING id::text`,
		enc.id, enc.sourcePath, enc.hash, enc.format, enc.content, enc.metadata, enc.ocr, enc.ingestedAt, enc.ocrKind,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err := r.GetByHash(ctx, hash)
		if err != nil {
			return nil, false, err
		}
		return existing, true, nil
	}
	if err != nil {
		r.logger.Error("failed to upsert document by hash", "source_path", sourcePath, "error", err)
		return nil, false, fmt.Errorf("%w: insert document: %v", common.ErrDatabase, err)
	}
	if id != enc.id {
		r.logger.Info("replaced document with failed ocr", "id", id, "source_path", sourcePath)
		enc.id = id
	}
	rec, err := enc.decode()
	return rec, false, err
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*DocumentRecord, error) {
	return r.one(ctx, "SELECT "+postgresColumns+" FROM documents WHERE id = $1::uuid", id.String())
}

func (r *postgresRepo) GetByHash(ctx context.Context, hash []byte) (*DocumentRecord, error) {
	return r.one(ctx, "SELECT "+postgresColumns+" FROM documents WHERE content_hash = $1", hash)
}

func (r *postgresRepo) List(ctx context.Context, limit, offset int) ([]DocumentRecord, error) {
	limit, offset = normalizePage(limit, offset)
	rows, err := r.pool.Query(ctx,
		"SELECT "+postgresColumns+" FROM documents ORDER BY ingested_at DESC, id LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []DocumentRecord
	for rows.Next() {
		rec, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

// Close is a no-op: the pool is owned by whoever opened it.
func (r *postgresRepo) Close() error { return nil }

func (r *postgresRepo) one(ctx context.Context, query string, arg any) (*DocumentRecord, error) {
	rec, err := scanPostgres(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: document", common.ErrNotFound)
	}
	return rec, err
}

func scanPostgres(s pgx.Row) (*DocumentRecord, error) {
	var rw row
	if err := s.Scan(&rw.id, &rw.sourcePath, &rw.hash, &rw.format, &rw.content, &rw.metadata, &rw.ocr, &rw.ingestedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scan document: %v", common.ErrDatabase, err)
	}
	return rw.decode()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/entity"
	"github.com/joseph-ayodele/docingest/internal/repository/migrations"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// storedTimeLayout is fixed width so ingested_at sorts as text.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

type sqliteRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ DocumentRepository = (*sqliteRepo)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (DocumentRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := "file::memory:?_pragma=busy_timeout(5000)"
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	logger.Info("opening sqlite store", "path", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == MemoryPath {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite: %v", common.ErrDatabase, err)
	}

	r := &sqliteRepo{db: db, logger: logger}
	if err := r.migrate(ctx, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return r, nil
}

func (r *sqliteRepo) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := r.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		r.logger.Debug("applied migration", "name", name)
	}
	return nil
}

// degradedOCR matches a stored row whose OCR run did not produce text.
const degradedOCR = "documents.ocr_kind IS NOT NULL AND documents.ocr_kind <> 'ok'"

const sqliteColumns = "id, source_path, content_hash, format, content, metadata_json, ocr_json, ingested_at"

func (r *sqliteRepo) UpsertByHash(ctx context.Context, sourcePath string, hash []byte, doc entity.IngestedDocument, at time.Time) (*DocumentRecord, bool, error) {
	enc, err := encodeRow(uuid.New(), sourcePath, hash, doc, at)
	if err != nil {
		return nil, false, err
	}
	var id string
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO documents (`+sqliteColumns+`, ocr_kind) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash) DO UPDATE SET
		     source_path = excluded.source_path,
		     format = excluded.format,
		     content = excluded.content,
		     metadata_json = excluded.metadata_json,
		     ocr_json = excluded.ocr_json,
		     ocr_kind = excluded.ocr_kind,
		     ingested_at = excluded.ingested_at
		 WHERE `+degradedOCR+`
		 RETURNING id`,
		enc.id, enc.sourcePath, enc.hash, enc.format, enc.content, enc.metadata, enc.ocr,
		enc.ingestedAt.UTC().Format(storedTimeLayout), enc.ocrKind,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
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

func (r *sqliteRepo) GetByID(ctx context.Context, id uuid.UUID) (*DocumentRecord, error) {
	return r.one(ctx, "SELECT "+sqliteColumns+" FROM documents WHERE id = ?", id.String())
}

func (r *sqliteRepo) GetByHash(ctx context.Context, hash []byte) (*DocumentRecord, error) {
	return r.one(ctx, "SELECT "+sqliteColumns+" FROM documents WHERE content_hash = ?", hash)
}

func (r *sqliteRepo) List(ctx context.Context, limit, offset int) ([]DocumentRecord, error) {
	limit, offset = normalizePage(limit, offset)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sqliteColumns+" FROM documents ORDER BY ingested_at DESC, id LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []DocumentRecord
	for rows.Next() {
		rec, err := scanSQLite(rows)
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

func (r *sqliteRepo) Close() error {
	return r.db.Close()
}

func (r *sqliteRepo) one(ctx context.Context, query string, arg any) (*DocumentRecord, error) {
	rec, err := scanSQLite(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document", common.ErrNotFound)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(s scanner) (*DocumentRecord, error) {
	var (
		rw  row
		ocr sql.NullString
		at  string
	)
	if err := s.Scan(&rw.id, &rw.sourcePath, &rw.hash, &rw.format, &rw.content, &rw.metadata, &ocr, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scan document: %v", common.ErrDatabase, err)
	}
	if ocr.Valid {
		rw.ocr = &ocr.String
	}
	t, err := time.Parse(storedTimeLayout, at)
	if err != nil {
		return nil, fmt.Errorf("decode ingested_at %q: %w", at, err)
	}
	rw.ingestedAt = t
	return rw.decode()
}

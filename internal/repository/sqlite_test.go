package repository

import (
	"context"
	"database/sql"
	"io/fs"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docingest/constants"
	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/entity"
	"github.com/joseph-ayodele/docingest/internal/repository/migrations"
)

func setupStore(t *testing.T) DocumentRepository {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, repo.Close()) })
	return repo
}

func sampleDoc() entity.IngestedDocument {
	meta := entity.NewMetadata()
	meta.Set(entity.KeyFileName, "scan.pdf")
	meta.Set(entity.KeyFileSize, 1024)
	meta.Set(entity.KeyCreatedDate, "2024-01-01T00:00:00Z")
	meta.Set(entity.KeyModifiedDate, "2024-01-02T00:00:00Z")
	meta.Set(entity.KeyCreatedAuthor, "PDF_User")
	doc := entity.NewDocument(constants.PDF, "Factura 42", meta)
	doc.OCR = &entity.OCRReport{Kind: "ok", DurationMS: 1200}
	return doc
}

func TestSQLite_UpsertByHashDeduplicates(t *testing.T) {
	repo := setupStore(t)
	ctx := context.Background()
	hash := []byte{0xde, 0xad, 0xbe, 0xef}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first, dedup, err := repo.UpsertByHash(ctx, "/in/scan.pdf", hash, sampleDoc(), at)
	require.NoError(t, err)
	assert.False(t, dedup)
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, "deadbeef", first.HashHex())

	second, dedup, err := repo.UpsertByHash(ctx, "/other/copy.pdf", hash, entity.NewDocument(constants.PDF, "different", nil), at.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, dedup)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "/in/scan.pdf", second.SourcePath)
	assert.Equal(t, "Factura 42", second.Document.Content)
}

func degradedDoc(kind, content string) entity.IngestedDocument {
	doc := sampleDoc()
	doc.Content = content
	doc.OCR = &entity.OCRReport{Kind: kind, Error: "deadline exceeded"}
	return doc
}

func TestSQLite_UpsertByHashReplacesFailedOCR(t *testing.T) {
	repo := setupStore(t)
	ctx := context.Background()
	hash := []byte{0xca, 0xfe}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first, dedup, err := repo.UpsertByHash(ctx, "/in/scan.pdf", hash, degradedDoc("timeout", "[ERROR: OCR timed out]"), at)
	require.NoError(t, err)
	assert.False(t, dedup)

	retried, dedup, err := repo.UpsertByHash(ctx, "/in/scan.pdf", hash, degradedDoc("failed", "[ERROR: OCR Failed]"), at.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, dedup, "a failed run may replace another failed run")
	assert.Equal(t, first.ID, retried.ID)

	healed, dedup, err := repo.UpsertByHash(ctx, "/in/renamed.pdf", hash, sampleDoc(), at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, dedup)
	assert.Equal(t, first.ID, healed.ID)
	assert.Equal(t, "Factura 42", healed.Document.Content)

	stored, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "/in/renamed.pdf", stored.SourcePath)
	assert.Equal(t, "Factura 42", stored.Document.Content)
	require.NotNil(t, stored.Document.OCR)
	assert.Equal(t, "ok", stored.Document.OCR.Kind)
	assert.True(t, stored.IngestedAt.Equal(at.Add(time.Hour)))

	again, dedup, err := repo.UpsertByHash(ctx, "/in/scan.pdf", hash, degradedDoc("timeout", "[ERROR: OCR timed out]"), at.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, dedup, "a successful row is never overwritten")
	assert.Equal(t, "Factura 42", again.Document.Content)

	all, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLite_NativeTextIsNeverReplaced(t *testing.T) {
	repo := setupStore(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	native := entity.NewDocument(constants.PDF, "native text layer", nil)

	_, _, err := repo.UpsertByHash(ctx, "/in/a.pdf", []byte{7}, native, at)
	require.NoError(t, err)
	got, dedup, err := repo.UpsertByHash(ctx, "/in/a.pdf", []byte{7}, sampleDoc(), at)
	require.NoError(t, err)
	assert.True(t, dedup)
	assert.Equal(t, "native text layer", got.Document.Content)
}

func TestSQLite_MigrationBackfillsOCRKind(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	r := &sqliteRepo{db: db, logger: slog.Default()}

	first, err := fs.ReadFile(migrations.FS, "001_documents.up.sql")
	require.NoError(t, err)
	require.NoError(t, r.migrate(ctx, fstest.MapFS{"001_documents.up.sql": {Data: first}}))
	_, err = db.ExecContext(ctx,
		`INSERT INTO documents (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, '{}', ?, ?)`,
		uuid.NewString(), "/in/old.pdf", []byte{9}, "pdf", "[ERROR: OCR Failed]",
		`{"kind":"failed","duration_ms":0}`, "2024-01-01T00:00:00.000000000Z")
	require.NoError(t, err)

	require.NoError(t, r.migrate(ctx, migrations.FS))
	var kind string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT ocr_kind FROM documents").Scan(&kind))
	assert.Equal(t, "failed", kind)

	rec, dedup, err := r.UpsertByHash(ctx, "/in/old.pdf", []byte{9}, sampleDoc(), time.Now())
	require.NoError(t, err)
	assert.False(t, dedup)
	assert.Equal(t, "Factura 42", rec.Document.Content)
}

func TestSQLite_GetByIDRoundTrip(t *testing.T) {
	repo := setupStore(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec, _, err := repo.UpsertByHash(ctx, "/in/scan.pdf", []byte{1}, sampleDoc(), at)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.PDF, got.Document.Format)
	assert.Equal(t, sampleDoc().Metadata.Keys(), got.Document.Metadata.Keys())
	size, _ := got.Document.Metadata.Get(entity.KeyFileSize)
	assert.Equal(t, int64(1024), size)
	require.NotNil(t, got.Document.OCR)
	assert.Equal(t, int64(1200), got.Document.OCR.DurationMS)
	assert.True(t, got.IngestedAt.Equal(at))
}

func TestSQLite_GetByIDNotFound(t *testing.T) {
	repo := setupStore(t)
	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLite_ListNewestFirst(t *testing.T) {
	repo := setupStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		doc := entity.NewDocument(constants.TXT, "doc", nil)
		_, _, err := repo.UpsertByHash(ctx, "/in/f.txt", []byte{byte(i)}, doc, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].IngestedAt.After(all[1].IngestedAt))
	assert.Nil(t, all[0].Document.OCR)

	page, err := repo.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, all[2].ID, page[0].ID)
}

func TestSQLite_FileBackedReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "docs.db")
	ctx := context.Background()

	repo, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	rec, _, err := repo.UpsertByHash(ctx, "/in/a.txt", []byte{9}, entity.NewDocument(constants.TXT, "a", nil), time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Document.Content)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), common.StoreConfig{Driver: "mysql"}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

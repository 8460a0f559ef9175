package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docingest/internal/testutil"
)

type fakeIngestor struct {
	mu       sync.Mutex
	seen     []string
	inFlight int32
	peak     int32
	fail     map[string]error
	dedup    map[string]bool
}

func (f *fakeIngestor) IngestFile(_ context.Context, path string) (IngestionResult, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	atomic.AddInt32(&f.inFlight, -1)

	f.mu.Lock()
	f.seen = append(f.seen, filepath.Base(path))
	f.mu.Unlock()

	if err := f.fail[filepath.Base(path)]; err != nil {
		return IngestionResult{}, err
	}
	return IngestionResult{DocumentID: "id-" + filepath.Base(path), Deduplicated: f.dedup[filepath.Base(path)]}, nil
}

func TestBatch_IngestDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.txt", "a")
	touch(t, dir, "b.pdf", "b")
	touch(t, dir, "b.pdf.txt", "sidecar")
	touch(t, dir, "b.pdf_ocr.pdf", "derived")
	touch(t, dir, "c.png", "img")
	touch(t, dir, "sub/d.docx", "d")
	touch(t, dir, "sub/old.doc", "legacy")
	touch(t, dir, ".hidden/e.txt", "e")
	touch(t, dir, ".f.csv", "f")

	fi := &fakeIngestor{
		fail:  map[string]error{"old.doc": errors.New("legacy .doc format not supported")},
		dedup: map[string]bool{"a.txt": true},
	}
	logger, _ := testutil.NewTestLogger(t)
	b := NewBatch(fi, 2, logger)

	results, stats, err := b.IngestDirectory(context.Background(), dir, true)
	require.NoError(t, err)

	sort.Strings(fi.seen)
	assert.Equal(t, []string{"a.txt", "b.pdf", "d.docx", "old.doc"}, fi.seen)
	assert.Equal(t, uint32(4), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.LessOrEqual(t, atomic.LoadInt32(&fi.peak), int32(2))

	require.Len(t, results, 4)
	byName := map[string]IngestionResult{}
	for _, r := range results {
		byName[filepath.Base(r.SourcePath)] = r
	}
	assert.Equal(t, "id-b.pdf", byName["b.pdf"].DocumentID)
	assert.Contains(t, byName["old.doc"].Err, "legacy")
}

func TestBatch_IncludesHiddenWhenAsked(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, ".hidden/e.txt", "e")

	fi := &fakeIngestor{}
	_, stats, err := NewBatch(fi, 1, nil).IngestDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.Succeeded)
}

func TestBatch_EmptyRoot(t *testing.T) {
	_, _, err := NewBatch(&fakeIngestor{}, 1, nil).IngestDirectory(context.Background(), " ", true)
	assert.Error(t, err)
}

func TestBatch_Cancelled(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.txt", "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewBatch(&fakeIngestor{}, 1, nil).IngestDirectory(ctx, dir, true)
	assert.ErrorIs(t, err, context.Canceled)
}

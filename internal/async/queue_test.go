package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docingest/internal/ingest"
)

type recordingIngestor struct {
	mu    sync.Mutex
	paths []string
	delay time.Duration
}

func (r *recordingIngestor) IngestFile(ctx context.Context, path string) (ingest.IngestionResult, error) {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ingest.IngestionResult{}, ctx.Err()
		}
	}
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	if path == "bad.pdf" {
		return ingest.IngestionResult{}, errors.New("boom")
	}
	return ingest.IngestionResult{SourcePath: path, DocumentID: "doc-" + path}, nil
}

func TestProcessorQueue_DrainsOnShutdown(t *testing.T) {
	ri := &recordingIngestor{}
	var mu sync.Mutex
	var failed []string
	q := NewProcessorQueue(ri, nil,
		WithWorkers(3),
		WithQueueSize(2),
		WithOnDone(func(j Job, _ ingest.IngestionResult, err error) {
			if err != nil {
				mu.Lock()
				failed = append(failed, j.Path)
				mu.Unlock()
			}
		}),
	)

	for _, p := range []string{"a.txt", "b.csv", "bad.pdf", "c.md", "d.docx"} {
		require.NoError(t, q.Enqueue(context.Background(), NewJob(p)))
	}
	q.Shutdown(context.Background())

	assert.ElementsMatch(t, []string{"a.txt", "b.csv", "bad.pdf", "c.md", "d.docx"}, ri.paths)
	assert.Equal(t, []string{"bad.pdf"}, failed)
	assert.ErrorIs(t, q.Enqueue(context.Background(), NewJob("late.txt")), ErrQueueClosed)
}

func TestProcessorQueue_ProcessTimeout(t *testing.T) {
	ri := &recordingIngestor{delay: time.Second}
	errs := make(chan error, 1)
	q := NewProcessorQueue(ri, nil,
		WithWorkers(1),
		WithProcessTimeout(10*time.Millisecond),
		WithOnDone(func(_ Job, _ ingest.IngestionResult, err error) { errs <- err }),
	)
	defer q.Shutdown(context.Background())

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "slow.pdf"}))
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
	}
}

func TestProcessorQueue_EnqueueRespectsContext(t *testing.T) {
	ri := &recordingIngestor{delay: 200 * time.Millisecond}
	q := NewProcessorQueue(ri, nil, WithWorkers(1), WithQueueSize(1))
	defer q.Shutdown(context.Background())

	require.NoError(t, q.Enqueue(context.Background(), NewJob("1.txt"))) // picked up by the worker
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), NewJob("2.txt"))) // fills the buffer

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Enqueue(ctx, NewJob("3.txt")), context.DeadlineExceeded)
}

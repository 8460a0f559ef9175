package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
)

// Sink receives every stored record.
type Sink interface {
	Put(ctx context.Context, r Record) error
}

func encodeRecord(r Record) ([]byte, error) {
	if r.ID == "" {
		return nil, errors.New("record has no id")
	}
	if err := Validate(r); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DirSink writes <id>.json files into a local directory.
type DirSink struct {
	dir    string
	logger *slog.Logger
}

func NewDirSink(dir string, logger *slog.Logger) (*DirSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &DirSink{dir: dir, logger: logger}, nil
}

func (s *DirSink) Put(_ context.Context, r Record) error {
	b, err := encodeRecord(r)
	if err != nil {
		return err
	}
	dst := filepath.Join(s.dir, r.ID+".json")
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write record: %w", err)
	}
	s.logger.Debug("record exported", "id", r.ID, "file", dst)
	return nil
}

// GCSSink uploads records to gs://<bucket>/<prefix>/<id>.json.
type GCSSink struct {
	client    *storage.Client
	bucket    string
	prefix    string
	logger    *slog.Logger
	newWriter func(ctx context.Context, object string) io.WriteCloser
}

// NewGCSSink uses application default credentials.
func NewGCSSink(ctx context.Context, bucket, prefix string, logger *slog.Logger) (*GCSSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	handle := client.Bucket(bucket)
	s := &GCSSink{client: client, bucket: bucket, prefix: prefix, logger: logger}
	s.newWriter = func(ctx context.Context, object string) io.WriteCloser {
		w := handle.Object(object).NewWriter(ctx)
		w.ContentType = "application/json"
		return w
	}
	return s, nil
}

// ObjectName returns the object path used for id.
func (s *GCSSink) ObjectName(id string) string {
	return path.Join(s.prefix, id+".json")
}

func (s *GCSSink) Put(ctx context.Context, r Record) error {
	b, err := encodeRecord(r)
	if err != nil {
		return err
	}
	object := s.ObjectName(r.ID)
	w := s.newWriter(ctx, object)
	if _, err := io.Copy(w, bytes.NewReader(b)); err != nil {
		_ = w.Close()
		s.logger.Error("failed to upload record", "bucket", s.bucket, "object", object, "error", err)
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		s.logger.Error("failed to finalize record upload", "bucket", s.bucket, "object", object, "error", err)
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	s.logger.Info("record uploaded", "bucket", s.bucket, "object", object)
	return nil
}

func (s *GCSSink) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

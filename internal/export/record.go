package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/entity"
	"github.com/joseph-ayodele/docingest/internal/repository"
)

// Record is the serialized form of a stored document.
type Record struct {
	ID          string            `json:"id,omitempty" yaml:"id,omitempty"`
	SourcePath  string            `json:"source_path" yaml:"source_path"`
	ContentHash string            `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`
	IngestedAt  string            `json:"ingested_at,omitempty" yaml:"ingested_at,omitempty"`
	Format      string            `json:"format" yaml:"format"`
	Content     string            `json:"content" yaml:"content"`
	Metadata    *entity.Metadata  `json:"metadata" yaml:"metadata"`
	OCR         *entity.OCRReport `json:"ocr,omitempty" yaml:"ocr,omitempty"`
}

// FromRecord converts a repository row.
func FromRecord(rec repository.DocumentRecord) Record {
	r := FromDocument(rec.SourcePath, rec.Document)
	r.ID = rec.ID.String()
	r.ContentHash = rec.HashHex()
	if !rec.IngestedAt.IsZero() {
		r.IngestedAt = rec.IngestedAt.UTC().Format(time.RFC3339Nano)
	}
	return r
}

// FromDocument converts a document that has not been stored.
func FromDocument(sourcePath string, doc entity.IngestedDocument) Record {
	meta := doc.Metadata
	if meta == nil {
		meta = entity.NewMetadata()
	}
	return Record{
		SourcePath: sourcePath,
		Format:     string(doc.Format),
		Content:    doc.Content,
		Metadata:   meta,
		OCR:        doc.OCR,
	}
}

const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["source_path", "format", "content", "metadata"],
  "properties": {
    "id": {"type": "string", "pattern": "^[0-9a-f-]{36}$"},
    "source_path": {"type": "string", "minLength": 1},
    "content_hash": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
    "ingested_at": {"type": "string"},
    "format": {"enum": ["pdf", "docx", "xlsx", "txt", "csv", "md"]},
    "content": {"type": "string"},
    "metadata": {
      "type": "object",
      "required": ["file_name", "file_size_bytes", "created_date", "modified_date"],
      "properties": {
        "file_name": {"type": "string"},
        "file_size_bytes": {"type": "integer", "minimum": 0},
        "created_date": {"type": "string"},
        "modified_date": {"type": "string"},
        "created_author": {"type": "string"},
        "modified_author": {"type": "string"},
        "created_date_internal": {"type": "string"}
      }
    },
    "ocr": {
      "type": "object",
      "required": ["kind"],
      "properties": {
        "kind": {"enum": ["ok", "failed", "no_sidecar", "error", "timeout", "canceled"]},
        "error": {"type": "string"},
        "duration_ms": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("record.json", strings.NewReader(recordSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("record.json")
	})
	return schema, schemaErr
}

// Validate checks the JSON encoding of r against the record schema.
func Validate(r Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return validateJSON(b)
}

func validateJSON(b []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: record does not match schema: %v", common.ErrValidation, err)
	}
	return nil
}

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// RecordWriter renders records after validating them.
type RecordWriter struct {
	Format      string // FormatJSON (default) | FormatYAML
	ContentOnly bool   // write just the content string
	Indent      bool
}

// Write renders r to w.
func (rw RecordWriter) Write(w io.Writer, r Record) error {
	if err := Validate(r); err != nil {
		return err
	}
	if rw.ContentOnly {
		_, err := io.WriteString(w, r.Content)
		return err
	}
	switch rw.Format {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		if rw.Indent {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown output format %q", common.ErrInvalidInput, rw.Format)
	}
}

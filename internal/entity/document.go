package entity

import (
	"github.com/joseph-ayodele/docingest/constants"
)

// Filesystem-level metadata keys, present on every document in this order.
const (
	KeyFileName     = "file_name"
	KeyFileSize     = "file_size_bytes"
	KeyCreatedDate  = "created_date"
	KeyModifiedDate = "modified_date"
)

// Format-specific metadata keys, present only when the source exposes them.
const (
	KeyCreatedAuthor       = "created_author"
	KeyModifiedAuthor      = "modified_author"
	KeyCreatedDateInternal = "created_date_internal"
)

// IngestedDocument is the unified content+metadata record produced for one file.
type IngestedDocument struct {
	Format   constants.Format `json:"format" yaml:"format"`
	Content  string           `json:"content" yaml:"content"`
	Metadata *Metadata        `json:"metadata" yaml:"metadata"`
	// OCR is set only when OCR was attempted.
	OCR *OCRReport `json:"ocr,omitempty" yaml:"ocr,omitempty"`
}

// OCRReport exposes the OCR outcome kind so callers need not pattern-match Content.
type OCRReport struct {
	Kind       string `json:"kind" yaml:"kind"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
}

// NewDocument builds a document; a nil metadata is replaced with an empty one.
func NewDocument(format constants.Format, content string, meta *Metadata) IngestedDocument {
	if meta == nil {
		meta = NewMetadata()
	}
	return IngestedDocument{Format: format, Content: content, Metadata: meta}
}

// OCRSucceeded reports whether OCR was not needed or completed successfully.
func (d IngestedDocument) OCRSucceeded() bool {
	return d.OCR == nil || d.OCR.Kind == "ok"
}

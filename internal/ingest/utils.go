package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docingest/constants"
	"github.com/joseph-ayodele/docingest/internal/ocr"
)

// AllowedExt reports whether ext is a format the router accepts or rejects
// explicitly (legacy office formats).
func AllowedExt(ext string) bool {
	return constants.MapExtToFormat(ext) != "" || constants.IsLegacyExt(ext)
}

// Candidate reports whether path should be handed to the router by batch and
// watch modes. OCR artifacts written next to sources are never candidates.
func Candidate(path string) bool {
	return AllowedExt(filepath.Ext(path)) && !ocr.IsArtifact(path)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

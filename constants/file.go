package constants

import (
	"path/filepath"
	"strings"
)

// Format is the closed set of document kinds the router can dispatch to.
type Format string

// Stable values (stored as-is in the documents table).
const (
	TXT      Format = "txt"
	CSV      Format = "csv"
	DOCX     Format = "docx"
	XLSX     Format = "xlsx"
	PDF      Format = "pdf"
	MARKDOWN Format = "md"
)

// FileTypes lists every supported format in routing order.
var FileTypes = []Format{TXT, CSV, DOCX, XLSX, PDF, MARKDOWN}

// extFormats maps a normalized extension to its format.
var extFormats = map[string]Format{
	"txt":      TXT,
	"csv":      CSV,
	"docx":     DOCX,
	"xlsx":     XLSX,
	"pdf":      PDF,
	"md":       MARKDOWN,
	"markdown": MARKDOWN,
}

// LegacyExtensions are recognised but deliberately rejected.
var LegacyExtensions = map[string]struct{}{
	"doc": {},
	"xls": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the format for an extension, or "" when unsupported.
func MapExtToFormat(ext string) Format {
	return extFormats[NormalizeExt(ext)]
}

// FormatForPath is MapExtToFormat applied to the extension of path.
func FormatForPath(path string) Format {
	return MapExtToFormat(filepath.Ext(path))
}

// IsLegacyExt reports whether ext names a legacy binary office format.
func IsLegacyExt(ext string) bool {
	_, ok := LegacyExtensions[NormalizeExt(ext)]
	return ok
}

// AsStringSlice returns the supported formats as plain strings.
func AsStringSlice() []string {
	out := make([]string, len(FileTypes))
	for i, f := range FileTypes {
		out[i] = string(f)
	}
	return out
}

package pdf

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinChars is the stripped text length below which a PDF with pages is
// treated as scanned.
const DefaultMinChars = 50

// ScanDetector decides whether a PDF's text layer is too thin to be trusted.
type ScanDetector struct {
	MinChars int
}

func NewScanDetector(minChars int) ScanDetector {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return ScanDetector{MinChars: minChars}
}

// IsScanned reports true iff the document has pages and fewer than MinChars
// characters survive whitespace trimming. A document with no pages is never
// considered scanned.
func (d ScanDetector) IsScanned(pageCount int, text string) bool {
	if pageCount <= 0 {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(text)) < d.MinChars
}

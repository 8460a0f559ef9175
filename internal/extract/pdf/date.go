package pdf

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	internalDateLayout       = "2006-01-02 15:04:05-07:00"
	internalDateLayoutNoZone = "2006-01-02 15:04:05"
)

// ParseDate parses a PDF date string (D:YYYYMMDDHHmmSSOHH'mm'). Every field after
// the year is optional. hasZone is false when the string carries no offset.
func ParseDate(s string) (t time.Time, hasZone bool, err error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if len(s) < 4 {
		return time.Time{}, false, fmt.Errorf("pdf date %q: too short", s)
	}

	parts := []int{0, 1, 1, 0, 0, 0} // year month day hour min sec
	widths := []int{4, 2, 2, 2, 2, 2}
	pos := 0
	for i, w := range widths {
		if pos+w > len(s) || !isDigits(s[pos:pos+w]) {
			if i == 0 {
				return time.Time{}, false, fmt.Errorf("pdf date %q: bad year", s)
			}
			break
		}
		n, _ := strconv.Atoi(s[pos : pos+w])
		parts[i] = n
		pos += w
	}

	loc := time.UTC
	rest := s[pos:]
	switch {
	case rest == "":
	case rest[0] == 'Z':
		hasZone = true
	case rest[0] == '+' || rest[0] == '-':
		z := strings.ReplaceAll(rest[1:], "'", "")
		if len(z) < 2 || !isDigits(z) {
			return time.Time{}, false, fmt.Errorf("pdf date %q: bad offset", s)
		}
		hh, _ := strconv.Atoi(z[:2])
		mm := 0
		if len(z) >= 4 {
			mm, _ = strconv.Atoi(z[2:4])
		}
		off := hh*3600 + mm*60
		if rest[0] == '-' {
			off = -off
		}
		loc = time.FixedZone("", off)
		hasZone = true
	default:
		return time.Time{}, false, fmt.Errorf("pdf date %q: trailing %q", s, rest)
	}

	t = time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, loc)
	return t, hasZone, nil
}

// FormatInternalDate renders a PDF creation date for created_date_internal. An
// unparseable value is returned unchanged.
func FormatInternalDate(raw string) string {
	t, hasZone, err := ParseDate(raw)
	if err != nil {
		return raw
	}
	if hasZone {
		return t.Format(internalDateLayout)
	}
	return t.Format(internalDateLayoutNoZone)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

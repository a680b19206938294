package service

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// stripAccents removes combining marks ("Blé" -> "Ble").
func stripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// normalizeKey produces the canonical form used for dictionary lookups and
// label deduplication: accent-stripped, lowercased, trimmed.
func normalizeKey(s string) string {
	return strings.TrimSpace(strings.ToLower(stripAccents(s)))
}

// compactKey reduces a header to lowercase alphanumerics only. Used for
// structural column matching where punctuation and spacing vary between
// sheets ("Nom Coopérative" -> "nomcooperative").
func compactKey(s string) string {
	s = strings.ToLower(stripAccents(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseCleanNumeric extracts a numeric value from a scalar cell. Strings
// are cleaned of everything but digits, dots and commas (commas become
// decimal points), then parsed; a trailing non-numeric suffix is ignored,
// matching the permissive parsing of the data source.
func parseCleanNumeric(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		cleaned := cleanNumericString(val)
		if cleaned == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f, true
		}
		return parseNumericPrefix(cleaned)
	default:
		return 0, false
	}
}

func cleanNumericString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		}
	}
	return b.String()
}

// parseNumericPrefix parses the longest leading substring that is a valid
// number ("1.234.56" -> 1.234).
func parseNumericPrefix(s string) (float64, bool) {
	for end := len(s); end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// parseStrictFloat accepts only fully numeric strings.
func parseStrictFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// sanitizeUTF8 drops invalid UTF-8 sequences from remote CSV payloads so
// that labels render and store cleanly.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		result.WriteRune(r)
		s = s[size:]
	}
	return result.String()
}

// significantValue reports whether a cell is worth rendering in a detail
// line: non-empty and not a literal zero.
func significantValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		trimmed := strings.TrimSpace(val)
		return trimmed != "" && trimmed != "0"
	case float64:
		return val != 0
	default:
		return true
	}
}

// formatScalar renders a cell value without exponent notation.
func formatScalar(v any) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return val
	default:
		return ""
	}
}

// Package normalize turns loosely formatted provider fields (price strings,
// epoch timestamps, free-text queries) into typed values. Every function here
// is pure: a value either normalizes cleanly or is reported unparseable so the
// caller can drop the record. Nothing is silently coerced to zero.
package normalize

import (
	"strconv"
	"strings"
)

// Price extracts a finite non-negative price from a raw price string. The
// string may carry currency symbols, thousands separators or surrounding
// text ("US $1,299.99" -> 1299.99). The second return is false when no usable
// number remains.
func Price(text string) (float64, bool) {
	cleaned := stripNonNumeric(text)
	if cleaned == "" {
		return 0, false
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return 0, false
	}
	return price, true
}

// OrderCount extracts a non-negative integer from a raw order counter such as
// "1,000+ sold". All non-digit characters are discarded before parsing; a
// string with no digits is unparseable.
func OrderCount(text string) (int64, bool) {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}

	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// stripNonNumeric removes currency symbols and thousands separators and
// returns the first complete number in the string. Price ranges such as
// "$19.99 - $24.99" yield the range's low end.
func stripNonNumeric(text string) string {
	var b strings.Builder
	seenDigit := false
	seenDot := false

	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
			b.WriteRune(r)
		case r == ',':
			// thousands separator
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		default:
			if seenDigit {
				return strings.TrimSuffix(b.String(), ".")
			}
			// decoration ahead of the number ("US $") is skipped
			b.Reset()
			seenDot = false
		}
	}
	return strings.TrimSuffix(b.String(), ".")
}

package normalize

import (
	"strings"
	"unicode"
)

// marketing terms that add noise to social search queries
var queryStopWords = map[string]struct{}{
	"free":     {},
	"shipping": {},
	"discount": {},
	"extra":    {},
	"new":      {},
	"best":     {},
	"off":      {},
	"hot":      {},
}

const maxQueryTerms = 6

// MinQueryLength is the shortest distilled query worth sending to the social
// provider; anything shorter skips the engagement metric entirely.
const MinQueryLength = 3

// Query distills a product description into a compact social search query:
// lowercased, punctuation and marketing terms stripped, short and purely
// numeric tokens dropped, at most six terms kept in their original order.
func Query(description string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(description) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	terms := make([]string, 0, maxQueryTerms)
	for _, w := range strings.Fields(b.String()) {
		if len(w) <= 2 || isNumeric(w) {
			continue
		}
		if _, banned := queryStopWords[w]; banned {
			continue
		}
		terms = append(terms, w)
		if len(terms) == maxQueryTerms {
			break
		}
	}

	return strings.Join(terms, " ")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

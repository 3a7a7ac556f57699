package store

import (
	"strings"
	"unicode"
)

// SearchQuery is free text split the way players type keywords. Each term
// is a run of words that must appear together; its last word matches as a
// prefix, so "sw" finds "sword".
type SearchQuery struct {
	Include [][]string
	Exclude [][]string
}

// ParseSearch splits text on whitespace, keeping double-quoted runs as one
// term. A leading "-" excludes a term. Words are lowercased and split on
// anything that is not a letter or digit, matching both index tokenizers.
func ParseSearch(text string) SearchQuery {
	var q SearchQuery
	for _, raw := range splitTerms(text) {
		negate := strings.HasPrefix(raw, "-")
		words := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(words) == 0 {
			continue
		}
		if negate {
			q.Exclude = append(q.Exclude, words)
		} else {
			q.Include = append(q.Include, words)
		}
	}
	return q
}

func (q SearchQuery) Empty() bool {
	return len(q.Include) == 0
}

func splitTerms(text string) []string {
	var terms []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			terms = append(terms, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == '"':
			// A "-" right before a quote negates the whole phrase.
			if inQuote || cur.String() != "-" {
				flush()
			}
			inQuote = !inQuote
		case !inQuote && unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return terms
}

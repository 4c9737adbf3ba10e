// Package search answers title queries over the publications of a store.
// Titles are folded to lower-case ASCII, split into terms, stripped of
// stop-words and stemmed before they enter an in-memory inverted index.
package search

import (
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/name"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {},
	"this": {}, "but": {}, "not": {}, "no": {}, "via": {}, "vs": {},
}

// Token is one normalised term and its position among the kept terms.
type Token struct {
	Term     string
	Position int
}

// Tokenize folds text and breaks it into stemmed terms. Single characters
// and stop-words are dropped; digits are kept so "3d" and "2020" are
// searchable.
func Tokenize(text string) []Token {
	words := strings.FieldsFunc(name.FoldText(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words))
	pos := 0
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		tokens = append(tokens, Token{Term: stem(word), Position: pos})
		pos++
	}
	return tokens
}

var suffixes = []struct {
	suffix      string
	replacement string
	minLen      int
}{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ising", "ise", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"ying", "y", 2},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"ed", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

// stem strips the first matching suffix as long as enough of the word
// remains.
func stem(word string) string {
	for _, rule := range suffixes {
		if strings.HasSuffix(word, rule.suffix) {
			stemmed := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(stemmed) >= rule.minLen {
				return stemmed
			}
		}
	}
	return word
}

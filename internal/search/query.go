package search

import "strings"

type QueryType int

const (
	QueryAND QueryType = iota
	QueryOR
)

// Query is a parsed title query. Terms are combined by Type; a publication
// carrying any excluded term never matches. Phrase holds the folded text of
// a quoted query, which must then occur verbatim in the title.
type Query struct {
	Terms        []string
	ExcludeTerms []string
	Type         QueryType
	Phrase       string
	Raw          string
}

// ParseQuery reads the words of raw. The keywords AND, OR and NOT switch the
// combination or exclude the next word. A query wrapped in double quotes is
// a phrase query.
func ParseQuery(raw string) *Query {
	q := &Query{Raw: raw, Type: QueryAND}
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		inner := trimmed[1 : len(trimmed)-1]
		q.Phrase = normalizeSpace(inner)
		for _, tok := range Tokenize(inner) {
			q.Terms = append(q.Terms, tok.Term)
		}
		return q
	}

	excludeNext := false
	for _, word := range strings.Fields(trimmed) {
		switch word {
		case "AND":
			q.Type = QueryAND
			continue
		case "OR":
			q.Type = QueryOR
			continue
		case "NOT":
			excludeNext = true
			continue
		}
		if strings.HasPrefix(word, "-") && len(word) > 1 {
			word, excludeNext = word[1:], true
		}
		for _, tok := range Tokenize(word) {
			if excludeNext {
				q.ExcludeTerms = append(q.ExcludeTerms, tok.Term)
			} else {
				q.Terms = append(q.Terms, tok.Term)
			}
		}
		excludeNext = false
	}
	return q
}

// Empty reports a query without any positive term or phrase.
func (q *Query) Empty() bool {
	return len(q.Terms) == 0 && q.Phrase == ""
}

package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/name"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
)

const (
	DefaultLimit = 20
	MaxLimit     = 1000
)

// Order selects how hits are sorted.
type Order int

const (
	// OrderNewest sorts by year, newest first, then by key.
	OrderNewest Order = iota
	// OrderRelevance sorts by BM25 score, then by key.
	OrderRelevance
)

// ParseOrder maps "relevance" to OrderRelevance and anything else to
// OrderNewest.
func ParseOrder(s string) Order {
	if strings.EqualFold(s, "relevance") {
		return OrderRelevance
	}
	return OrderNewest
}

type posting struct {
	doc  int
	freq int
}

// Index is an immutable inverted index over publication titles.
type Index struct {
	docs     []*store.Publication
	titles   []string
	docLen   []int
	avgLen   float64
	postings map[string][]posting
}

// Options paginate a search. Page starts at 1.
type Options struct {
	Page  int
	Limit int
	Order Order
}

func (o Options) normalize() Options {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	return o
}

type Hit struct {
	Publication *store.Publication
	Score       float64
}

// Result is one page of hits and the total number of matches.
type Result struct {
	Total int
	Page  int
	Limit int
	Hits  []Hit
}

// Build indexes the title of every publication of st.
func Build(st *store.Store) *Index {
	pubs := st.Publications()
	x := &Index{
		docs:     pubs,
		titles:   make([]string, len(pubs)),
		docLen:   make([]int, len(pubs)),
		postings: make(map[string][]posting),
	}
	total := 0
	for doc, pub := range pubs {
		title := pub.Title()
		x.titles[doc] = normalizeSpace(title)
		freq := make(map[string]int)
		tokens := Tokenize(title)
		for _, tok := range tokens {
			freq[tok.Term]++
		}
		for term, f := range freq {
			x.postings[term] = append(x.postings[term], posting{doc: doc, freq: f})
		}
		x.docLen[doc] = len(tokens)
		total += len(tokens)
	}
	if len(pubs) > 0 {
		x.avgLen = float64(total) / float64(len(pubs))
	}
	return x
}

func (x *Index) NumberOfDocuments() int { return len(x.docs) }
func (x *Index) NumberOfTerms() int     { return len(x.postings) }

// Search runs q against the term index.
func (x *Index) Search(q *Query, opts Options) Result {
	opts = opts.normalize()
	if q == nil || q.Empty() {
		return Result{Page: opts.Page, Limit: opts.Limit}
	}

	var docs []int
	switch {
	case len(q.Terms) == 0:
		docs = x.allDocs()
	case q.Type == QueryOR:
		docs = x.union(q.Terms)
	default:
		docs = x.intersect(q.Terms)
	}
	if len(q.ExcludeTerms) > 0 {
		excluded := make(map[int]struct{})
		for _, term := range q.ExcludeTerms {
			for _, p := range x.postings[term] {
				excluded[p.doc] = struct{}{}
			}
		}
		docs = slices.DeleteFunc(docs, func(d int) bool {
			_, ok := excluded[d]
			return ok
		})
	}
	if q.Phrase != "" {
		docs = slices.DeleteFunc(docs, func(d int) bool {
			return !strings.Contains(x.titles[d], q.Phrase)
		})
	}

	hits := make([]Hit, len(docs))
	var scores map[int]float64
	if opts.Order == OrderRelevance {
		scores = x.score(q.Terms, docs)
	}
	for i, d := range docs {
		hits[i] = Hit{Publication: x.docs[d], Score: scores[d]}
	}
	return paginate(hits, opts)
}

// Substring returns the publications whose folded title contains the folded
// text, newest first. It scans every title.
func (x *Index) Substring(text string, opts Options) Result {
	opts = opts.normalize()
	needle := normalizeSpace(text)
	if needle == "" {
		return Result{Page: opts.Page, Limit: opts.Limit}
	}
	var hits []Hit
	for d, title := range x.titles {
		if strings.Contains(title, needle) {
			hits = append(hits, Hit{Publication: x.docs[d]})
		}
	}
	opts.Order = OrderNewest
	return paginate(hits, opts)
}

func (x *Index) allDocs() []int {
	docs := make([]int, len(x.docs))
	for i := range docs {
		docs[i] = i
	}
	return docs
}

func (x *Index) union(terms []string) []int {
	seen := make(map[int]struct{})
	var docs []int
	for _, term := range terms {
		for _, p := range x.postings[term] {
			if _, ok := seen[p.doc]; !ok {
				seen[p.doc] = struct{}{}
				docs = append(docs, p.doc)
			}
		}
	}
	slices.Sort(docs)
	return docs
}

// intersect walks the posting lists, shortest first. Postings are sorted by
// document because Build visits documents in order.
func (x *Index) intersect(terms []string) []int {
	lists := make([][]posting, 0, len(terms))
	for _, term := range terms {
		list, ok := x.postings[term]
		if !ok {
			return nil
		}
		lists = append(lists, list)
	}
	slices.SortFunc(lists, func(a, b []posting) int { return cmp.Compare(len(a), len(b)) })

	docs := make([]int, 0, len(lists[0]))
	for _, p := range lists[0] {
		docs = append(docs, p.doc)
	}
	for _, list := range lists[1:] {
		kept := docs[:0]
		j := 0
		for _, d := range docs {
			for j < len(list) && list[j].doc < d {
				j++
			}
			if j < len(list) && list[j].doc == d {
				kept = append(kept, d)
			}
		}
		docs = kept
	}
	return docs
}

func paginate(hits []Hit, opts Options) Result {
	if opts.Order == OrderRelevance {
		slices.SortFunc(hits, func(a, b Hit) int {
			if c := cmp.Compare(b.Score, a.Score); c != 0 {
				return c
			}
			return cmp.Compare(a.Publication.Key(), b.Publication.Key())
		})
	} else {
		slices.SortFunc(hits, func(a, b Hit) int {
			if c := cmp.Compare(b.Publication.YearInt(), a.Publication.YearInt()); c != 0 {
				return c
			}
			return cmp.Compare(a.Publication.Key(), b.Publication.Key())
		})
	}
	res := Result{Total: len(hits), Page: opts.Page, Limit: opts.Limit}
	// compare in pages first so that a huge page cannot overflow the offset
	if opts.Page-1 > len(hits)/opts.Limit {
		return res
	}
	from := (opts.Page - 1) * opts.Limit
	if from >= len(hits) {
		return res
	}
	res.Hits = hits[from:min(from+opts.Limit, len(hits))]
	return res
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(name.FoldText(s)), " ")
}

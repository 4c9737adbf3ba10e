package store

import (
	"fmt"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
)

// Warner receives integrity warnings. *logger.Bounded implements it.
type Warner interface {
	Warn(category string, args ...any)
}

type discardWarner struct{}

func (discardWarner) Warn(string, ...any) {}

// Builder collects records during a single-threaded load and turns them
// into an immutable Store. It must not be used after Build.
type Builder struct {
	warn Warner

	publications map[string]*Publication
	persons      map[string]*Person
	redirects    map[string]*Redirect
	names        map[string]*PersonName
	tocs         map[string]*TableOfContents
	books        map[string]*BookTitle
	journals     map[string]*JournalTitle
}

func NewBuilder(warn Warner) *Builder {
	if warn == nil {
		warn = discardWarner{}
	}
	return &Builder{
		warn:         warn,
		publications: make(map[string]*Publication),
		persons:      make(map[string]*Person),
		redirects:    make(map[string]*Redirect),
		names:        make(map[string]*PersonName),
		tocs:         make(map[string]*TableOfContents),
		books:        make(map[string]*BookTitle),
		journals:     make(map[string]*JournalTitle),
	}
}

// InternName returns the single PersonName for raw.
func (b *Builder) InternName(raw string) *PersonName {
	if n, ok := b.names[raw]; ok {
		return n
	}
	n := newPersonName(raw)
	b.names[raw] = n
	return n
}

// InternToc returns the single TableOfContents for key.
func (b *Builder) InternToc(key string) *TableOfContents {
	if t, ok := b.tocs[key]; ok {
		return t
	}
	t := &TableOfContents{key: key}
	b.tocs[key] = t
	return t
}

func (b *Builder) InternBookTitle(title string) *BookTitle {
	if t, ok := b.books[title]; ok {
		return t
	}
	t := &BookTitle{title: title}
	b.books[title] = t
	return t
}

func (b *Builder) InternJournal(title string) *JournalTitle {
	if t, ok := b.journals[title]; ok {
		return t
	}
	t := &JournalTitle{title: title}
	b.journals[title] = t
	return t
}

func (b *Builder) keyTaken(key string) bool {
	_, p := b.publications[key]
	_, q := b.persons[key]
	_, r := b.redirects[key]
	return p || q || r
}

// PublicationSpec carries everything needed to create a Publication.
type PublicationSpec struct {
	Key    string
	Mdate  int
	Buf    []byte
	Names  []*PersonName
	Year   int
	Toc    *TableOfContents
	Stream StreamTitle
}

// AddPublication registers a publication and appends it to its toc. A
// duplicate key is reported and the record ignored.
func (b *Builder) AddPublication(rec PublicationSpec) *Publication {
	if b.keyTaken(rec.Key) {
		b.warn.Warn("duplicate key", "key", rec.Key)
		return nil
	}
	p := &Publication{
		record: record{key: rec.Key, mdate: rec.Mdate, buf: rec.Buf, names: rec.Names},
		year:   rec.Year,
		toc:    rec.Toc,
		stream: rec.Stream,
	}
	b.publications[rec.Key] = p
	if rec.Toc != nil {
		rec.Toc.publications = append(rec.Toc.publications, p)
	}
	books, journals := streamMembers(rec.Stream)
	for _, bt := range books {
		bt.publications = append(bt.publications, p)
	}
	for _, j := range journals {
		j.publications = append(j.publications, p)
	}
	return p
}

// AddPerson registers a person profile and claims its names. A person needs
// at least one name.
func (b *Builder) AddPerson(key string, mdate int, buf []byte, names []*PersonName) (*Person, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPersonWithoutName, key)
	}
	if b.keyTaken(key) {
		b.warn.Warn("duplicate key", "key", key)
		return nil, nil
	}
	if buf == nil {
		buf = DefaultPersonRecord
	}
	p := &Person{
		record:    record{key: key, mdate: mdate, buf: buf, names: names},
		aggrMdate: mdate,
	}
	for _, n := range names {
		if !n.setPerson(p) {
			b.warn.Warn("name claimed by more than one person",
				"name", n.Name(),
				"key", key,
				"owner", n.Person().Key(),
			)
		}
	}
	b.persons[key] = p
	return p, nil
}

// AddRedirect registers a redirect record.
func (b *Builder) AddRedirect(key string, mdate int, buf []byte, names []*PersonName) *Redirect {
	if b.keyTaken(key) {
		b.warn.Warn("duplicate key", "key", key)
		return nil
	}
	r := &Redirect{record: record{key: key, mdate: mdate, buf: buf, names: names}}
	b.redirects[key] = r
	return r
}

func (b *Builder) NumberOfRecords() int {
	return len(b.publications) + len(b.persons) + len(b.redirects)
}

// Build reports orphaned names, links persons to publications and returns
// the finished store.
func (b *Builder) Build() *Store {
	s := &Store{
		publications: b.publications,
		persons:      b.persons,
		redirects:    b.redirects,
		names:        b.names,
		tocs:         b.tocs,
		books:        b.books,
		journals:     b.journals,
		warn:         b.warn,
	}

	s.pubOrder = sortedValues(b.publications)
	s.personOrder = sortedValues(b.persons)
	s.redirectOrder = sortedValues(b.redirects)
	s.tocOrder = sortedValues(b.tocs)
	s.bookOrder = sortedValues(b.books)
	s.journalOrder = sortedValues(b.journals)

	s.nameOrder = make([]*PersonName, 0, len(b.names))
	for _, n := range b.names {
		s.nameOrder = append(s.nameOrder, n)
	}
	sort.Slice(s.nameOrder, func(i, j int) bool {
		return ComparePersonNames(s.nameOrder[i], s.nameOrder[j]) < 0
	})
	for _, n := range s.nameOrder {
		if !n.HasPerson() {
			b.warn.Warn("no person record", "name", n.Name())
		}
	}

	b.link(s.pubOrder, s.personOrder)
	return s
}

// link fills every person's publication slice in two passes: the first
// counts distinct publications per person, the second fills slices of
// exactly that size from the tail.
func (b *Builder) link(pubs []*Publication, persons []*Person) {
	pending := make(map[*Person]int, len(persons))
	for _, pub := range pubs {
		for _, p := range pub.Persons() {
			pending[p]++
		}
	}
	for _, p := range persons {
		p.publications = make([]*Publication, pending[p])
	}
	// walk backwards so the tail-first fill leaves each slice in key order
	for i := len(pubs) - 1; i >= 0; i-- {
		pub := pubs[i]
		for _, p := range pub.Persons() {
			n := pending[p]
			if n == 0 {
				b.warn.Warn("publication count exceeded", "person", p.Key(), "publication", pub.Key())
				continue
			}
			n--
			pending[p] = n
			p.publications[n] = pub
			if pub.mdate > p.aggrMdate {
				p.aggrMdate = pub.mdate
			}
		}
	}
	for _, p := range persons {
		if pending[p] != 0 {
			b.warn.Warn("missing publication(s)", "person", p.Key(), "missing", pending[p])
		}
	}
}

func sortedValues[T any](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

package store

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
)

// MaxRedirectHops bounds redirect chain resolution.
const MaxRedirectHops = 1000

// Store is the loaded database. All lookups return false for absent keys;
// enumerations are ordered by key, by name order for person names and by
// title for venues.
type Store struct {
	publications map[string]*Publication
	persons      map[string]*Person
	redirects    map[string]*Redirect
	names        map[string]*PersonName
	tocs         map[string]*TableOfContents
	books        map[string]*BookTitle
	journals     map[string]*JournalTitle

	pubOrder      []*Publication
	personOrder   []*Person
	redirectOrder []*Redirect
	nameOrder     []*PersonName
	tocOrder      []*TableOfContents
	bookOrder     []*BookTitle
	journalOrder  []*JournalTitle

	warn  Warner
	isNot sync.Map // *Person -> []*PersonName
}

func (s *Store) Publication(key string) (*Publication, bool) {
	p, ok := s.publications[key]
	return p, ok
}

func (s *Store) Person(key string) (*Person, bool) {
	p, ok := s.persons[key]
	return p, ok
}

func (s *Store) Redirect(key string) (*Redirect, bool) {
	r, ok := s.redirects[key]
	return r, ok
}

// Record returns the record with the given key, whatever its kind.
func (s *Store) Record(key string) (Record, bool) {
	if p, ok := s.publications[key]; ok {
		return p, true
	}
	if p, ok := s.persons[key]; ok {
		return p, true
	}
	if r, ok := s.redirects[key]; ok {
		return r, true
	}
	return nil, false
}

func (s *Store) PersonName(raw string) (*PersonName, bool) {
	n, ok := s.names[raw]
	return n, ok
}

func (s *Store) Toc(key string) (*TableOfContents, bool) {
	t, ok := s.tocs[key]
	return t, ok
}

func (s *Store) BookTitle(title string) (*BookTitle, bool) {
	t, ok := s.books[title]
	return t, ok
}

func (s *Store) Journal(title string) (*JournalTitle, bool) {
	t, ok := s.journals[title]
	return t, ok
}

// ResolvePerson returns the person at key, following a redirect if key names
// one. Absent keys report ErrNotFound; broken redirect chains report the
// redirect error.
func (s *Store) ResolvePerson(key string) (*Person, error) {
	if p, ok := s.persons[key]; ok {
		return p, nil
	}
	r, ok := s.redirects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, key)
	}
	return s.Target(r)
}

// Target follows r through further redirects to a person. Chains longer than
// MaxRedirectHops fail with ErrRedirectLoop.
func (s *Store) Target(r *Redirect) (*Person, error) {
	cur := r
	for hops := 0; ; hops++ {
		if hops > MaxRedirectHops {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrRedirectLoop, r.Key())
		}
		ref, ok := cur.Crossref()
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingCrossref, cur.Key())
		}
		if p, ok := s.persons[ref]; ok {
			return p, nil
		}
		next, ok := s.redirects[ref]
		if !ok {
			return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrDanglingRedirect, cur.Key(), ref)
		}
		cur = next
	}
}

// IsDisambiguation reports an explicit disambiguation profile, or one of
// whose names a numbered homonym "<name> 0001" exists.
func (s *Store) IsDisambiguation(p *Person) bool {
	if p.IsDisambiguation() {
		return true
	}
	for _, n := range p.names {
		if _, ok := s.names[n.Name()+" 0001"]; ok {
			return true
		}
	}
	return false
}

// IsNotNames resolves the is-not notes of p to person names. Notes naming
// an unknown person are reported to the builder's Warner the first time p
// is resolved.
func (s *Store) IsNotNames(p *Person) []*PersonName {
	if v, ok := s.isNot.Load(p); ok {
		return v.([]*PersonName)
	}
	var out []*PersonName
	var missing []string
	for _, v := range p.IsNotValues() {
		if n, ok := s.names[v]; ok {
			out = append(out, n)
		} else {
			missing = append(missing, v)
		}
	}
	v, loaded := s.isNot.LoadOrStore(p, out)
	if !loaded {
		for _, m := range missing {
			s.warn.Warn("no such is-not target", "name", m, "key", p.Key())
		}
	}
	return v.([]*PersonName)
}

func (s *Store) Publications() []*Publication            { return s.pubOrder }
func (s *Store) Persons() []*Person                      { return s.personOrder }
func (s *Store) Redirects() []*Redirect                  { return s.redirectOrder }
func (s *Store) PersonNames() []*PersonName              { return s.nameOrder }
func (s *Store) Tocs() []*TableOfContents                { return s.tocOrder }
func (s *Store) BookTitles() []*BookTitle                { return s.bookOrder }
func (s *Store) Journals() []*JournalTitle               { return s.journalOrder }
func (s *Store) AllPublications() iter.Seq[*Publication] { return slices.Values(s.pubOrder) }
func (s *Store) AllPersons() iter.Seq[*Person]           { return slices.Values(s.personOrder) }

func (s *Store) NumberOfPublications() int { return len(s.pubOrder) }
func (s *Store) NumberOfPersons() int      { return len(s.personOrder) }
func (s *Store) NumberOfRedirects() int    { return len(s.redirectOrder) }
func (s *Store) NumberOfPersonNames() int  { return len(s.nameOrder) }
func (s *Store) NumberOfTocs() int         { return len(s.tocOrder) }
func (s *Store) NumberOfBookTitles() int   { return len(s.bookOrder) }
func (s *Store) NumberOfJournals() int     { return len(s.journalOrder) }

// PublicationsWithPrefix returns publications whose key starts with prefix,
// using the key order to avoid a full scan.
func (s *Store) PublicationsWithPrefix(prefix string) []*Publication {
	i, _ := slices.BinarySearchFunc(s.pubOrder, prefix, func(p *Publication, k string) int {
		return strings.Compare(p.key, k)
	})
	j := i
	for j < len(s.pubOrder) && strings.HasPrefix(s.pubOrder[j].key, prefix) {
		j++
	}
	return s.pubOrder[i:j]
}

// Stats summarises the store.
type Stats struct {
	Publications int `json:"publications"`
	Persons      int `json:"persons"`
	Redirects    int `json:"redirects"`
	PersonNames  int `json:"person_names"`
	Tocs         int `json:"tocs"`
	BookTitles   int `json:"book_titles"`
	Journals     int `json:"journals"`
}

func (s *Store) Stats() Stats {
	return Stats{
		Publications: len(s.pubOrder),
		Persons:      len(s.personOrder),
		Redirects:    len(s.redirectOrder),
		PersonNames:  len(s.nameOrder),
		Tocs:         len(s.tocOrder),
		BookTitles:   len(s.bookOrder),
		Journals:     len(s.journalOrder),
	}
}

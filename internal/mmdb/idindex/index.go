package idindex

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
)

const personKeyPrefix = "homepages/"

// ID is one external identifier of a record.
type ID struct {
	Kind  *Kind
	Value string
}

// URL returns the resolvable form of the identifier.
func (id ID) URL() string { return id.Kind.URL(id.Value) }

// Index maps normalised external ids to records. The dblp kinds are not
// stored; they resolve through the record keys of the store.
type Index struct {
	st      *store.Store
	pubs    map[*Kind]map[string]*store.Publication
	persons map[*Kind]map[string]*store.Person
}

// Build scans the ee and isbn fields of every publication and the url fields
// of every person. When two records claim the same id the later one in key
// order wins.
func Build(st *store.Store) *Index {
	x := &Index{
		st:      st,
		pubs:    make(map[*Kind]map[string]*store.Publication),
		persons: make(map[*Kind]map[string]*store.Person),
	}
	for _, pub := range st.Publications() {
		for _, id := range PublicationIDs(pub) {
			if id.Kind == PubDBLP {
				continue
			}
			m := x.pubs[id.Kind]
			if m == nil {
				m = make(map[string]*store.Publication)
				x.pubs[id.Kind] = m
			}
			m[id.Value] = pub
		}
	}
	for _, p := range st.Persons() {
		for _, id := range PersonIDs(p) {
			if id.Kind == PersonDBLP {
				continue
			}
			m := x.persons[id.Kind]
			if m == nil {
				m = make(map[string]*store.Person)
				x.persons[id.Kind] = m
			}
			m[id.Value] = p
		}
	}
	return x
}

// PublicationIDs lists the ids found in the ee and isbn fields of pub, in
// field order.
func PublicationIDs(pub *store.Publication) []ID {
	r := pub.Reader()
	var out []ID
	for i := 0; i < r.NumberOfFields(); i++ {
		switch r.Tag(i) {
		case "ee":
			if k, id, ok := KindOf(SidePublication, strings.TrimSpace(r.Text(i))); ok {
				out = append(out, ID{Kind: k, Value: id})
			}
		case "isbn":
			if id := PubISBN.Normalize(r.Text(i)); id != "" {
				out = append(out, ID{Kind: PubISBN, Value: id})
			}
		}
	}
	return out
}

// PersonIDs lists the ids found in the url fields of p.
func PersonIDs(p *store.Person) []ID {
	var out []ID
	for _, u := range p.URLs() {
		if k, id, ok := KindOf(SidePerson, strings.TrimSpace(u)); ok {
			out = append(out, ID{Kind: k, Value: id})
		}
	}
	return out
}

// StreamIDs lists the venue ids recognised among urls.
func StreamIDs(urls []string) []ID {
	var out []ID
	for _, u := range urls {
		if k, id, ok := KindOf(SideStream, strings.TrimSpace(u)); ok {
			out = append(out, ID{Kind: k, Value: id})
		}
	}
	return out
}

// Publication looks up a publication by id. The id is normalised first.
func (x *Index) Publication(k *Kind, id string) (*store.Publication, bool) {
	if k == nil || k.Side != SidePublication {
		return nil, false
	}
	if k == PubDBLP {
		return x.st.Publication(id)
	}
	p, ok := x.pubs[k][k.Normalize(id)]
	return p, ok
}

// Person looks up a person by id. A dblp id is a person key without the
// "homepages/" prefix.
func (x *Index) Person(k *Kind, id string) (*store.Person, bool) {
	if k == nil || k.Side != SidePerson {
		return nil, false
	}
	if k == PersonDBLP {
		return x.st.Person(personKeyPrefix + id)
	}
	p, ok := x.persons[k][k.Normalize(id)]
	return p, ok
}

// Publications returns the distinct publications carrying an id of kind k,
// ordered by key.
func (x *Index) Publications(k *Kind) []*store.Publication {
	if k == PubDBLP {
		return x.st.Publications()
	}
	return distinctByKey(x.pubs[k])
}

// Persons returns the distinct persons carrying an id of kind k, ordered by
// key.
func (x *Index) Persons(k *Kind) []*store.Person {
	if k == PersonDBLP {
		return x.st.Persons()
	}
	return distinctByKey(x.persons[k])
}

func (x *Index) NumberOfPublications(k *Kind) int { return len(x.Publications(k)) }
func (x *Index) NumberOfPersons(k *Kind) int      { return len(x.Persons(k)) }

// Size returns the number of stored ids over all kinds.
func (x *Index) Size() int {
	n := 0
	for _, m := range x.pubs {
		n += len(m)
	}
	for _, m := range x.persons {
		n += len(m)
	}
	return n
}

type keyed interface {
	comparable
	Key() string
}

func distinctByKey[T keyed](m map[string]T) []T {
	seen := make(map[T]struct{}, len(m))
	out := make([]T, 0, len(m))
	for _, v := range m {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(a.Key(), b.Key()) })
	return out
}

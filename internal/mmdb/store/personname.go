package store

import (
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/name"
)

// PersonName is an interned author or editor name. It is parsed on first
// use and points back at the person record carrying it, if any.
type PersonName struct {
	name   string
	parsed atomic.Pointer[name.Parsed]
	person atomic.Pointer[Person]
}

func newPersonName(raw string) *PersonName {
	return &PersonName{name: raw}
}

// Name returns the name as it appears in the corpus.
func (n *PersonName) Name() string { return n.name }

func (n *PersonName) String() string { return n.name }

// Parsed returns the parsed components. Concurrent first calls may parse
// twice and keep either result; both are equal.
func (n *PersonName) Parsed() name.Parsed {
	if p := n.parsed.Load(); p != nil {
		return *p
	}
	p := name.Parse(n.name)
	n.parsed.CompareAndSwap(nil, &p)
	return *n.parsed.Load()
}

func (n *PersonName) First() string     { return n.Parsed().First }
func (n *PersonName) Last() string      { return n.Parsed().Last }
func (n *PersonName) Suffix() string    { return n.Parsed().Suffix }
func (n *PersonName) HomonymID() string { return n.Parsed().HomonymID }
func (n *PersonName) URLPart() string   { return n.Parsed().URLPart }
func (n *PersonName) IsHomonym() bool   { return n.Parsed().IsHomonym() }
func (n *PersonName) CoreName() string  { return n.Parsed().CoreName() }

// Person returns the owning person record, or nil.
func (n *PersonName) Person() *Person { return n.person.Load() }

func (n *PersonName) HasPerson() bool { return n.person.Load() != nil }

// setPerson records the owner once. It reports false when a different
// person already owns the name.
func (n *PersonName) setPerson(p *Person) bool {
	if n.person.CompareAndSwap(nil, p) {
		return true
	}
	return n.person.Load() == p
}

// PrimaryName returns the primary name of the owner, or n itself.
func (n *PersonName) PrimaryName() *PersonName {
	if p := n.Person(); p != nil {
		return p.PrimaryName()
	}
	return n
}

// IsPrimary reports whether n is its owner's primary name.
func (n *PersonName) IsPrimary() bool {
	p := n.Person()
	return p != nil && p.PrimaryName() == n
}

// Aliases returns the owner's other names.
func (n *PersonName) Aliases() []*PersonName {
	p := n.Person()
	if p == nil || !p.HasAliases() {
		return nil
	}
	out := make([]*PersonName, 0, len(p.names)-1)
	for _, alias := range p.names {
		if alias != n {
			out = append(out, alias)
		}
	}
	return out
}

// IsAliasOf reports whether n and other name the same person.
func (n *PersonName) IsAliasOf(other *PersonName) bool {
	if n == other {
		return true
	}
	a, b := n.Person(), other.Person()
	switch {
	case a == nil && b == nil:
		return n.name == other.name
	case a != nil && b == nil:
		return a.HasName(other.name)
	case a == nil && b != nil:
		return b.HasName(n.name)
	default:
		return a == b
	}
}

// ComparePersonNames implements the person name order.
func ComparePersonNames(a, b *PersonName) int {
	if a == b {
		return 0
	}
	return name.Compare(a.Parsed(), b.Parsed())
}

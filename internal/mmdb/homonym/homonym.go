// Package homonym groups person names that differ only in their homonym
// number, e.g. "Wei Wang", "Wei Wang 0001" and "Wei Wang 0002".
package homonym

import (
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/name"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
)

// Index maps a base name to every person name sharing it.
type Index struct {
	groups map[string][]*store.PersonName
}

// Build groups all person names of st. Within a group names keep the store's
// name order.
func Build(st *store.Store) *Index {
	x := &Index{groups: make(map[string][]*store.PersonName)}
	for _, n := range st.PersonNames() {
		base := name.StripHomonymID(n.Name())
		x.groups[base] = append(x.groups[base], n)
	}
	return x
}

// All returns the names sharing the base name of raw, raw's own name
// included. raw may carry a homonym number.
func (x *Index) All(raw string) []*store.PersonName {
	return x.groups[name.StripHomonymID(raw)]
}

// Others is All without the exact name raw.
func (x *Index) Others(raw string) []*store.PersonName {
	exact := name.Normalize(raw)
	group := x.All(raw)
	out := make([]*store.PersonName, 0, len(group))
	for _, n := range group {
		if n.Name() != exact {
			out = append(out, n)
		}
	}
	return out
}

func (x *Index) Count(raw string) int { return len(x.All(raw)) }

// Groups returns the number of distinct base names.
func (x *Index) Groups() int { return len(x.groups) }

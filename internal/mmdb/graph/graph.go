// Package graph derives the coauthor graph from a record store. Adjacency
// lists and local networks are computed on first use and memoised per
// person. Concurrent callers may compute the same entry twice; both results
// are equal and the first one stored wins.
package graph

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/logger"
)

const progressStep = 100000

type adjacency struct {
	coauthors []*store.Person
	weights   map[*store.Person]int
}

// Graph is the lazily materialised coauthor graph over one store.
type Graph struct {
	st     *store.Store
	logger *slog.Logger

	adj      sync.Map // *store.Person -> *adjacency
	withDis  sync.Map // *store.Person -> *LocalNetwork
	without  sync.Map // *store.Person -> *LocalNetwork
	adjCount atomic.Int64
	netCount atomic.Int64
}

func New(st *store.Store) *Graph {
	return &Graph{st: st, logger: logger.WithComponent("graph")}
}

func (g *Graph) adjacencyOf(p *store.Person) *adjacency {
	if v, ok := g.adj.Load(p); ok {
		return v.(*adjacency)
	}
	weights := make(map[*store.Person]int)
	for _, pub := range p.Publications() {
		for _, other := range pub.Persons() {
			if other != p {
				weights[other]++
			}
		}
	}
	coauthors := make([]*store.Person, 0, len(weights))
	for other := range weights {
		coauthors = append(coauthors, other)
	}
	slices.SortFunc(coauthors, store.ComparePersons)

	v, loaded := g.adj.LoadOrStore(p, &adjacency{coauthors: coauthors, weights: weights})
	if !loaded {
		if n := g.adjCount.Add(1); n%progressStep == 0 {
			g.logger.Info("lazy building coauthor graph", "person_nodes", n)
		}
	}
	return v.(*adjacency)
}

func checkPersons(persons ...*store.Person) error {
	for _, p := range persons {
		if p == nil {
			return apperrors.ErrNilPerson
		}
	}
	return nil
}

// Coauthors returns the persons sharing at least one publication with p,
// ordered by primary name.
func (g *Graph) Coauthors(p *store.Person) ([]*store.Person, error) {
	if err := checkPersons(p); err != nil {
		return nil, err
	}
	return g.adjacencyOf(p).coauthors, nil
}

func (g *Graph) NumberOfCoauthors(p *store.Person) (int, error) {
	if err := checkPersons(p); err != nil {
		return 0, err
	}
	return len(g.adjacencyOf(p).coauthors), nil
}

// Weight returns the number of publications a and b share, 0 if none.
func (g *Graph) Weight(a, b *store.Person) (int, error) {
	if err := checkPersons(a, b); err != nil {
		return 0, err
	}
	return g.adjacencyOf(a).weights[b], nil
}

// HasCoauthors reports whether a lists b or b lists a as coauthor.
func (g *Graph) HasCoauthors(a, b *store.Person) (bool, error) {
	if err := checkPersons(a, b); err != nil {
		return false, err
	}
	return g.hasEdge(a, b), nil
}

func (g *Graph) hasEdge(a, b *store.Person) bool {
	if _, ok := g.adjacencyOf(a).weights[b]; ok {
		return true
	}
	_, ok := g.adjacencyOf(b).weights[a]
	return ok
}

// Network returns the local coauthor network of p.
func (g *Graph) Network(p *store.Person, allowDisambiguations bool) (*LocalNetwork, error) {
	if err := checkPersons(p); err != nil {
		return nil, err
	}
	cache := &g.without
	if allowDisambiguations {
		cache = &g.withDis
	}
	if v, ok := cache.Load(p); ok {
		return v.(*LocalNetwork), nil
	}
	v, loaded := cache.LoadOrStore(p, newLocalNetwork(g, p, allowDisambiguations))
	if !loaded {
		if n := g.netCount.Add(1); n%progressStep == 0 {
			g.logger.Info("lazy building coauthor graph", "local_networks", n)
		}
	}
	return v.(*LocalNetwork), nil
}

// Community returns community k of p's network.
func (g *Graph) Community(p *store.Person, k int, allowDisambiguations bool) ([]*store.Person, error) {
	n, err := g.Network(p, allowDisambiguations)
	if err != nil {
		return nil, err
	}
	return n.Community(k)
}

// CommunityIndex returns the community of coauthor within p's network, or
// -1 if coauthor is no neighbour of p.
func (g *Graph) CommunityIndex(p, coauthor *store.Person, allowDisambiguations bool) (int, error) {
	if err := checkPersons(p, coauthor); err != nil {
		return -1, err
	}
	n, err := g.Network(p, allowDisambiguations)
	if err != nil {
		return -1, err
	}
	return n.Index(coauthor), nil
}

// EnsureAll materialises the adjacency of every person. This touches every
// publication of the store and is expensive; call it only when the whole
// graph is about to be walked.
func (g *Graph) EnsureAll() {
	for _, p := range g.st.Persons() {
		g.adjacencyOf(p)
	}
	g.logger.Info("coauthor graph materialised", "person_nodes", g.adjCount.Load())
}

// Size reports the number of materialised adjacency lists and networks.
func (g *Graph) Size() (adjacencies, networks int) {
	return int(g.adjCount.Load()), int(g.netCount.Load())
}

func (g *Graph) isDisambiguation(p *store.Person) bool {
	return g.st.IsDisambiguation(p)
}

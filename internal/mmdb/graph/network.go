package graph

import (
	"fmt"
	"math"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
)

// LocalNetwork partitions the coauthors of a center person into
// communities: two neighbours share a community when they are connected
// through coauthorships among the neighbours themselves.
type LocalNetwork struct {
	center    *store.Person
	neighbors []*store.Person
	community []int
	sizes     []int
	entropy   float64
}

func newLocalNetwork(g *Graph, center *store.Person, allowDisambiguations bool) *LocalNetwork {
	neighbors := g.adjacencyOf(center).coauthors
	n := len(neighbors)

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		pi, pj := find(i), find(j)
		if pi == pj {
			return
		}
		if (i+j)%2 == 0 {
			parent[pj] = pi
		} else {
			parent[pi] = pj
		}
	}

	skip := make([]bool, n)
	if !allowDisambiguations {
		for i, p := range neighbors {
			skip[i] = g.isDisambiguation(p)
		}
	}
	for i := 1; i < n; i++ {
		if skip[i] {
			continue
		}
		for j := 0; j < i; j++ {
			if !skip[j] && g.hasEdge(neighbors[i], neighbors[j]) {
				union(i, j)
			}
		}
	}

	// Number clusters by size, larger first; equal sizes keep the order in
	// which their roots were first met.
	type cluster struct {
		root, size int
	}
	byRoot := make(map[int]*cluster)
	var clusters []*cluster
	for i := 0; i < n; i++ {
		r := find(i)
		c, ok := byRoot[r]
		if !ok {
			c = &cluster{root: r}
			byRoot[r] = c
			clusters = append(clusters, c)
		}
		c.size++
	}
	slices.SortStableFunc(clusters, func(a, b *cluster) int { return b.size - a.size })

	ln := &LocalNetwork{
		center:    center,
		neighbors: neighbors,
		community: make([]int, n),
		sizes:     make([]int, len(clusters)),
	}
	index := make(map[int]int, len(clusters))
	for k, c := range clusters {
		index[c.root] = k
		ln.sizes[k] = c.size
	}
	for i := 0; i < n; i++ {
		ln.community[i] = index[find(i)]
	}
	ln.entropy = entropy(ln.sizes, n)
	return ln
}

// entropy is the Shannon entropy of the cluster size distribution,
// normalised by its maximum ln k. Fewer than two clusters give 0.
func entropy(sizes []int, total int) float64 {
	k := len(sizes)
	if k < 2 {
		return 0
	}
	score := 0.0
	for _, s := range sizes {
		p := float64(s) / float64(total)
		score += p * -math.Log(p)
	}
	return score / math.Log(float64(k))
}

func (n *LocalNetwork) Center() *store.Person        { return n.center }
func (n *LocalNetwork) Neighbors() []*store.Person   { return n.neighbors }
func (n *LocalNetwork) NumberOfNeighbors() int       { return len(n.neighbors) }
func (n *LocalNetwork) Neighbor(i int) *store.Person { return n.neighbors[i] }
func (n *LocalNetwork) NumberOfCommunities() int     { return len(n.sizes) }
func (n *LocalNetwork) Entropy() float64             { return n.entropy }

// CommunityOf returns the community of neighbour i.
func (n *LocalNetwork) CommunityOf(i int) int { return n.community[i] }

// Index returns the community of p, or -1 if p is no neighbour.
func (n *LocalNetwork) Index(p *store.Person) int {
	for i, q := range n.neighbors {
		if q == p {
			return n.community[i]
		}
	}
	return -1
}

// NeighborIndex returns the position of p among the neighbours, or -1.
func (n *LocalNetwork) NeighborIndex(p *store.Person) int {
	return slices.Index(n.neighbors, p)
}

func (n *LocalNetwork) CommunitySize(k int) (int, error) {
	if k < 0 || k >= len(n.sizes) {
		return 0, fmt.Errorf("%w: %d of %d", apperrors.ErrCommunityIndex, k, len(n.sizes))
	}
	return n.sizes[k], nil
}

// Community returns the members of community k in neighbour order.
func (n *LocalNetwork) Community(k int) ([]*store.Person, error) {
	size, err := n.CommunitySize(k)
	if err != nil {
		return nil, err
	}
	out := make([]*store.Person, 0, size)
	for i, c := range n.community {
		if c == k {
			out = append(out, n.neighbors[i])
		}
	}
	return out, nil
}

package graph

import (
	"container/heap"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/dblp-mmdb/internal/mmdb/store"
)

type queueItem struct {
	person *store.Person
	dist   int
	seq    int
}

// pathQueue orders by distance, then by insertion so equal-length paths are
// found in a stable order.
type pathQueue []queueItem

func (q pathQueue) Len() int { return len(q) }
func (q pathQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].seq < q[j].seq
}
func (q pathQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *pathQueue) Push(x any)   { *q = append(*q, x.(queueItem)) }
func (q *pathQueue) Pop() any {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}

// ShortestPath returns a path with the fewest coauthor edges from a to b,
// both included. a == b yields [a]; an unreachable b yields an empty path.
// Without allowDisambiguations, disambiguation profiles may be endpoints but
// are never crossed. The search expands adjacencies on demand and may touch
// large parts of the graph.
func (g *Graph) ShortestPath(a, b *store.Person, allowDisambiguations bool) ([]*store.Person, error) {
	if err := checkPersons(a, b); err != nil {
		return nil, err
	}
	if a == b {
		return []*store.Person{a}, nil
	}

	dist := map[*store.Person]int{a: 0}
	prev := make(map[*store.Person]*store.Person)
	q := &pathQueue{{person: a}}
	seq := 1
	for q.Len() > 0 {
		cur := heap.Pop(q).(queueItem)
		if cur.dist > dist[cur.person] {
			continue
		}
		if cur.person == b {
			return tracePath(prev, a, b), nil
		}
		if cur.person != a && !allowDisambiguations && g.isDisambiguation(cur.person) {
			continue
		}
		for _, next := range g.adjacencyOf(cur.person).coauthors {
			d := cur.dist + 1
			if old, seen := dist[next]; seen && old <= d {
				continue
			}
			dist[next] = d
			prev[next] = cur.person
			heap.Push(q, queueItem{person: next, dist: d, seq: seq})
			seq++
		}
	}
	return []*store.Person{}, nil
}

func tracePath(prev map[*store.Person]*store.Person, a, b *store.Person) []*store.Person {
	var path []*store.Person
	for p := b; p != a; p = prev[p] {
		path = append(path, p)
	}
	path = append(path, a)
	slices.Reverse(path)
	return path
}

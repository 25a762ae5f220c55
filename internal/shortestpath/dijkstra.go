// Package shortestpath implements Dijkstra's algorithm over a
// non-negative weighted adjacency map, used by the path annotator to turn
// solver stop sequences into concretely traced routes.
package shortestpath

import (
	"container/heap"

	"github.com/routingcore/routingcore/internal/apperror"
)

// Graph is an adjacency map: Graph[from][to] = weight.
type Graph map[string]map[string]float64

// PathResult is the outcome of a single-pair shortest-path query.
type PathResult struct {
	Path     []string
	Distance float64
	Found    bool
}

// validateNonNegative scans the whole graph for negative edge weights.
// The optimizer relies on non-negativity for correctness, so any negative
// weight fails the whole call rather than triggering a silent fallback.
func validateNonNegative(g Graph) error {
	for from, neighbors := range g {
		for to, weight := range neighbors {
			if weight < 0 {
				return apperror.New(apperror.CodeNegativeWeight, "negative edge weight").
					WithDetails("from", from).
					WithDetails("to", to).
					WithDetails("weight", weight)
			}
		}
	}
	return nil
}

// heapItem is an entry in the priority queue, tie-broken by node name for
// deterministic output across runs with equal-distance ties.
type heapItem struct {
	node     string
	distance float64
}

type priorityQueue []heapItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].distance != pq[j].distance {
		return pq[i].distance < pq[j].distance
	}
	return pq[i].node < pq[j].node
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)   { *pq = append(*pq, x.(heapItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// ShortestPath computes the shortest path from start to end in g.
// Returns a PathResult with Found=false (no error) if either node is
// unknown or the target is unreachable. Returns an error only when the
// graph itself is invalid (a negative edge weight is present).
func ShortestPath(g Graph, start, end string) (PathResult, error) {
	if err := validateNonNegative(g); err != nil {
		return PathResult{}, err
	}

	if start == end {
		if _, ok := g[start]; !ok {
			return PathResult{}, nil
		}
		return PathResult{Path: []string{start}, Distance: 0, Found: true}, nil
	}

	if _, ok := g[start]; !ok {
		return PathResult{}, nil
	}
	if _, ok := g[end]; !ok {
		return PathResult{}, nil
	}

	dist := map[string]float64{start: 0}
	parent := map[string]string{}
	visited := map[string]bool{}

	pq := &priorityQueue{{node: start, distance: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		current := heap.Pop(pq).(heapItem)
		u := current.node

		if visited[u] {
			continue
		}
		visited[u] = true

		if u == end {
			return PathResult{Path: buildPath(parent, start, end), Distance: dist[end], Found: true}, nil
		}

		for v, weight := range g[u] {
			if visited[v] {
				continue
			}
			newDist := dist[u] + weight
			if d, ok := dist[v]; !ok || newDist < d {
				dist[v] = newDist
				parent[v] = u
				heap.Push(pq, heapItem{node: v, distance: newDist})
			}
		}
	}

	return PathResult{}, nil
}

func buildPath(parent map[string]string, start, end string) []string {
	var path []string
	for cur := end; ; {
		path = append([]string{cur}, path...)
		if cur == start {
			break
		}
		p, ok := parent[cur]
		if !ok {
			break
		}
		cur = p
	}
	return path
}

// AllPairs computes shortest paths between every pair of the supplied
// nodes. Nodes not present in g are treated as isolated (unreachable from
// and to every other node).
func AllPairs(g Graph, nodes []string) (map[string]map[string]PathResult, error) {
	if err := validateNonNegative(g); err != nil {
		return nil, err
	}

	result := make(map[string]map[string]PathResult, len(nodes))
	for _, source := range nodes {
		result[source] = singleSourceAll(g, source, nodes)
	}
	return result, nil
}

func singleSourceAll(g Graph, source string, nodes []string) map[string]PathResult {
	dist := map[string]float64{}
	parent := map[string]string{}
	visited := map[string]bool{}

	row := make(map[string]PathResult, len(nodes))

	if _, ok := g[source]; !ok {
		for _, n := range nodes {
			if n == source {
				row[n] = PathResult{Path: []string{source}, Distance: 0, Found: true}
				continue
			}
			row[n] = PathResult{}
		}
		return row
	}

	dist[source] = 0
	pq := &priorityQueue{{node: source, distance: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		current := heap.Pop(pq).(heapItem)
		u := current.node
		if visited[u] {
			continue
		}
		visited[u] = true

		for v, weight := range g[u] {
			newDist := dist[u] + weight
			if d, ok := dist[v]; !ok || newDist < d {
				dist[v] = newDist
				parent[v] = u
				heap.Push(pq, heapItem{node: v, distance: newDist})
			}
		}
	}

	for _, n := range nodes {
		d, ok := dist[n]
		if !ok {
			row[n] = PathResult{}
			continue
		}
		row[n] = PathResult{Path: buildPath(parent, source, n), Distance: d, Found: true}
	}
	return row
}

// Package pathfind computes attack paths, shortest exploitable routes, and
// blast radii over a tenant's in-memory graph, and orchestrates those
// computations against the graph store, engram store, and result cache.
package pathfind

import (
	"container/heap"
	"sort"

	"github.com/securizon/sentinel/internal/pathgraph"
)

// EdgeRef names one traversed edge by the node it leaves from and its
// position in that node's adjacency slice.
type EdgeRef struct {
	FromIndex int
	EdgePos   int
}

// RawPath is a path through the in-memory graph expressed purely in dense
// indices, before it is resolved back into node/edge ids for the caller.
type RawPath struct {
	NodeIndices []int
	Edges       []EdgeRef
	TotalWeight float64
}

// EnumerateAllPaths finds every simple path from any of sources to any of
// targets via depth-first search, with cycle avoidance (a node already on
// the current path is never revisited) and a depth cap. Paths are sorted
// by total weight ascending — weight is 1-exploitability per edge, so the
// most exploitable path sorts first — and truncated to maxPaths.
//
// Enumeration also stops early, mid-source, once maxPaths results have
// accumulated: a tenant with a dense graph and a generous maxDepth can
// otherwise make this exponential, and the caller only wants the top
// maxPaths anyway.
func EnumerateAllPaths(graph *pathgraph.InMemoryGraph, sources, targets []int, maxDepth, maxPaths int) []RawPath {
	targetSet := make(map[int]bool, len(targets))
	for _, t := range targets {
		targetSet[t] = true
	}

	var allPaths []RawPath

	for _, source := range sources {
		if len(allPaths) >= maxPaths {
			break
		}

		stack := []dfsState{{
			node:      source,
			nodes:     []int{source},
			edges:     nil,
			weight:    0.0,
			visited:   map[int]bool{source: true},
		}}

		for len(stack) > 0 {
			if len(allPaths) >= maxPaths {
				break
			}
			state := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if len(state.nodes) > 1 && targetSet[state.node] {
				allPaths = append(allPaths, RawPath{
					NodeIndices: append([]int(nil), state.nodes...),
					Edges:       append([]EdgeRef(nil), state.edges...),
					TotalWeight: state.weight,
				})
				continue
			}

			if len(state.nodes) > maxDepth {
				continue
			}

			for edgePos, edge := range graph.Adjacency[state.node] {
				if state.visited[edge.TargetIndex] {
					continue
				}

				weight := clampUnit(1.0 - edge.Exploitability)

				newVisited := make(map[int]bool, len(state.visited)+1)
				for k := range state.visited {
					newVisited[k] = true
				}
				newVisited[edge.TargetIndex] = true

				newNodes := append(append([]int(nil), state.nodes...), edge.TargetIndex)
				newEdges := append(append([]EdgeRef(nil), state.edges...), EdgeRef{FromIndex: state.node, EdgePos: edgePos})

				stack = append(stack, dfsState{
					node:    edge.TargetIndex,
					nodes:   newNodes,
					edges:   newEdges,
					weight:  state.weight + weight,
					visited: newVisited,
				})
			}
		}
	}

	sort.SliceStable(allPaths, func(i, j int) bool {
		return allPaths[i].TotalWeight < allPaths[j].TotalWeight
	})
	if len(allPaths) > maxPaths {
		allPaths = allPaths[:maxPaths]
	}
	return allPaths
}

type dfsState struct {
	node    int
	nodes   []int
	edges   []EdgeRef
	weight  float64
	visited map[int]bool
}

// ShortestWeightedPath finds the lowest-total-weight path from source to
// target using Dijkstra's algorithm, where edge weight is 1-exploitability
// (so the most exploitable route is "shortest"). Returns nil if target is
// unreachable from source. If source == target, returns the trivial
// zero-weight single-node path.
func ShortestWeightedPath(graph *pathgraph.InMemoryGraph, source, target int) *RawPath {
	n := graph.NodeCount()
	const inf = 1.0e18

	dist := make([]float64, n)
	for i := range dist {
		dist[i] = inf
	}
	prev := make([]*EdgeRef, n)
	visited := make([]bool, n)

	dist[source] = 0.0

	pq := &dijkstraQueue{{cost: 0.0, node: source}}
	heap.Init(pq)

	for pq.Len() > 0 {
		top := heap.Pop(pq).(dijkstraItem)
		if top.node == target {
			break
		}
		if visited[top.node] {
			continue
		}
		visited[top.node] = true
		if top.cost > dist[top.node] {
			continue
		}

		for edgePos, edge := range graph.Adjacency[top.node] {
			weight := clampUnit(1.0 - edge.Exploitability)
			newDist := dist[top.node] + weight
			if newDist < dist[edge.TargetIndex] {
				dist[edge.TargetIndex] = newDist
				prev[edge.TargetIndex] = &EdgeRef{FromIndex: top.node, EdgePos: edgePos}
				heap.Push(pq, dijkstraItem{cost: newDist, node: edge.TargetIndex})
			}
		}
	}

	if dist[target] >= inf {
		return nil
	}

	var nodeIndices []int
	var edges []EdgeRef
	current := target
	for prev[current] != nil {
		ref := prev[current]
		nodeIndices = append(nodeIndices, current)
		edges = append(edges, *ref)
		current = ref.FromIndex
	}
	nodeIndices = append(nodeIndices, source)

	reverseInts(nodeIndices)
	reverseEdgeRefs(edges)

	return &RawPath{NodeIndices: nodeIndices, Edges: edges, TotalWeight: dist[target]}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseEdgeRefs(s []EdgeRef) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// dijkstraItem and dijkstraQueue implement container/heap as a min-heap by
// cost; no third-party priority-queue library appears anywhere in the
// example pack, so this is the plain stdlib idiom.
type dijkstraItem struct {
	cost float64
	node int
}

type dijkstraQueue []dijkstraItem

func (q dijkstraQueue) Len() int            { return len(q) }
func (q dijkstraQueue) Less(i, j int) bool  { return q[i].cost < q[j].cost }
func (q dijkstraQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *dijkstraQueue) Push(x any)         { *q = append(*q, x.(dijkstraItem)) }
func (q *dijkstraQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

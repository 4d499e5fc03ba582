package pathfind

import (
	"math"
	"testing"

	"github.com/securizon/sentinel/internal/graphtypes"
	"github.com/securizon/sentinel/internal/pathgraph"
)

// buildTestGraph builds:
//
//	0 --0.8--> 1 --0.9--> 3
//	0 --0.3--> 2 --0.4--> 3
//
// Node 0 is internet-facing, node 3 is a crown jewel.
func buildTestGraph() *pathgraph.InMemoryGraph {
	ids := make([]graphtypes.NodeId, 4)
	for i := range ids {
		ids[i] = graphtypes.NewNodeId()
	}

	nodes := []pathgraph.GraphNode{
		{Index: 0, ID: ids[0], Kind: graphtypes.NodeKindHost, Criticality: 0.2, InternetFacing: true},
		{Index: 1, ID: ids[1], Kind: graphtypes.NodeKindService, Criticality: 0.5},
		{Index: 2, ID: ids[2], Kind: graphtypes.NodeKindService, Criticality: 0.5},
		{Index: 3, ID: ids[3], Kind: graphtypes.NodeKindHost, Criticality: 1.0, CrownJewel: true},
	}

	adjacency := [][]pathgraph.GraphEdge{
		{
			{ID: graphtypes.NewEdgeId(), EdgeType: graphtypes.EdgeConnectsTo, Exploitability: 0.8, TargetIndex: 1},
			{ID: graphtypes.NewEdgeId(), EdgeType: graphtypes.EdgeConnectsTo, Exploitability: 0.3, TargetIndex: 2},
		},
		{
			{ID: graphtypes.NewEdgeId(), EdgeType: graphtypes.EdgeHasAccess, Exploitability: 0.9, TargetIndex: 3},
		},
		{
			{ID: graphtypes.NewEdgeId(), EdgeType: graphtypes.EdgeConnectsTo, Exploitability: 0.4, TargetIndex: 3},
		},
		{},
	}

	nodeIndex := make(map[graphtypes.NodeId]int, len(ids))
	for i, id := range ids {
		nodeIndex[id] = i
	}

	return &pathgraph.InMemoryGraph{Nodes: nodes, Adjacency: adjacency, NodeIndex: nodeIndex}
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestEnumerateAllPaths_FindsBoth(t *testing.T) {
	g := buildTestGraph()
	paths := EnumerateAllPaths(g, []int{0}, []int{3}, 10, 100)
	if len(paths) != 2 {
		t.Fatalf("len(paths) = %d, want 2", len(paths))
	}
	// Path 0->1->3: weight = (1-0.8)+(1-0.9) = 0.3
	// Path 0->2->3: weight = (1-0.3)+(1-0.4) = 1.3
	if !almostEqual(paths[0].TotalWeight, 0.3) {
		t.Errorf("paths[0].TotalWeight = %v, want ~0.3", paths[0].TotalWeight)
	}
	if !almostEqual(paths[1].TotalWeight, 1.3) {
		t.Errorf("paths[1].TotalWeight = %v, want ~1.3", paths[1].TotalWeight)
	}
}

func TestEnumerateAllPaths_RespectsMaxDepth(t *testing.T) {
	g := buildTestGraph()
	paths := EnumerateAllPaths(g, []int{0}, []int{3}, 1, 100)
	if len(paths) != 0 {
		t.Fatalf("len(paths) = %d, want 0 (max_depth=1 excludes all 2-hop paths)", len(paths))
	}
}

func TestEnumerateAllPaths_RespectsMaxPaths(t *testing.T) {
	g := buildTestGraph()
	paths := EnumerateAllPaths(g, []int{0}, []int{3}, 10, 1)
	if len(paths) != 1 {
		t.Fatalf("len(paths) = %d, want 1", len(paths))
	}
}

func TestShortestWeightedPath(t *testing.T) {
	g := buildTestGraph()
	path := ShortestWeightedPath(g, 0, 3)
	if path == nil {
		t.Fatal("path = nil, want a path")
	}
	want := []int{0, 1, 3}
	if len(path.NodeIndices) != len(want) {
		t.Fatalf("NodeIndices = %v, want %v", path.NodeIndices, want)
	}
	for i := range want {
		if path.NodeIndices[i] != want[i] {
			t.Fatalf("NodeIndices = %v, want %v", path.NodeIndices, want)
		}
	}
	if !almostEqual(path.TotalWeight, 0.3) {
		t.Errorf("TotalWeight = %v, want ~0.3", path.TotalWeight)
	}
}

func TestShortestPath_Unreachable(t *testing.T) {
	g := buildTestGraph()
	// Node 3 has no outgoing edges, so it cannot reach node 0.
	if path := ShortestWeightedPath(g, 3, 0); path != nil {
		t.Fatalf("path = %+v, want nil", path)
	}
}

func TestShortestPath_SameNode(t *testing.T) {
	g := buildTestGraph()
	path := ShortestWeightedPath(g, 0, 0)
	if path == nil {
		t.Fatal("path = nil, want trivial zero-weight path")
	}
	if len(path.NodeIndices) != 1 || path.NodeIndices[0] != 0 {
		t.Errorf("NodeIndices = %v, want [0]", path.NodeIndices)
	}
	if path.TotalWeight != 0.0 {
		t.Errorf("TotalWeight = %v, want 0.0", path.TotalWeight)
	}
}

func TestEnumerateAllPaths_CycleDetection(t *testing.T) {
	// 0 -> 1 -> 2 -> 0 (cycle) and 2 -> 3.
	ids := make([]graphtypes.NodeId, 4)
	for i := range ids {
		ids[i] = graphtypes.NewNodeId()
	}
	nodes := []pathgraph.GraphNode{
		{Index: 0, ID: ids[0], Criticality: 0.2, InternetFacing: true},
		{Index: 1, ID: ids[1], Criticality: 0.2},
		{Index: 2, ID: ids[2], Criticality: 0.2},
		{Index: 3, ID: ids[3], Criticality: 1.0, CrownJewel: true},
	}
	adjacency := [][]pathgraph.GraphEdge{
		{{EdgeType: graphtypes.EdgeConnectsTo, Exploitability: 0.8, TargetIndex: 1}},
		{{EdgeType: graphtypes.EdgeConnectsTo, Exploitability: 0.7, TargetIndex: 2}},
		{
			{EdgeType: graphtypes.EdgeConnectsTo, Exploitability: 0.6, TargetIndex: 0},
			{EdgeType: graphtypes.EdgeHasAccess, Exploitability: 0.9, TargetIndex: 3},
		},
		{},
	}
	nodeIndex := make(map[graphtypes.NodeId]int, len(ids))
	for i, id := range ids {
		nodeIndex[id] = i
	}
	g := &pathgraph.InMemoryGraph{Nodes: nodes, Adjacency: adjacency, NodeIndex: nodeIndex}

	paths := EnumerateAllPaths(g, []int{0}, []int{3}, 10, 100)
	if len(paths) != 1 {
		t.Fatalf("len(paths) = %d, want 1 (cycle must not be traversed)", len(paths))
	}
	want := []int{0, 1, 2, 3}
	if len(paths[0].NodeIndices) != len(want) {
		t.Fatalf("NodeIndices = %v, want %v", paths[0].NodeIndices, want)
	}
	for i := range want {
		if paths[0].NodeIndices[i] != want[i] {
			t.Fatalf("NodeIndices = %v, want %v", paths[0].NodeIndices, want)
		}
	}
}

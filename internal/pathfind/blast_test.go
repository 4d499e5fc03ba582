package pathfind

import (
	"testing"

	"github.com/securizon/sentinel/internal/graphtypes"
	"github.com/securizon/sentinel/internal/pathgraph"
)

// buildStarGraph builds a compromised node 0 with four direct neighbors at
// varying exploitability; node 3 is a crown jewel.
//
//	0 --0.2--> 1
//	0 --0.5--> 2
//	0 --0.9--> 3 (crown jewel)
//	0 --0.4--> 4
func buildStarGraph() *pathgraph.InMemoryGraph {
	ids := make([]graphtypes.NodeId, 5)
	for i := range ids {
		ids[i] = graphtypes.NewNodeId()
	}
	nodes := []pathgraph.GraphNode{
		{Index: 0, ID: ids[0], Criticality: 0.2},
		{Index: 1, ID: ids[1], Criticality: 0.2},
		{Index: 2, ID: ids[2], Criticality: 0.5},
		{Index: 3, ID: ids[3], Criticality: 1.0, CrownJewel: true},
		{Index: 4, ID: ids[4], Criticality: 0.2},
	}
	adjacency := [][]pathgraph.GraphEdge{
		{
			{EdgeType: graphtypes.EdgeConnectsTo, Exploitability: 0.2, TargetIndex: 1},
			{EdgeType: graphtypes.EdgeConnectsTo, Exploitability: 0.5, TargetIndex: 2},
			{EdgeType: graphtypes.EdgeConnectsTo, Exploitability: 0.9, TargetIndex: 3},
			{EdgeType: graphtypes.EdgeConnectsTo, Exploitability: 0.4, TargetIndex: 4},
		},
		{}, {}, {}, {},
	}
	nodeIndex := make(map[graphtypes.NodeId]int, len(ids))
	for i, id := range ids {
		nodeIndex[id] = i
	}
	return &pathgraph.InMemoryGraph{Nodes: nodes, Adjacency: adjacency, NodeIndex: nodeIndex}
}

func TestComputeBlastRadius_MinExploitabilityFilter(t *testing.T) {
	g := buildStarGraph()
	result := ComputeBlastRadius(g, 0, 5, 0.3)
	if result.TotalReachable != 3 {
		t.Fatalf("TotalReachable = %d, want 3", result.TotalReachable)
	}
	if result.CriticalReachable != 1 {
		t.Fatalf("CriticalReachable = %d, want 1", result.CriticalReachable)
	}
}

func TestComputeBlastRadius_MaxHopsZero(t *testing.T) {
	g := buildStarGraph()
	result := ComputeBlastRadius(g, 0, 0, 0.3)
	if result.TotalReachable != 0 {
		t.Fatalf("TotalReachable = %d, want 0", result.TotalReachable)
	}
}

func TestComputeBlastRadius_MinExploitabilityExcludesAll(t *testing.T) {
	g := buildStarGraph()
	result := ComputeBlastRadius(g, 0, 5, 0.95)
	if result.TotalReachable != 0 {
		t.Fatalf("TotalReachable = %d, want 0", result.TotalReachable)
	}
}

func TestComputeBlastRadius_ZeroFloorIncludesAll(t *testing.T) {
	g := buildStarGraph()
	result := ComputeBlastRadius(g, 0, 5, 0.0)
	if result.TotalReachable != 4 {
		t.Fatalf("TotalReachable = %d, want 4", result.TotalReachable)
	}
}

func TestComputeBlastRadius_CompromisedNodeExcluded(t *testing.T) {
	g := buildStarGraph()
	result := ComputeBlastRadius(g, 0, 5, 0.0)
	for _, r := range result.ReachableNodes {
		if r.NodeID == g.Nodes[0].ID {
			t.Fatalf("compromised node included in ReachableNodes")
		}
	}
}

func TestComputeBlastRadius_SortOrder(t *testing.T) {
	g := buildStarGraph()
	result := ComputeBlastRadius(g, 0, 5, 0.0)
	for i := 1; i < len(result.ReachableNodes); i++ {
		prev, cur := result.ReachableNodes[i-1], result.ReachableNodes[i]
		if prev.Hops > cur.Hops {
			t.Fatalf("ReachableNodes not sorted by hops ascending: %+v", result.ReachableNodes)
		}
		if prev.Hops == cur.Hops && prev.CumulativeExploitability < cur.CumulativeExploitability {
			t.Fatalf("same-hop entries not sorted by cumulative exploitability descending: %+v", result.ReachableNodes)
		}
	}
}

func TestComputeBlastRadius_BlastScore(t *testing.T) {
	g := buildStarGraph()
	result := ComputeBlastRadius(g, 0, 5, 0.0)
	// blast_score = sum(criticality * cumulative_exploitability)
	// = 0.2*0.2 + 0.5*0.5 + 1.0*0.9 + 0.2*0.4 = 0.04+0.25+0.9+0.08 = 1.27
	want := 1.27
	if diff := result.BlastScore - want; diff > 0.001 || diff < -0.001 {
		t.Errorf("BlastScore = %v, want ~%v", result.BlastScore, want)
	}
}

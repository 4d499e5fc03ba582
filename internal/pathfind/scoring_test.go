package pathfind

import (
	"math"
	"testing"

	"github.com/securizon/sentinel/internal/graphtypes"
	"github.com/securizon/sentinel/internal/pathgraph"
)

func scoringGraph(targetCriticality float64) *pathgraph.InMemoryGraph {
	ids := make([]graphtypes.NodeId, 3)
	for i := range ids {
		ids[i] = graphtypes.NewNodeId()
	}
	nodes := []pathgraph.GraphNode{
		{Index: 0, ID: ids[0]},
		{Index: 1, ID: ids[1]},
		{Index: 2, ID: ids[2], Criticality: targetCriticality},
	}
	return &pathgraph.InMemoryGraph{
		Nodes:     nodes,
		Adjacency: make([][]pathgraph.GraphEdge, 3),
		NodeIndex: map[graphtypes.NodeId]int{ids[0]: 0, ids[1]: 1, ids[2]: 2},
	}
}

func TestComputePathRiskScore_TwoHop(t *testing.T) {
	g := scoringGraph(1.0)
	g.Adjacency[0] = []pathgraph.GraphEdge{{Exploitability: 0.9, TargetIndex: 1}}
	g.Adjacency[1] = []pathgraph.GraphEdge{{Exploitability: 0.8, TargetIndex: 2}}

	path := RawPath{
		NodeIndices: []int{0, 1, 2},
		Edges: []EdgeRef{
			{FromIndex: 0, EdgePos: 0},
			{FromIndex: 1, EdgePos: 0},
		},
	}

	score := ComputePathRiskScore(g, path, DefaultScoringConfig())
	want := 7.65
	if math.Abs(score-want) > 0.01 {
		t.Errorf("score = %v, want ~%v", score, want)
	}
}

func TestComputePathRiskScore_OneHop(t *testing.T) {
	g := scoringGraph(0.5)
	g.Adjacency[0] = []pathgraph.GraphEdge{{Exploitability: 0.8, TargetIndex: 2}}

	path := RawPath{
		NodeIndices: []int{0, 2},
		Edges:       []EdgeRef{{FromIndex: 0, EdgePos: 0}},
	}

	score := ComputePathRiskScore(g, path, DefaultScoringConfig())
	want := 4.0
	if math.Abs(score-want) > 0.01 {
		t.Errorf("score = %v, want ~%v", score, want)
	}
}

func TestComputePathRiskScore_EmptyPath(t *testing.T) {
	g := scoringGraph(1.0)
	score := ComputePathRiskScore(g, RawPath{}, DefaultScoringConfig())
	if score != 0.0 {
		t.Errorf("score = %v, want 0.0", score)
	}
}

func TestComputePathRiskScore_CappedAtMaxScore(t *testing.T) {
	g := scoringGraph(1.0)
	g.Adjacency[0] = []pathgraph.GraphEdge{{Exploitability: 1.0, TargetIndex: 1}}
	g.Adjacency[1] = []pathgraph.GraphEdge{{Exploitability: 1.0, TargetIndex: 2}}

	path := RawPath{
		NodeIndices: []int{0, 1, 2},
		Edges: []EdgeRef{
			{FromIndex: 0, EdgePos: 0},
			{FromIndex: 1, EdgePos: 0},
		},
	}

	config := DefaultScoringConfig()
	config.DecayFactor = 1.0
	score := ComputePathRiskScore(g, path, config)
	if score > config.MaxScore {
		t.Errorf("score = %v, exceeds MaxScore %v", score, config.MaxScore)
	}
}

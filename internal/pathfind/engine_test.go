package pathfind

import (
	"testing"

	"github.com/securizon/sentinel/internal/graphtypes"
	"github.com/securizon/sentinel/internal/pathgraph"
)

func engineTestGraph() *pathgraph.InMemoryGraph {
	host := graphtypes.NewNodeId()
	db := graphtypes.NewNodeId()
	edgeID := graphtypes.NewEdgeId()

	nodes := []pathgraph.NodeRecord{
		{ID: host, Kind: graphtypes.NodeKindHost, Properties: map[string]any{"tags": []any{"internet-facing"}}},
		{ID: db, Kind: graphtypes.NodeKindApplication, Properties: map[string]any{"criticality": "critical", "protocol": "ssh"}},
	}
	edges := []pathgraph.EdgeRecord{
		{ID: edgeID, SourceID: host, TargetID: db, EdgeType: graphtypes.EdgeHasAccess,
			Properties: map[string]any{"exploitability_score": 0.8}},
	}
	return pathgraph.FromSubgraph(nodes, edges)
}

func TestResolveIndices_UsesFallbackWhenNil(t *testing.T) {
	graph := engineTestGraph()
	indices := resolveIndices(nil, graph, graph.InternetFacingNodes)
	if len(indices) != 1 {
		t.Fatalf("expected 1 internet-facing node, got %d", len(indices))
	}
}

func TestResolveIndices_DropsUnknownIds(t *testing.T) {
	graph := engineTestGraph()
	known := graph.Nodes[0].ID
	unknown := graphtypes.NewNodeId()

	indices := resolveIndices([]graphtypes.NodeId{known, unknown}, graph, graph.InternetFacingNodes)
	if len(indices) != 1 || indices[0] != 0 {
		t.Fatalf("expected only the known node index, got %v", indices)
	}
}

func TestRawPathToSteps_PopulatesTechniqueAndDescription(t *testing.T) {
	graph := engineTestGraph()
	engine := NewEngine(nil)

	raw := RawPath{
		NodeIndices: []int{0, 1},
		Edges:       []EdgeRef{{FromIndex: 0, EdgePos: 0}},
		TotalWeight: 0.2,
	}

	steps := engine.rawPathToSteps(raw, graph)
	if len(steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(steps))
	}
	if steps[0].Technique == nil || *steps[0].Technique != "ssh-pivot" {
		t.Fatalf("expected ssh-pivot technique, got %v", steps[0].Technique)
	}
	if steps[0].Exploitability != 0.8 {
		t.Fatalf("expected exploitability 0.8, got %f", steps[0].Exploitability)
	}
	if steps[0].NodeID != graph.Nodes[1].ID {
		t.Fatalf("expected step node to be the edge target")
	}
	wantDesc := string(graphtypes.NodeKindHost) + " -> " + string(graphtypes.NodeKindApplication) + " via " + string(graphtypes.EdgeHasAccess)
	if steps[0].Description != wantDesc {
		t.Fatalf("expected description %q, got %q", wantDesc, steps[0].Description)
	}
}

func TestRawPathToAttackPath_SetsSourceAndTarget(t *testing.T) {
	graph := engineTestGraph()
	engine := NewEngine(nil)
	tenantID := graphtypes.NewTenantId()

	raw := RawPath{
		NodeIndices: []int{0, 1},
		Edges:       []EdgeRef{{FromIndex: 0, EdgePos: 0}},
		TotalWeight: 0.2,
	}

	path := engine.rawPathToAttackPath(raw, graph, tenantID)
	if path.SourceNode != graph.Nodes[0].ID {
		t.Errorf("expected source node to be nodes[0]")
	}
	if path.TargetNode != graph.Nodes[1].ID {
		t.Errorf("expected target node to be nodes[1]")
	}
	if path.TenantID != tenantID {
		t.Errorf("expected tenant id to be carried through")
	}
	if path.RiskScore <= 0 {
		t.Errorf("expected a positive risk score for a path into a critical node")
	}
}

func TestRawPathToAttackPath_EmptyPathHasZeroValueEndpoints(t *testing.T) {
	graph := engineTestGraph()
	engine := NewEngine(nil)
	tenantID := graphtypes.NewTenantId()

	path := engine.rawPathToAttackPath(RawPath{}, graph, tenantID)
	if path.RiskScore != 0 {
		t.Errorf("expected zero risk score for an empty path, got %f", path.RiskScore)
	}
	if len(path.Steps) != 0 {
		t.Errorf("expected no steps for an empty path")
	}
	if path.SourceNode != (graphtypes.NodeId{}) || path.TargetNode != (graphtypes.NodeId{}) {
		t.Errorf("expected zero-value source and target nodes for an empty path")
	}
}

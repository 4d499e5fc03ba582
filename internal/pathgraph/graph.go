// Package pathgraph holds the compact, in-memory graph representation the
// pathfind engine runs its traversals against. A tenant's subgraph is
// fetched once from graphstore and converted here into a dense adjacency
// list so DFS/Dijkstra/BFS never touch a map keyed by uuid.UUID on their
// hot path.
package pathgraph

import (
	"strings"

	"github.com/securizon/sentinel/internal/graphtypes"
)

// NodeRecord is the shape graphstore hands back for a single fetched node:
// its identity, kind, and the property bag the classifier functions below
// read out of.
type NodeRecord struct {
	ID         graphtypes.NodeId
	Kind       graphtypes.NodeKind
	Properties map[string]any
}

// EdgeRecord is the analogous shape for a fetched relationship.
type EdgeRecord struct {
	ID         graphtypes.EdgeId
	SourceID   graphtypes.NodeId
	TargetID   graphtypes.NodeId
	EdgeType   graphtypes.EdgeType
	Properties map[string]any
}

// GraphNode is the dense, traversal-ready projection of a NodeRecord.
type GraphNode struct {
	Index          int
	ID             graphtypes.NodeId
	Kind           graphtypes.NodeKind
	Criticality    float64
	InternetFacing bool
	CrownJewel     bool
	Properties     map[string]any
}

// GraphEdge is the dense projection of an EdgeRecord, stored in the
// adjacency list of its source node.
type GraphEdge struct {
	ID             graphtypes.EdgeId
	EdgeType       graphtypes.EdgeType
	Exploitability float64
	TargetIndex    int
}

// InMemoryGraph is a dense adjacency-list graph built once per pathfind
// request from a tenant's fetched subgraph.
type InMemoryGraph struct {
	Nodes     []GraphNode
	Adjacency [][]GraphEdge // Adjacency[i] = outgoing edges from Nodes[i]
	NodeIndex map[graphtypes.NodeId]int
}

// FromSubgraph builds a dense graph from fetched node and edge records.
// Edges whose source or target id is absent from nodes are silently
// dropped: a relationship can outlive one of its endpoints between a scan
// and a delete, and the traversal must not fail the whole request over it.
func FromSubgraph(nodes []NodeRecord, edges []EdgeRecord) *InMemoryGraph {
	nodeIndex := make(map[graphtypes.NodeId]int, len(nodes))
	graphNodes := make([]GraphNode, 0, len(nodes))

	for i, record := range nodes {
		nodeIndex[record.ID] = i

		criticality := extractCriticality(record.Properties)
		graphNodes = append(graphNodes, GraphNode{
			Index:          i,
			ID:             record.ID,
			Kind:           record.Kind,
			Criticality:    criticality,
			InternetFacing: detectInternetFacing(record.Kind, record.Properties),
			CrownJewel:     detectCrownJewel(criticality, record.Properties),
			Properties:     record.Properties,
		})
	}

	adjacency := make([][]GraphEdge, len(graphNodes))
	for _, e := range edges {
		srcIdx, ok := nodeIndex[e.SourceID]
		if !ok {
			continue
		}
		tgtIdx, ok := nodeIndex[e.TargetID]
		if !ok {
			continue
		}
		adjacency[srcIdx] = append(adjacency[srcIdx], GraphEdge{
			ID:             e.ID,
			EdgeType:       e.EdgeType,
			Exploitability: extractExploitability(e.Properties),
			TargetIndex:    tgtIdx,
		})
	}

	return &InMemoryGraph{Nodes: graphNodes, Adjacency: adjacency, NodeIndex: nodeIndex}
}

// InternetFacingNodes returns the indices of nodes flagged as entry points.
func (g *InMemoryGraph) InternetFacingNodes() []int {
	var out []int
	for _, n := range g.Nodes {
		if n.InternetFacing {
			out = append(out, n.Index)
		}
	}
	return out
}

// CrownJewelNodes returns the indices of nodes flagged as high-value
// targets.
func (g *InMemoryGraph) CrownJewelNodes() []int {
	var out []int
	for _, n := range g.Nodes {
		if n.CrownJewel {
			out = append(out, n.Index)
		}
	}
	return out
}

// NodeCount returns the number of nodes in the graph.
func (g *InMemoryGraph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the total number of edges across the adjacency list.
func (g *InMemoryGraph) EdgeCount() int {
	n := 0
	for _, edges := range g.Adjacency {
		n += len(edges)
	}
	return n
}

// CriticalityWeight maps a criticality string to its numeric pathfinding
// weight. Unrecognized or empty values default to 0.1, the "info/unknown"
// case.
func CriticalityWeight(criticality string) float64 {
	switch strings.ToLower(criticality) {
	case "critical":
		return 1.0
	case "high":
		return 0.8
	case "medium":
		return 0.5
	case "low":
		return 0.2
	case "info":
		return 0.1
	default:
		return 0.1
	}
}

// extractCriticality reads the "criticality" property and maps it to its
// numeric weight, defaulting to 0.1 when absent or not a string.
func extractCriticality(props map[string]any) float64 {
	if v, ok := props["criticality"]; ok {
		if s, ok := v.(string); ok {
			return CriticalityWeight(s)
		}
	}
	return 0.1
}

// detectInternetFacing flags a node as a valid attack-path entry point: a
// public Subnet, or a tag naming it internet-facing/DMZ/public, counts.
func detectInternetFacing(kind graphtypes.NodeKind, props map[string]any) bool {
	if kind == graphtypes.NodeKindSubnet {
		switch v := props["is_public"].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if v == "true" {
				return true
			}
		}
	}
	return tagsContainAny(props, "internet-facing", "internet_facing", "dmz", "public")
}

// detectCrownJewel flags a node as a valid attack-path destination: a
// critical criticality weight, or a tag naming it a crown jewel, counts.
func detectCrownJewel(criticality float64, props map[string]any) bool {
	if criticality >= 1.0 {
		return true
	}
	return tagsContainAny(props, "crown-jewel", "crown_jewel", "critical-asset")
}

func tagsContainAny(props map[string]any, needles ...string) bool {
	var tagStrs []string
	switch tags := props["tags"].(type) {
	case []any:
		for _, t := range tags {
			if s, ok := t.(string); ok {
				tagStrs = append(tagStrs, s)
			}
		}
	case []string:
		tagStrs = tags
	default:
		return false
	}
	for _, s := range tagStrs {
		lower := strings.ToLower(s)
		for _, needle := range needles {
			if strings.Contains(lower, needle) {
				return true
			}
		}
	}
	return false
}

// extractExploitability reads the exploitability_score edge property,
// defaulting to 0.5 (a neutral prior) when absent or non-numeric.
func extractExploitability(props map[string]any) float64 {
	switch v := props["exploitability_score"].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0.5
	}
}

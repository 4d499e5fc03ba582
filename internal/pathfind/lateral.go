package pathfind

import (
	"sort"
	"strings"

	"github.com/securizon/sentinel/internal/graphtypes"
	"github.com/securizon/sentinel/internal/pathgraph"
)

// LateralChain is a sequence of lateral-movement-eligible hops, long enough
// to be worth reporting on its own (independent of any attack path to a
// designated target). Path is in the same dense-index shape as any other
// RawPath, so it converts into AttackSteps and scores exactly like one.
type LateralChain struct {
	Path        RawPath
	Techniques  []string
	ChainLength int
}

// isLateralEdge reports whether edgeType is one of the relationship kinds
// that can carry lateral movement between hosts: HasAccess, Trusts,
// CanReach, ConnectsTo.
func isLateralEdge(edgeType graphtypes.EdgeType) bool {
	switch edgeType {
	case graphtypes.EdgeHasAccess, graphtypes.EdgeTrusts, graphtypes.EdgeCanReach, graphtypes.EdgeConnectsTo:
		return true
	default:
		return false
	}
}

// detectTechnique classifies the attacker technique a given edge type and
// target node property bag implies, or returns "" if the edge type carries
// no lateral-movement technique at all (HasAccess and CanReach always
// classify to something; ConnectsTo sometimes does not; every other edge
// type never does).
func detectTechnique(edgeType graphtypes.EdgeType, targetProperties map[string]any) string {
	protocol, _ := targetProperties["protocol"].(string)
	port := propertyAsInt(targetProperties["port"])

	isSSH := protocol == "ssh" || port == 22
	isRDP := protocol == "rdp" || port == 3389

	switch edgeType {
	case graphtypes.EdgeHasAccess:
		switch {
		case isSSH:
			return "ssh-pivot"
		case isRDP:
			return "rdp-hop"
		case hasAdminPermission(targetProperties):
			return "pass-the-hash"
		default:
			return "credential-access"
		}
	case graphtypes.EdgeTrusts:
		return "trust-exploitation"
	case graphtypes.EdgeCanReach:
		switch {
		case isSSH:
			return "ssh-pivot"
		case isRDP:
			return "rdp-hop"
		default:
			return "network-pivot"
		}
	case graphtypes.EdgeConnectsTo:
		switch {
		case isSSH:
			return "ssh-pivot"
		case isRDP:
			return "rdp-hop"
		default:
			return ""
		}
	default:
		return ""
	}
}

func hasAdminPermission(props map[string]any) bool {
	perms, ok := props["permissions"].([]any)
	if !ok {
		return false
	}
	for _, p := range perms {
		if s, ok := p.(string); ok && strings.Contains(strings.ToLower(s), "admin") {
			return true
		}
	}
	return false
}

func propertyAsInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

type lateralDFSState struct {
	node       int
	nodes      []int
	edges      []EdgeRef
	techniques []string
	weight     float64
	visited    map[int]bool
}

// DetectLateralChains runs a DFS from every node in the graph (not just
// designated entry points — any host could be the attacker's actual
// foothold) and records every simple chain whose length falls within
// [minLength, maxLength], following only lateral-eligible edges.
func DetectLateralChains(graph *pathgraph.InMemoryGraph, minLength, maxLength int) []LateralChain {
	var chains []LateralChain

	for start := range graph.Nodes {
		stack := []lateralDFSState{{node: start, nodes: []int{start}, visited: map[int]bool{start: true}}}

		for len(stack) > 0 {
			state := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if len(state.edges) >= minLength {
				chains = append(chains, LateralChain{
					Path: RawPath{
						NodeIndices: append([]int(nil), state.nodes...),
						Edges:       append([]EdgeRef(nil), state.edges...),
						TotalWeight: state.weight,
					},
					Techniques:  append([]string(nil), state.techniques...),
					ChainLength: len(state.edges),
				})
			}

			if len(state.edges) >= maxLength {
				continue
			}

			for edgePos, edge := range graph.Adjacency[state.node] {
				if !isLateralEdge(edge.EdgeType) {
					continue
				}
				if state.visited[edge.TargetIndex] {
					continue
				}

				technique := detectTechnique(edge.EdgeType, graph.Nodes[edge.TargetIndex].Properties)
				if technique == "" {
					technique = "lateral-movement"
				}

				edgeWeight := clampUnit(1.0 - edge.Exploitability)

				newVisited := make(map[int]bool, len(state.visited)+1)
				for k := range state.visited {
					newVisited[k] = true
				}
				newVisited[edge.TargetIndex] = true

				newNodes := append(append([]int(nil), state.nodes...), edge.TargetIndex)
				newEdges := append(append([]EdgeRef(nil), state.edges...), EdgeRef{FromIndex: state.node, EdgePos: edgePos})
				newTechniques := append(append([]string(nil), state.techniques...), technique)

				stack = append(stack, lateralDFSState{
					node:       edge.TargetIndex,
					nodes:      newNodes,
					edges:      newEdges,
					techniques: newTechniques,
					weight:     state.weight + edgeWeight,
					visited:    newVisited,
				})
			}
		}
	}

	sort.SliceStable(chains, func(i, j int) bool {
		return chains[i].ChainLength > chains[j].ChainLength
	})

	return chains
}

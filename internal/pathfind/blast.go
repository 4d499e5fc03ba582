package pathfind

import (
	"sort"

	"github.com/securizon/sentinel/internal/graphtypes"
	"github.com/securizon/sentinel/internal/pathgraph"
)

// ReachableNode is one node reached from a compromised node during blast
// radius analysis, along with how it was reached.
type ReachableNode struct {
	NodeID                   graphtypes.NodeId
	Label                    graphtypes.NodeKind
	Hops                     int
	CumulativeExploitability float64
}

// BlastRadiusResult is the full set of nodes reachable from a single
// compromised node, bounded by hop count and per-edge exploitability.
type BlastRadiusResult struct {
	CompromisedNodeID graphtypes.NodeId
	ReachableNodes    []ReachableNode
	TotalReachable    int
	CriticalReachable int
	BlastScore        float64
}

type blastQueueItem struct {
	nodeIndex     int
	hops          int
	cumulativeExp float64
}

// ComputeBlastRadius runs a breadth-first search outward from compromised,
// following only edges whose exploitability meets minExploitability, up to
// maxHops away. The compromised node itself is never included in
// ReachableNodes. CumulativeExploitability along a path is the product (not
// sum) of the edges traversed to reach that node. BlastScore sums
// criticality * cumulative exploitability over every reachable node.
func ComputeBlastRadius(graph *pathgraph.InMemoryGraph, compromisedNode int, maxHops int, minExploitability float64) BlastRadiusResult {
	compromisedID := graph.Nodes[compromisedNode].ID

	visited := map[int]bool{compromisedNode: true}
	queue := []blastQueueItem{{nodeIndex: compromisedNode, hops: 0, cumulativeExp: 1.0}}

	var reachable []ReachableNode
	criticalCount := 0

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.hops > 0 {
			node := graph.Nodes[item.nodeIndex]
			reachable = append(reachable, ReachableNode{
				NodeID:                   node.ID,
				Label:                    node.Kind,
				Hops:                     item.hops,
				CumulativeExploitability: item.cumulativeExp,
			})
			if node.CrownJewel {
				criticalCount++
			}
		}

		if item.hops >= maxHops {
			continue
		}

		for _, edge := range graph.Adjacency[item.nodeIndex] {
			if edge.Exploitability < minExploitability {
				continue
			}
			if visited[edge.TargetIndex] {
				continue
			}
			visited[edge.TargetIndex] = true
			queue = append(queue, blastQueueItem{
				nodeIndex:     edge.TargetIndex,
				hops:          item.hops + 1,
				cumulativeExp: item.cumulativeExp * edge.Exploitability,
			})
		}
	}

	sort.SliceStable(reachable, func(i, j int) bool {
		if reachable[i].Hops != reachable[j].Hops {
			return reachable[i].Hops < reachable[j].Hops
		}
		return reachable[i].CumulativeExploitability > reachable[j].CumulativeExploitability
	})

	blastScore := 0.0
	for _, r := range reachable {
		idx, ok := graph.NodeIndex[r.NodeID]
		if !ok {
			continue
		}
		blastScore += graph.Nodes[idx].Criticality * r.CumulativeExploitability
	}

	return BlastRadiusResult{
		CompromisedNodeID: compromisedID,
		ReachableNodes:    reachable,
		TotalReachable:    len(reachable),
		CriticalReachable: criticalCount,
		BlastScore:        blastScore,
	}
}

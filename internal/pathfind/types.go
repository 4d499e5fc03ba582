package pathfind

import (
	"github.com/securizon/sentinel/internal/graphtypes"
)

// Request is a request to compute attack paths for a tenant.
type Request struct {
	TenantID graphtypes.TenantId
	// Sources lists specific source node ids. If nil, internet-facing
	// nodes are used.
	Sources []graphtypes.NodeId
	// Targets lists specific target node ids. If nil, crown jewels are
	// used.
	Targets []graphtypes.NodeId
	// MaxDepth caps DFS depth; defaults to 10.
	MaxDepth *int
	// MaxPaths caps the number of returned paths; defaults to 100.
	MaxPaths *int
	// MinExploitability gates blast-radius edge traversal; defaults to 0.3.
	MinExploitability *float64
	// IncludeLateral also runs lateral movement chain detection.
	IncludeLateral bool
	// IncludeBlast also computes blast radius for source nodes.
	IncludeBlast bool
	// NodeLimit caps how many nodes are fetched from the graph store;
	// defaults to 50000.
	NodeLimit *uint32
}

// Result is the complete result of a pathfinding computation.
type Result struct {
	TenantID      graphtypes.TenantId
	AttackPaths   []graphtypes.AttackPath
	LateralChains []LateralChainResult
	BlastRadii    []BlastRadiusResult
	GraphStats    GraphStats
	ComputationMs int64
	EngramID      *string
}

// LateralChainResult is a detected lateral movement chain, scored and
// expressed as attack steps for display.
type LateralChainResult struct {
	Steps      []graphtypes.AttackStep
	Techniques []string
	RiskScore  float64
}

// BlastRadiusRequest asks for the blast radius of a single compromised
// node.
type BlastRadiusRequest struct {
	TenantID          graphtypes.TenantId
	CompromisedNodeID graphtypes.NodeId
	MaxHops           *int
	MinExploitability *float64
}

// GraphStats summarizes the in-memory graph a computation ran against.
type GraphStats struct {
	TotalNodes          int
	TotalEdges          int
	InternetFacingCount int
	CrownJewelCount     int
}

func intOrDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func float64OrDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func uint32OrDefault(v *uint32, def uint32) uint32 {
	if v == nil {
		return def
	}
	return *v
}

package pathfind

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/securizon/sentinel/internal/graphstore"
	"github.com/securizon/sentinel/internal/graphtypes"
	"github.com/securizon/sentinel/internal/pathgraph"
	"github.com/securizon/sentinel/internal/sentinelerrors"
)

const (
	defaultMaxDepth          = 10
	defaultMaxPaths          = 100
	defaultNodeLimit         = 50_000
	defaultMinExploitability = 0.3
	defaultBlastMaxHops      = 5
	lateralMinLength         = 2
	lateralMaxLength         = 8
	blastSourceCap           = 10
)

// Engine is the attack path computation engine: it fetches a tenant's
// subgraph, builds the in-memory traversal graph, runs the pathfinding
// algorithms, scores the results, and optionally records an engram audit
// trail for the computation.
type Engine struct {
	graphClient   *graphstore.Client
	scoringConfig ScoringConfig
	engramDir     *string
}

// NewEngine creates an engine with default scoring configuration and no
// engram recording.
func NewEngine(graphClient *graphstore.Client) *Engine {
	return &Engine{graphClient: graphClient, scoringConfig: DefaultScoringConfig()}
}

// WithScoringConfig overrides the default scoring configuration.
func (e *Engine) WithScoringConfig(config ScoringConfig) *Engine {
	e.scoringConfig = config
	return e
}

// WithEngramDir enables engram audit trail recording under dir.
func (e *Engine) WithEngramDir(dir string) *Engine {
	e.engramDir = &dir
	return e
}

// ComputeAttackPaths fetches the tenant's subgraph, enumerates attack
// paths from sources to targets, scores and sorts them by risk descending,
// and optionally runs lateral movement detection and blast radius
// analysis alongside. Records an engram for the whole computation when
// engram recording is enabled.
func (e *Engine) ComputeAttackPaths(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	tenantStr := req.TenantID.String()

	session := startPathfindSession(req.TenantID.UUID(), "compute_attack_paths", map[string]any{
		"max_depth":       req.MaxDepth,
		"max_paths":       req.MaxPaths,
		"include_lateral": req.IncludeLateral,
		"include_blast":   req.IncludeBlast,
	})

	nodeLimit := uint32OrDefault(req.NodeLimit, defaultNodeLimit)
	subgraph, err := fetchTenantSubgraph(ctx, e.graphClient, req.TenantID, nodeLimit)
	if err != nil {
		return nil, err
	}
	if len(subgraph.Nodes) == 0 {
		return nil, &sentinelerrors.EmptySubgraph{TenantID: tenantStr}
	}

	memGraph := subgraph.ToPathgraph()
	graphStats := GraphStats{
		TotalNodes:          memGraph.NodeCount(),
		TotalEdges:          memGraph.EdgeCount(),
		InternetFacingCount: len(memGraph.InternetFacingNodes()),
		CrownJewelCount:     len(memGraph.CrownJewelNodes()),
	}

	recordAlgorithmDecision(session, "in_memory_graph",
		fmt.Sprintf("built in-memory graph with %d nodes, %d edges", graphStats.TotalNodes, graphStats.TotalEdges),
		graphStats)

	sources := resolveIndices(req.Sources, memGraph, memGraph.InternetFacingNodes)
	targets := resolveIndices(req.Targets, memGraph, memGraph.CrownJewelNodes)

	if len(sources) == 0 {
		return nil, &sentinelerrors.NoEntryPoints{TenantID: tenantStr}
	}
	if len(targets) == 0 {
		return nil, &sentinelerrors.NoCrownJewels{TenantID: tenantStr}
	}

	maxDepth := intOrDefault(req.MaxDepth, defaultMaxDepth)
	maxPaths := intOrDefault(req.MaxPaths, defaultMaxPaths)
	rawPaths := EnumerateAllPaths(memGraph, sources, targets, maxDepth, maxPaths)

	attackPaths := make([]graphtypes.AttackPath, len(rawPaths))
	for i, rp := range rawPaths {
		attackPaths[i] = e.rawPathToAttackPath(rp, memGraph, req.TenantID)
	}
	sort.SliceStable(attackPaths, func(i, j int) bool {
		return attackPaths[i].RiskScore > attackPaths[j].RiskScore
	})

	var lateralChains []LateralChainResult
	if req.IncludeLateral {
		chains := DetectLateralChains(memGraph, lateralMinLength, lateralMaxLength)
		lateralChains = make([]LateralChainResult, len(chains))
		for i, chain := range chains {
			lateralChains[i] = LateralChainResult{
				Steps:      e.rawPathToSteps(chain.Path, memGraph),
				Techniques: chain.Techniques,
				RiskScore:  ComputePathRiskScore(memGraph, chain.Path, e.scoringConfig),
			}
		}
	}

	var blastRadii []BlastRadiusResult
	if req.IncludeBlast {
		minExploit := float64OrDefault(req.MinExploitability, defaultMinExploitability)
		capped := sources
		if len(capped) > blastSourceCap {
			capped = capped[:blastSourceCap]
		}
		blastRadii = make([]BlastRadiusResult, len(capped))
		for i, idx := range capped {
			blastRadii[i] = ComputeBlastRadius(memGraph, idx, defaultBlastMaxHops, minExploit)
		}
	}

	computationMs := time.Since(start).Milliseconds()
	topRisk := 0.0
	if len(attackPaths) > 0 {
		topRisk = attackPaths[0].RiskScore
	}

	recordPathfindResults(session, len(attackPaths), topRisk, computationMs, map[string]any{
		"sources":   len(sources),
		"targets":   len(targets),
		"max_depth": maxDepth,
	})

	var engramID *string
	if e.engramDir != nil {
		sealed := finalizeAndStore(session, *e.engramDir)
		id := sealed.ID.String()
		engramID = &id
	}

	return &Result{
		TenantID:      req.TenantID,
		AttackPaths:   attackPaths,
		LateralChains: lateralChains,
		BlastRadii:    blastRadii,
		GraphStats:    graphStats,
		ComputationMs: computationMs,
		EngramID:      engramID,
	}, nil
}

// ComputeBlastRadius computes the blast radius from a single compromised
// node, honoring the request's own MaxHops and MinExploitability (unlike
// the hardcoded values ComputeAttackPaths uses for its own blast pass).
func (e *Engine) ComputeBlastRadius(ctx context.Context, req BlastRadiusRequest) (*BlastRadiusResult, error) {
	subgraph, err := fetchTenantSubgraph(ctx, e.graphClient, req.TenantID, defaultNodeLimit)
	if err != nil {
		return nil, err
	}

	memGraph := subgraph.ToPathgraph()
	nodeIdx, ok := memGraph.NodeIndex[req.CompromisedNodeID]
	if !ok {
		return nil, &sentinelerrors.NodeNotFound{NodeID: req.CompromisedNodeID.String()}
	}

	maxHops := intOrDefault(req.MaxHops, defaultBlastMaxHops)
	minExploit := float64OrDefault(req.MinExploitability, defaultMinExploitability)
	result := ComputeBlastRadius(memGraph, nodeIdx, maxHops, minExploit)
	return &result, nil
}

// ShortestPath computes the most exploitable path between two specific
// nodes, or nil if none exists.
func (e *Engine) ShortestPath(ctx context.Context, tenantID graphtypes.TenantId, sourceID, targetID graphtypes.NodeId) (*graphtypes.AttackPath, error) {
	subgraph, err := fetchTenantSubgraph(ctx, e.graphClient, tenantID, defaultNodeLimit)
	if err != nil {
		return nil, err
	}

	memGraph := subgraph.ToPathgraph()
	srcIdx, ok := memGraph.NodeIndex[sourceID]
	if !ok {
		return nil, &sentinelerrors.NodeNotFound{NodeID: sourceID.String()}
	}
	tgtIdx, ok := memGraph.NodeIndex[targetID]
	if !ok {
		return nil, &sentinelerrors.NodeNotFound{NodeID: targetID.String()}
	}

	raw := ShortestWeightedPath(memGraph, srcIdx, tgtIdx)
	if raw == nil {
		return nil, nil
	}
	path := e.rawPathToAttackPath(*raw, memGraph, tenantID)
	return &path, nil
}

// resolveIndices maps explicit node ids to their dense indices, dropping
// any id absent from the graph, or falls back to fallback() when ids is
// nil.
func resolveIndices(ids []graphtypes.NodeId, graph *pathgraph.InMemoryGraph, fallback func() []int) []int {
	if ids == nil {
		return fallback()
	}
	var out []int
	for _, id := range ids {
		if idx, ok := graph.NodeIndex[id]; ok {
			out = append(out, idx)
		}
	}
	return out
}

func (e *Engine) rawPathToAttackPath(raw RawPath, graph *pathgraph.InMemoryGraph, tenantID graphtypes.TenantId) graphtypes.AttackPath {
	riskScore := ComputePathRiskScore(graph, raw, e.scoringConfig)
	steps := e.rawPathToSteps(raw, graph)

	var sourceNode, targetNode graphtypes.NodeId
	if len(raw.NodeIndices) > 0 {
		sourceNode = graph.Nodes[raw.NodeIndices[0]].ID
		targetNode = graph.Nodes[raw.NodeIndices[len(raw.NodeIndices)-1]].ID
	}

	return graphtypes.AttackPath{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		Steps:      steps,
		RiskScore:  riskScore,
		SourceNode: sourceNode,
		TargetNode: targetNode,
		ComputedAt: time.Now().UTC(),
	}
}

func (e *Engine) rawPathToSteps(raw RawPath, graph *pathgraph.InMemoryGraph) []graphtypes.AttackStep {
	steps := make([]graphtypes.AttackStep, len(raw.Edges))
	for i, ref := range raw.Edges {
		edge := graph.Adjacency[ref.FromIndex][ref.EdgePos]
		targetNode := graph.Nodes[edge.TargetIndex]
		fromNode := graph.Nodes[ref.FromIndex]

		var technique *string
		if t := detectTechnique(edge.EdgeType, targetNode.Properties); t != "" {
			technique = &t
		}

		steps[i] = graphtypes.AttackStep{
			NodeID:         targetNode.ID,
			EdgeID:         edge.ID,
			Technique:      technique,
			Description:    fmt.Sprintf("%s -> %s via %s", fromNode.Kind, targetNode.Kind, edge.EdgeType),
			Exploitability: edge.Exploitability,
		}
	}
	return steps
}

package pathfind

import "github.com/securizon/sentinel/internal/pathgraph"

// ScoringConfig tunes how a raw path's weight is converted into a 0-10 risk
// score.
type ScoringConfig struct {
	DecayFactor           float64
	MaxScore              float64
	DefaultExploitability float64
}

// DefaultScoringConfig mirrors the original engine's tuning.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{DecayFactor: 0.9, MaxScore: 10.0, DefaultExploitability: 0.5}
}

// ComputePathRiskScore scores a raw path on a 0-config.MaxScore scale: the
// target's criticality weighted by the sum of per-edge exploitability along
// the path, decayed geometrically by hop count (each additional hop makes
// the full chain of compromises less likely), normalized against the
// theoretical maximum for a path of that length, and capped at MaxScore.
func ComputePathRiskScore(graph *pathgraph.InMemoryGraph, path RawPath, config ScoringConfig) float64 {
	if len(path.NodeIndices) == 0 || len(path.Edges) == 0 {
		return 0.0
	}

	lastIndex := path.NodeIndices[len(path.NodeIndices)-1]
	targetCriticality := graph.Nodes[lastIndex].Criticality

	exploitSum := 0.0
	for _, ref := range path.Edges {
		exploitSum += graph.Adjacency[ref.FromIndex][ref.EdgePos].Exploitability
	}

	hopCount := len(path.Edges)
	pathProbability := pow(config.DecayFactor, hopCount-1)

	raw := targetCriticality * exploitSum * pathProbability

	theoreticalMax := 1.0 * float64(hopCount)
	if theoreticalMax == 0.0 {
		return 0.0
	}

	normalized := (raw / theoreticalMax) * config.MaxScore
	if normalized > config.MaxScore {
		return config.MaxScore
	}
	return normalized
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

package pathfind

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/securizon/sentinel/internal/engram"
)

// startPathfindSession opens an engram recording session for one
// pathfinding operation (attack-path enumeration, blast radius, or
// shortest-path), pre-seeded with the decision to run it at all.
func startPathfindSession(tenantID uuid.UUID, operation string, context any) *engram.Session {
	session := engram.NewSession(tenantID, "sentinel-pathfind", fmt.Sprintf("Attack path analysis: %s", operation))
	session.SetContext(context)
	session.AddDecision(fmt.Sprintf("Execute %s", operation), "requested by API for attack path analysis", 1.0)
	return session
}

// recordAlgorithmDecision notes which algorithm the engine chose to run and
// why, alongside its parameters.
func recordAlgorithmDecision(session *engram.Session, algorithm, rationale string, params any) {
	session.AddDecision(fmt.Sprintf("Use algorithm: %s", algorithm), rationale, 0.95)
	session.AddAction("algorithm_selection", fmt.Sprintf("Selected %s", algorithm), params, true)
}

// recordPathfindResults records the outcome of a computation in the
// session before it is finalized.
func recordPathfindResults(session *engram.Session, pathsFound int, topRiskScore float64, durationMs int64, details any) {
	session.AddAction(
		"pathfind_computation",
		fmt.Sprintf("Found %d attack paths (top risk: %.1f) in %dms", pathsFound, topRiskScore, durationMs),
		map[string]any{
			"paths_found":    pathsFound,
			"top_risk_score": topRiskScore,
			"duration_ms":    durationMs,
			"details":        details,
		},
		true,
	)
}

// finalizeAndStore finalizes the session and persists it to engramDir.
// Persistence is best-effort: a store-construction or save failure is
// logged and otherwise swallowed, since losing an audit record must never
// fail the pathfinding request that produced it. The returned engram id
// is always populated once an engramDir was configured at all, even if
// the save itself failed.
func finalizeAndStore(session *engram.Session, engramDir string) *engram.Engram {
	sealed := session.Finalize()

	store, err := engram.NewFileStore(engramDir)
	if err != nil {
		log.Printf("pathfind: failed to initialize engram store: %v", err)
		return &sealed
	}

	if err := store.Save(sealed); err != nil {
		log.Printf("pathfind: failed to store engram: %v", err)
		return &sealed
	}

	log.Printf("pathfind: engram %s recorded", sealed.ID)
	return &sealed
}

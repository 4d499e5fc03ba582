package engram

import (
	"encoding/hex"
	"encoding/json"

	"lukechampine.com/blake3"
)

// hashableEngram mirrors Engram with ContentHash dropped, so the hash never
// covers itself.
type hashableEngram struct {
	ID           EngramId      `json:"id"`
	TenantID     interface{}   `json:"tenant_id"`
	AgentID      string        `json:"agent_id"`
	Intent       string        `json:"intent"`
	Context      any           `json:"context"`
	Decisions    []Decision    `json:"decisions"`
	Alternatives []Alternative `json:"alternatives"`
	Actions      []Action      `json:"actions"`
	StartedAt    interface{}   `json:"started_at"`
	CompletedAt  interface{}   `json:"completed_at"`
}

// computeEngramHash serializes every field but ContentHash to canonical
// JSON and hashes the bytes with BLAKE3, returning the hex digest.
func computeEngramHash(e *Engram) string {
	hashable := hashableEngram{
		ID:           e.ID,
		TenantID:     e.TenantID,
		AgentID:      e.AgentID,
		Intent:       e.Intent,
		Context:      e.Context,
		Decisions:    e.Decisions,
		Alternatives: e.Alternatives,
		Actions:      e.Actions,
		StartedAt:    e.StartedAt,
		CompletedAt:  e.CompletedAt,
	}

	data, err := json.Marshal(hashable)
	if err != nil {
		panic("engram serialization should not fail: " + err.Error())
	}

	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

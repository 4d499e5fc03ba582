// Package engram records the reasoning chain behind an automated agent's
// actions — the decisions it made, the alternatives it rejected, and the
// effects it produced — as a single content-hashed, tamper-evident record.
// Used by the discovery scheduler and the pathfind engine to leave an
// audit trail a human reviewer can trust wasn't edited after the fact.
package engram

import (
	"time"

	"github.com/google/uuid"
)

// EngramId identifies a single recorded session.
type EngramId uuid.UUID

// NewEngramId generates a fresh random id.
func NewEngramId() EngramId { return EngramId(uuid.New()) }

func (id EngramId) String() string { return uuid.UUID(id).String() }

// Decision is a choice the agent made during its run.
type Decision struct {
	Choice     string    `json:"choice"`
	Rationale  string    `json:"rationale"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Alternative is an option the agent considered and rejected.
type Alternative struct {
	Option          string `json:"option"`
	RejectionReason string `json:"rejection_reason"`
}

// Action is a concrete effect the agent produced.
type Action struct {
	ActionType  string    `json:"action_type"`
	Description string    `json:"description"`
	Details     any       `json:"details"`
	Success     bool      `json:"success"`
	Timestamp   time.Time `json:"timestamp"`
}

// Engram is the complete reasoning chain of one agent session: intent,
// context, decisions, alternatives, and actions, sealed with a BLAKE3
// content hash once the session is finalized.
type Engram struct {
	ID           EngramId      `json:"id"`
	TenantID     uuid.UUID     `json:"tenant_id"`
	AgentID      string        `json:"agent_id"`
	Intent       string        `json:"intent"`
	Context      any           `json:"context"`
	Decisions    []Decision    `json:"decisions"`
	Alternatives []Alternative `json:"alternatives"`
	Actions      []Action      `json:"actions"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at"`
	ContentHash  *string       `json:"content_hash"`
}

// ComputeHash returns the BLAKE3 content hash of every field except
// ContentHash itself.
func (e *Engram) ComputeHash() string { return computeEngramHash(e) }

// VerifyIntegrity reports whether the stored ContentHash matches a freshly
// computed one. An engram with no stored hash (never finalized) always
// fails verification rather than being treated as merely "unverified".
func (e *Engram) VerifyIntegrity() bool {
	if e.ContentHash == nil {
		return false
	}
	return *e.ContentHash == e.ComputeHash()
}

package engram

import (
	"time"

	"github.com/google/uuid"
)

// Session is a builder that records an agent's reasoning incrementally as
// it works, then seals the result into an immutable Engram.
//
//	s := engram.NewSession(tenantID, "discover-scanner", "scan 10.0.1.0/24 for new assets")
//	s.SetContext(map[string]any{"subnet": "10.0.1.0/24"})
//	s.AddDecision("ICMP + TCP SYN scan", "fastest for initial discovery", 0.9)
//	s.AddAction("network_scan", "ICMP ping sweep", map[string]any{"hosts": 254}, true)
//	e := s.Finalize()
type Session struct {
	engram Engram
}

// NewSession starts a new recording session for the given tenant and agent.
func NewSession(tenantID uuid.UUID, agentID, intent string) *Session {
	return &Session{
		engram: Engram{
			ID:        NewEngramId(),
			TenantID:  tenantID,
			AgentID:   agentID,
			Intent:    intent,
			StartedAt: time.Now().UTC(),
		},
	}
}

// ID returns the engram id, available before finalization.
func (s *Session) ID() EngramId { return s.engram.ID }

// SetContext records the context the agent was given at session start.
func (s *Session) SetContext(context any) { s.engram.Context = context }

// AddDecision records a choice the agent made.
func (s *Session) AddDecision(choice, rationale string, confidence float64) {
	s.engram.Decisions = append(s.engram.Decisions, Decision{
		Choice:     choice,
		Rationale:  rationale,
		Confidence: confidence,
		Timestamp:  time.Now().UTC(),
	})
}

// AddAlternative records an option the agent considered but did not take.
func (s *Session) AddAlternative(option, rejectionReason string) {
	s.engram.Alternatives = append(s.engram.Alternatives, Alternative{
		Option:          option,
		RejectionReason: rejectionReason,
	})
}

// AddAction records an effect the agent produced.
func (s *Session) AddAction(actionType, description string, details any, success bool) {
	s.engram.Actions = append(s.engram.Actions, Action{
		ActionType:  actionType,
		Description: description,
		Details:     details,
		Success:     success,
		Timestamp:   time.Now().UTC(),
	})
}

// Finalize stamps CompletedAt and seals the engram with its content hash.
// The returned Engram is ready to be handed to an EngramStore.
func (s *Session) Finalize() Engram {
	now := time.Now().UTC()
	s.engram.CompletedAt = &now
	hash := s.engram.ComputeHash()
	s.engram.ContentHash = &hash
	return s.engram
}

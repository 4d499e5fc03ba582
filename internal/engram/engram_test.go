package engram

import (
	"testing"

	"github.com/google/uuid"
)

func newTestEngram(tenantID uuid.UUID, agentID string) Engram {
	s := NewSession(tenantID, agentID, "test intent")
	s.SetContext(map[string]any{"key": "value"})
	s.AddDecision("choice A", "best option", 0.95)
	s.AddAlternative("choice B", "too slow")
	s.AddAction("test_action", "did something", map[string]any{"result": 42}, true)
	return s.Finalize()
}

func TestSession_FinalizeSetsHash(t *testing.T) {
	e := newTestEngram(uuid.New(), "test-agent")
	if e.ContentHash == nil {
		t.Fatal("ContentHash is nil after Finalize")
	}
	if e.CompletedAt == nil {
		t.Fatal("CompletedAt is nil after Finalize")
	}
}

func TestEngram_VerifyIntegrity(t *testing.T) {
	e := newTestEngram(uuid.New(), "test-agent")
	if !e.VerifyIntegrity() {
		t.Fatal("freshly finalized engram should verify")
	}
}

func TestEngram_VerifyIntegrity_Tampered(t *testing.T) {
	e := newTestEngram(uuid.New(), "test-agent")
	e.Intent = "TAMPERED INTENT"
	if e.VerifyIntegrity() {
		t.Fatal("tampered engram should fail integrity verification")
	}
}

func TestEngram_VerifyIntegrity_Unfinalized(t *testing.T) {
	s := NewSession(uuid.New(), "test-agent", "test intent")
	e := s.engram
	if e.VerifyIntegrity() {
		t.Fatal("unfinalized engram (no content_hash) must fail verification, not just be unverified")
	}
}

func TestComputeHash_Deterministic(t *testing.T) {
	e := newTestEngram(uuid.New(), "test-agent")
	h1 := e.ComputeHash()
	h2 := e.ComputeHash()
	if h1 != h2 {
		t.Fatalf("ComputeHash not deterministic: %s != %s", h1, h2)
	}
}

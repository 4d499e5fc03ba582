package engram

import (
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestFileStore_SaveAndGet(t *testing.T) {
	dir, err := os.MkdirTemp("", "engram-store-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	tenantID := uuid.New()
	e := newTestEngram(tenantID, "test-agent")

	if err := store.Save(e); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != e.ID {
		t.Errorf("got.ID = %v, want %v", got.ID, e.ID)
	}
	if got.Intent != "test intent" {
		t.Errorf("got.Intent = %q, want %q", got.Intent, "test intent")
	}
	if len(got.Decisions) != 1 || len(got.Actions) != 1 {
		t.Errorf("got = %+v, decisions/actions not round-tripped", got)
	}
	if !got.VerifyIntegrity() {
		t.Error("retrieved engram should verify")
	}
}

func TestFileStore_IntegrityViolationDetected(t *testing.T) {
	dir, err := os.MkdirTemp("", "engram-store-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	e := newTestEngram(uuid.New(), "test-agent")
	if err := store.Save(e); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path, err := store.findPath(e.ID)
	if err != nil {
		t.Fatalf("findPath: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(data), `"test intent"`, `"TAMPERED INTENT"`, 1)

	if err := os.WriteFile(path, []byte(tampered), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Get(e.ID); err == nil {
		t.Fatal("Get should fail integrity check on tampered file")
	}
}

func TestFileStore_SaveRejectsUnfinalized(t *testing.T) {
	dir, err := os.MkdirTemp("", "engram-store-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	s := NewSession(uuid.New(), "test-agent", "unfinalized")
	if err := store.Save(s.engram); err == nil {
		t.Fatal("Save should reject an unfinalized engram")
	}
}

func TestFileStore_ListFiltersByAgent(t *testing.T) {
	dir, err := os.MkdirTemp("", "engram-store-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	tenantID := uuid.New()
	e1 := newTestEngram(tenantID, "scanner")
	e2 := newTestEngram(tenantID, "hunter")
	e3 := newTestEngram(tenantID, "scanner")

	for _, e := range []Engram{e1, e2, e3} {
		if err := store.Save(e); err != nil {
			t.Fatal(err)
		}
	}

	agent := "scanner"
	results, err := store.List(Query{AgentID: &agent})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.AgentID != "scanner" {
			t.Errorf("unexpected agent %q in filtered results", r.AgentID)
		}
	}
}

func TestFileStore_ListFiltersByTenant(t *testing.T) {
	dir, err := os.MkdirTemp("", "engram-store-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	t1, t2 := uuid.New(), uuid.New()
	e1 := newTestEngram(t1, "agent-a")
	e2 := newTestEngram(t2, "agent-a")

	if err := store.Save(e1); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(e2); err != nil {
		t.Fatal(err)
	}

	results, err := store.List(Query{TenantID: &t1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].TenantID != t1 {
		t.Errorf("results[0].TenantID = %v, want %v", results[0].TenantID, t1)
	}
}

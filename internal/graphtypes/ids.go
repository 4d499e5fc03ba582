// Package graphtypes holds the knowledge-graph domain types shared by the
// graph access layer, the pathfind engine, and the discovery scheduler.
package graphtypes

import (
	"encoding/json"

	"github.com/google/uuid"
)

// TenantId is the isolation domain every node, edge, and engram belongs to.
type TenantId uuid.UUID

func NewTenantId() TenantId { return TenantId(uuid.New()) }
func (t TenantId) String() string { return uuid.UUID(t).String() }
func (t TenantId) UUID() uuid.UUID { return uuid.UUID(t) }

// ParseTenantId parses a UUID string into a TenantId, e.g. the
// default_tenant_id read from configuration.
func ParseTenantId(s string) (TenantId, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TenantId{}, err
	}
	return TenantId(id), nil
}

// NodeId identifies a node in the knowledge graph.
type NodeId uuid.UUID

func NewNodeId() NodeId { return NodeId(uuid.New()) }
func (n NodeId) String() string { return uuid.UUID(n).String() }
func (n NodeId) UUID() uuid.UUID { return uuid.UUID(n) }

// ParseNodeId parses a UUID string into a NodeId, e.g. a path parameter on
// an API request.
func ParseNodeId(s string) (NodeId, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NodeId{}, err
	}
	return NodeId(id), nil
}

// EdgeId identifies an edge in the knowledge graph.
type EdgeId uuid.UUID

func NewEdgeId() EdgeId { return EdgeId(uuid.New()) }
func (e EdgeId) String() string { return uuid.UUID(e).String() }
func (e EdgeId) UUID() uuid.UUID { return uuid.UUID(e) }

// ParseEdgeId parses a UUID string into an EdgeId.
func ParseEdgeId(s string) (EdgeId, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return EdgeId{}, err
	}
	return EdgeId(id), nil
}

// SentinelNamespace is the fixed namespace UUID used to derive deterministic
// node ids from tenant-scoped natural keys (e.g. a discovered host's IP).
// Reusing a random namespace per process would break idempotent rescans, so
// this value is a compile-time constant, never generated at runtime. It is
// the standard DNS namespace UUID, chosen because it is what the original
// scanner implementation happened to reuse for this purpose.
var SentinelNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// DeriveNodeId computes a deterministic NodeId from a tenant-scoped natural
// key, e.g. DeriveNodeId(tenantID, "host", ip) or
// DeriveNodeId(tenantID, "port", ip, port, protocol).
func DeriveNodeId(tenantID TenantId, kind string, parts ...string) NodeId {
	key := tenantID.String() + ":" + kind
	for _, p := range parts {
		key += ":" + p
	}
	return NodeId(uuid.NewSHA1(SentinelNamespace, []byte(key)))
}

// DeriveEdgeId computes a deterministic EdgeId from a tenant-scoped natural
// key in the same manner as DeriveNodeId.
func DeriveEdgeId(tenantID TenantId, kind string, parts ...string) EdgeId {
	key := tenantID.String() + ":edge:" + kind
	for _, p := range parts {
		key += ":" + p
	}
	return EdgeId(uuid.NewSHA1(SentinelNamespace, []byte(key)))
}

// The three id types wrap uuid.UUID, which does not pass its own
// MarshalText/UnmarshalText down to named types, so each gets its own JSON
// codec that serializes as a plain UUID string.

func (t TenantId) MarshalJSON() ([]byte, error) { return json.Marshal(uuid.UUID(t).String()) }
func (t *TenantId) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*t = TenantId(id)
	return nil
}

func (n NodeId) MarshalJSON() ([]byte, error) { return json.Marshal(uuid.UUID(n).String()) }
func (n *NodeId) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*n = NodeId(id)
	return nil
}

func (e EdgeId) MarshalJSON() ([]byte, error) { return json.Marshal(uuid.UUID(e).String()) }
func (e *EdgeId) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*e = EdgeId(id)
	return nil
}

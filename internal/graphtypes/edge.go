package graphtypes

import (
	"encoding/json"
	"time"
)

// EdgeType is the closed set of relationship types an Edge may carry.
type EdgeType string

const (
	EdgeConnectsTo      EdgeType = "CONNECTS_TO"
	EdgeHasAccess       EdgeType = "HAS_ACCESS"
	EdgeMemberOf        EdgeType = "MEMBER_OF"
	EdgeRunsOn          EdgeType = "RUNS_ON"
	EdgeTrusts          EdgeType = "TRUSTS"
	EdgeRoutesTo        EdgeType = "ROUTES_TO"
	EdgeExposes         EdgeType = "EXPOSES"
	EdgeDependsOn       EdgeType = "DEPENDS_ON"
	EdgeCanReach        EdgeType = "CAN_REACH"
	EdgeHasCve          EdgeType = "HAS_CVE"
	EdgeHasPort         EdgeType = "HAS_PORT"
	EdgeHasCertificate  EdgeType = "HAS_CERTIFICATE"
	EdgeBelongsToSubnet EdgeType = "BELONGS_TO_SUBNET"
	EdgeBelongsToVpc    EdgeType = "BELONGS_TO_VPC"
)

// LateralEdgeTypes are the edge types a lateral-movement chain may traverse.
var LateralEdgeTypes = map[EdgeType]bool{
	EdgeHasAccess:  true,
	EdgeTrusts:     true,
	EdgeCanReach:   true,
	EdgeConnectsTo: true,
}

// EdgeProperties carries the optional attributes attached to an edge.
type EdgeProperties struct {
	Protocol             *Protocol       `json:"protocol,omitempty"`
	Port                 *uint16         `json:"port,omitempty"`
	Encrypted            *bool           `json:"encrypted,omitempty"`
	Permissions          []string        `json:"permissions"`
	ExploitabilityScore  *float64        `json:"exploitability_score,omitempty"`
	Extra                json.RawMessage `json:"extra,omitempty"`
}

// Edge is a directed, typed relationship between two nodes of the same
// tenant.
type Edge struct {
	Id         EdgeId         `json:"id"`
	TenantID   TenantId       `json:"tenant_id"`
	SourceID   NodeId         `json:"source_id"`
	TargetID   NodeId         `json:"target_id"`
	EdgeType   EdgeType       `json:"edge_type"`
	Properties EdgeProperties `json:"properties"`
	FirstSeen  time.Time      `json:"first_seen"`
	LastSeen   time.Time      `json:"last_seen"`
}

// AttackStep binds a source node, a traversed edge, an optional technique
// name, a description, and the edge's exploitability.
type AttackStep struct {
	NodeID         NodeId  `json:"node_id"`
	EdgeID         EdgeId  `json:"edge_id"`
	Technique      *string `json:"technique,omitempty"`
	Description    string  `json:"description"`
	Exploitability float64 `json:"exploitability"`
}

// AttackPath is an ordered sequence of AttackSteps with a normalized risk
// score in [0, 10].
type AttackPath struct {
	ID         string       `json:"id"`
	TenantID   TenantId     `json:"tenant_id"`
	Steps      []AttackStep `json:"steps"`
	RiskScore  float64      `json:"risk_score"`
	SourceNode NodeId       `json:"source_node"`
	TargetNode NodeId       `json:"target_node"`
	ComputedAt time.Time    `json:"computed_at"`
}

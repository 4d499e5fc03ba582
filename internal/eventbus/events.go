package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/securizon/sentinel/internal/graphtypes"
)

// EventSource identifies which part of the platform emitted an event.
type EventSource string

const (
	EventSourcePathfind EventSource = "pathfind"
	EventSourceDiscover EventSource = "discover"
	EventSourceGovern   EventSource = "govern"
	EventSourceObserve  EventSource = "observe"
	EventSourceApi      EventSource = "api"
)

// EventType is the closed set of payload kinds an Event can carry.
type EventType string

const (
	EventTypeNodeDiscovered     EventType = "NodeDiscovered"
	EventTypeNodeUpdated        EventType = "NodeUpdated"
	EventTypeNodeStale          EventType = "NodeStale"
	EventTypeEdgeDiscovered     EventType = "EdgeDiscovered"
	EventTypeVulnerabilityFound EventType = "VulnerabilityFound"
	EventTypeScanStarted        EventType = "ScanStarted"
	EventTypeScanCompleted      EventType = "ScanCompleted"
	EventTypeAttackPathComputed EventType = "AttackPathComputed"
	EventTypeHuntFinding        EventType = "HuntFinding"
	EventTypeShadowAiDiscovered EventType = "ShadowAiDiscovered"
	EventTypePolicyViolation    EventType = "PolicyViolation"
	EventTypeEngramRecorded     EventType = "EngramRecorded"
)

// Payload is implemented by every concrete event payload. isPayload is
// unexported so the set of implementers is closed to this package.
type Payload interface {
	Type() EventType
	isPayload()
}

// NodeDiscovered reports a node the graph had not previously seen.
type NodeDiscovered struct {
	NodeID   graphtypes.NodeId   `json:"node_id"`
	NodeType graphtypes.NodeKind `json:"node_type"`
	Label    string              `json:"label"`
}

func (NodeDiscovered) Type() EventType { return EventTypeNodeDiscovered }
func (NodeDiscovered) isPayload()      {}

// NodeUpdated reports a node whose properties changed.
type NodeUpdated struct {
	NodeID        graphtypes.NodeId `json:"node_id"`
	ChangedFields []string          `json:"changed_fields"`
}

func (NodeUpdated) Type() EventType { return EventTypeNodeUpdated }
func (NodeUpdated) isPayload()      {}

// NodeStale reports a node that went missing from the latest scan.
type NodeStale struct {
	NodeID   graphtypes.NodeId `json:"node_id"`
	LastSeen time.Time         `json:"last_seen"`
}

func (NodeStale) Type() EventType { return EventTypeNodeStale }
func (NodeStale) isPayload()      {}

// EdgeDiscovered reports a new relationship between two nodes.
type EdgeDiscovered struct {
	SourceID graphtypes.NodeId   `json:"source_id"`
	TargetID graphtypes.NodeId   `json:"target_id"`
	EdgeType graphtypes.EdgeType `json:"edge_type"`
}

func (EdgeDiscovered) Type() EventType { return EventTypeEdgeDiscovered }
func (EdgeDiscovered) isPayload()      {}

// VulnerabilityFound reports a CVE correlated to an asset.
type VulnerabilityFound struct {
	NodeID      graphtypes.NodeId `json:"node_id"`
	CveID       string            `json:"cve_id"`
	CvssScore   *float64          `json:"cvss_score,omitempty"`
	Exploitable bool              `json:"exploitable"`
}

func (VulnerabilityFound) Type() EventType { return EventTypeVulnerabilityFound }
func (VulnerabilityFound) isPayload()      {}

// ScanStarted reports the beginning of a discovery scan.
type ScanStarted struct {
	ScanID   uuid.UUID `json:"scan_id"`
	ScanType string    `json:"scan_type"`
	Target   string    `json:"target"`
}

func (ScanStarted) Type() EventType { return EventTypeScanStarted }
func (ScanStarted) isPayload()      {}

// ScanCompleted reports a discovery scan's outcome.
type ScanCompleted struct {
	ScanID       uuid.UUID `json:"scan_id"`
	NodesFound   uint32    `json:"nodes_found"`
	NodesUpdated uint32    `json:"nodes_updated"`
	NodesStale   uint32    `json:"nodes_stale"`
	DurationMs   uint64    `json:"duration_ms"`
}

func (ScanCompleted) Type() EventType { return EventTypeScanCompleted }
func (ScanCompleted) isPayload()      {}

// AttackPathComputed reports a single computed attack path.
type AttackPathComputed struct {
	PathID     uuid.UUID         `json:"path_id"`
	SourceNode graphtypes.NodeId `json:"source_node"`
	TargetNode graphtypes.NodeId `json:"target_node"`
	RiskScore  float64           `json:"risk_score"`
	StepCount  uint32            `json:"step_count"`
}

func (AttackPathComputed) Type() EventType { return EventTypeAttackPathComputed }
func (AttackPathComputed) isPayload()      {}

// HuntFinding reports a threat-hunting result.
type HuntFinding struct {
	FindingID   uuid.UUID `json:"finding_id"`
	Severity    string    `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

func (HuntFinding) Type() EventType { return EventTypeHuntFinding }
func (HuntFinding) isPayload()      {}

// ShadowAiDiscovered reports an unsanctioned AI tool found on the network.
type ShadowAiDiscovered struct {
	ServiceName string  `json:"service_name"`
	Domain      string  `json:"domain"`
	RiskScore   float64 `json:"risk_score"`
}

func (ShadowAiDiscovered) Type() EventType { return EventTypeShadowAiDiscovered }
func (ShadowAiDiscovered) isPayload()      {}

// PolicyViolation reports an agent action that broke a governance policy.
type PolicyViolation struct {
	AgentID    string `json:"agent_id"`
	PolicyName string `json:"policy_name"`
	Action     string `json:"action"`
	Details    string `json:"details"`
}

func (PolicyViolation) Type() EventType { return EventTypePolicyViolation }
func (PolicyViolation) isPayload()      {}

// EngramRecorded reports that a reasoning session was sealed and stored.
type EngramRecorded struct {
	SessionID   uuid.UUID `json:"session_id"`
	AgentType   string    `json:"agent_type"`
	Intent      string    `json:"intent"`
	ActionCount uint32    `json:"action_count"`
}

func (EngramRecorded) Type() EventType { return EventTypeEngramRecorded }
func (EngramRecorded) isPayload()      {}

// Event is a single message on the bus: who emitted it, when, and what it
// carries.
type Event struct {
	ID        uuid.UUID           `json:"id"`
	TenantID  graphtypes.TenantId `json:"tenant_id"`
	Timestamp time.Time           `json:"timestamp"`
	Source    EventSource         `json:"source"`
	Payload   Payload             `json:"payload"`
}

// NewEvent stamps a new event with a fresh id and the current time.
func NewEvent(tenantID graphtypes.TenantId, source EventSource, payload Payload) Event {
	return Event{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Payload:   payload,
	}
}

// eventWire is Event's on-the-wire shape: the payload is marshaled with an
// adjacent "event_type" tag instead of Go's default nested-field encoding,
// matching the reference model's tagged enum.
type eventWire struct {
	ID        uuid.UUID           `json:"id"`
	TenantID  graphtypes.TenantId `json:"tenant_id"`
	Timestamp time.Time           `json:"timestamp"`
	Source    EventSource         `json:"source"`
	Payload   json.RawMessage     `json:"payload"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(e.Payload.Type())
	if err != nil {
		return nil, err
	}
	fields["event_type"] = tag
	taggedPayload, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventWire{
		ID:        e.ID,
		TenantID:  e.TenantID,
		Timestamp: e.Timestamp,
		Source:    e.Source,
		Payload:   taggedPayload,
	})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var wire eventWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	payload, err := UnmarshalPayload(wire.Payload)
	if err != nil {
		return err
	}
	e.ID = wire.ID
	e.TenantID = wire.TenantID
	e.Timestamp = wire.Timestamp
	e.Source = wire.Source
	e.Payload = payload
	return nil
}

// UnmarshalPayload reads an event_type-tagged payload back into its
// concrete kind.
func UnmarshalPayload(data []byte) (Payload, error) {
	var probe struct {
		EventType EventType `json:"event_type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.EventType {
	case EventTypeNodeDiscovered:
		var p NodeDiscovered
		return p, json.Unmarshal(data, &p)
	case EventTypeNodeUpdated:
		var p NodeUpdated
		return p, json.Unmarshal(data, &p)
	case EventTypeNodeStale:
		var p NodeStale
		return p, json.Unmarshal(data, &p)
	case EventTypeEdgeDiscovered:
		var p EdgeDiscovered
		return p, json.Unmarshal(data, &p)
	case EventTypeVulnerabilityFound:
		var p VulnerabilityFound
		return p, json.Unmarshal(data, &p)
	case EventTypeScanStarted:
		var p ScanStarted
		return p, json.Unmarshal(data, &p)
	case EventTypeScanCompleted:
		var p ScanCompleted
		return p, json.Unmarshal(data, &p)
	case EventTypeAttackPathComputed:
		var p AttackPathComputed
		return p, json.Unmarshal(data, &p)
	case EventTypeHuntFinding:
		var p HuntFinding
		return p, json.Unmarshal(data, &p)
	case EventTypeShadowAiDiscovered:
		var p ShadowAiDiscovered
		return p, json.Unmarshal(data, &p)
	case EventTypePolicyViolation:
		var p PolicyViolation
		return p, json.Unmarshal(data, &p)
	case EventTypeEngramRecorded:
		var p EngramRecorded
		return p, json.Unmarshal(data, &p)
	default:
		return nil, &unknownEventTypeError{eventType: string(probe.EventType)}
	}
}

type unknownEventTypeError struct {
	eventType string
}

func (e *unknownEventTypeError) Error() string {
	return "events: unknown event_type " + e.eventType
}

// Batch groups events published together, e.g. the output of one scan
// cycle.
type Batch struct {
	Events []Event `json:"events"`
}

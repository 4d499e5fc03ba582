package graphtypes

import (
	"encoding/json"
	"fmt"
	"time"
)

// NodeKind is the closed set of concrete node kinds a Node can be. Keeping
// it closed (rather than an open string) lets dispatch sites (upsert, label
// mapping) be checked for exhaustiveness by a reviewer, matching Node's
// closed-enum shape in the original graph model.
type NodeKind string

const (
	NodeKindHost          NodeKind = "Host"
	NodeKindService       NodeKind = "Service"
	NodeKindPort          NodeKind = "Port"
	NodeKindUser          NodeKind = "User"
	NodeKindGroup         NodeKind = "Group"
	NodeKindRole          NodeKind = "Role"
	NodeKindPolicy        NodeKind = "Policy"
	NodeKindSubnet        NodeKind = "Subnet"
	NodeKindVpc           NodeKind = "Vpc"
	NodeKindVulnerability NodeKind = "Vulnerability"
	NodeKindCertificate   NodeKind = "Certificate"
	NodeKindApplication   NodeKind = "Application"
	NodeKindMcpServer     NodeKind = "McpServer"
)

// Node is implemented by every concrete node kind. isNode is unexported so
// the set of implementers is closed to this package.
type Node interface {
	Kind() NodeKind
	ID() NodeId
	Tenant() TenantId
	isNode()
}

// NodeBase carries the fields every node kind shares.
type NodeBase struct {
	Id        NodeId    `json:"id"`
	TenantID  TenantId  `json:"tenant_id"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

func (b NodeBase) ID() NodeId        { return b.Id }
func (b NodeBase) Tenant() TenantId  { return b.TenantID }

// CloudProvider, Protocol and the other small enums below serialize as the
// lowercase strings the rest of the platform (and the original reference
// implementation) expects.
type CloudProvider string

const (
	CloudAWS    CloudProvider = "aws"
	CloudAzure  CloudProvider = "azure"
	CloudGCP    CloudProvider = "gcp"
	CloudOnPrem CloudProvider = "on_prem"
)

type Protocol string

const (
	ProtocolTCP   Protocol = "tcp"
	ProtocolUDP   Protocol = "udp"
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
	ProtocolSSH   Protocol = "ssh"
	ProtocolRDP   Protocol = "rdp"
	ProtocolDNS   Protocol = "dns"
	// Other protocol values pass through verbatim (lowercased), matching
	// Protocol::Other(String) in the reference model.
)

type ServiceState string

const (
	ServiceRunning ServiceState = "running"
	ServiceStopped ServiceState = "stopped"
	ServiceUnknown ServiceState = "unknown"
)

type PortState string

const (
	PortOpen     PortState = "open"
	PortClosed   PortState = "closed"
	PortFiltered PortState = "filtered"
)

type UserType string

const (
	UserHuman          UserType = "human"
	UserServiceAccount UserType = "service_account"
	UserSystem         UserType = "system"
)

type IdentitySource string

const (
	IdentityEntraID    IdentitySource = "entra_id"
	IdentityOkta       IdentitySource = "okta"
	IdentityAWSIAM     IdentitySource = "aws_iam"
	IdentityAzureRBAC  IdentitySource = "azure_rbac"
	IdentityGCPIAM     IdentitySource = "gcp_iam"
	IdentityLocal      IdentitySource = "local"
)

// Criticality is an ordinal; Weight() maps it to the numeric scale the
// pathfind engine scores against.
type Criticality string

const (
	CriticalityCritical Criticality = "critical"
	CriticalityHigh     Criticality = "high"
	CriticalityMedium   Criticality = "medium"
	CriticalityLow      Criticality = "low"
	CriticalityInfo     Criticality = "info"
)

// Weight maps a criticality ordinal to its numeric pathfinding weight.
// Unrecognized or empty values default to 0.1, matching the "info/unknown"
// case of the reference table.
func (c Criticality) Weight() float64 {
	switch Criticality(normalizeLower(string(c))) {
	case CriticalityCritical:
		return 1.0
	case CriticalityHigh:
		return 0.8
	case CriticalityMedium:
		return 0.5
	case CriticalityLow:
		return 0.2
	default:
		return 0.1
	}
}

func normalizeLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

type VulnSeverity string

const (
	VulnCritical VulnSeverity = "critical"
	VulnHigh     VulnSeverity = "high"
	VulnMedium   VulnSeverity = "medium"
	VulnLow      VulnSeverity = "low"
	VulnNone     VulnSeverity = "none"
)

type PolicyType string

const (
	PolicyIAM               PolicyType = "iam_policy"
	PolicyFirewallRule      PolicyType = "firewall_rule"
	PolicySecurityGroup     PolicyType = "security_group"
	PolicyConditionalAccess PolicyType = "conditional_access"
	PolicyNetworkACL        PolicyType = "network_acl"
)

type AppType string

const (
	AppWebApp         AppType = "web_app"
	AppContainerImage AppType = "container_image"
	AppLambda         AppType = "lambda"
	AppDaemon         AppType = "daemon"
	AppDatabase       AppType = "database"
)

// ── Concrete node kinds ─────────────────────────────────────────────

type Host struct {
	NodeBase
	IP              string         `json:"ip"`
	Hostname        *string        `json:"hostname,omitempty"`
	OS              *string        `json:"os,omitempty"`
	OSVersion       *string        `json:"os_version,omitempty"`
	MACAddress      *string        `json:"mac_address,omitempty"`
	CloudProvider   *CloudProvider `json:"cloud_provider,omitempty"`
	CloudInstanceID *string        `json:"cloud_instance_id,omitempty"`
	CloudRegion     *string        `json:"cloud_region,omitempty"`
	Criticality     Criticality    `json:"criticality"`
	Tags            []string       `json:"tags"`
}

func (Host) Kind() NodeKind { return NodeKindHost }
func (Host) isNode()        {}

type Service struct {
	NodeBase
	Name     string       `json:"name"`
	Version  *string      `json:"version,omitempty"`
	Port     uint16       `json:"port"`
	Protocol Protocol     `json:"protocol"`
	State    ServiceState `json:"state"`
	Banner   *string      `json:"banner,omitempty"`
}

func (Service) Kind() NodeKind { return NodeKindService }
func (Service) isNode()        {}

type Port struct {
	NodeBase
	Number   uint16   `json:"number"`
	Protocol Protocol `json:"protocol"`
	State    PortState `json:"state"`
}

func (Port) Kind() NodeKind { return NodeKindPort }
func (Port) isNode()        {}

type User struct {
	NodeBase
	Username    string         `json:"username"`
	DisplayName *string        `json:"display_name,omitempty"`
	Email       *string        `json:"email,omitempty"`
	UserType    UserType       `json:"user_type"`
	Source      IdentitySource `json:"source"`
	Enabled     bool           `json:"enabled"`
	MFAEnabled  *bool          `json:"mfa_enabled,omitempty"`
	LastLogin   *time.Time     `json:"last_login,omitempty"`
}

func (User) Kind() NodeKind { return NodeKindUser }
func (User) isNode()        {}

type Group struct {
	NodeBase
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Source      IdentitySource `json:"source"`
	MemberCount *uint32        `json:"member_count,omitempty"`
}

func (Group) Kind() NodeKind { return NodeKindGroup }
func (Group) isNode()        {}

type Role struct {
	NodeBase
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Source      IdentitySource `json:"source"`
	Permissions []string       `json:"permissions"`
}

func (Role) Kind() NodeKind { return NodeKindRole }
func (Role) isNode()        {}

type Policy struct {
	NodeBase
	Name       string     `json:"name"`
	PolicyType PolicyType `json:"policy_type"`
	Source     string     `json:"source"`
	RulesJSON  *string    `json:"rules_json,omitempty"`
}

func (Policy) Kind() NodeKind { return NodeKindPolicy }
func (Policy) isNode()        {}

type Subnet struct {
	NodeBase
	CIDR          string         `json:"cidr"`
	Name          *string        `json:"name,omitempty"`
	CloudProvider *CloudProvider `json:"cloud_provider,omitempty"`
	VpcID         *string        `json:"vpc_id,omitempty"`
	IsPublic      bool           `json:"is_public"`
}

func (Subnet) Kind() NodeKind { return NodeKindSubnet }
func (Subnet) isNode()        {}

type Vpc struct {
	NodeBase
	VpcID         string        `json:"vpc_id"`
	Name          *string       `json:"name,omitempty"`
	CIDR          *string       `json:"cidr,omitempty"`
	CloudProvider CloudProvider `json:"cloud_provider"`
	Region        string        `json:"region"`
}

func (Vpc) Kind() NodeKind { return NodeKindVpc }
func (Vpc) isNode()        {}

type Vulnerability struct {
	NodeBase
	CVEID         string       `json:"cve_id"`
	CVSSScore     *float64     `json:"cvss_score,omitempty"`
	CVSSVector    *string      `json:"cvss_vector,omitempty"`
	EPSSScore     *float64     `json:"epss_score,omitempty"`
	Severity      VulnSeverity `json:"severity"`
	Description   *string      `json:"description,omitempty"`
	Exploitable   bool         `json:"exploitable"`
	InCISAKev     bool         `json:"in_cisa_kev"`
	PublishedDate *time.Time   `json:"published_date,omitempty"`
}

func (Vulnerability) Kind() NodeKind { return NodeKindVulnerability }
func (Vulnerability) isNode()        {}

type Certificate struct {
	NodeBase
	Subject           string    `json:"subject"`
	Issuer            string    `json:"issuer"`
	SerialNumber      string    `json:"serial_number"`
	NotBefore         time.Time `json:"not_before"`
	NotAfter          time.Time `json:"not_after"`
	FingerprintSHA256 string    `json:"fingerprint_sha256"`
}

func (Certificate) Kind() NodeKind { return NodeKindCertificate }
func (Certificate) isNode()        {}

type Application struct {
	NodeBase
	Name    string  `json:"name"`
	Version *string `json:"version,omitempty"`
	AppType AppType `json:"app_type"`
}

func (Application) Kind() NodeKind { return NodeKindApplication }
func (Application) isNode()        {}

type McpServer struct {
	NodeBase
	Name          string   `json:"name"`
	Endpoint      string   `json:"endpoint"`
	Tools         []string `json:"tools"`
	Authenticated bool     `json:"authenticated"`
	TLSEnabled    bool     `json:"tls_enabled"`
}

func (McpServer) Kind() NodeKind { return NodeKindMcpServer }
func (McpServer) isNode()        {}

// MarshalNode serializes a Node with an adjacent "node_type" tag, matching
// the on-the-wire shape of the reference model's tagged enum.
func MarshalNode(n Node) ([]byte, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(n.Kind())
	if err != nil {
		return nil, err
	}
	fields["node_type"] = tag
	return json.Marshal(fields)
}

// UnmarshalNode reads a node_type-tagged node back into its concrete kind.
func UnmarshalNode(data []byte) (Node, error) {
	var probe struct {
		NodeType NodeKind `json:"node_type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.NodeType {
	case NodeKindHost:
		var n Host
		return n, json.Unmarshal(data, &n)
	case NodeKindService:
		var n Service
		return n, json.Unmarshal(data, &n)
	case NodeKindPort:
		var n Port
		return n, json.Unmarshal(data, &n)
	case NodeKindUser:
		var n User
		return n, json.Unmarshal(data, &n)
	case NodeKindGroup:
		var n Group
		return n, json.Unmarshal(data, &n)
	case NodeKindRole:
		var n Role
		return n, json.Unmarshal(data, &n)
	case NodeKindPolicy:
		var n Policy
		return n, json.Unmarshal(data, &n)
	case NodeKindSubnet:
		var n Subnet
		return n, json.Unmarshal(data, &n)
	case NodeKindVpc:
		var n Vpc
		return n, json.Unmarshal(data, &n)
	case NodeKindVulnerability:
		var n Vulnerability
		return n, json.Unmarshal(data, &n)
	case NodeKindCertificate:
		var n Certificate
		return n, json.Unmarshal(data, &n)
	case NodeKindApplication:
		var n Application
		return n, json.Unmarshal(data, &n)
	case NodeKindMcpServer:
		var n McpServer
		return n, json.Unmarshal(data, &n)
	default:
		return nil, fmt.Errorf("graphtypes: unknown node_type %q", probe.NodeType)
	}
}

package graphstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/securizon/sentinel/internal/graphtypes"
	"github.com/securizon/sentinel/internal/sentinelerrors"
)

// nodeLabel returns the Cypher node label for a node kind. Kept as its own
// function (rather than a bare string(kind) cast at call sites) so a future
// kind whose label diverges from its Go identifier has one place to change.
func nodeLabel(kind graphtypes.NodeKind) string {
	switch kind {
	case graphtypes.NodeKindHost, graphtypes.NodeKindService, graphtypes.NodeKindPort,
		graphtypes.NodeKindUser, graphtypes.NodeKindGroup, graphtypes.NodeKindRole,
		graphtypes.NodeKindPolicy, graphtypes.NodeKindSubnet, graphtypes.NodeKindVpc,
		graphtypes.NodeKindVulnerability, graphtypes.NodeKindCertificate,
		graphtypes.NodeKindApplication, graphtypes.NodeKindMcpServer:
		return string(kind)
	default:
		return string(kind)
	}
}

// edgeTypeToCypher returns the Cypher relationship type for an edge type.
// Edge types are already written SCREAMING_SNAKE_CASE so this is an
// identity mapping, kept as a function for the same reason as nodeLabel.
func edgeTypeToCypher(et graphtypes.EdgeType) string { return string(et) }

// UpsertNode writes a node to the graph, merging on (tenant_id, id) and
// updating last_seen on an existing match. Hosts, Services, Users and
// Vulnerabilities get a specialized Cypher statement with named parameters
// for their well-known properties; every other kind goes through
// upsertGeneric, which stores its property bag as a JSON blob decoded back
// into a map at query time via apoc.convert.fromJsonMap.
func (c *Client) UpsertNode(ctx context.Context, node graphtypes.Node) error {
	switch n := node.(type) {
	case graphtypes.Host:
		return c.upsertHost(ctx, n)
	case graphtypes.Service:
		return c.upsertService(ctx, n)
	case graphtypes.User:
		return c.upsertUser(ctx, n)
	case graphtypes.Vulnerability:
		return c.upsertVulnerability(ctx, n)
	default:
		return c.upsertGeneric(ctx, node)
	}
}

func (c *Client) upsertHost(ctx context.Context, h graphtypes.Host) error {
	const cypher = `
MERGE (n:Host {tenant_id: $tenant_id, id: $id})
ON CREATE SET
  n.ip = $ip, n.hostname = $hostname, n.os = $os, n.os_version = $os_version,
  n.mac_address = $mac_address, n.cloud_provider = $cloud_provider,
  n.cloud_instance_id = $cloud_instance_id, n.cloud_region = $cloud_region,
  n.criticality = $criticality, n.tags = $tags,
  n.first_seen = $first_seen, n.last_seen = $last_seen
ON MATCH SET
  n.ip = $ip, n.hostname = $hostname, n.os = $os, n.os_version = $os_version,
  n.mac_address = $mac_address, n.cloud_provider = $cloud_provider,
  n.cloud_instance_id = $cloud_instance_id, n.cloud_region = $cloud_region,
  n.criticality = $criticality, n.tags = $tags,
  n.last_seen = $last_seen
`
	params := map[string]any{
		"tenant_id":         h.TenantID.String(),
		"id":                h.Id.String(),
		"ip":                h.IP,
		"hostname":          derefStr(h.Hostname),
		"os":                derefStr(h.OS),
		"os_version":        derefStr(h.OSVersion),
		"mac_address":       derefStr(h.MACAddress),
		"cloud_provider":    derefCloud(h.CloudProvider),
		"cloud_instance_id": derefStr(h.CloudInstanceID),
		"cloud_region":      derefStr(h.CloudRegion),
		"criticality":       string(h.Criticality),
		"tags":              h.Tags,
		"first_seen":        h.FirstSeen.Format(timeLayout),
		"last_seen":         h.LastSeen.Format(timeLayout),
	}
	if err := c.run(ctx, cypher, params); err != nil {
		return &sentinelerrors.GraphError{Cause: err}
	}
	return nil
}

func (c *Client) upsertService(ctx context.Context, s graphtypes.Service) error {
	const cypher = `
MERGE (n:Service {tenant_id: $tenant_id, id: $id})
ON CREATE SET
  n.name = $name, n.version = $version, n.port = $port, n.protocol = $protocol,
  n.state = $state, n.banner = $banner,
  n.first_seen = $first_seen, n.last_seen = $last_seen
ON MATCH SET
  n.name = $name, n.version = $version, n.port = $port, n.protocol = $protocol,
  n.state = $state, n.banner = $banner, n.last_seen = $last_seen
`
	params := map[string]any{
		"tenant_id":  s.TenantID.String(),
		"id":         s.Id.String(),
		"name":       s.Name,
		"version":    derefStr(s.Version),
		"port":       int64(s.Port),
		"protocol":   string(s.Protocol),
		"state":      string(s.State),
		"banner":     derefStr(s.Banner),
		"first_seen": s.FirstSeen.Format(timeLayout),
		"last_seen":  s.LastSeen.Format(timeLayout),
	}
	if err := c.run(ctx, cypher, params); err != nil {
		return &sentinelerrors.GraphError{Cause: err}
	}
	return nil
}

func (c *Client) upsertUser(ctx context.Context, u graphtypes.User) error {
	const cypher = `
MERGE (n:User {tenant_id: $tenant_id, id: $id})
ON CREATE SET
  n.username = $username, n.display_name = $display_name, n.email = $email,
  n.user_type = $user_type, n.source = $source, n.enabled = $enabled,
  n.mfa_enabled = $mfa_enabled, n.last_login = $last_login,
  n.first_seen = $first_seen, n.last_seen = $last_seen
ON MATCH SET
  n.username = $username, n.display_name = $display_name, n.email = $email,
  n.user_type = $user_type, n.source = $source, n.enabled = $enabled,
  n.mfa_enabled = $mfa_enabled, n.last_login = $last_login, n.last_seen = $last_seen
`
	var lastLogin any
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.Format(timeLayout)
	}
	params := map[string]any{
		"tenant_id":    u.TenantID.String(),
		"id":           u.Id.String(),
		"username":     u.Username,
		"display_name": derefStr(u.DisplayName),
		"email":        derefStr(u.Email),
		"user_type":    string(u.UserType),
		"source":       string(u.Source),
		"enabled":      u.Enabled,
		"mfa_enabled":  derefBool(u.MFAEnabled),
		"last_login":   lastLogin,
		"first_seen":   u.FirstSeen.Format(timeLayout),
		"last_seen":    u.LastSeen.Format(timeLayout),
	}
	if err := c.run(ctx, cypher, params); err != nil {
		return &sentinelerrors.GraphError{Cause: err}
	}
	return nil
}

func (c *Client) upsertVulnerability(ctx context.Context, v graphtypes.Vulnerability) error {
	const cypher = `
MERGE (n:Vulnerability {tenant_id: $tenant_id, id: $id})
ON CREATE SET
  n.cve_id = $cve_id, n.cvss_score = $cvss_score, n.cvss_vector = $cvss_vector,
  n.epss_score = $epss_score, n.severity = $severity, n.description = $description,
  n.exploitable = $exploitable, n.in_cisa_kev = $in_cisa_kev, n.published_date = $published_date,
  n.first_seen = $first_seen, n.last_seen = $last_seen
ON MATCH SET
  n.cvss_score = $cvss_score, n.epss_score = $epss_score, n.severity = $severity,
  n.exploitable = $exploitable, n.in_cisa_kev = $in_cisa_kev, n.last_seen = $last_seen
`
	var published any
	if v.PublishedDate != nil {
		published = v.PublishedDate.Format(timeLayout)
	}
	params := map[string]any{
		"tenant_id":      v.TenantID.String(),
		"id":             v.Id.String(),
		"cve_id":         v.CVEID,
		"cvss_score":     derefFloat(v.CVSSScore),
		"cvss_vector":    derefStr(v.CVSSVector),
		"epss_score":     derefFloat(v.EPSSScore),
		"severity":       string(v.Severity),
		"description":    derefStr(v.Description),
		"exploitable":    v.Exploitable,
		"in_cisa_kev":    v.InCISAKev,
		"published_date": published,
		"first_seen":     v.FirstSeen.Format(timeLayout),
		"last_seen":      v.LastSeen.Format(timeLayout),
	}
	if err := c.run(ctx, cypher, params); err != nil {
		return &sentinelerrors.GraphError{Cause: err}
	}
	return nil
}

// upsertGeneric handles the remaining nine node kinds by round-tripping
// their properties through apoc.convert.fromJsonMap, mirroring the
// teacher's own fallback for node kinds it does not special-case.
func (c *Client) upsertGeneric(ctx context.Context, node graphtypes.Node) error {
	body, err := json.Marshal(node)
	if err != nil {
		return &sentinelerrors.SerializationError{Cause: err}
	}
	var props map[string]any
	if err := json.Unmarshal(body, &props); err != nil {
		return &sentinelerrors.SerializationError{Cause: err}
	}
	delete(props, "id")
	delete(props, "tenant_id")

	cypher := fmt.Sprintf(`
MERGE (n:%s {tenant_id: $tenant_id, id: $id})
ON CREATE SET n += apoc.convert.fromJsonMap($props)
ON MATCH SET n += apoc.convert.fromJsonMap($match_props)
`, nodeLabel(node.Kind()))

	propsJSON, err := json.Marshal(props)
	if err != nil {
		return &sentinelerrors.SerializationError{Cause: err}
	}
	// An existing node keeps its first_seen, as in the specialized upserts.
	delete(props, "first_seen")
	matchPropsJSON, err := json.Marshal(props)
	if err != nil {
		return &sentinelerrors.SerializationError{Cause: err}
	}
	params := map[string]any{
		"tenant_id":   node.Tenant().String(),
		"id":          node.ID().String(),
		"props":       string(propsJSON),
		"match_props": string(matchPropsJSON),
	}
	if err := c.run(ctx, cypher, params); err != nil {
		return &sentinelerrors.GraphError{Cause: err}
	}
	return nil
}

// UpsertEdge writes an edge, MATCHing both endpoints by (tenant_id, id)
// before MERGEing the relationship between them. A missing endpoint is
// reported as NodeNotFound rather than silently creating a dangling
// relationship.
func (c *Client) UpsertEdge(ctx context.Context, edge graphtypes.Edge) error {
	// Properties are flattened onto the relationship (via
	// apoc.convert.fromJsonMap), not stored as a single nested blob: the
	// read side (extract_exploitability equivalent) expects to find
	// exploitability_score etc. as plain relationship properties.
	propsJSON, err := json.Marshal(edge.Properties)
	if err != nil {
		return &sentinelerrors.SerializationError{Cause: err}
	}
	cypher := fmt.Sprintf(`
MATCH (src {tenant_id: $tenant_id, id: $source_id})
MATCH (dst {tenant_id: $tenant_id, id: $target_id})
MERGE (src)-[r:%s {id: $id}]->(dst)
ON CREATE SET r += apoc.convert.fromJsonMap($properties), r.source_id = $source_id, r.target_id = $target_id, r.first_seen = $first_seen, r.last_seen = $last_seen
ON MATCH SET r += apoc.convert.fromJsonMap($properties), r.source_id = $source_id, r.target_id = $target_id, r.last_seen = $last_seen
RETURN r
`, edgeTypeToCypher(edge.EdgeType))

	params := map[string]any{
		"tenant_id":  edge.TenantID.String(),
		"id":         edge.Id.String(),
		"source_id":  edge.SourceID.String(),
		"target_id":  edge.TargetID.String(),
		"properties": string(propsJSON),
		"first_seen": edge.FirstSeen.Format(timeLayout),
		"last_seen":  edge.LastSeen.Format(timeLayout),
	}
	record, err := c.queryOne(ctx, cypher, params)
	if err != nil {
		return &sentinelerrors.GraphError{Cause: err}
	}
	if record == nil {
		return &sentinelerrors.NodeNotFound{NodeID: edge.SourceID.String() + " or " + edge.TargetID.String()}
	}
	return nil
}

// MarkStale flags every Host and Service node of a tenant last seen before
// cutoff (an RFC 3339 timestamp) as stale, returning the count affected.
// Used by the discovery scheduler at the end of a scan cycle to flag hosts
// and services the scan no longer observed, without deleting them outright.
func (c *Client) MarkStale(ctx context.Context, tenantID graphtypes.TenantId, cutoff string) (int64, error) {
	const cypher = `
MATCH (n {tenant_id: $tenant_id})
WHERE (n:Host OR n:Service) AND n.last_seen < $cutoff AND coalesce(n.stale, false) = false
SET n.stale = true
RETURN count(n) AS cnt
`
	record, err := c.queryOne(ctx, cypher, map[string]any{"tenant_id": tenantID.String(), "cutoff": cutoff})
	if err != nil {
		return 0, &sentinelerrors.GraphError{Cause: err}
	}
	return countFromRecord(record), nil
}

// RemoveStale deletes every node of a tenant flagged stale before cutoff,
// detaching their relationships first.
func (c *Client) RemoveStale(ctx context.Context, tenantID graphtypes.TenantId, cutoff string) (int64, error) {
	const cypher = `
MATCH (n {tenant_id: $tenant_id})
WHERE coalesce(n.stale, false) = true AND n.last_seen < $cutoff
WITH n, count(n) AS cnt
DETACH DELETE n
RETURN sum(cnt) AS cnt
`
	record, err := c.queryOne(ctx, cypher, map[string]any{"tenant_id": tenantID.String(), "cutoff": cutoff})
	if err != nil {
		return 0, &sentinelerrors.GraphError{Cause: err}
	}
	return countFromRecord(record), nil
}

// UpsertNodes writes a batch of nodes one at a time through UpsertNode, each
// in its own auto-committed write, and stops at the first failure. Nodes
// written before the failing one stay committed; the batch is not atomic.
func (c *Client) UpsertNodes(ctx context.Context, nodes []graphtypes.Node) error {
	for _, n := range nodes {
		if err := c.UpsertNode(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// DeleteNode removes a single node and its relationships.
func (c *Client) DeleteNode(ctx context.Context, tenantID graphtypes.TenantId, id graphtypes.NodeId) error {
	const cypher = `
MATCH (n {tenant_id: $tenant_id, id: $id})
DETACH DELETE n
`
	if err := c.run(ctx, cypher, map[string]any{"tenant_id": tenantID.String(), "id": id.String()}); err != nil {
		return &sentinelerrors.GraphError{Cause: err}
	}
	return nil
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

func derefStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefCloud(p *graphtypes.CloudProvider) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func countFromRecord(record *neo4j.Record) int64 {
	if record == nil {
		return 0
	}
	v, ok := record.Get("cnt")
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

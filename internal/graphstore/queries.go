package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/securizon/sentinel/internal/graphtypes"
	"github.com/securizon/sentinel/internal/pathgraph"
	"github.com/securizon/sentinel/internal/sentinelerrors"
)

// NodeRecord is the generic shape a fetched node comes back as: its
// identity, its label (the kind), and the full property bag. Read paths
// never materialize a typed graphtypes.Node, since most callers (the
// pathfind engine foremost) only need a handful of well-known properties
// out of the bag.
type NodeRecord struct {
	ID         graphtypes.NodeId
	TenantID   graphtypes.TenantId
	Kind       graphtypes.NodeKind
	Properties map[string]any
	FirstSeen  time.Time
	LastSeen   time.Time
}

// EdgeRecord is the generic shape a fetched relationship comes back as.
type EdgeRecord struct {
	ID         graphtypes.EdgeId
	SourceID   graphtypes.NodeId
	TargetID   graphtypes.NodeId
	EdgeType   graphtypes.EdgeType
	Properties map[string]any
}

// Neighbor pairs a node one hop away from a query's origin with the edge
// that connects them.
type Neighbor struct {
	Node NodeRecord
	Edge EdgeRecord
}

// SubgraphResult is the two-phase node-then-edge fetch FetchSubgraph and
// FetchNeighborhood both return.
type SubgraphResult struct {
	Nodes []NodeRecord
	Edges []EdgeRecord
}

// GetNode fetches a single node by (tenant_id, id).
func (c *Client) GetNode(ctx context.Context, tenantID graphtypes.TenantId, id graphtypes.NodeId) (*NodeRecord, error) {
	const cypher = `MATCH (n {tenant_id: $tenant_id, id: $id}) RETURN n, labels(n) AS labels LIMIT 1`
	record, err := c.queryOne(ctx, cypher, map[string]any{"tenant_id": tenantID.String(), "id": id.String()})
	if err != nil {
		return nil, &sentinelerrors.GraphError{Cause: err}
	}
	if record == nil {
		return nil, &sentinelerrors.NotFound{Label: "node", ID: id.String(), TenantID: tenantID.String()}
	}
	rec, err := neo4jNodeToRecord(record)
	if err != nil {
		return nil, &sentinelerrors.GraphError{Cause: err}
	}
	return rec, nil
}

// FindNodeByProperty fetches the first node of a tenant and kind whose
// named property equals value, used by discovery to tell whether a host
// with a given IP already exists (new versus changed).
func (c *Client) FindNodeByProperty(ctx context.Context, tenantID graphtypes.TenantId, kind graphtypes.NodeKind, property string, value any) (*NodeRecord, error) {
	cypher := fmt.Sprintf(`MATCH (n:%s {tenant_id: $tenant_id}) WHERE n.%s = $value RETURN n, labels(n) AS labels LIMIT 1`, nodeLabel(kind), property)
	record, err := c.queryOne(ctx, cypher, map[string]any{"tenant_id": tenantID.String(), "value": value})
	if err != nil {
		return nil, &sentinelerrors.GraphError{Cause: err}
	}
	if record == nil {
		return nil, nil
	}
	return neo4jNodeToRecord(record)
}

// ListNodes lists every node of a tenant and kind, honoring limit/offset
// pagination.
func (c *Client) ListNodes(ctx context.Context, tenantID graphtypes.TenantId, kind graphtypes.NodeKind, limit, offset int) ([]NodeRecord, error) {
	cypher := fmt.Sprintf(`
MATCH (n:%s {tenant_id: $tenant_id})
RETURN n, labels(n) AS labels
ORDER BY n.last_seen DESC
SKIP $offset LIMIT $limit
`, nodeLabel(kind))
	rows, err := c.queryRows(ctx, cypher, map[string]any{"tenant_id": tenantID.String(), "limit": int64(limit), "offset": int64(offset)})
	if err != nil {
		return nil, &sentinelerrors.GraphError{Cause: err}
	}
	out := make([]NodeRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := neo4jNodeToRecord(row)
		if err != nil {
			return nil, &sentinelerrors.GraphError{Cause: err}
		}
		out = append(out, *rec)
	}
	return out, nil
}

// CountNodes counts the nodes of a tenant and kind.
func (c *Client) CountNodes(ctx context.Context, tenantID graphtypes.TenantId, kind graphtypes.NodeKind) (int64, error) {
	cypher := fmt.Sprintf(`MATCH (n:%s {tenant_id: $tenant_id}) RETURN count(n) AS cnt`, nodeLabel(kind))
	record, err := c.queryOne(ctx, cypher, map[string]any{"tenant_id": tenantID.String()})
	if err != nil {
		return 0, &sentinelerrors.GraphError{Cause: err}
	}
	return countFromRecord(record), nil
}

// GetNeighbors fetches every node one hop from id, in either direction,
// along with the connecting edge.
func (c *Client) GetNeighbors(ctx context.Context, tenantID graphtypes.TenantId, id graphtypes.NodeId) ([]Neighbor, error) {
	const cypher = `
MATCH (n {tenant_id: $tenant_id, id: $id})-[r]-(m {tenant_id: $tenant_id})
RETURN m, labels(m) AS m_labels, r, type(r) AS r_type
`
	rows, err := c.queryRows(ctx, cypher, map[string]any{"tenant_id": tenantID.String(), "id": id.String()})
	if err != nil {
		return nil, &sentinelerrors.GraphError{Cause: err}
	}
	out := make([]Neighbor, 0, len(rows))
	for _, row := range rows {
		nodeRaw, ok := row.Get("m")
		if !ok {
			continue
		}
		relRaw, ok := row.Get("r")
		if !ok {
			continue
		}
		labels, _ := row.Get("m_labels")
		rType, _ := row.Get("r_type")

		nodeRec, err := dbNodeToRecord(nodeRaw, labels)
		if err != nil {
			return nil, &sentinelerrors.GraphError{Cause: err}
		}
		edgeRec, err := dbRelToRecord(relRaw, rType)
		if err != nil {
			return nil, &sentinelerrors.GraphError{Cause: err}
		}
		out = append(out, Neighbor{Node: *nodeRec, Edge: *edgeRec})
	}
	return out, nil
}

// ShortestPath delegates to the store's native shortestPath function,
// used as a cross-check against the in-memory Dijkstra implementation for
// small subgraphs where a single round trip is cheaper than a full fetch.
func (c *Client) ShortestPath(ctx context.Context, tenantID graphtypes.TenantId, sourceID, targetID graphtypes.NodeId, maxHops int) ([]graphtypes.NodeId, error) {
	cypher := `
MATCH (src {tenant_id: $tenant_id, id: $source_id}), (dst {tenant_id: $tenant_id, id: $target_id})
MATCH path = shortestPath((src)-[*..` + fmt.Sprint(maxHops) + `]-(dst))
RETURN [n IN nodes(path) | n.id] AS ids
`
	record, err := c.queryOne(ctx, cypher, map[string]any{
		"tenant_id": tenantID.String(), "source_id": sourceID.String(), "target_id": targetID.String(),
	})
	if err != nil {
		return nil, &sentinelerrors.GraphError{Cause: err}
	}
	if record == nil {
		return nil, nil
	}
	raw, ok := record.Get("ids")
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	ids := make([]graphtypes.NodeId, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		parsed, err := parseNodeID(s)
		if err != nil {
			continue
		}
		ids = append(ids, parsed)
	}
	return ids, nil
}

// FetchSubgraph materializes a tenant's graph up to nodeLimit nodes and
// edgeLimit edges: every node first, then every edge whose endpoints are
// both present. Two-phase (nodes, then edges) so the pathfind engine can
// build its dense index before it needs to resolve edge endpoints.
func (c *Client) FetchSubgraph(ctx context.Context, tenantID graphtypes.TenantId, nodeLimit, edgeLimit int) (*SubgraphResult, error) {
	nodeRows, err := c.queryRows(ctx, `MATCH (n {tenant_id: $tenant_id}) RETURN n, labels(n) AS labels LIMIT $limit`, map[string]any{"tenant_id": tenantID.String(), "limit": nodeLimit})
	if err != nil {
		return nil, &sentinelerrors.GraphError{Cause: err}
	}
	nodes := make([]NodeRecord, 0, len(nodeRows))
	for _, row := range nodeRows {
		rec, err := neo4jNodeToRecord(row)
		if err != nil {
			return nil, &sentinelerrors.GraphError{Cause: err}
		}
		nodes = append(nodes, *rec)
	}
	if len(nodes) == 0 {
		return &SubgraphResult{}, nil
	}

	edgeRows, err := c.queryRows(ctx, `
MATCH (a {tenant_id: $tenant_id})-[r]->(b {tenant_id: $tenant_id})
RETURN r, type(r) AS r_type
LIMIT $limit
`, map[string]any{"tenant_id": tenantID.String(), "limit": edgeLimit})
	if err != nil {
		return nil, &sentinelerrors.GraphError{Cause: err}
	}
	edges := make([]EdgeRecord, 0, len(edgeRows))
	for _, row := range edgeRows {
		relRaw, ok := row.Get("r")
		if !ok {
			continue
		}
		rType, _ := row.Get("r_type")
		rec, err := dbRelToRecord(relRaw, rType)
		if err != nil {
			return nil, &sentinelerrors.GraphError{Cause: err}
		}
		edges = append(edges, *rec)
	}

	return &SubgraphResult{Nodes: nodes, Edges: edges}, nil
}

// FetchNeighborhood materializes the subgraph within maxHops of a set of
// seed node ids, using a variable-length Cypher pattern. Returns an empty
// result immediately if seeds is empty, without issuing a query.
func (c *Client) FetchNeighborhood(ctx context.Context, tenantID graphtypes.TenantId, seeds []graphtypes.NodeId, maxHops int) (*SubgraphResult, error) {
	if len(seeds) == 0 {
		return &SubgraphResult{}, nil
	}
	seedStrs := make([]string, len(seeds))
	for i, s := range seeds {
		seedStrs[i] = s.String()
	}

	cypher := fmt.Sprintf(`
MATCH (seed {tenant_id: $tenant_id})
WHERE seed.id IN $seeds
MATCH p = (seed)-[*0..%d]-(m {tenant_id: $tenant_id})
WITH collect(DISTINCT m) AS ms
UNWIND ms AS n
RETURN n, labels(n) AS labels
`, maxHops)
	nodeRows, err := c.queryRows(ctx, cypher, map[string]any{"tenant_id": tenantID.String(), "seeds": seedStrs})
	if err != nil {
		return nil, &sentinelerrors.GraphError{Cause: err}
	}
	nodes := make([]NodeRecord, 0, len(nodeRows))
	seen := make(map[string]bool, len(nodeRows))
	for _, row := range nodeRows {
		rec, err := neo4jNodeToRecord(row)
		if err != nil {
			return nil, &sentinelerrors.GraphError{Cause: err}
		}
		if seen[rec.ID.String()] {
			continue
		}
		seen[rec.ID.String()] = true
		nodes = append(nodes, *rec)
	}
	if len(nodes) == 0 {
		return &SubgraphResult{}, nil
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID.String()
	}
	edgeRows, err := c.queryRows(ctx, `
MATCH (a {tenant_id: $tenant_id})-[r]->(b {tenant_id: $tenant_id})
WHERE a.id IN $ids AND b.id IN $ids
RETURN r, type(r) AS r_type
`, map[string]any{"tenant_id": tenantID.String(), "ids": ids})
	if err != nil {
		return nil, &sentinelerrors.GraphError{Cause: err}
	}
	edges := make([]EdgeRecord, 0, len(edgeRows))
	for _, row := range edgeRows {
		relRaw, ok := row.Get("r")
		if !ok {
			continue
		}
		rType, _ := row.Get("r_type")
		rec, err := dbRelToRecord(relRaw, rType)
		if err != nil {
			return nil, &sentinelerrors.GraphError{Cause: err}
		}
		edges = append(edges, *rec)
	}

	return &SubgraphResult{Nodes: nodes, Edges: edges}, nil
}

// Search does a simple substring match across a tenant's nodes of a given
// kind on a named string property.
func (c *Client) Search(ctx context.Context, tenantID graphtypes.TenantId, kind graphtypes.NodeKind, property, query string, limit int) ([]NodeRecord, error) {
	cypher := fmt.Sprintf(`
MATCH (n:%s {tenant_id: $tenant_id})
WHERE toLower(n.%s) CONTAINS toLower($query)
RETURN n, labels(n) AS labels
LIMIT $limit
`, nodeLabel(kind), property)
	rows, err := c.queryRows(ctx, cypher, map[string]any{"tenant_id": tenantID.String(), "query": query, "limit": int64(limit)})
	if err != nil {
		return nil, &sentinelerrors.GraphError{Cause: err}
	}
	out := make([]NodeRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := neo4jNodeToRecord(row)
		if err != nil {
			return nil, &sentinelerrors.GraphError{Cause: err}
		}
		out = append(out, *rec)
	}
	return out, nil
}

// ToPathgraph converts a fetched SubgraphResult into the dense
// representation the pathfind engine traverses.
func (s *SubgraphResult) ToPathgraph() *pathgraph.InMemoryGraph {
	nodes := make([]pathgraph.NodeRecord, len(s.Nodes))
	for i, n := range s.Nodes {
		nodes[i] = pathgraph.NodeRecord{ID: n.ID, Kind: n.Kind, Properties: n.Properties}
	}
	edges := make([]pathgraph.EdgeRecord, len(s.Edges))
	for i, e := range s.Edges {
		edges[i] = pathgraph.EdgeRecord{ID: e.ID, SourceID: e.SourceID, TargetID: e.TargetID, EdgeType: e.EdgeType, Properties: e.Properties}
	}
	return pathgraph.FromSubgraph(nodes, edges)
}

// neo4jNodeToRecord extracts a NodeRecord from a row carrying an "n" node
// value and a "labels" string-list value. Every stored property of the
// node is carried onto NodeRecord.Properties unfiltered.
func neo4jNodeToRecord(record *neo4j.Record) (*NodeRecord, error) {
	nodeRaw, ok := record.Get("n")
	if !ok {
		return nil, fmt.Errorf("graphstore: row missing column n")
	}
	labelsRaw, _ := record.Get("labels")
	return dbNodeToRecord(nodeRaw, labelsRaw)
}

func dbNodeToRecord(nodeRaw, labelsRaw any) (*NodeRecord, error) {
	node, ok := nodeRaw.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("graphstore: column n is not a node")
	}

	kind := graphtypes.NodeKind("")
	if labelItems, ok := labelsRaw.([]any); ok {
		for _, l := range labelItems {
			if s, ok := l.(string); ok && s != "" {
				kind = graphtypes.NodeKind(s)
				break
			}
		}
	}
	if len(node.Labels) > 0 && kind == "" {
		kind = graphtypes.NodeKind(node.Labels[0])
	}

	props := node.Props

	var tenantID graphtypes.TenantId
	if s, ok := props["tenant_id"].(string); ok {
		if parsed, err := parseTenantID(s); err == nil {
			tenantID = parsed
		}
	}
	var nodeID graphtypes.NodeId
	if s, ok := props["id"].(string); ok {
		if parsed, err := parseNodeID(s); err == nil {
			nodeID = parsed
		}
	}

	return &NodeRecord{
		ID:         nodeID,
		TenantID:   tenantID,
		Kind:       kind,
		Properties: props,
		FirstSeen:  parseTimeProp(props["first_seen"]),
		LastSeen:   parseTimeProp(props["last_seen"]),
	}, nil
}

func dbRelToRecord(relRaw, typeRaw any) (*EdgeRecord, error) {
	rel, ok := relRaw.(neo4j.Relationship)
	if !ok {
		return nil, fmt.Errorf("graphstore: column r is not a relationship")
	}
	edgeType, _ := typeRaw.(string)
	props := rel.Props

	var edgeID graphtypes.EdgeId
	if s, ok := props["id"].(string); ok {
		if parsed, err := parseEdgeID(s); err == nil {
			edgeID = parsed
		}
	}
	var sourceID, targetID graphtypes.NodeId
	if s, ok := props["source_id"].(string); ok {
		if parsed, err := parseNodeID(s); err == nil {
			sourceID = parsed
		}
	}
	if s, ok := props["target_id"].(string); ok {
		if parsed, err := parseNodeID(s); err == nil {
			targetID = parsed
		}
	}

	return &EdgeRecord{
		ID:         edgeID,
		SourceID:   sourceID,
		TargetID:   targetID,
		EdgeType:   graphtypes.EdgeType(edgeType),
		Properties: props,
	}, nil
}

func parseTimeProp(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

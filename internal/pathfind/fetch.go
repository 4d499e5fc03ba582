package pathfind

import (
	"context"

	"github.com/securizon/sentinel/internal/graphstore"
	"github.com/securizon/sentinel/internal/graphtypes"
)

// fetchTenantSubgraph fetches a tenant's whole graph up to nodeLimit nodes,
// capping edges at 5x that so a dense tenant can't blow the edge count out
// independently of the node cap.
func fetchTenantSubgraph(ctx context.Context, client *graphstore.Client, tenantID graphtypes.TenantId, nodeLimit uint32) (*graphstore.SubgraphResult, error) {
	return client.FetchSubgraph(ctx, tenantID, int(nodeLimit), int(nodeLimit)*5)
}

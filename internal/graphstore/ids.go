package graphstore

import (
	"github.com/google/uuid"
	"github.com/securizon/sentinel/internal/graphtypes"
)

func parseTenantID(s string) (graphtypes.TenantId, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return graphtypes.TenantId{}, err
	}
	return graphtypes.TenantId(id), nil
}

func parseNodeID(s string) (graphtypes.NodeId, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return graphtypes.NodeId{}, err
	}
	return graphtypes.NodeId(id), nil
}

func parseEdgeID(s string) (graphtypes.EdgeId, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return graphtypes.EdgeId{}, err
	}
	return graphtypes.EdgeId(id), nil
}

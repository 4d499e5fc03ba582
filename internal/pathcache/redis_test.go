package cache

import (
	"testing"

	"github.com/securizon/sentinel/internal/graphtypes"
)

func TestPathCacheKey_OrderIndependent(t *testing.T) {
	tenant := graphtypes.NewTenantId()
	a, b := graphtypes.NewNodeId(), graphtypes.NewNodeId()

	k1 := PathCacheKey(tenant, []graphtypes.NodeId{a, b}, nil, 10, 100)
	k2 := PathCacheKey(tenant, []graphtypes.NodeId{b, a}, nil, 10, 100)

	if k1 != k2 {
		t.Errorf("expected order-independent key, got %q != %q", k1, k2)
	}
}

func TestPathCacheKey_DiffersByTenant(t *testing.T) {
	a := graphtypes.NewNodeId()
	k1 := PathCacheKey(graphtypes.NewTenantId(), []graphtypes.NodeId{a}, nil, 10, 100)
	k2 := PathCacheKey(graphtypes.NewTenantId(), []graphtypes.NodeId{a}, nil, 10, 100)

	if k1 == k2 {
		t.Error("expected different tenants to produce different keys")
	}
}

func TestPathCacheKey_DiffersByDepth(t *testing.T) {
	tenant := graphtypes.NewTenantId()
	a := graphtypes.NewNodeId()

	k1 := PathCacheKey(tenant, []graphtypes.NodeId{a}, nil, 5, 100)
	k2 := PathCacheKey(tenant, []graphtypes.NodeId{a}, nil, 10, 100)

	if k1 == k2 {
		t.Error("expected different max depths to produce different keys")
	}
}

package discover

import (
	"context"
	"log"
	"time"

	"github.com/securizon/sentinel/internal/graphstore"
	"github.com/securizon/sentinel/internal/graphtypes"
)

// PersistDiff upserts every new and changed host (with its ports, services,
// and edges) and then marks nodes the scheduler hasn't seen within
// staleThresholdHours as stale.
func PersistDiff(ctx context.Context, client *graphstore.Client, tenantID graphtypes.TenantId, diff *DiffResult, staleThresholdHours int) error {
	for _, dh := range diff.NewHosts {
		if err := persistDiscoveredHost(ctx, client, dh); err != nil {
			return err
		}
	}
	for _, dh := range diff.ChangedHosts {
		if err := persistDiscoveredHost(ctx, client, dh); err != nil {
			return err
		}
	}

	cutoff := time.Now().Add(-time.Duration(staleThresholdHours) * time.Hour).UTC().Format(time.RFC3339)
	staleCount, err := client.MarkStale(ctx, tenantID, cutoff)
	if err != nil {
		return err
	}
	if staleCount > 0 {
		log.Printf("discover: marked %d nodes stale for tenant %s", staleCount, tenantID)
	}

	return nil
}

func persistDiscoveredHost(ctx context.Context, client *graphstore.Client, dh DiscoveredHost) error {
	if err := client.UpsertNode(ctx, dh.Host); err != nil {
		return err
	}
	for _, port := range dh.Ports {
		if err := client.UpsertNode(ctx, port); err != nil {
			return err
		}
	}
	for _, svc := range dh.Services {
		if err := client.UpsertNode(ctx, svc); err != nil {
			return err
		}
	}
	for _, edge := range dh.Edges {
		if err := client.UpsertEdge(ctx, edge); err != nil {
			return err
		}
	}
	return nil
}

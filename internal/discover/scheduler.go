package discover

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	events "github.com/securizon/sentinel/internal/eventbus"
	"github.com/securizon/sentinel/internal/graphstore"
	"github.com/securizon/sentinel/internal/graphtypes"
)

// Scheduler runs periodic scans for every configured subnet, with a
// semaphore bounding how many nmap processes run concurrently across all
// subnets.
type Scheduler struct {
	config      Config
	scanner     *NmapScanner
	client      *graphstore.Client
	tenantID    graphtypes.TenantId
	concurrency chan struct{}
	eventBus    *events.KafkaEventBus
}

// NewScheduler builds a scheduler for config's subnets, bounded to
// config.MaxConcurrentScans simultaneous nmap processes.
func NewScheduler(config Config, scanner *NmapScanner, client *graphstore.Client, tenantID graphtypes.TenantId) *Scheduler {
	return &Scheduler{
		config:      config,
		scanner:     scanner,
		client:      client,
		tenantID:    tenantID,
		concurrency: make(chan struct{}, config.MaxConcurrentScans),
	}
}

// WithEventBus enables lifecycle event publication (NodeDiscovered,
// NodeUpdated, ScanCompleted) for every scan this scheduler runs. Without
// it, scans still run and persist normally; event publication is a
// supplement, not load-bearing.
func (s *Scheduler) WithEventBus(bus *events.KafkaEventBus) *Scheduler {
	s.eventBus = bus
	return s
}

// Run spawns one goroutine per enabled subnet and blocks until ctx is
// canceled.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for _, subnet := range s.config.Subnets {
		if !subnet.Enabled {
			log.Printf("discover: subnet %s disabled, skipping", subnet.CIDR)
			continue
		}

		wg.Add(1)
		go func(subnet SubnetSchedule) {
			defer wg.Done()
			s.runSubnetLoop(ctx, subnet)
		}(subnet)
	}

	log.Printf("discover: scheduler started for %d subnets", len(s.config.Subnets))
	wg.Wait()
}

func (s *Scheduler) runSubnetLoop(ctx context.Context, subnet SubnetSchedule) {
	profile := s.config.ProfileFor(subnet)
	interval := time.Duration(subnet.IntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("discover: scheduled scan triggered for %s profile=%s", subnet.CIDR, profile)

			select {
			case s.concurrency <- struct{}{}:
			case <-ctx.Done():
				return
			}

			if err := s.RunSingleScan(ctx, subnet.CIDR, profile); err != nil {
				log.Printf("discover: scheduled scan failed for %s: %v", subnet.CIDR, err)
			}

			<-s.concurrency
		}
	}
}

// RunSingleScan runs nmap against target, parses and diffs the result
// against the graph, persists the diff, and records an engram for the
// whole run: nmap -> parse -> diff -> persist -> engram.
func (s *Scheduler) RunSingleScan(ctx context.Context, target string, profile ScanProfile) error {
	session := startScanSession(s.tenantID.UUID(), target, profile)

	scanResult, err := s.scanner.Scan(ctx, target, profile)
	if err != nil {
		recordScanError(session, err.Error())
		finalizeAndStore(session, s.config.EngramDir)
		return err
	}

	now := time.Now().UTC()
	discovered := ParseScanResults(scanResult.NmapRun, s.tenantID, now)

	diffResult, err := ComputeDiff(ctx, s.client, s.tenantID, discovered, target)
	if err != nil {
		return err
	}

	if err := PersistDiff(ctx, s.client, s.tenantID, diffResult, s.config.StaleThresholdHours); err != nil {
		return err
	}

	recordScanResults(session, diffResult.Summary, scanResult.Duration.Milliseconds())
	finalizeAndStore(session, s.config.EngramDir)

	log.Printf("discover: scan complete scan_id=%s target=%s new=%d changed=%d stale=%d duration=%s",
		scanResult.ScanID, target, diffResult.Summary.NewCount, diffResult.Summary.ChangedCount,
		diffResult.Summary.StaleCount, scanResult.Duration)

	s.publishScanEvents(ctx, scanResult.ScanID, diffResult, scanResult.Duration.Milliseconds())

	return nil
}

// publishScanEvents emits NodeDiscovered/NodeUpdated per diffed host and a
// closing ScanCompleted, if an event bus is configured. Publish failures
// are logged as warnings and never fail the scan: event emission is a
// supplement to persistence, not a precondition of it.
func (s *Scheduler) publishScanEvents(ctx context.Context, scanID uuid.UUID, diff *DiffResult, durationMs int64) {
	if s.eventBus == nil {
		return
	}

	for _, h := range diff.NewHosts {
		s.publish(ctx, events.TopicAssetUpserts, events.NodeDiscovered{
			NodeID:   h.Host.ID(),
			NodeType: h.Host.Kind(),
			Label:    h.Host.IP,
		})
	}
	for _, h := range diff.ChangedHosts {
		s.publish(ctx, events.TopicAssetUpserts, events.NodeUpdated{
			NodeID:        h.Host.ID(),
			ChangedFields: []string{"last_seen"},
		})
	}

	s.publish(ctx, events.TopicSecurityEvents, events.ScanCompleted{
		ScanID:       scanID,
		NodesFound:   diff.Summary.NewCount,
		NodesUpdated: diff.Summary.ChangedCount,
		NodesStale:   diff.Summary.StaleCount,
		DurationMs:   uint64(durationMs),
	})
}

func (s *Scheduler) publish(ctx context.Context, topic string, payload events.Payload) {
	event := events.NewEvent(s.tenantID, events.EventSourceDiscover, payload)
	if err := s.eventBus.PublishEvent(ctx, topic, event); err != nil {
		log.Printf("discover: failed to publish %s event: %v", payload.Type(), err)
	}
}

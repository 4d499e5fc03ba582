package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/securizon/sentinel/internal/config"
	"github.com/securizon/sentinel/internal/discover"
	events "github.com/securizon/sentinel/internal/eventbus"
	"github.com/securizon/sentinel/internal/graphstore"
	"github.com/securizon/sentinel/internal/graphtypes"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("discover: failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("discover: invalid config: %v", err)
	}
	if !cfg.FeatureFlags.NetworkDiscovery {
		log.Fatal("discover: network_discovery feature flag is disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	graphClient, err := graphstore.NewClient(ctx, graphstore.Config{
		URI:                   cfg.Neo4j.URI,
		Username:              cfg.Neo4j.Username,
		Password:              cfg.Neo4j.Password,
		MaxConnectionPoolSize: cfg.Neo4j.MaxConnectionPoolSize,
		FetchSize:             256,
	})
	if err != nil {
		log.Fatalf("discover: failed to connect to graph store: %v", err)
	}
	defer graphClient.Close(ctx)

	tenantID, err := graphtypes.ParseTenantId(cfg.Tenant.DefaultTenantID)
	if err != nil {
		log.Fatalf("discover: invalid default_tenant_id: %v", err)
	}

	discoverCfg := toDiscoverConfig(cfg.Discovery, cfg.Engram.Dir)
	scanner := discover.NewNmapScanner(discoverCfg.NmapPath)
	scheduler := discover.NewScheduler(discoverCfg, scanner, graphClient, tenantID)

	eventBus, err := events.NewKafkaEventBus(toKafkaConfig(cfg.Kafka))
	if err != nil {
		log.Fatalf("discover: failed to create event bus: %v", err)
	}
	defer eventBus.Close()
	scheduler = scheduler.WithEventBus(eventBus)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("discover: shutting down")
		cancel()
	}()

	log.Printf("discover: scheduling %d subnet(s)", len(discoverCfg.Subnets))
	scheduler.Run(ctx)
}

func toDiscoverConfig(c config.DiscoveryConfig, engramDir string) discover.Config {
	subnets := make([]discover.SubnetSchedule, len(c.Subnets))
	for i, s := range c.Subnets {
		subnets[i] = discover.SubnetSchedule{
			CIDR:        s.CIDR,
			Name:        s.Name,
			Profile:     discover.ScanProfile(s.Profile),
			IntervalSec: s.IntervalSec,
			Enabled:     s.Enabled,
		}
	}
	return discover.Config{
		NmapPath:            c.NmapPath,
		DefaultProfile:      discover.ScanProfile(c.DefaultProfile),
		Subnets:             subnets,
		StaleThresholdHours: c.StaleThresholdHours,
		EngramDir:           engramDir,
		MaxConcurrentScans:  c.MaxConcurrentScans,
	}
}

// toKafkaConfig overlays the configured brokers, client id, compression and
// SASL credentials onto the event bus's own tuning defaults (batch sizes,
// timeouts, offsets) — this command has no opinion on those.
func toKafkaConfig(c config.KafkaConfig) events.KafkaConfig {
	kc := events.DefaultKafkaConfig()
	kc.Brokers = c.BootstrapServers
	kc.ClientID = c.ClientID
	if c.CompressionType != "" {
		kc.CompressionType = c.CompressionType
	}
	kc.SASLMechanism = c.Security.SASLMechanism
	kc.SASLUsername = c.Security.SASLUsername
	kc.SASLPassword = c.Security.SASLPassword
	return kc
}

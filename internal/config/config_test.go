package config

import "testing"

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Tenant.DefaultTenantID = "11111111-1111-1111-1111-111111111111"
	return cfg
}

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got: %v", err)
	}
}

func TestValidate_MissingTenantID(t *testing.T) {
	cfg := validConfig()
	cfg.Tenant.DefaultTenantID = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing default_tenant_id")
	}
}

func TestValidate_MissingKafkaBrokers(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.BootstrapServers = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing kafka brokers")
	}
}

func TestValidate_InvalidNeo4jURI(t *testing.T) {
	cfg := validConfig()
	cfg.Neo4j.URI = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty neo4j uri")
	}
}

func TestValidate_PathfindDecayFactorOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Pathfind.DecayFactor = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for decay_factor > 1")
	}
}

func TestValidate_DiscoveryRequiresNmapWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.FeatureFlags.NetworkDiscovery = true
	cfg.Discovery.NmapPath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing nmap_path with discovery enabled")
	}
}

func TestValidate_DiscoverySkippedWhenDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.FeatureFlags.NetworkDiscovery = false
	cfg.Discovery.NmapPath = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error when discovery is disabled, got: %v", err)
	}
}

func TestIsFeatureEnabled(t *testing.T) {
	cfg := validConfig()
	if !cfg.IsFeatureEnabled("lateral_movement_detection") {
		t.Error("expected lateral_movement_detection to be enabled by default")
	}
	if cfg.IsFeatureEnabled("unknown_flag") {
		t.Error("expected unknown flag to resolve to false")
	}
}

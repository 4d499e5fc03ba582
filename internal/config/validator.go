package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}

	if err := c.validateTenant(); err != nil {
		return fmt.Errorf("tenant config error: %v", err)
	}

	if err := c.validateKafka(); err != nil {
		return fmt.Errorf("kafka config error: %v", err)
	}

	if err := c.validateNeo4j(); err != nil {
		return fmt.Errorf("neo4j config error: %v", err)
	}

	if err := c.validatePathfind(); err != nil {
		return fmt.Errorf("pathfind config error: %v", err)
	}

	if err := c.validateDiscovery(); err != nil {
		return fmt.Errorf("discovery config error: %v", err)
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config error: %v", err)
	}

	return nil
}

func (c *Config) validateTenant() error {
	if c.Tenant.DefaultTenantID == "" {
		return fmt.Errorf("default_tenant_id is required")
	}
	return nil
}

func (c *Config) validateKafka() error {
	if len(c.Kafka.BootstrapServers) == 0 {
		return fmt.Errorf("bootstrap_servers is required")
	}

	for _, server := range c.Kafka.BootstrapServers {
		if !strings.Contains(server, ":") {
			return fmt.Errorf("invalid bootstrap server format: %s (expected host:port)", server)
		}
	}

	if c.Kafka.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}

	if c.Kafka.Security.SASLMechanism != "" && c.Kafka.Security.SASLMechanism != "PLAIN" &&
		c.Kafka.Security.SASLMechanism != "SCRAM-SHA-256" && c.Kafka.Security.SASLMechanism != "SCRAM-SHA-512" {
		return fmt.Errorf("invalid sasl_mechanism: %s", c.Kafka.Security.SASLMechanism)
	}

	return nil
}

func (c *Config) validateNeo4j() error {
	if c.Neo4j.URI == "" {
		return fmt.Errorf("uri is required")
	}

	if _, err := url.Parse(c.Neo4j.URI); err != nil {
		return fmt.Errorf("invalid uri format: %v", err)
	}

	if c.Neo4j.Username == "" {
		return fmt.Errorf("username is required")
	}

	if c.Neo4j.MaxConnectionPoolSize <= 0 {
		return fmt.Errorf("max_connection_pool_size must be greater than 0")
	}

	return nil
}

func (c *Config) validatePathfind() error {
	if c.Pathfind.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be greater than 0")
	}

	if c.Pathfind.MaxPaths <= 0 {
		return fmt.Errorf("max_paths must be greater than 0")
	}

	if c.Pathfind.MinExploitability < 0 || c.Pathfind.MinExploitability > 1 {
		return fmt.Errorf("min_exploitability must be between 0 and 1")
	}

	if c.Pathfind.DecayFactor <= 0 || c.Pathfind.DecayFactor > 1 {
		return fmt.Errorf("decay_factor must be between 0 and 1")
	}

	if c.Pathfind.MaxScore <= 0 {
		return fmt.Errorf("max_score must be greater than 0")
	}

	return nil
}

func (c *Config) validateDiscovery() error {
	if !c.FeatureFlags.NetworkDiscovery {
		return nil
	}

	if c.Discovery.NmapPath == "" {
		return fmt.Errorf("nmap_path is required when network_discovery is enabled")
	}

	for _, subnet := range c.Discovery.Subnets {
		if subnet.CIDR == "" {
			return fmt.Errorf("subnet cidr is required")
		}
	}

	if c.Discovery.MaxConcurrentScans <= 0 {
		return fmt.Errorf("max_concurrent_scans must be greater than 0")
	}

	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

	if !validLevels[level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}

	format := strings.ToLower(c.Logging.Format)
	validFormats := map[string]bool{"json": true, "text": true}

	if !validFormats[format] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", format)
	}

	output := strings.ToLower(c.Logging.Output)
	validOutputs := map[string]bool{"stdout": true, "file": true, "both": true}

	if !validOutputs[output] {
		return fmt.Errorf("invalid log output: %s (must be stdout, file, or both)", output)
	}

	if (output == "file" || output == "both") && c.Logging.File.Path == "" {
		return fmt.Errorf("file path is required when output is file or both")
	}

	return nil
}

// IsFeatureEnabled checks if a feature flag is enabled
func (c *Config) IsFeatureEnabled(feature string) bool {
	switch feature {
	case "lateral_movement_detection":
		return c.FeatureFlags.LateralMovementDetection
	case "blast_radius_analysis":
		return c.FeatureFlags.BlastRadiusAnalysis
	case "network_discovery":
		return c.FeatureFlags.NetworkDiscovery
	case "engram_recording":
		return c.FeatureFlags.EngramRecording
	default:
		return false
	}
}

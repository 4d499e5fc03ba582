package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Sentinel service configuration: a tenant
// identity, the graph and cache backends, the discovery and pathfind
// domain settings, and the usual ambient stack (logging, metrics, health,
// tracing, feature flags).
type Config struct {
	Version      string             `yaml:"version"`
	Tenant       TenantConfig       `yaml:"tenant"`
	Neo4j        Neo4jConfig        `yaml:"neo4j"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Redis        RedisConfig        `yaml:"redis"`
	Discovery    DiscoveryConfig    `yaml:"discovery"`
	Pathfind     PathfindConfig     `yaml:"pathfind"`
	Engram       EngramConfig       `yaml:"engram"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Health       HealthConfig       `yaml:"health"`
	Tracing      TracingConfig      `yaml:"tracing"`
	FeatureFlags FeatureFlagsConfig `yaml:"feature_flags"`
}

// TenantConfig identifies the tenant a single-tenant deployment of a
// Sentinel service operates on.
type TenantConfig struct {
	DefaultTenantID string `yaml:"default_tenant_id"`
}

type Neo4jConfig struct {
	URI                   string `yaml:"uri"`
	Username              string `yaml:"username"`
	Password              string `yaml:"password"`
	MaxConnectionPoolSize int    `yaml:"max_connection_pool_size"`
	Encryption            bool   `yaml:"encryption"`
	TrustStrategy         string `yaml:"trust_strategy"`
}

type KafkaConfig struct {
	BootstrapServers []string            `yaml:"bootstrap_servers"`
	ClientID         string              `yaml:"client_id"`
	CompressionType  string              `yaml:"compression_type"`
	Security         KafkaSecurityConfig `yaml:"security"`
}

type KafkaSecurityConfig struct {
	SASLMechanism string `yaml:"sasl_mechanism"`
	SASLUsername  string `yaml:"sasl_username"`
	SASLPassword  string `yaml:"sasl_password"`
	SSLEnabled    bool   `yaml:"ssl_enabled"`
	SSLCACertPath string `yaml:"ssl_ca_cert_path"`
}

// RedisConfig configures the path cache's backing store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DiscoveryConfig configures the network scanner: nmap location, the scan
// profile schedule per subnet, and staleness/concurrency tuning.
type DiscoveryConfig struct {
	NmapPath            string                  `yaml:"nmap_path"`
	DefaultProfile      string                  `yaml:"default_profile"`
	Subnets             []DiscoverySubnetConfig `yaml:"subnets"`
	StaleThresholdHours int                     `yaml:"stale_threshold_hours"`
	MaxConcurrentScans  int                     `yaml:"max_concurrent_scans"`
}

type DiscoverySubnetConfig struct {
	CIDR        string `yaml:"cidr"`
	Name        string `yaml:"name"`
	Profile     string `yaml:"profile"`
	IntervalSec int    `yaml:"interval_sec"`
	Enabled     bool   `yaml:"enabled"`
}

// PathfindConfig tunes attack-path enumeration and risk scoring.
type PathfindConfig struct {
	MaxDepth              int     `yaml:"max_depth"`
	MaxPaths              int     `yaml:"max_paths"`
	NodeLimit             uint32  `yaml:"node_limit"`
	MinExploitability     float64 `yaml:"min_exploitability"`
	BlastMaxHops          int     `yaml:"blast_max_hops"`
	DecayFactor           float64 `yaml:"decay_factor"`
	MaxScore              float64 `yaml:"max_score"`
	DefaultExploitability float64 `yaml:"default_exploitability"`
}

// EngramConfig points at the filesystem root where sealed reasoning
// sessions are stored.
type EngramConfig struct {
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Level  string        `yaml:"level"`
	Format string        `yaml:"format"`
	Output string        `yaml:"output"`
	File   FileLogConfig `yaml:"file"`
}

type FileLogConfig struct {
	Path       string `yaml:"path"`
	MaxSize    string `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     string `yaml:"max_age"`
}

type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Port         int    `yaml:"port"`
	Path         string `yaml:"path"`
	PushEnabled  bool   `yaml:"push_enabled"`
	PushGateway  string `yaml:"push_gateway"`
	PushInterval string `yaml:"push_interval"`
}

type HealthConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Port          int    `yaml:"port"`
	Path          string `yaml:"path"`
	ReadinessPath string `yaml:"readiness_path"`
	LivenessPath  string `yaml:"liveness_path"`
}

type TracingConfig struct {
	Enabled bool         `yaml:"enabled"`
	Jaeger  JaegerConfig `yaml:"jaeger"`
}

type JaegerConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Sampler  SamplerConfig `yaml:"sampler"`
}

type SamplerConfig struct {
	Type  string  `yaml:"type"`
	Param float64 `yaml:"param"`
}

// FeatureFlagsConfig toggles optional pathfinding behavior per deployment.
type FeatureFlagsConfig struct {
	LateralMovementDetection bool `yaml:"lateral_movement_detection"`
	BlastRadiusAnalysis      bool `yaml:"blast_radius_analysis"`
	NetworkDiscovery         bool `yaml:"network_discovery"`
	EngramRecording          bool `yaml:"engram_recording"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	// Expand environment variables; validation is left to cfg.Validate()
	expandEnv(cfg)

	return cfg, nil
}

// expandEnv replaces ${VAR} placeholders with environment variables
func expandEnv(cfg *Config) {
	cfg.Kafka.Security.SASLPassword = os.ExpandEnv(cfg.Kafka.Security.SASLPassword)
	cfg.Neo4j.Password = os.ExpandEnv(cfg.Neo4j.Password)
	cfg.Redis.Password = os.ExpandEnv(cfg.Redis.Password)
}

// GetDuration parses a duration string
func GetDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

// DefaultConfig returns a Config with the same tuning the pathfind and
// discover engines fall back to when a value isn't set, suitable as a
// starting point before overlaying a config file.
func DefaultConfig() Config {
	return Config{
		Version: "1",
		Neo4j: Neo4jConfig{
			URI:                   "bolt://localhost:7687",
			Username:              "neo4j",
			MaxConnectionPoolSize: 50,
		},
		Kafka: KafkaConfig{
			BootstrapServers: []string{"localhost:9092"},
			ClientID:         "sentinel",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Discovery: DiscoveryConfig{
			NmapPath:            "nmap",
			DefaultProfile:      "standard",
			StaleThresholdHours: 24,
			MaxConcurrentScans:  4,
		},
		Pathfind: PathfindConfig{
			MaxDepth:              10,
			MaxPaths:              100,
			NodeLimit:             50_000,
			MinExploitability:     0.3,
			BlastMaxHops:          5,
			DecayFactor:           0.9,
			MaxScore:              10.0,
			DefaultExploitability: 0.5,
		},
		Engram: EngramConfig{
			Dir: "./engrams",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		FeatureFlags: FeatureFlagsConfig{
			LateralMovementDetection: true,
			BlastRadiusAnalysis:      true,
			NetworkDiscovery:         true,
			EngramRecording:          true,
		},
	}
}

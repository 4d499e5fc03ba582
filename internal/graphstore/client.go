// Package graphstore is the graph access layer: the sole component
// permitted to issue queries against the property-graph store. Every read
// is filtered by tenant_id and every write is tagged with it; no other
// package in this module holds a graph driver handle.
package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config holds connection parameters for the backing graph store.
type Config struct {
	URI                   string
	Username              string
	Password              string
	MaxConnectionPoolSize int
	FetchSize             int
}

// DefaultConfig matches the reference deployment's defaults.
func DefaultConfig() Config {
	return Config{
		URI:                   "bolt://localhost:7687",
		Username:              "neo4j",
		Password:              "sentinel-dev",
		MaxConnectionPoolSize: 16,
		FetchSize:             256,
	}
}

// Client wraps a neo4j driver and is the single mutation/query point for
// the knowledge graph. All Cypher is built here; no other package may
// formulate its own queries.
type Client struct {
	driver neo4j.DriverWithContext
	config Config
}

// NewClient connects to the graph store and verifies connectivity.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
			c.MaxConnectionLifetime = time.Hour
		},
	)
	if err != nil {
		return nil, fmt.Errorf("graphstore: create driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		return nil, fmt.Errorf("graphstore: verify connectivity: %w", err)
	}

	return &Client{driver: driver, config: cfg}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
}

func (c *Client) readSession(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
}

// run executes an auto-commit write query and discards its result, matching
// the driver's run-then-ignore-result idiom used throughout this package.
func (c *Client) run(ctx context.Context, cypher string, params map[string]any) error {
	session := c.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.Run(ctx, cypher, params)
	return err
}

// queryRows runs a read query and collects every record.
func (c *Client) queryRows(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := c.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

// queryOne runs a read query and returns its single record, or nil if the
// query produced no rows.
func (c *Client) queryOne(ctx context.Context, cypher string, params map[string]any) (*neo4j.Record, error) {
	rows, err := c.queryRows(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// startTxn begins an explicit write transaction for batch operations.
func (c *Client) startTxn(ctx context.Context) (neo4j.SessionWithContext, neo4j.ExplicitTransaction, error) {
	session := c.writeSession(ctx)
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		session.Close(ctx)
		return nil, nil, err
	}
	return session, tx, nil
}

// Command pathfind runs the attack-path computation engine as a subprocess:
// one invocation, one subcommand, JSON on stdin and stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/securizon/sentinel/internal/config"
	"github.com/securizon/sentinel/internal/graphstore"
	"github.com/securizon/sentinel/internal/graphtypes"
	cache "github.com/securizon/sentinel/internal/pathcache"
	"github.com/securizon/sentinel/internal/pathfind"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: pathfind compute|blast-radius|shortest [flags]")
		os.Exit(2)
	}
	subcommand := os.Args[1]

	fs := flag.NewFlagSet(subcommand, flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	source := fs.String("source", "", "shortest: source node id")
	target := fs.String("target", "", "shortest: target node id")
	tenantIDFlag := fs.String("tenant-id", "", "shortest: tenant uuid (defaults to config's default_tenant_id)")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("pathfind: failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("pathfind: invalid config: %v", err)
	}

	ctx := context.Background()

	graphClient, err := graphstore.NewClient(ctx, graphstore.Config{
		URI:                   cfg.Neo4j.URI,
		Username:              cfg.Neo4j.Username,
		Password:              cfg.Neo4j.Password,
		MaxConnectionPoolSize: cfg.Neo4j.MaxConnectionPoolSize,
		FetchSize:             256,
	})
	if err != nil {
		log.Fatalf("pathfind: failed to connect to graph store: %v", err)
	}
	defer graphClient.Close(ctx)

	engine := pathfind.NewEngine(graphClient).WithScoringConfig(pathfind.ScoringConfig{
		DecayFactor:           cfg.Pathfind.DecayFactor,
		MaxScore:              cfg.Pathfind.MaxScore,
		DefaultExploitability: cfg.Pathfind.DefaultExploitability,
	})
	if cfg.FeatureFlags.EngramRecording {
		engine = engine.WithEngramDir(cfg.Engram.Dir)
	}

	pathCache := cache.NewPathCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	switch subcommand {
	case "compute":
		runCompute(ctx, engine, pathCache)
	case "blast-radius":
		runBlastRadius(ctx, engine)
	case "shortest":
		runShortest(ctx, engine, cfg, *source, *target, *tenantIDFlag)
	default:
		fmt.Fprintf(os.Stderr, "pathfind: unknown subcommand %q\n", subcommand)
		os.Exit(2)
	}
}

func runCompute(ctx context.Context, engine *pathfind.Engine, pathCache *cache.PathCache) {
	var req pathfind.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		log.Fatalf("pathfind: failed to parse PathfindRequest from stdin: %v", err)
	}

	var result *pathfind.Result
	var err error
	if !req.IncludeLateral && !req.IncludeBlast {
		key := cache.PathCacheKey(req.TenantID, req.Sources, req.Targets,
			intOrDefault(req.MaxDepth, 10), intOrDefault(req.MaxPaths, 100))
		result, err = pathCache.GetOrCompute(ctx, key, func() (*pathfind.Result, error) {
			return engine.ComputeAttackPaths(ctx, req)
		})
	} else {
		result, err = engine.ComputeAttackPaths(ctx, req)
	}
	if err != nil {
		log.Fatalf("pathfind: compute failed: %v", err)
	}

	writeResult(result)
}

func runBlastRadius(ctx context.Context, engine *pathfind.Engine) {
	var req pathfind.BlastRadiusRequest
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		log.Fatalf("pathfind: failed to parse BlastRadiusRequest from stdin: %v", err)
	}

	result, err := engine.ComputeBlastRadius(ctx, req)
	if err != nil {
		log.Fatalf("pathfind: blast-radius failed: %v", err)
	}

	writeResult(result)
}

func runShortest(ctx context.Context, engine *pathfind.Engine, cfg *config.Config, sourceFlag, targetFlag, tenantIDFlag string) {
	if sourceFlag == "" || targetFlag == "" {
		log.Fatal("pathfind: shortest requires --source and --target")
	}

	if tenantIDFlag == "" {
		tenantIDFlag = cfg.Tenant.DefaultTenantID
	}
	tenantID, err := graphtypes.ParseTenantId(tenantIDFlag)
	if err != nil {
		log.Fatalf("pathfind: invalid --tenant-id: %v", err)
	}
	sourceID, err := graphtypes.ParseNodeId(sourceFlag)
	if err != nil {
		log.Fatalf("pathfind: invalid --source: %v", err)
	}
	targetID, err := graphtypes.ParseNodeId(targetFlag)
	if err != nil {
		log.Fatalf("pathfind: invalid --target: %v", err)
	}

	path, err := engine.ShortestPath(ctx, tenantID, sourceID, targetID)
	if err != nil {
		log.Fatalf("pathfind: shortest failed: %v", err)
	}

	writeResult(path)
}

func writeResult(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		log.Fatalf("pathfind: failed to encode result: %v", err)
	}
}

func intOrDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

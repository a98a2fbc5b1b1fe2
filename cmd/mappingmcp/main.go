// Package main implements mappingmcp, a read-only Model Context Protocol
// server exposing a finished pipeline run's mapping collections as query
// tools over stdio.
//
// Environment variables:
//   - SEMRA_RUN_ID: the run whose artifacts this server serves (required)
//   - SEMRA_STORE_TYPE, SEMRA_STORE_SQLITE_PATH, SEMRA_STORE_SQLITE_TIMEOUT:
//     select the artifact store the run was persisted to (see
//     internal/store.ConfigFromEnv)
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/store"
)

func main() {
	if os.Getenv("DEBUG") == "true" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	runID := os.Getenv("SEMRA_RUN_ID")
	if runID == "" {
		log.Fatal("SEMRA_RUN_ID must be set to the run this server serves")
	}

	st, err := store.NewFromEnv()
	if err != nil {
		log.Fatalf("failed to initialize artifact store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("warning: failed to close artifact store: %v", err)
		}
	}()

	ctx := context.Background()
	runner, err := loadRunner(ctx, st, runID)
	if err != nil {
		log.Fatalf("failed to load run %q: %v", runID, err)
	}
	log.Printf("loaded run %s: %d processed, %d priority mappings", runID, runner.processed.Len(), runner.priority.Len())

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "semra-mapping-server",
		Version: "1.0.0",
	}, nil)
	runner.registerTools(mcpServer)

	transport := &mcp.StdioTransport{}
	log.Println("starting mappingmcp server...")
	if err := mcpServer.Run(ctx, transport); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// runner holds one run's loaded collections, indexed for query tools.
type runner struct {
	runID     string
	processed *mapping.Index
	priority  *mapping.Index
}

func loadRunner(ctx context.Context, st store.Store, runID string) (*runner, error) {
	processed, err := st.LoadCollection(ctx, runID, store.StageProcessed)
	if err != nil {
		return nil, fmt.Errorf("loading processed stage: %w", err)
	}
	priority, err := st.LoadCollection(ctx, runID, store.StagePriority)
	if err != nil {
		return nil, fmt.Errorf("loading priority stage: %w", err)
	}
	if processed == nil && priority == nil {
		return nil, fmt.Errorf("no artifacts found for run %q", runID)
	}
	return &runner{
		runID:     runID,
		processed: mapping.NewIndex(processed),
		priority:  mapping.NewIndex(priority),
	}, nil
}

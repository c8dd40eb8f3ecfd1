/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Space Governance Engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Load the rule set (file, database, or built-in defaults)
  4. Wire domain services and the API handler
  5. Start the arrears reminder sweep
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: space.db)
           Use ":memory:" for in-memory database
  -rules   Optional rule-set file (.yaml/.yml/.json); overrides the
           database copy on startup
  -sweep   Arrears sweep interval (default: 1h; 0 disables)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweep and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/space.db"

  # Run with a rule-set file
  ./server -rules="./rules.yaml"

  # Run on different port
  ./server -port=3000

ENVIRONMENT:
  REPORT_ENDPOINT  URL of the narrative-report generation service
  REPORT_API_KEY   Bearer token for that service
  When unset, report endpoints return their fallback text.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/estateops/space-engine/allocation"
	"github.com/estateops/space-engine/api"
	"github.com/estateops/space-engine/asset"
	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/factory"
	"github.com/estateops/space-engine/fee"
	"github.com/estateops/space-engine/report"
	"github.com/estateops/space-engine/rules"
	"github.com/estateops/space-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "space.db", "SQLite database path")
	rulesPath := flag.String("rules", "", "rule-set file (.yaml/.yml/.json)")
	sweepInterval := flag.Duration("sweep", time.Hour, "arrears sweep interval (0 disables)")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Rule set: file takes priority, then the database copy, then defaults.
	ruleStore := rules.NewDefaultStore()
	switch {
	case *rulesPath != "":
		snap, err := factory.LoadFile(*rulesPath)
		if err != nil {
			log.Fatalf("Failed to load rule set %s: %v", *rulesPath, err)
		}
		if err := ruleStore.Replace(snap); err != nil {
			log.Fatalf("Invalid rule set %s: %v", *rulesPath, err)
		}
		log.Printf("Loaded rule set from %s", *rulesPath)
	default:
		if snap, err := store.LoadRuleSet(ctx); err == nil {
			if err := ruleStore.Replace(snap); err != nil {
				log.Fatalf("Invalid stored rule set: %v", err)
			}
			log.Printf("Loaded rule set from database")
		} else if !core.IsNotFound(err) {
			log.Fatalf("Failed to load stored rule set: %v", err)
		}
	}
	// Keep the database copy current with whatever we start with.
	if err := store.SaveRuleSet(ctx, ruleStore.Snapshot()); err != nil {
		log.Printf("Warning: Failed to persist rule set: %v", err)
	}

	// Reporting facade: fail-soft when no endpoint is configured.
	var generator report.Generator
	if endpoint := os.Getenv("REPORT_ENDPOINT"); endpoint != "" {
		generator = &report.HTTPGenerator{
			Endpoint: endpoint,
			APIKey:   os.Getenv("REPORT_API_KEY"),
		}
	}
	reports := &report.Facade{Generator: generator}

	// Domain services
	fees := &fee.Service{Records: store.FeeRecords(), Rules: ruleStore, Audit: store}
	allocations := &allocation.Service{Requests: store.Requests(), Arrears: fees, Audit: store}
	assets := &asset.Service{Projects: store.Projects(), Audit: store}

	// Initialize handler
	handler := api.NewHandler(ruleStore, fees, allocations, assets, reports, store)
	handler.Resetter = store

	// Arrears reminder sweep
	sweep := api.NewArrearsSweep(fees)
	if *sweepInterval > 0 {
		sweep.CheckInterval = *sweepInterval
		sweep.Start()
		defer sweep.Stop()
	}

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

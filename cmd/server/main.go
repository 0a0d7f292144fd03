/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the SLA tracking server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Load stored configuration (or fall back to the standard presets)
  4. Configure HTTP router
  5. Start the SLA sweep
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: helpdesk.db)
             Use ":memory:" for an in-memory database
  -timezone  Calendar timezone when no stored config exists (default: UTC)
  -sweep     Sweep interval (default: 5m; 0 disables the sweep)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the sweep
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/helpdesk.db"

  # Run with in-memory database and a New York calendar
  ./server -db=":memory:" -timezone="America/New_York"

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

	"github.com/warp/sla-engine/api"
	"github.com/warp/sla-engine/helpdesk"
	"github.com/warp/sla-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "helpdesk.db", "SQLite database path")
	timezone := flag.String("timezone", "UTC", "calendar timezone for the default configuration")
	sweepInterval := flag.Duration("sweep", 5*time.Minute, "SLA sweep interval (0 disables)")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Default configuration: standard tiered policies against a nine-to-five
	// calendar. Replaced by the stored document when one exists.
	calendar, err := helpdesk.NineToFiveCalendar(*timezone, helpdesk.USFederalHolidays())
	if err != nil {
		log.Fatalf("Failed to build default calendar: %v", err)
	}

	handler := api.NewHandler(store, helpdesk.StandardSupportPolicies(), calendar)
	if err := handler.LoadConfig(context.Background()); err != nil {
		log.Printf("Warning: failed to load stored config, using defaults: %v", err)
	}

	// Create router
	router := api.NewRouter(handler)

	// Start the sweep
	sweep := api.NewSLASweep(store, handler)
	if *sweepInterval > 0 {
		sweep.CheckInterval = *sweepInterval
	} else {
		sweep.Enabled = false
	}
	sweep.Start()
	defer sweep.Stop()

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
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

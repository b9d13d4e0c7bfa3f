/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env, parse command-line flags, load config
  2. Build the zap logger
  3. Load rate tables (compiled-in or from a document)
  4. Open the payslip archive
  5. Create API handler and router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config        YAML config file (optional)
  -env           .env file (default: .env, missing is fine)
  -port          HTTP server port, overrides server.addr
  -db            SQLite database path, overrides storage.db_path
                 Use ":memory:" for an in-memory database
  -tables        Rate-table document, overrides tables.path
  -print-tables  Print the active rate tables as YAML and exit

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/payroll.db"

  # Run with newer tables
  ./server -tables=./config/tables-2018.yaml

  # Start a table document from the compiled-in values
  ./server -print-tables > tables.yaml

ENVIRONMENT:
  PAYROLL_ADDR, PAYROLL_DB_PATH, PAYROLL_STORAGE_DRIVER, PAYROLL_LOG_LEVEL,
  PAYROLL_LOG_DEVELOPMENT, PAYROLL_TABLES_PATH,
  PAYROLL_SOCIAL_SECURITY_POLICY, PAYROLL_ALLOWED_ORIGINS,
  PAYROLL_SHUTDOWN_TIMEOUT, PAYROLL_EMPLOYER_HEADER ("line1|line2|line3")

SEE ALSO:
  - config/config.go: Configuration
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Archive implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payslip"
	"github.com/warp/payroll-engine/render"
	"github.com/warp/payroll-engine/store/memory"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/taxes"
	"go.uber.org/zap"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	envPath := flag.String("env", ".env", ".env file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	tablesPath := flag.String("tables", "", "Rate-table document (overrides config)")
	printTables := flag.Bool("print-tables", false, "Print the active rate tables as YAML and exit")
	flag.Parse()

	if err := config.LoadEnvFile(*envPath); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Addr = fmt.Sprintf(":%d", *port)
	}
	if *dbPath != "" {
		cfg.Storage.DBPath = *dbPath
	}
	if *tablesPath != "" {
		cfg.Tables.Path = *tablesPath
	}

	schedule, err := loadSchedule(cfg.Tables)
	if err != nil {
		log.Fatalf("Failed to load rate tables: %v", err)
	}

	if *printTables {
		if err := writeTables(os.Stdout, schedule); err != nil {
			log.Fatalf("Failed to print rate tables: %v", err)
		}
		return
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Initialize archive
	archive, closeArchive, err := openArchive(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialize archive", zap.Error(err))
	}
	defer closeArchive()

	// Initialize handler
	renderer := render.NewPDFRenderer(render.Options{LeftHeader: cfg.EmployerHeader()})
	handler := api.NewHandler(archive, schedule, renderer, logger)

	// Create router
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("tables", tablesSource(cfg.Tables)),
			zap.String("social_security_policy", string(schedule.SocialSecurity.Policy)),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}

// loadSchedule builds the schedule from the configured document, or the
// compiled-in tables when none is set. The configured policy wins over the
// document's.
func loadSchedule(tc config.TablesConfig) (*taxes.Schedule, error) {
	f := factory.NewScheduleFactory()

	var doc factory.ScheduleDocument
	if tc.Path != "" {
		var err error
		if doc, err = f.ReadFile(tc.Path); err != nil {
			return nil, err
		}
	}
	if tc.SocialSecurityPolicy != "" {
		doc.SocialSecurityPolicy = tc.SocialSecurityPolicy
	}
	return f.Build(doc)
}

func openArchive(sc config.StorageConfig) (payslip.Archive, func(), error) {
	if sc.Driver == "memory" {
		return memory.NewArchive(), func() {}, nil
	}
	store, err := sqlite.New(sc.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func writeTables(w io.Writer, schedule *taxes.Schedule) error {
	f := factory.NewScheduleFactory()
	data, err := f.EncodeYAML(f.Export(schedule))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func tablesSource(tc config.TablesConfig) string {
	if tc.Path == "" {
		return "compiled-in"
	}
	return tc.Path
}
